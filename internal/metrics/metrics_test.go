package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

var _ Recorder = NoopRecorder{}
var _ Recorder = (*PrometheusRecorder)(nil)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveStageDuration("content", 150*time.Millisecond)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncStageResult("content", ResultSuccess)
	pr.IncStageResult("content", ResultSuccess)
	pr.IncBuildOutcome(OutcomeSuccess)
	pr.SetContentItems("blog", "es", 4)
	pr.SetContentItems("blog", "es", 5)
	pr.SetFeedItems("en", 2)
	pr.AddBrokenLinks(3)
	pr.AddBrokenLinks(-1)
	pr.IncRebuild("watch")

	require.InDelta(t, 2, testutil.ToFloat64(pr.stageResults.WithLabelValues("content", "success")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(pr.buildOutcome.WithLabelValues("success")), 0)
	require.InDelta(t, 5, testutil.ToFloat64(pr.contentItems.WithLabelValues("blog", "es")), 0)
	require.InDelta(t, 2, testutil.ToFloat64(pr.feedItems.WithLabelValues("en")), 0)
	require.InDelta(t, 3, testutil.ToFloat64(pr.brokenLinks), 0)
	require.InDelta(t, 1, testutil.ToFloat64(pr.rebuilds.WithLabelValues("watch")), 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, mfs)
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	require.NotPanics(t, func() {
		pr.ObserveStageDuration("x", time.Second)
		pr.IncBuildOutcome(OutcomeFailed)
		pr.SetFeedItems("es", 1)
	})
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncBuildOutcome(OutcomeWarning)

	srv := httptest.NewServer(HTTPHandler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `tripsite_build_outcomes_total{outcome="warning"} 1`)
}
