package site

import (
	"time"

	"git.home.luguber.info/inful/tripsite/internal/feed"
	"git.home.luguber.info/inful/tripsite/internal/linkcheck"
	"git.home.luguber.info/inful/tripsite/internal/metrics"
	"git.home.luguber.info/inful/tripsite/internal/state"
)

// Report captures the result of one build run.
type Report struct {
	BuildID        string
	Start          time.Time
	End            time.Time
	Outcome        metrics.BuildOutcome
	StageDurations map[string]time.Duration
	Errors         []error // fatal or cancellation errors
	Warnings       []error

	Assets    int
	Items     int
	Pages     int
	Fallbacks int // pages rendered from another language
	Feeds     []feed.Result
	Links     linkcheck.Report
	Diff      *state.Diff
	Revision  state.Revision // project checkout, zero outside git
	Output    string
}

func newReport(buildID string, start time.Time) *Report {
	return &Report{
		BuildID:        buildID,
		Start:          start,
		StageDurations: map[string]time.Duration{},
	}
}

func (r *Report) addStageError(se *StageError) {
	if se.Kind == StageErrorWarning {
		r.Warnings = append(r.Warnings, se)
		return
	}
	r.Errors = append(r.Errors, se)
}

// finish stamps the end time and derives the outcome.
func (r *Report) finish(end time.Time) {
	r.End = end
	r.Outcome = r.deriveOutcome()
}

func (r *Report) deriveOutcome() metrics.BuildOutcome {
	for _, err := range r.Errors {
		if se, ok := err.(*StageError); ok && se.Kind == StageErrorCanceled {
			return metrics.OutcomeCanceled
		}
	}
	switch {
	case len(r.Errors) > 0:
		return metrics.OutcomeFailed
	case len(r.Warnings) > 0:
		return metrics.OutcomeWarning
	default:
		return metrics.OutcomeSuccess
	}
}

// Duration is the wall time of the build.
func (r *Report) Duration() time.Duration { return r.End.Sub(r.Start) }

// Succeeded reports whether output was produced.
func (r *Report) Succeeded() bool {
	return r.Outcome == metrics.OutcomeSuccess || r.Outcome == metrics.OutcomeWarning
}
