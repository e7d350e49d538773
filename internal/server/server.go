// Package server serves the generated site for local preview. It rebuilds
// when sources change or on a cron schedule, redirects the root to the
// visitor's preferred language and exposes build metrics.
package server

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/tripsite/internal/foundation/errors"
	"git.home.luguber.info/inful/tripsite/internal/i18n"
	"git.home.luguber.info/inful/tripsite/internal/logfields"
	"git.home.luguber.info/inful/tripsite/internal/metrics"
	"git.home.luguber.info/inful/tripsite/internal/server/middleware"
	"git.home.luguber.info/inful/tripsite/internal/site"
)

// Rebuild triggers.
const (
	TriggerStartup  = "startup"
	TriggerWatch    = "watch"
	TriggerSchedule = "schedule"
)

const defaultDebounce = 300 * time.Millisecond

// Builder is the part of site.Builder the server drives.
type Builder interface {
	Build(ctx context.Context) (*site.Report, error)
	OutputDir() string
}

// Options configures a Server.
type Options struct {
	Addr           string
	DetectLanguage bool
	// WatchDirs are watched recursively; empty disables watching.
	WatchDirs []string
	// Schedule is a cron expression for periodic rebuilds.
	Schedule string
	Debounce time.Duration

	// Registry, when set, is served on /metrics.
	Registry *prom.Registry
	Recorder metrics.Recorder
	Logger   *slog.Logger
}

// Status describes the most recent build for /_status.
type Status struct {
	BuildID    string    `json:"build_id,omitempty"`
	Outcome    string    `json:"outcome,omitempty"`
	Trigger    string    `json:"trigger,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Error      string    `json:"error,omitempty"`
	Builds     int       `json:"builds"`
	// Ready is true once any build produced output.
	Ready bool `json:"ready"`
}

// Server serves the output directory and keeps it fresh.
type Server struct {
	builder Builder
	paths   *i18n.Paths
	matcher *i18n.Matcher
	opts    Options

	buildMu sync.Mutex // serializes builds

	mu     sync.RWMutex
	status Status
}

// New creates a server for builder. paths supplies the language layout used
// for root redirects.
func New(builder Builder, paths *i18n.Paths, opts Options) *Server {
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Server{
		builder: builder,
		paths:   paths,
		matcher: i18n.NewMatcher(paths),
		opts:    opts,
	}
}

// Status returns a snapshot of the last build.
func (s *Server) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Rebuild runs one build. Concurrent calls are serialized.
func (s *Server) Rebuild(ctx context.Context, trigger string) error {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	s.opts.Recorder.IncRebuild(trigger)
	s.opts.Logger.Info("Rebuilding site", logfields.Trigger(trigger))
	report, err := s.builder.Build(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Builds++
	s.status.Trigger = trigger
	s.status.FinishedAt = time.Now()
	s.status.Error = ""
	if report != nil {
		s.status.BuildID = report.BuildID
		s.status.Outcome = string(report.Outcome)
		if report.Succeeded() {
			s.status.Ready = true
		}
	}
	if err != nil {
		s.status.Error = err.Error()
		s.opts.Logger.Warn("Rebuild failed", logfields.Trigger(trigger), logfields.Error(err))
	}
	return err
}

// Handler returns the HTTP handler for the preview server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.opts.Registry != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(s.opts.Registry))
	}
	mux.HandleFunc("/_status", s.handleStatus)
	mux.Handle("/", s.siteHandler())
	return middleware.Chain(s.opts.Logger)(mux)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.Status())
}

func (s *Server) siteHandler() http.Handler {
	files := http.FileServer(http.Dir(s.builder.OutputDir()))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if st := s.Status(); !st.Ready && st.Builds > 0 {
			http.Error(w, "site has not been built: "+st.Error, http.StatusServiceUnavailable)
			return
		}
		if r.URL.Path == "/" && s.opts.DetectLanguage {
			w.Header().Add("Vary", "Accept-Language")
			if header := r.Header.Get("Accept-Language"); header != "" {
				lang := s.matcher.Match(header)
				if lang != s.paths.DefaultLanguage() {
					http.Redirect(w, r, s.paths.TranslatedPath("/", lang), http.StatusFound)
					return
				}
			}
		}
		files.ServeHTTP(w, r)
	})
}

// Run builds once, then serves until ctx is canceled, rebuilding on source
// changes and on the configured schedule.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Rebuild(ctx, TriggerStartup); err != nil && ctx.Err() != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to listen").
			Fatal().
			WithContext("addr", s.opts.Addr).
			Build()
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(ln); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	s.opts.Logger.Info("Preview server listening", logfields.URL("http://"+ln.Addr().String()))

	requests := make(chan string, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.rebuildWorker(ctx, requests)
	}()

	// Producers stop before requests is closed.
	var stops []func()
	var events <-chan watchEvent
	if len(s.opts.WatchDirs) > 0 {
		w, err := newWatcher(s.opts.WatchDirs, s.opts.Debounce, s.opts.Logger)
		if err != nil {
			s.opts.Logger.Warn("File watching disabled", logfields.Error(err))
		} else {
			stops = append(stops, func() { _ = w.Close() })
			events = w.Run(ctx)
		}
	}

	if s.opts.Schedule != "" {
		sched, err := newScheduler(s.opts.Schedule, func() { request(requests, TriggerSchedule) })
		if err != nil {
			s.opts.Logger.Warn("Scheduled rebuilds disabled", logfields.Error(err))
		} else {
			sched.Start()
			stops = append(stops, func() { _ = sched.Stop() })
		}
	}

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			s.opts.Logger.Debug("Source change detected", logfields.Path(ev.Path), logfields.Count(ev.Changes))
			request(requests, TriggerWatch)
		case err, ok := <-serveErr:
			if ok {
				runErr = errors.WrapError(err, errors.CategoryRuntime, "preview server stopped").Build()
			}
			break loop
		}
	}

	s.opts.Logger.Info("Shutting down preview server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.opts.Logger.Warn("HTTP server shutdown error", logfields.Error(err))
	}
	for _, stop := range stops {
		stop()
	}
	close(requests)
	wg.Wait()
	return runErr
}

// request queues a rebuild unless one is already waiting.
func request(requests chan<- string, trigger string) {
	select {
	case requests <- trigger:
	default:
	}
}

func (s *Server) rebuildWorker(ctx context.Context, requests <-chan string) {
	for trigger := range requests {
		if ctx.Err() != nil {
			continue
		}
		_ = s.Rebuild(ctx, trigger)
	}
}
