package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	ferrors "git.home.luguber.info/inful/tripsite/internal/foundation/errors"
	"git.home.luguber.info/inful/tripsite/internal/logfields"
	"git.home.luguber.info/inful/tripsite/internal/metrics"
)

// StageName identifies a pipeline stage.
type StageName string

const (
	StagePrepareOutput StageName = "prepare_output"
	StageAssets        StageName = "assets"
	StageContent       StageName = "content"
	StagePages         StageName = "pages"
	StageFeeds         StageName = "feeds"
	StageLinkCheck     StageName = "linkcheck"
	StagePromote       StageName = "promote"
	StageState         StageName = "state"
)

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func newWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}

func newCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// classify turns a raw stage error into a StageError. Classified errors with
// warning severity do not abort the build.
func classify(stage StageName, err error) *StageError {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return newCanceledStageError(stage, err)
	}
	if ce, ok := ferrors.AsClassified(err); ok && ce.Severity() == ferrors.SeverityWarning {
		return newWarnStageError(stage, err)
	}
	return newFatalStageError(stage, err)
}

func resultFor(kind StageErrorKind) metrics.ResultLabel {
	switch kind {
	case StageErrorWarning:
		return metrics.ResultWarning
	case StageErrorCanceled:
		return metrics.ResultCanceled
	default:
		return metrics.ResultFatal
	}
}

type stageDef struct {
	Name StageName
	Fn   func(ctx context.Context, bs *buildState) error
}

// runStages executes stages in order, recording timing and stopping on the
// first fatal or canceled stage.
func runStages(ctx context.Context, bs *buildState, stages []stageDef) error {
	rec := bs.recorder()
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			se := newCanceledStageError(st.Name, err)
			bs.report.addStageError(se)
			rec.IncStageResult(string(st.Name), metrics.ResultCanceled)
			return se
		}

		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)
		bs.report.StageDurations[string(st.Name)] = dur
		rec.ObserveStageDuration(string(st.Name), dur)

		se := classify(st.Name, err)
		if se == nil {
			rec.IncStageResult(string(st.Name), metrics.ResultSuccess)
			slog.Debug("Stage complete",
				logfields.Stage(string(st.Name)),
				logfields.DurationMS(float64(dur.Microseconds())/1000))
			continue
		}

		bs.report.addStageError(se)
		rec.IncStageResult(string(st.Name), resultFor(se.Kind))
		if se.Kind == StageErrorWarning {
			slog.Warn("Stage completed with warnings",
				logfields.Stage(string(st.Name)),
				logfields.Error(se.Err))
			continue
		}
		return se
	}
	return nil
}
