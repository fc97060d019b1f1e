package engine

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/estimate-cli/internal/model"
	"github.com/sells-group/estimate-cli/internal/segment"
	"github.com/sells-group/estimate-cli/internal/store"
)

// RunRecorder persists run history.
type RunRecorder interface {
	CreateRun(ctx context.Context, kind model.RunKind, params model.RunParams) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, summary *model.RunSummary) error
	FailRun(ctx context.Context, runID string, msg string) error
}

// Record wraps fn in a run record. A nil recorder runs fn unrecorded.
// Failure to record never masks fn's own error.
func Record(ctx context.Context, rec RunRecorder, kind model.RunKind, params model.RunParams, fn func(ctx context.Context) (*model.RunSummary, error)) (*model.RunSummary, error) {
	if rec == nil {
		return fn(ctx)
	}

	run, err := rec.CreateRun(ctx, kind, params)
	if err != nil {
		return nil, eris.Wrap(err, "engine: create run")
	}
	log := zap.L().With(zap.String("run_id", run.ID), zap.String("kind", string(kind)))
	log.Info("engine: run started")

	summary, runErr := fn(ctx)
	if runErr != nil {
		// The caller's context may be cancelled; record the failure anyway.
		if err := rec.FailRun(context.WithoutCancel(ctx), run.ID, runErr.Error()); err != nil {
			log.Error("engine: record run failure", zap.Error(err))
		}
		log.Error("engine: run failed", zap.Error(runErr))
		return nil, runErr
	}

	if err := rec.CompleteRun(ctx, run.ID, summary); err != nil {
		return summary, eris.Wrap(err, "engine: complete run")
	}
	log.Info("engine: run complete")
	return summary, nil
}

// FullRequest configures a combined classify, segments and at-risk pass.
type FullRequest struct {
	Year  int
	Years []int
	Today model.Date
	// Persister receives segment write-backs. Nil means dry run.
	Persister segment.Persister
}

// FullReport bundles the three outputs of a combined pass.
type FullReport struct {
	Classify *ClassifyReport `json:"classify" yaml:"classify"`
	Segments *SegmentReport  `json:"segments" yaml:"segments"`
	AtRisk   *AtRiskReport   `json:"at_risk" yaml:"at_risk"`
}

// Full classifies estimates for req.Year, segments accounts for req.Years
// (req.Year when empty) and detects renewals as of req.Today.
func (e *Engine) Full(ctx context.Context, snap *store.Snapshot, req FullRequest) (*FullReport, error) {
	years := req.Years
	if len(years) == 0 {
		years = []int{req.Year}
	}

	cls := e.Classify(snap, req.Year)
	seg, err := e.Segments(ctx, snap, years, req.Persister)
	if err != nil {
		return nil, err
	}
	risk, err := e.AtRisk(ctx, snap, req.Today)
	if err != nil {
		return nil, err
	}
	return &FullReport{Classify: cls, Segments: seg, AtRisk: risk}, nil
}

// Summary condenses the report for run history.
func (r *FullReport) Summary(snap *store.Snapshot) *model.RunSummary {
	s := &model.RunSummary{Accounts: len(snap.Accounts)}
	if r.Classify != nil {
		s.Estimates = len(r.Classify.Results)
		s.Outcomes = outcomeCounts(r.Classify.Outcomes)
		s.DataQuality = r.Classify.Quality.Map()
	}
	if r.Segments != nil && r.Segments.Summary != nil {
		s.SegmentsSaved = r.Segments.Summary.Succeeded
		s.SegmentsFailed = r.Segments.Summary.Failed
	}
	if r.AtRisk != nil {
		s.AtRisk = len(r.AtRisk.AtRisk)
		s.DuplicateWarning = len(r.AtRisk.Duplicates)
	}
	return s
}

func outcomeCounts(m map[model.Outcome]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}
