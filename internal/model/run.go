package model

import "time"

// RunKind identifies which engine operation a run executed.
type RunKind string

const (
	RunKindClassify RunKind = "classify"
	RunKindSegments RunKind = "segments"
	RunKindAtRisk   RunKind = "at_risk"
	RunKindFull     RunKind = "full"
)

// RunStatus represents the current state of an engine run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunParams records the inputs a run was invoked with.
type RunParams struct {
	Years         []int  `json:"years,omitempty"`
	Today         string `json:"today,omitempty"`
	ThresholdDays int    `json:"threshold_days,omitempty"`
	DryRun        bool   `json:"dry_run,omitempty"`
}

// RunSummary holds the counters recorded when a run completes.
type RunSummary struct {
	Estimates        int            `json:"estimates"`
	Accounts         int            `json:"accounts"`
	Outcomes         map[string]int `json:"outcomes,omitempty"`
	SegmentsSaved    int            `json:"segments_saved"`
	SegmentsFailed   int            `json:"segments_failed"`
	AtRisk           int            `json:"at_risk"`
	DuplicateWarning int            `json:"duplicate_warnings"`
	DataQuality      map[string]int `json:"data_quality,omitempty"`
}

// Run is a single recorded engine invocation.
type Run struct {
	ID         string      `json:"id"`
	Kind       RunKind     `json:"kind"`
	Status     RunStatus   `json:"status"`
	Params     RunParams   `json:"params"`
	Summary    *RunSummary `json:"summary,omitempty"`
	Error      string      `json:"error,omitempty"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
}
