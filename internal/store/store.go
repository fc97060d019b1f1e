// Package store reads estimate and account snapshots from the record store
// and persists segment write-backs, estimate results and run history.
package store

import (
	"context"

	"github.com/sells-group/estimate-cli/internal/model"
)

// DefaultPageSize is the number of records requested per page.
const DefaultPageSize = 1000

// Page selects a window of records.
type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// EstimateLister pages through estimate records in ingestion order.
type EstimateLister interface {
	ListEstimates(ctx context.Context, page Page) ([]model.EstimateRecord, error)
}

// AccountLister pages through account records ordered by id.
type AccountLister interface {
	ListAccounts(ctx context.Context, page Page) ([]model.AccountRecord, error)
}

// Store defines the persistence interface for the estimate engine.
type Store interface {
	EstimateLister
	AccountLister

	// Write-backs
	SaveSegments(ctx context.Context, accountID string, byYear map[int]model.Segment, letter model.Segment) error
	SaveEstimateResults(ctx context.Context, results []model.EstimateResult) (int64, error)

	// Runs
	CreateRun(ctx context.Context, kind model.RunKind, params model.RunParams) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, summary *model.RunSummary) error
	FailRun(ctx context.Context, runID string, msg string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
