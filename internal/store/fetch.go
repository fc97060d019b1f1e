package store

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/estimate-cli/internal/model"
	"github.com/sells-group/estimate-cli/internal/resilience"
)

// FetchAll requests successive pages until a short page is returned and
// accumulates every record. Each page is retried on transient errors.
func FetchAll[T any](ctx context.Context, pageSize int, retry resilience.RetryConfig, fetch func(ctx context.Context, page Page) ([]T, error)) ([]T, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var all []T
	for offset := 0; ; offset += pageSize {
		page := Page{Limit: pageSize, Offset: offset}
		batch, err := resilience.Do(ctx, retry, func(ctx context.Context) ([]T, error) {
			return fetch(ctx, page)
		})
		if err != nil {
			return nil, eris.Wrapf(err, "store: fetch page at offset %d", offset)
		}
		all = append(all, batch...)
		if len(batch) < pageSize {
			return all, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "store: fetch cancelled")
		}
	}
}

// Snapshot is the in-memory input for one engine run.
type Snapshot struct {
	Estimates []model.EstimateRecord
	Accounts  []model.AccountRecord
}

// LoadOptions controls snapshot pagination.
type LoadOptions struct {
	PageSize int
	Retry    resilience.RetryConfig
}

// LoadSnapshot pulls every estimate and account. Estimates and accounts may
// come from different sources.
func LoadSnapshot(ctx context.Context, estimates EstimateLister, accounts AccountLister, opts LoadOptions) (*Snapshot, error) {
	log := zap.L().With(zap.String("component", "store.snapshot"))

	estRetry := opts.Retry
	estRetry.OnRetry = resilience.RetryLogger("list_estimates")
	ests, err := FetchAll(ctx, opts.PageSize, estRetry, estimates.ListEstimates)
	if err != nil {
		return nil, eris.Wrap(err, "store: load estimates")
	}

	acctRetry := opts.Retry
	acctRetry.OnRetry = resilience.RetryLogger("list_accounts")
	accts, err := FetchAll(ctx, opts.PageSize, acctRetry, accounts.ListAccounts)
	if err != nil {
		return nil, eris.Wrap(err, "store: load accounts")
	}

	log.Info("snapshot loaded",
		zap.Int("estimates", len(ests)),
		zap.Int("accounts", len(accts)),
	)
	return &Snapshot{Estimates: ests, Accounts: accts}, nil
}
