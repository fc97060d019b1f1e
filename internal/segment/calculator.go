package segment

import (
	"context"
	"maps"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/estimate-cli/internal/model"
)

// Persister writes an account's full segment map back to a store.
type Persister interface {
	SaveSegments(ctx context.Context, accountID string, byYear map[int]model.Segment, letter model.Segment) error
}

// AccountResult is the outcome of segmenting one account.
type AccountResult struct {
	AccountID string                `json:"account_id"`
	Segments  map[int]model.Segment `json:"segments"`
	Letter    model.Segment         `json:"letter"`
	Err       error                 `json:"-"`
}

// OK reports whether the account's segments were computed and saved.
func (r AccountResult) OK() bool { return r.Err == nil }

// Summary is the tally of a segmentation batch.
type Summary struct {
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Skipped   int             `json:"skipped"`
	Results   []AccountResult `json:"results"`
}

// Calculator segments accounts and writes results back through a Persister.
type Calculator struct {
	persister   Persister
	concurrency int
}

// NewCalculator creates a Calculator. A nil persister computes without
// writing (dry run). concurrency <= 0 means one account at a time.
func NewCalculator(p Persister, concurrency int) *Calculator {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Calculator{persister: p, concurrency: concurrency}
}

// Run computes the segment of every non-archived account for each of years
// and persists the resulting map. The existing map is copied and the
// computed years replaced, then written in one call per account; stored
// years outside years are carried over unchanged. A failed write is recorded
// against that account and does not stop the batch. When ctx is cancelled the
// partial summary is returned together with ctx.Err().
func (c *Calculator) Run(ctx context.Context, accounts []model.AccountRecord, estimatesByAccount map[string][]model.EstimateRecord, totalRevenue decimal.Decimal, years []int) (*Summary, error) {
	if len(years) == 0 {
		return nil, eris.New("segment: at least one year is required")
	}

	results := make([]AccountResult, len(accounts))
	skipped := make([]bool, len(accounts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, account := range accounts {
		if account.Archived {
			skipped[i] = true
			continue
		}
		g.Go(func() error {
			results[i] = c.runAccount(gctx, account, estimatesByAccount[account.ID], totalRevenue, years)
			return nil
		})
	}
	_ = g.Wait()

	summary := &Summary{}
	for i, r := range results {
		if skipped[i] {
			summary.Skipped++
			continue
		}
		if r.OK() {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
		summary.Results = append(summary.Results, r)
	}

	zap.L().Info("segment: batch complete",
		zap.Ints("years", years),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.String("total_revenue", totalRevenue.String()),
	)

	return summary, ctx.Err()
}

func (c *Calculator) runAccount(ctx context.Context, account model.AccountRecord, estimates []model.EstimateRecord, totalRevenue decimal.Decimal, years []int) AccountResult {
	byYear := make(map[int]model.Segment, len(account.SegmentByYear)+len(years))
	maps.Copy(byYear, account.SegmentByYear)
	for _, year := range years {
		byYear[year] = Compute(account, estimates, totalRevenue, year)
	}
	letter := model.LatestSegment(byYear)

	result := AccountResult{AccountID: account.ID, Segments: byYear, Letter: letter}
	if c.persister == nil {
		return result
	}
	if err := ctx.Err(); err != nil {
		result.Err = eris.Wrapf(err, "segment: account %s", account.ID)
		return result
	}
	if err := c.persister.SaveSegments(ctx, account.ID, byYear, letter); err != nil {
		zap.L().Warn("segment: save failed",
			zap.String("account_id", account.ID),
			zap.Error(err),
		)
		result.Err = eris.Wrapf(err, "segment: save account %s", account.ID)
	}
	return result
}

// MultiPersister writes to each persister in order, stopping at the first
// failure for that account.
type MultiPersister []Persister

// SaveSegments implements Persister.
func (m MultiPersister) SaveSegments(ctx context.Context, accountID string, byYear map[int]model.Segment, letter model.Segment) error {
	for _, p := range m {
		if err := p.SaveSegments(ctx, accountID, byYear, letter); err != nil {
			return err
		}
	}
	return nil
}
