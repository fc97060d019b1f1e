package renewal

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/estimate-cli/internal/model"
)

// Options configures a Detector.
type Options struct {
	ThresholdDays  int
	Concurrency    int
	IncludeSnoozed bool
}

// Report is the renewal assessment across accounts.
type Report struct {
	AtRisk     []AtRisk           `json:"at_risk" yaml:"at_risk"`
	Duplicates []DuplicateWarning `json:"duplicates" yaml:"duplicates"`
	Suppressed int                `json:"suppressed" yaml:"suppressed"`
	Snoozed    int                `json:"snoozed" yaml:"snoozed"`
}

// AccountIDs returns the distinct accounts with at least one at-risk estimate.
func (r *Report) AccountIDs() []string {
	seen := make(map[string]bool)
	ids := []string{}
	for _, a := range r.AtRisk {
		if !seen[a.AccountID] {
			seen[a.AccountID] = true
			ids = append(ids, a.AccountID)
		}
	}
	return ids
}

// Detector runs FindAtRisk across accounts.
type Detector struct {
	opts Options
}

// NewDetector creates a Detector. A zero ThresholdDays is a same-day window;
// a negative one is an error.
func NewDetector(opts Options) (*Detector, error) {
	if opts.ThresholdDays < 0 {
		return nil, eris.Errorf("renewal: threshold days must be >= 0, got %d", opts.ThresholdDays)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Detector{opts: opts}, nil
}

// Threshold returns the window in days.
func (d *Detector) Threshold() int { return d.opts.ThresholdDays }

// Run assesses each non-archived account. Accounts snoozed through today are
// skipped unless IncludeSnoozed is set. Output keeps account order.
func (d *Detector) Run(ctx context.Context, accounts []model.AccountRecord, estimatesByAccount map[string][]model.EstimateRecord, today model.Date) (*Report, error) {
	results := make([]Result, len(accounts))
	snoozed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Concurrency)

	for i, account := range accounts {
		if account.Archived {
			continue
		}
		if !d.opts.IncludeSnoozed && account.SnoozedOn(today) {
			snoozed++
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = FindAtRisk(account.ID, estimatesByAccount[account.ID], d.opts.ThresholdDays, today)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Snoozed: snoozed, AtRisk: []AtRisk{}, Duplicates: []DuplicateWarning{}}
	for _, r := range results {
		report.AtRisk = append(report.AtRisk, r.AtRisk...)
		report.Duplicates = append(report.Duplicates, r.Duplicates...)
		report.Suppressed += len(r.Suppressed)
	}

	zap.L().Info("renewal: detection complete",
		zap.String("today", today.String()),
		zap.Int("threshold_days", d.opts.ThresholdDays),
		zap.Int("at_risk", len(report.AtRisk)),
		zap.Int("duplicates", len(report.Duplicates)),
		zap.Int("suppressed", report.Suppressed),
		zap.Int("snoozed", snoozed),
	)
	return report, nil
}
