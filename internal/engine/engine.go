// Package engine runs classification, segmentation and renewal detection
// over an in-memory snapshot of estimates and accounts.
package engine

import (
	"context"
	"slices"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sells-group/estimate-cli/internal/estimate"
	"github.com/sells-group/estimate-cli/internal/model"
	"github.com/sells-group/estimate-cli/internal/renewal"
	"github.com/sells-group/estimate-cli/internal/segment"
	"github.com/sells-group/estimate-cli/internal/store"
)

// Options configures an Engine. ThresholdDays is the renewal window in days;
// zero flags only contracts ending today and negative values fail AtRisk.
type Options struct {
	Concurrency    int
	ThresholdDays  int
	IncludeSnoozed bool
	// TotalRevenue overrides the sum of non-archived account revenue.
	TotalRevenue decimal.NullDecimal
}

// Engine is stateless; every call works on the snapshot it is given.
type Engine struct {
	opts Options
}

// New creates an Engine.
func New(opts Options) *Engine {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Engine{opts: opts}
}

// prepared is a deduplicated snapshot grouped by account.
type prepared struct {
	estimates []model.EstimateRecord
	byAccount map[string][]model.EstimateRecord
	quality   DataQuality
}

func prepare(snap *store.Snapshot) prepared {
	deduped := estimate.Dedupe(snap.Estimates)
	byAccount, orphans := estimate.GroupByAccount(deduped)
	return prepared{
		estimates: deduped,
		byAccount: byAccount,
		quality: DataQuality{
			Deduplicated: len(snap.Estimates) - len(deduped),
			NoAccount:    len(orphans),
		},
	}
}

// ClassifyReport is the classification of every deduplicated estimate.
type ClassifyReport struct {
	Year     int                   `json:"year" yaml:"year"`
	Results  []EstimateResult      `json:"results" yaml:"results"`
	Outcomes map[model.Outcome]int `json:"outcomes" yaml:"outcomes"`
	Quality  DataQuality           `json:"data_quality" yaml:"data_quality"`
}

// Classify labels each estimate won, lost or pending and attributes its
// value to years. year is the year undated estimates are assumed to fall in.
func (e *Engine) Classify(snap *store.Snapshot, year int) *ClassifyReport {
	p := prepare(snap)
	report := &ClassifyReport{
		Year:     year,
		Results:  make([]EstimateResult, 0, len(p.estimates)),
		Outcomes: make(map[model.Outcome]int, 3),
		Quality:  p.quality,
	}

	for _, rec := range p.estimates {
		outcome := estimate.ClassifyRecord(rec)
		report.Outcomes[outcome]++

		result := EstimateResult{
			ExternalID: rec.ExternalID,
			AccountID:  rec.AccountID,
			Outcome:    outcome,
		}

		attr := estimate.AllocateAll(rec, year)

		// Each record counts under at most one exclusion reason.
		switch {
		case rec.Archived:
			report.Quality.Archived++
			result.Excluded = model.ReasonArchived
		case rec.ExcludeFromStats:
			report.Quality.ExcludedFromStats++
			result.Excluded = model.ReasonExcludedFromStats
		case attr.Excluded():
			report.Quality.countReason(attr.Reason)
			result.Excluded = attr.Reason
		default:
			if attr.Undated {
				report.Quality.Undated++
			}
			if price := estimate.AuthoritativePrice(rec); !attr.Total().Equal(price) {
				zap.L().Error("engine: attribution does not sum to price",
					zap.String("external_id", rec.ExternalID),
					zap.String("price", price.String()),
					zap.String("attributed", attr.Total().String()),
				)
			}
			result.YearAttributions = attr.Years
			result.Undated = attr.Undated
		}
		if result.YearAttributions == nil {
			result.YearAttributions = []model.YearAttribution{}
		}
		report.Results = append(report.Results, result)
	}

	zap.L().Info("engine: classification complete",
		zap.Int("year", year),
		zap.Int("estimates", len(report.Results)),
		zap.Int("won", report.Outcomes[model.OutcomeWon]),
		zap.Int("lost", report.Outcomes[model.OutcomeLost]),
		zap.Int("pending", report.Outcomes[model.OutcomePending]),
		zap.Int("deduplicated", report.Quality.Deduplicated),
	)
	return report
}

// SegmentReport is the segmentation of every non-archived account.
type SegmentReport struct {
	Years        []int             `json:"years" yaml:"years"`
	TotalRevenue decimal.Decimal   `json:"total_revenue" yaml:"total_revenue"`
	Segments     []AccountSegment  `json:"segments" yaml:"segments"`
	Summary      *segment.Summary  `json:"summary" yaml:"-"`
	Failures     map[string]string `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// Segments computes each account's segment for years and writes the result
// through p. A nil p computes without writing. If ctx is cancelled mid-batch
// the partial report is returned with the error.
func (e *Engine) Segments(ctx context.Context, snap *store.Snapshot, years []int, p segment.Persister) (*SegmentReport, error) {
	if len(years) == 0 {
		return nil, eris.New("engine: segments: at least one year is required")
	}
	years = slices.Clone(years)
	slices.Sort(years)
	years = slices.Compact(years)

	total := segment.TotalRevenue(snap.Accounts)
	if e.opts.TotalRevenue.Valid {
		total = e.opts.TotalRevenue.Decimal
	}

	prep := prepare(snap)
	calc := segment.NewCalculator(p, e.opts.Concurrency)
	summary, runErr := calc.Run(ctx, snap.Accounts, prep.byAccount, total, years)
	if summary == nil {
		return nil, eris.Wrap(runErr, "engine: segments")
	}

	report := &SegmentReport{
		Years:        years,
		TotalRevenue: total,
		Segments:     []AccountSegment{},
		Summary:      summary,
	}
	for _, r := range summary.Results {
		for _, y := range years {
			report.Segments = append(report.Segments, AccountSegment{
				AccountID: r.AccountID,
				Year:      y,
				Segment:   r.Segments[y],
			})
		}
		if !r.OK() {
			if report.Failures == nil {
				report.Failures = map[string]string{}
			}
			report.Failures[r.AccountID] = r.Err.Error()
		}
	}
	if runErr != nil {
		return report, eris.Wrap(runErr, "engine: segments")
	}
	return report, nil
}

// AtRiskReport lists contracts due for renewal with no renewal on file.
type AtRiskReport struct {
	Today         model.Date         `json:"today" yaml:"today"`
	ThresholdDays int                `json:"threshold_days" yaml:"threshold_days"`
	AtRisk        []AtRiskEstimate   `json:"at_risk" yaml:"at_risk"`
	Accounts      []string           `json:"accounts" yaml:"accounts"`
	Duplicates    []DuplicateWarning `json:"duplicates" yaml:"duplicates"`
	Suppressed    int                `json:"suppressed" yaml:"suppressed"`
	Snoozed       int                `json:"snoozed" yaml:"snoozed"`
}

// AtRisk finds won contracts ending within the threshold of today.
func (e *Engine) AtRisk(ctx context.Context, snap *store.Snapshot, today model.Date) (*AtRiskReport, error) {
	if !today.Valid() {
		return nil, eris.New("engine: at-risk: today is not a valid date")
	}
	det, err := renewal.NewDetector(renewal.Options{
		ThresholdDays:  e.opts.ThresholdDays,
		Concurrency:    e.opts.Concurrency,
		IncludeSnoozed: e.opts.IncludeSnoozed,
	})
	if err != nil {
		return nil, eris.Wrap(err, "engine: at-risk")
	}
	prep := prepare(snap)
	rep, err := det.Run(ctx, snap.Accounts, prep.byAccount, today)
	if err != nil {
		return nil, eris.Wrap(err, "engine: at-risk")
	}
	return &AtRiskReport{
		Today:         today,
		ThresholdDays: det.Threshold(),
		AtRisk:        rep.AtRisk,
		Accounts:      rep.AccountIDs(),
		Duplicates:    rep.Duplicates,
		Suppressed:    rep.Suppressed,
		Snoozed:       rep.Snoozed,
	}, nil
}
