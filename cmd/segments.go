package main

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/sells-group/estimate-cli/internal/engine"
	"github.com/sells-group/estimate-cli/internal/model"
	"github.com/sells-group/estimate-cli/internal/report"
)

var (
	segmentsYear         int
	segmentsYears        []int
	segmentsTotalRevenue string
	segmentsDryRun       bool
	segmentsSyncSF       bool
	segmentsFormat       string
	segmentsOutput       string
)

var segmentsCmd = &cobra.Command{
	Use:   "segments",
	Short: "Assign accounts to segments A-D and write them back",
	Long:  "Computes each non-archived account's segment from its share of total revenue, with D for standard-only won business, and persists the per-year map.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, err := report.ParseFormat(segmentsFormat)
		if err != nil {
			return err
		}
		loc, err := cfg.Engine.Location()
		if err != nil {
			return err
		}
		years := segmentsYears
		if len(years) == 0 {
			years = []int{resolveYear(segmentsYear, loc)}
		}

		opts := engineOptions(false)
		if opts.TotalRevenue, err = parseTotalRevenue(segmentsTotalRevenue); err != nil {
			return err
		}

		env, err := openEnv(ctx, segmentsSyncSF)
		if err != nil {
			return err
		}
		defer env.Close()

		snap, err := env.snapshot(ctx)
		if err != nil {
			return err
		}
		eng := engine.New(opts)
		p := env.persister(segmentsDryRun, segmentsSyncSF)

		var rep *engine.SegmentReport
		params := model.RunParams{Years: years, DryRun: segmentsDryRun}
		_, err = engine.Record(ctx, env.store, model.RunKindSegments, params, func(ctx context.Context) (*model.RunSummary, error) {
			var err error
			rep, err = eng.Segments(ctx, snap, years, p)
			if err != nil {
				return nil, err
			}
			full := &engine.FullReport{Segments: rep}
			return full.Summary(snap), nil
		})
		if err != nil {
			return err
		}

		return report.WriteFile(segmentsOutput, format, report.Segments(rep))
	},
}

// parseTotalRevenue parses an override such as "12500000" or "12,500,000".
// Blank means no override.
func parseTotalRevenue(raw string) (decimal.NullDecimal, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(raw, "$"))
	if err != nil {
		return decimal.NullDecimal{}, eris.Wrapf(err, "invalid --total-revenue %q", raw)
	}
	if !d.IsPositive() {
		return decimal.NullDecimal{}, eris.Errorf("--total-revenue must be positive, got %s", d)
	}
	return decimal.NewNullDecimal(d), nil
}

func init() {
	segmentsCmd.Flags().IntVar(&segmentsYear, "year", 0, "year to segment (default current year)")
	segmentsCmd.Flags().IntSliceVar(&segmentsYears, "years", nil, "comma-separated years to segment; overrides --year")
	segmentsCmd.Flags().StringVar(&segmentsTotalRevenue, "total-revenue", "", "override the total revenue shares are computed against")
	segmentsCmd.Flags().BoolVar(&segmentsDryRun, "dry-run", false, "compute without writing")
	segmentsCmd.Flags().BoolVar(&segmentsSyncSF, "sync-salesforce", false, "also write segments to Salesforce")
	segmentsCmd.Flags().StringVar(&segmentsFormat, "format", "table", "output format: table, csv, json, yaml, xlsx")
	segmentsCmd.Flags().StringVar(&segmentsOutput, "output", "", "write to file instead of stdout")
	rootCmd.AddCommand(segmentsCmd)
}
