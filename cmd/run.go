package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/estimate-cli/internal/engine"
	"github.com/sells-group/estimate-cli/internal/model"
	"github.com/sells-group/estimate-cli/internal/report"
)

var (
	runYear   int
	runYears  []int
	runToday  string
	runDryRun bool
	runSyncSF bool
	runFormat string
	runOutput string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Classify, segment and check renewals in one recorded run",
	Long:  "Loads one snapshot, runs classification, segmentation and renewal detection over it, persists results unless --dry-run, and records the run.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, err := report.ParseFormat(runFormat)
		if err != nil {
			return err
		}
		loc, err := cfg.Engine.Location()
		if err != nil {
			return err
		}
		year := resolveYear(runYear, loc)
		today, err := resolveToday(runToday, loc)
		if err != nil {
			return err
		}

		env, err := openEnv(ctx, runSyncSF)
		if err != nil {
			return err
		}
		defer env.Close()

		eng := engine.New(engineOptions(false))
		req := engine.FullRequest{
			Year:      year,
			Years:     runYears,
			Today:     today,
			Persister: env.persister(runDryRun, runSyncSF),
		}
		params := model.RunParams{
			Years:         runYears,
			Today:         today.String(),
			ThresholdDays: cfg.Engine.RenewalThresholdDays,
			DryRun:        runDryRun,
		}
		if len(params.Years) == 0 {
			params.Years = []int{year}
		}

		var rep *engine.FullReport
		summary, err := engine.Record(ctx, env.store, model.RunKindFull, params, func(ctx context.Context) (*model.RunSummary, error) {
			snap, err := env.snapshot(ctx)
			if err != nil {
				return nil, err
			}
			rep, err = eng.Full(ctx, snap, req)
			if err != nil {
				return nil, err
			}
			if !runDryRun {
				if _, err := env.store.SaveEstimateResults(ctx, rep.Classify.Results); err != nil {
					return nil, eris.Wrap(err, "run: save results")
				}
			}
			return rep.Summary(snap), nil
		})
		if err != nil {
			return err
		}

		zap.L().Info("run complete",
			zap.Int("estimates", summary.Estimates),
			zap.Int("segments_saved", summary.SegmentsSaved),
			zap.Int("segments_failed", summary.SegmentsFailed),
			zap.Int("at_risk", summary.AtRisk),
		)
		return report.WriteFile(runOutput, format, report.Full(rep))
	},
}

func init() {
	runCmd.Flags().IntVar(&runYear, "year", 0, "classification year (default current year)")
	runCmd.Flags().IntSliceVar(&runYears, "years", nil, "comma-separated years to segment (default --year)")
	runCmd.Flags().StringVar(&runToday, "today", "", "evaluate renewals as of YYYY-MM-DD (default today)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "compute without writing results or segments")
	runCmd.Flags().BoolVar(&runSyncSF, "sync-salesforce", false, "also write segments to Salesforce")
	runCmd.Flags().StringVar(&runFormat, "format", "table", "output format: table, csv, json, yaml, xlsx")
	runCmd.Flags().StringVar(&runOutput, "output", "", "write to file instead of stdout")
	rootCmd.AddCommand(runCmd)
}
