package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/estimate-cli/internal/engine"
	"github.com/sells-group/estimate-cli/internal/report"
)

var (
	atRiskThreshold      int
	atRiskToday          string
	atRiskIncludeSnoozed bool
	atRiskFormat         string
	atRiskOutput         string
)

var atRiskCmd = &cobra.Command{
	Use:   "at-risk",
	Short: "List won contracts due for renewal",
	Long:  "Reports won contracts ending within the threshold of today that have no later renewal for the same department and address.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, err := report.ParseFormat(atRiskFormat)
		if err != nil {
			return err
		}
		if atRiskThreshold < 0 {
			return eris.Errorf("--threshold must be >= 0, got %d", atRiskThreshold)
		}
		loc, err := cfg.Engine.Location()
		if err != nil {
			return err
		}
		today, err := resolveToday(atRiskToday, loc)
		if err != nil {
			return err
		}

		env, err := openEnv(ctx, false)
		if err != nil {
			return err
		}
		defer env.Close()

		snap, err := env.snapshot(ctx)
		if err != nil {
			return err
		}

		opts := engineOptions(atRiskIncludeSnoozed)
		if cmd.Flags().Changed("threshold") {
			opts.ThresholdDays = atRiskThreshold
		}
		rep, err := engine.New(opts).AtRisk(ctx, snap, today)
		if err != nil {
			return err
		}
		return report.WriteFile(atRiskOutput, format, report.AtRisk(rep))
	},
}

func init() {
	atRiskCmd.Flags().IntVar(&atRiskThreshold, "threshold", 0, "renewal window in days; 0 means contracts ending today (default engine.renewal_threshold_days)")
	atRiskCmd.Flags().StringVar(&atRiskToday, "today", "", "evaluate as of YYYY-MM-DD (default today)")
	atRiskCmd.Flags().BoolVar(&atRiskIncludeSnoozed, "include-snoozed", false, "include accounts snoozed through today")
	atRiskCmd.Flags().StringVar(&atRiskFormat, "format", "table", "output format: table, csv, json, yaml, xlsx")
	atRiskCmd.Flags().StringVar(&atRiskOutput, "output", "", "write to file instead of stdout")
	rootCmd.AddCommand(atRiskCmd)
}
