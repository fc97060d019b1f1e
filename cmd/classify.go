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
	classifyYear   int
	classifySave   bool
	classifyFormat string
	classifyOutput string
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify estimates and attribute their value to years",
	Long:  "Labels every deduplicated estimate won, lost or pending and splits its price across calendar years. Undated estimates fall in --year.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, err := report.ParseFormat(classifyFormat)
		if err != nil {
			return err
		}
		loc, err := cfg.Engine.Location()
		if err != nil {
			return err
		}
		year := resolveYear(classifyYear, loc)

		env, err := openEnv(ctx, false)
		if err != nil {
			return err
		}
		defer env.Close()

		snap, err := env.snapshot(ctx)
		if err != nil {
			return err
		}
		eng := engine.New(engineOptions(false))

		var rep *engine.ClassifyReport
		if !classifySave {
			rep = eng.Classify(snap, year)
		} else {
			params := model.RunParams{Years: []int{year}}
			_, err = engine.Record(ctx, env.store, model.RunKindClassify, params, func(ctx context.Context) (*model.RunSummary, error) {
				rep = eng.Classify(snap, year)
				saved, err := env.store.SaveEstimateResults(ctx, rep.Results)
				if err != nil {
					return nil, eris.Wrap(err, "classify: save results")
				}
				zap.L().Info("classify: results saved", zap.Int64("rows", saved))
				full := &engine.FullReport{Classify: rep}
				return full.Summary(snap), nil
			})
			if err != nil {
				return err
			}
		}

		return report.WriteFile(classifyOutput, format, report.Classification(rep))
	},
}

func init() {
	classifyCmd.Flags().IntVar(&classifyYear, "year", 0, "year undated estimates fall in (default current year)")
	classifyCmd.Flags().BoolVar(&classifySave, "save", false, "persist results and record the run")
	classifyCmd.Flags().StringVar(&classifyFormat, "format", "table", "output format: table, csv, json, yaml, xlsx")
	classifyCmd.Flags().StringVar(&classifyOutput, "output", "", "write to file instead of stdout")
	rootCmd.AddCommand(classifyCmd)
}
