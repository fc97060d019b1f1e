package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/estimate-cli/internal/config"
	"github.com/sells-group/estimate-cli/internal/model"
)

var runsJSON bool

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect recorded runs",
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one recorded run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate(config.ScopeStore); err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		if runsJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		}
		formatRun(cmd.OutOrStdout(), run)
		return nil
	},
}

// formatRun writes a run's fields and summary counters to w.
func formatRun(out io.Writer, r *model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "ID:\t%s\n", r.ID)
	_, _ = fmt.Fprintf(w, "Kind:\t%s\n", r.Kind)
	_, _ = fmt.Fprintf(w, "Status:\t%s\n", r.Status)
	_, _ = fmt.Fprintf(w, "Started:\t%s\n", r.StartedAt.Format("2006-01-02 15:04:05"))
	if r.FinishedAt != nil {
		_, _ = fmt.Fprintf(w, "Duration:\t%s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Second))
	}
	if r.Error != "" {
		_, _ = fmt.Fprintf(w, "Error:\t%s\n", r.Error)
	}
	if s := r.Summary; s != nil {
		_, _ = fmt.Fprintf(w, "Estimates:\t%d\n", s.Estimates)
		_, _ = fmt.Fprintf(w, "Accounts:\t%d\n", s.Accounts)
		_, _ = fmt.Fprintf(w, "Segments saved:\t%d\n", s.SegmentsSaved)
		_, _ = fmt.Fprintf(w, "Segments failed:\t%d\n", s.SegmentsFailed)
		_, _ = fmt.Fprintf(w, "At risk:\t%d\n", s.AtRisk)
	}
	_ = w.Flush()
}

func init() {
	runsShowCmd.Flags().BoolVar(&runsJSON, "json", false, "print the run as JSON")
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}
