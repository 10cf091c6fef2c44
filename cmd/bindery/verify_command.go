package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bindery/internal/history"
	"bindery/internal/verify"
)

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Reconcile the catalog with the files on disk",
		Long: `Check every recorded file reference. References to files that no longer
exist are dropped and sizes that drifted are refreshed. All repairs are
persisted in a single write.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			ledger, err := ctx.openHistory()
			if err != nil {
				return err
			}
			if ledger != nil {
				defer ledger.Close()
			}

			started := time.Now()
			report, err := verify.NewSweeper(store, logger).Sweep(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Checked %d item(s), repaired %d.\n", report.Checked, report.Repaired)
			for _, path := range report.Dropped {
				fmt.Fprintf(out, "  dropped: %s\n", path)
			}

			recordRun(cmd.Context(), ledger, history.Run{
				Operation: "verify",
				Outcome:   "success",
				Detail:    fmt.Sprintf("checked=%d repaired=%d", report.Checked, report.Repaired),
				StartedAt: started,
			})
			return nil
		},
	}
	return cmd
}
