package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bindery/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var itemID string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := ctx.openHistory()
			if err != nil {
				return err
			}
			if ledger == nil {
				return errors.New("history is disabled in the configuration")
			}
			defer ledger.Close()

			var runs []history.Run
			if itemID != "" {
				runs, err = ledger.ForItem(cmd.Context(), itemID, limit)
			} else {
				runs, err = ledger.Recent(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded.")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.StartedAt.Local().Format(time.DateTime),
					run.ItemID,
					run.Operation,
					run.Kind,
					run.Outcome,
					run.Detail,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Started", "Item", "Operation", "Kind", "Outcome", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&itemID, "item", "", "Limit to one item id")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")

	return cmd
}
