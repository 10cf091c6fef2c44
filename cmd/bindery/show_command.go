package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bindery/internal/services"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <asin>",
		Short: "Show one catalog item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			asin := strings.TrimSpace(args[0])
			item, ok := store.Load()[asin]
			if !ok {
				return services.Wrap(services.ErrNotFound, "cli", "show", fmt.Sprintf("item %s", asin), nil)
			}

			out := cmd.OutOrStdout()
			line := func(label, value string) {
				if value != "" {
					fmt.Fprintf(out, "%-14s %s\n", label+":", value)
				}
			}

			line("ASIN", asin)
			line("Title", item.Title)
			line("Author", item.Author)
			line("Series", item.Series)
			line("Narrators", item.Narrators)
			line("Profiles", strings.Join(item.Profiles, ", "))
			if item.Locked {
				line("Locked", "yes")
			}
			line("Audio", item.AudioPath)
			if item.AudioSize > 0 {
				line("Audio size", humanSize(item.AudioSize))
			}
			line("Format", item.Format())
			if item.MultiPart {
				line("Parts", fmt.Sprintf("%d", len(item.Parts)))
				for _, part := range item.Parts {
					fmt.Fprintf(out, "  - %s (%s)\n", part.Path, humanSize(part.Size))
				}
			}
			line("Voucher", item.VoucherPath)
			line("Converted", item.ConvertedPath)
			if item.ConvertedSize > 0 {
				line("M4B size", humanSize(item.ConvertedSize))
			}
			line("Cover", item.CoverPath)
			line("Document", item.DocumentPath)
			if item.DocumentAvailable != nil && !*item.DocumentAvailable {
				line("Document", "not available from provider")
			}
			if rec, ok := ctx.tracker.Snapshot(asin); ok {
				line("Activity", fmt.Sprintf("%s %s (%d%%)", rec.Operation, rec.State, rec.Percent))
			}
			return nil
		},
	}
	return cmd
}
