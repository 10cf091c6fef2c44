package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"bindery/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show environment readiness and library summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			results := preflight.RunAll(cfg)
			rows := make([][]string, 0, len(results))
			for _, result := range results {
				state := "ok"
				if !result.Passed {
					state = "FAIL"
				}
				rows = append(rows, []string{result.Name, state, result.Detail})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Check", "State", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))

			if records := ctx.tracker.List(); len(records) > 0 {
				activity := make([][]string, 0, len(records))
				for _, rec := range records {
					activity = append(activity, []string{
						rec.ItemID,
						rec.Operation,
						string(rec.State),
						strconv.Itoa(rec.Percent) + "%",
						rec.Message,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Item", "Operation", "State", "Progress", "Detail"},
					activity,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
			}

			items := store.Load()
			var withAudio, multiPart, converted, covers, documents, locked int
			var audioBytes, convertedBytes int64
			for _, item := range items {
				if item.HasAudio() {
					withAudio++
					audioBytes += item.AudioSize
				}
				if item.MultiPart {
					multiPart++
				}
				if item.ConvertedPath != "" {
					converted++
					convertedBytes += item.ConvertedSize
				}
				if item.CoverPath != "" {
					covers++
				}
				if item.DocumentPath != "" {
					documents++
				}
				if item.Locked {
					locked++
				}
			}

			fmt.Fprintln(out, renderTable(
				[]string{"Library", "Count", "Size"},
				[][]string{
					{"Items", strconv.Itoa(len(items)), ""},
					{"Audio downloaded", strconv.Itoa(withAudio), humanSize(audioBytes)},
					{"Multi-part", strconv.Itoa(multiPart), ""},
					{"Converted", strconv.Itoa(converted), humanSize(convertedBytes)},
					{"Covers", strconv.Itoa(covers), ""},
					{"Documents", strconv.Itoa(documents), ""},
					{"Locked", strconv.Itoa(locked), ""},
				},
				[]columnAlignment{alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}
	return cmd
}
