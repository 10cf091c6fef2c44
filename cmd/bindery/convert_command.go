package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bindery/internal/catalog"
	"bindery/internal/convert"
	"bindery/internal/history"
	"bindery/internal/preflight"
	"bindery/internal/services"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "convert [asin...]",
		Short: "Convert downloaded audio to M4B",
		Long: `Decrypt and package downloaded containers as M4B audiobooks. Without
arguments every item with audio but no converted output is attempted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !reportPreflight(preflight.RunAll(cfg), func(format string, a ...any) {
				fmt.Fprintf(cmd.ErrOrStderr(), format, a...)
			}) {
				return errors.New("preflight checks failed")
			}

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			transcoder, err := ctx.newTranscoder()
			if err != nil {
				return err
			}
			keys, err := ctx.newKeySource()
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

			engine := convert.NewEngine(store, transcoder, keys, cfg, logger)
			ids := selectItems(args, store, func(item *catalog.Item) bool {
				return item.HasAudio() && item.ConvertedPath == ""
			})
			if len(ids) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to convert.")
				return nil
			}

			out := cmd.OutOrStdout()
			failures := 0
			for _, asin := range ids {
				started := time.Now()
				ctx.tracker.Start(asin, "convert")
				output, err := engine.Convert(cmd.Context(), asin, convert.Options{Force: force})

				run := history.Run{
					ItemID:    asin,
					Operation: "convert",
					StartedAt: started,
				}
				switch {
				case err == nil:
					run.Outcome = "success"
					run.Detail = output
					ctx.tracker.Complete(asin, output)
					fmt.Fprintf(out, "%s  done: %s\n", asin, output)
				case services.Terminal(err):
					run.Outcome = "terminal"
					run.Detail = err.Error()
					ctx.tracker.Fail(asin, err.Error())
					failures++
					fmt.Fprintf(out, "%s  unrecoverable: %v\n", asin, err)
				default:
					run.Outcome = "failed"
					run.Detail = err.Error()
					ctx.tracker.Fail(asin, err.Error())
					failures++
					fmt.Fprintf(out, "%s  failed: %v\n", asin, err)
				}
				recordRun(cmd.Context(), ledger, run)

				if cmd.Context().Err() != nil {
					return cmd.Context().Err()
				}
			}

			if failures > 0 {
				return fmt.Errorf("%d conversion(s) failed", failures)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Reconvert even when a complete output exists")

	return cmd
}
