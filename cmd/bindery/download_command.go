package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bindery/internal/acquire"
	"bindery/internal/catalog"
	"bindery/internal/history"
	"bindery/internal/preflight"
	"bindery/internal/services/audible"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var profile string
	var withCover bool
	var withPDF bool
	var force bool

	cmd := &cobra.Command{
		Use:   "download [asin...]",
		Short: "Download audiobooks from the provider library",
		Long: `Download audio containers (and optionally covers and companion PDFs) for
catalog items. Without arguments every item that still lacks audio is
attempted. Locked items are skipped unless --force is given.`,
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
			downloader, err := ctx.newDownloader()
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

			runner := acquire.NewRunner(store, downloader, cfg, logger)
			tracker := ctx.tracker
			ids := selectItems(args, store, func(item *catalog.Item) bool {
				return !item.HasAudio() && !item.Locked
			})
			if len(ids) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to download.")
				return nil
			}

			out := cmd.OutOrStdout()
			failures := 0
			for _, asin := range ids {
				kinds := []audible.ContentKind{audible.KindAudio}
				if withCover {
					kinds = append(kinds, audible.KindCover)
				}
				if withPDF {
					kinds = append(kinds, audible.KindDocument)
				}

				for _, kind := range kinds {
					label := fmt.Sprintf("%s (%s)", asin, kind)
					tracker.Start(asin, "download "+string(kind))
					started := time.Now()

					opts := acquire.Options{
						Force: force,
						Progress: func(percent int) {
							tracker.Progress(asin, percent)
							if stdoutIsTerminal() {
								fmt.Fprintf(out, "\r%s %3d%%", label, percent)
							}
						},
					}
					outcome, err := runner.Acquire(cmd.Context(), profile, asin, kind, opts)
					if stdoutIsTerminal() {
						fmt.Fprint(out, "\r")
					}

					recordRun(cmd.Context(), ledger, history.Run{
						ItemID:    asin,
						Operation: "download",
						Kind:      string(kind),
						Outcome:   string(outcome.Kind),
						Detail:    outcome.Message,
						StartedAt: started,
					})

					switch {
					case err != nil:
						tracker.Fail(asin, outcome.Message)
						failures++
						fmt.Fprintf(out, "%s  failed: %v\n", label, err)
					case outcome.Kind == acquire.OutcomeSuccess:
						tracker.Complete(asin, outcome.Path)
						fmt.Fprintf(out, "%s  done: %s\n", label, outcome.Path)
					default:
						tracker.Complete(asin, outcome.Message)
						fmt.Fprintf(out, "%s  %s: %s\n", label, outcome.Kind, outcome.Message)
					}

					// No point fetching extras for an item the provider refuses.
					if outcome.Kind == acquire.OutcomeLocked && kind == audible.KindAudio {
						break
					}
				}
			}

			if failures > 0 {
				return fmt.Errorf("%d download(s) failed", failures)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&profile, "profile", "P", "", "Provider account profile to download with")
	cmd.Flags().BoolVar(&withCover, "cover", false, "Also download cover images")
	cmd.Flags().BoolVar(&withPDF, "pdf", false, "Also download companion PDFs")
	cmd.Flags().BoolVar(&force, "force", false, "Retry locked items and re-download existing files")

	return cmd
}
