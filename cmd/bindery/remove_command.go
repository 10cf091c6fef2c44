package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bindery/internal/services"
)

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	var keepFiles bool

	cmd := &cobra.Command{
		Use:   "remove <asin>",
		Short: "Remove a catalog item and its files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}

			asin := strings.TrimSpace(args[0])
			item, err := store.Remove(asin)
			if err != nil {
				if errors.Is(err, services.ErrNotFound) {
					return fmt.Errorf("item %s not in catalog", asin)
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Removed %s from the catalog.\n", asin)
			if keepFiles {
				return nil
			}
			for _, path := range item.RemoveFiles() {
				fmt.Fprintf(out, "  could not delete: %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepFiles, "keep-files", false, "Leave the referenced files on disk")

	return cmd
}
