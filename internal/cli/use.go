package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tOgg1/busview/internal/db"
)

func newUseCmd(a *app) *cobra.Command {
	var (
		symbols  string
		clearCtx bool
		show     bool
	)

	cmd := &cobra.Command{
		Use:   "use [capture]",
		Short: "Select the capture and symbol file used by default",
		Long: `Select the capture and symbol file that list and view use when
no --capture or --symbols flag is given.

Without arguments the current selection is printed.`,
		Example: `  busview use drive-1
  busview use --symbols car.yaml
  busview use --clear`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := a.contextStore()
			current, err := store.Load()
			if err != nil {
				return err
			}

			if clearCtx {
				if err := store.Clear(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Context cleared")
				return nil
			}

			if show || (len(args) == 0 && symbols == "") {
				if a.jsonOutput {
					return WriteOutput(cmd.OutOrStdout(), current)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Current context: %s\n", current)
				return nil
			}

			if len(args) == 1 {
				database, err := a.openDatabase()
				if err != nil {
					return err
				}
				defer database.Close()

				capture, err := findCapture(cmd.Context(), db.NewCaptureRepository(database), args[0])
				if err != nil {
					return err
				}
				current.SetCapture(capture.ID, capture.Name)
			}

			if symbols != "" {
				path, err := filepath.Abs(strings.TrimSpace(symbols))
				if err != nil {
					return fmt.Errorf("failed to resolve symbol path: %w", err)
				}
				if _, err := os.Stat(path); err != nil {
					if errors.Is(err, os.ErrNotExist) {
						return fmt.Errorf("symbol file %s does not exist", path)
					}
					return err
				}
				current.SetSymbols(path)
			}

			if err := store.Save(current); err != nil {
				return err
			}
			if a.jsonOutput {
				return WriteOutput(cmd.OutOrStdout(), current)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Context set to: %s\n", current)
			return nil
		},
	}

	cmd.Flags().StringVar(&symbols, "symbols", "", "symbol file to select")
	cmd.Flags().BoolVar(&clearCtx, "clear", false, "clear the selection")
	cmd.Flags().BoolVar(&show, "show", false, "print the selection")
	return cmd
}
