package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tOgg1/busview/internal/db"
	"github.com/tOgg1/busview/internal/models"
)

func newCapturesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "captures",
		Aliases: []string{"capture"},
		Short:   "List imported captures",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := a.openDatabase()
			if err != nil {
				return err
			}
			defer database.Close()

			captures, err := db.NewCaptureRepository(database).List(cmd.Context())
			if err != nil {
				return err
			}
			if captures == nil {
				captures = []*models.Capture{}
			}
			if a.jsonOutput {
				return WriteOutput(cmd.OutOrStdout(), captures)
			}
			if len(captures) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No captures imported yet.")
				return nil
			}

			current := ""
			if stored, err := a.contextStore().Load(); err == nil {
				current = stored.CaptureID
			}
			return captureTable(captures, current, time.Now()).write(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(newCapturesRmCmd(a))
	return cmd
}

func captureTable(captures []*models.Capture, current string, now time.Time) *table {
	t := newTable("", "ID", "NAME", "EVENTS", "IMPORTED", "SOURCE").alignRight(3)
	for _, c := range captures {
		marker := ""
		if c.ID == current {
			marker = "*"
		}
		t.add(
			marker,
			shortID(c.ID),
			c.Name,
			humanize.Comma(int64(c.EventCount)),
			humanize.RelTime(c.CreatedAt, now, "ago", "from now"),
			c.SourcePath,
		)
	}
	return t
}

func newCapturesRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <capture>",
		Aliases: []string{"remove", "delete"},
		Short:   "Remove a capture and its events",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := a.openDatabase()
			if err != nil {
				return err
			}
			defer database.Close()

			ctx := cmd.Context()
			repo := db.NewCaptureRepository(database)
			capture, err := findCapture(ctx, repo, args[0])
			if err != nil {
				return err
			}
			if err := repo.Delete(ctx, capture.ID); err != nil {
				return err
			}

			store := a.contextStore()
			if stored, err := store.Load(); err == nil && stored.CaptureID == capture.ID {
				stored.SetCapture("", "")
				if err := store.Save(stored); err != nil {
					return err
				}
			}

			if a.jsonOutput {
				return WriteOutput(cmd.OutOrStdout(), map[string]string{"removed": capture.ID})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s (%s)\n", capture.Name, shortID(capture.ID))
			return nil
		},
	}
}
