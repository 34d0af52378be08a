package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yungbote/edugenius-backend/internal/app"
)

var pruneCmd = &cobra.Command{
	Use:   "prune <course-id> [course-id...]",
	Short: "Delete indexed chunks of removed lessons",
	Long: `Compares each course's indexed chunks with what its current lessons produce
and deletes the rest. Ingestion never deletes, so run this after removing or
shortening lessons. A course that no longer exists loses all of its chunks.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)
}

func runPrune(cmd *cobra.Command, args []string) error {
	ids, err := parseCourseIDs(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, id := range ids {
		rep, err := a.AI.PruneCourse(ctx, id)
		if err != nil {
			return fmt.Errorf("prune %s: %w", id, err)
		}
		cmd.Printf("course %s: %d indexed, %d deleted\n", rep.CourseID, rep.Indexed, rep.Deleted)
		if rep.Partial {
			cmd.Printf("course %s: scan limit reached, run prune again\n", rep.CourseID)
		}
	}
	return nil
}
