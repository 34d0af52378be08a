package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/edugenius-backend/internal/app"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <course-id> [course-id...]",
	Short: "Index course lessons into the vector store",
	Long: `Chunks and embeds every lesson of each course and upserts the vectors.
Re-running for the same course overwrites its vectors.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func parseCourseIDs(args []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(args))
	for _, arg := range args {
		id, err := uuid.Parse(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid course id %q: %w", arg, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func runIngest(cmd *cobra.Command, args []string) error {
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
		rep, err := a.AI.IngestCourse(ctx, id)
		if err != nil {
			return fmt.Errorf("ingest %s: %w", id, err)
		}
		cmd.Printf("course %s: %d lessons, %d skipped, %d vectors\n", rep.CourseID, rep.Lessons, rep.Skipped, rep.Vectors)
	}
	return nil
}
