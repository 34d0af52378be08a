package ingestion

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/edugenius-backend/internal/modules/ai/index"
	"github.com/yungbote/edugenius-backend/internal/modules/ai/store"
)

// pruneScanLimit is the most ids one prune pass reads back. Pinecone caps
// topK at 10000.
const pruneScanLimit = 10000

type PruneReport struct {
	CourseID uuid.UUID `json:"course_id"`
	Indexed  int       `json:"indexed"`
	Deleted  int       `json:"deleted"`
	// Partial is set when the scan hit its limit and more stale ids may remain.
	Partial bool `json:"partial"`
}

// PruneCourse deletes indexed chunks of a course that its current lessons no
// longer produce. A course that no longer exists loses all its chunks.
// Ingestion never deletes; this is the explicit cleanup.
func (p *Pipeline) PruneCourse(ctx context.Context, courseID uuid.UUID) (*PruneReport, error) {
	ctx, span := otel.Tracer("edugenius/ingestion").Start(ctx, "ingestion.PruneCourse")
	defer span.End()
	span.SetAttributes(attribute.String("course_id", courseID.String()))

	live := map[string]bool{}
	course, err := p.store.GetCourseTree(ctx, courseID)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		for _, job := range lessonJobs(course) {
			chunks, err := p.chunks(job)
			if err != nil {
				return nil, err
			}
			for _, c := range chunks {
				live[EntryID(courseID, job.lesson.ID, c.Index)] = true
			}
		}
	}

	indexed, err := p.idx.ListIDs(ctx, index.CourseNamespace, p.emb.Dimension(), pruneScanLimit, index.CourseFilter(courseID.String()))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	var stale []string
	for _, id := range indexed {
		if !live[id] {
			stale = append(stale, id)
		}
	}
	if err := p.idx.Delete(ctx, index.CourseNamespace, stale); err != nil {
		span.RecordError(err)
		return nil, err
	}

	report := &PruneReport{
		CourseID: courseID,
		Indexed:  len(indexed),
		Deleted:  len(stale),
		Partial:  len(indexed) >= pruneScanLimit,
	}
	p.log.Info("course pruned", "course_id", courseID, "indexed", report.Indexed, "deleted", report.Deleted, "partial", report.Partial)
	return report, nil
}
