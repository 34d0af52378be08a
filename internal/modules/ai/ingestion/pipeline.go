// Package ingestion chunks, embeds and indexes course lessons.
package ingestion

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	types "github.com/yungbote/edugenius-backend/internal/domain"
	"github.com/yungbote/edugenius-backend/internal/modules/ai/chunker"
	"github.com/yungbote/edugenius-backend/internal/modules/ai/index"
	"github.com/yungbote/edugenius-backend/internal/modules/ai/provider"
	"github.com/yungbote/edugenius-backend/internal/modules/ai/store"
	"github.com/yungbote/edugenius-backend/internal/observability"
	"github.com/yungbote/edugenius-backend/internal/platform/logger"
)

const DefaultConcurrency = 4

type Config struct {
	Window      int
	Overlap     int
	Concurrency int
}

func (c Config) withDefaults() Config {
	if c.Window == 0 {
		c.Window, c.Overlap = chunker.DefaultWindow, chunker.DefaultOverlap
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	return c
}

type IngestReport struct {
	CourseID uuid.UUID `json:"course_id"`
	Lessons  int       `json:"lessons"`
	// Skipped counts lessons that produced no chunks.
	Skipped int `json:"skipped"`
	Vectors int `json:"vectors"`
}

type Pipeline struct {
	store store.Gateway
	emb   provider.Embedder
	idx   *index.Index
	cfg   Config
	log   *logger.Logger
}

func New(gw store.Gateway, emb provider.Embedder, idx *index.Index, cfg Config, baseLog *logger.Logger) *Pipeline {
	return &Pipeline{
		store: gw,
		emb:   emb,
		idx:   idx,
		cfg:   cfg.withDefaults(),
		log:   baseLog.With("service", "IngestionPipeline"),
	}
}

type lessonJob struct {
	course *types.Course
	module *types.CourseModule
	lesson *types.Lesson
}

// IngestCourse indexes every lesson of a course under namespace "courses".
// Lessons whose text yields no chunks are skipped. Entries are upserted in one batch after
// all lessons embedded successfully, and re-running overwrites the same ids.
func (p *Pipeline) IngestCourse(ctx context.Context, courseID uuid.UUID) (*IngestReport, error) {
	ctx, span := otel.Tracer("edugenius/ingestion").Start(ctx, "ingestion.IngestCourse")
	defer span.End()
	span.SetAttributes(attribute.String("course_id", courseID.String()))

	course, err := p.store.GetCourseTree(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if _, err := chunker.Split("", "", p.cfg.Window, p.cfg.Overlap); err != nil {
		return nil, err
	}

	jobs := lessonJobs(course)
	report := &IngestReport{CourseID: courseID, Lessons: len(jobs)}
	perLesson := make([][]index.Entry, len(jobs))
	skipped := make([]bool, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)
	for i, job := range jobs {
		g.Go(func() error {
			entries, err := p.lessonEntries(gctx, job)
			if err != nil {
				return fmt.Errorf("lesson %s: %w", job.lesson.ID, err)
			}
			perLesson[i] = entries
			skipped[i] = len(entries) == 0
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	var all []index.Entry
	for i, entries := range perLesson {
		all = append(all, entries...)
		if skipped[i] {
			report.Skipped++
		}
	}
	report.Vectors = len(all)

	err = p.idx.Upsert(ctx, index.CourseNamespace, all)
	observability.Current().AddIngestedVectors(len(all), err)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	p.log.Info("course ingested", "course_id", courseID, "lessons", report.Lessons, "skipped", report.Skipped, "vectors", report.Vectors)
	return report, nil
}

func lessonJobs(course *types.Course) []lessonJob {
	var jobs []lessonJob
	for i := range course.Modules {
		m := &course.Modules[i]
		for j := range m.Lessons {
			jobs = append(jobs, lessonJob{course: course, module: m, lesson: &m.Lessons[j]})
		}
	}
	return jobs
}

func (p *Pipeline) chunks(job lessonJob) ([]chunker.Chunk, error) {
	return chunker.Collect(job.lesson.ID.String(), LessonText(job.course, job.module, job.lesson), p.cfg.Window, p.cfg.Overlap)
}

func (p *Pipeline) lessonEntries(ctx context.Context, job lessonJob) ([]index.Entry, error) {
	chunks, err := p.chunks(job)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vecs, err := p.emb.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(chunks) {
		return nil, &provider.EmbeddingError{Provider: "ingestion", Partial: vecs, Err: fmt.Errorf("got %d vectors for %d chunks", len(vecs), len(chunks))}
	}

	entries := make([]index.Entry, len(chunks))
	for i, c := range chunks {
		entries[i] = index.Entry{
			ID:     EntryID(job.course.ID, job.lesson.ID, c.Index),
			Values: vecs[i],
			Metadata: map[string]any{
				"course_id":    job.course.ID.String(),
				"module_id":    job.module.ID.String(),
				"lesson_id":    job.lesson.ID.String(),
				"text":         c.Text,
				"title":        job.lesson.Title,
				"course_title": job.course.Title,
			},
		}
	}
	return entries, nil
}

// LessonText is the text indexed for a lesson, headed by its place in the course.
func LessonText(c *types.Course, m *types.CourseModule, l *types.Lesson) string {
	return fmt.Sprintf("Course: %s\nModule: %s\nLesson: %s\n\n%s", c.Title, m.Title, l.Title, l.Content)
}

func EntryID(courseID, lessonID uuid.UUID, chunk int) string {
	return fmt.Sprintf("course_%s_lesson_%s_chunk_%d", courseID, lessonID, chunk)
}
