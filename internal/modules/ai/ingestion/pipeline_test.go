package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/edugenius-backend/internal/data/repos"
	"github.com/yungbote/edugenius-backend/internal/data/repos/testutil"
	types "github.com/yungbote/edugenius-backend/internal/domain"
	"github.com/yungbote/edugenius-backend/internal/modules/ai/index"
	"github.com/yungbote/edugenius-backend/internal/modules/ai/provider"
	"github.com/yungbote/edugenius-backend/internal/modules/ai/provider/providertest"
	"github.com/yungbote/edugenius-backend/internal/modules/ai/store"
	"github.com/yungbote/edugenius-backend/internal/platform/memvec"
)

const dim = 16

type fixture struct {
	db  *gorm.DB
	vec *memvec.Store
	emb *providertest.Embedder
	p   *Pipeline
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	vec := memvec.New()
	require.NoError(t, vec.EnsureIndex(context.Background(), dim))
	emb := providertest.NewEmbedder(dim)
	gw := store.New(db, repos.New(db, log), log)
	return &fixture{db: db, vec: vec, emb: emb, p: New(gw, emb, index.New(vec, log), cfg, log)}
}

func longText(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("word%d", i)
	}
	return strings.Join(parts, " ")
}

func (f *fixture) seedCourse(t *testing.T) (*types.Course, []*types.Lesson) {
	t.Helper()
	ctx := context.Background()
	c := testutil.SeedCourse(t, ctx, f.db, uuid.New())
	m0 := testutil.SeedCourseModule(t, ctx, f.db, c.ID, 0)
	m1 := testutil.SeedCourseModule(t, ctx, f.db, c.ID, 1)
	l0 := testutil.SeedLesson(t, ctx, f.db, m0.ID, 0, longText(390))
	l1 := testutil.SeedLesson(t, ctx, f.db, m0.ID, 1, "short lesson body")
	l2 := testutil.SeedLesson(t, ctx, f.db, m1.ID, 0, "   ")
	return c, []*types.Lesson{l0, l1, l2}
}

func TestIngestCourseIndexesLessons(t *testing.T) {
	f := newFixture(t, Config{})
	c, lessons := f.seedCourse(t)

	report, err := f.p.IngestCourse(context.Background(), c.ID)
	require.NoError(t, err)

	// 390 words plus 9 heading words give windows at 0 and 200; the blank
	// lesson still indexes its heading.
	assert.Equal(t, &IngestReport{CourseID: c.ID, Lessons: 3, Skipped: 0, Vectors: 4}, report)
	assert.Equal(t, 4, f.vec.Len(index.CourseNamespace))
	assert.Equal(t, 3, f.emb.Calls(), "one embedding batch per lesson")

	matches, err := f.vec.QueryMatches(context.Background(), index.CourseNamespace,
		providertest.Vector("short lesson body", dim), 10, index.CourseFilter(c.ID.String()))
	require.NoError(t, err)
	require.NotEmpty(t, matches)

	var found bool
	for _, m := range matches {
		if m.ID != EntryID(c.ID, lessons[1].ID, 0) {
			continue
		}
		found = true
		assert.Equal(t, lessons[1].ID.String(), m.Metadata["lesson_id"])
		assert.Equal(t, "Lesson 1", m.Metadata["title"])
		assert.Equal(t, "Go Basics", m.Metadata["course_title"])
		assert.Equal(t, "Course: Go Basics Module: Module 0 Lesson: Lesson 1 short lesson body", m.Metadata["text"])
		assert.NotEmpty(t, m.Metadata["module_id"])
	}
	assert.True(t, found)
}

func TestIngestCourseIsIdempotent(t *testing.T) {
	f := newFixture(t, Config{})
	c, _ := f.seedCourse(t)
	ctx := context.Background()

	first, err := f.p.IngestCourse(ctx, c.ID)
	require.NoError(t, err)
	second, err := f.p.IngestCourse(ctx, c.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first.Vectors, f.vec.Len(index.CourseNamespace))
}

func TestIngestCourseWritesNothingWhenALessonFails(t *testing.T) {
	f := newFixture(t, Config{Concurrency: 1})
	c, _ := f.seedCourse(t)
	f.emb.Fail = &provider.EmbeddingError{Provider: "fake", Transient: true, Err: errors.New("503")}

	_, err := f.p.IngestCourse(context.Background(), c.ID)
	var ee *provider.EmbeddingError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 0, f.vec.Len(index.CourseNamespace))
}

func TestIngestCourseNotFound(t *testing.T) {
	f := newFixture(t, Config{})
	_, err := f.p.IngestCourse(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLessonText(t *testing.T) {
	got := LessonText(&types.Course{Title: "C"}, &types.CourseModule{Title: "M"}, &types.Lesson{Title: "L", Content: "body"})
	assert.Equal(t, "Course: C\nModule: M\nLesson: L\n\nbody", got)
}

func TestIngestCourseIndexesHeadingOfBlankLesson(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	c := testutil.SeedCourse(t, ctx, f.db, uuid.New())
	m := testutil.SeedCourseModule(t, ctx, f.db, c.ID, 0)
	l := testutil.SeedLesson(t, ctx, f.db, m.ID, 0, "")

	report, err := f.p.IngestCourse(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 1, report.Vectors)

	ids, err := f.vec.QueryIDs(ctx, index.CourseNamespace, providertest.Vector("x", dim), 10, index.CourseFilter(c.ID.String()))
	require.NoError(t, err)
	assert.Equal(t, []string{EntryID(c.ID, l.ID, 0)}, ids)
}
