package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/edugenius-backend/internal/data/repos"
	"github.com/yungbote/edugenius-backend/internal/data/repos/testutil"
	types "github.com/yungbote/edugenius-backend/internal/domain"
)

func newGateway(t *testing.T) (Gateway, context.Context) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	return New(db, repos.New(db, log), log), context.Background()
}

func TestGetLessonNotFound(t *testing.T) {
	g, ctx := newGateway(t)
	_, err := g.GetLesson(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = g.GetCourseTree(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInTxCommitsTree(t *testing.T) {
	g, ctx := newGateway(t)
	course := &types.Course{UserID: uuid.New(), Title: "Go"}
	err := g.InTx(ctx, func(ctx context.Context, tx Tx) error {
		require.NoError(t, tx.CreateCourse(ctx, course))
		m := &types.CourseModule{CourseID: course.ID, Order: 0, Title: "Basics"}
		require.NoError(t, tx.CreateModule(ctx, m))
		return tx.CreateLesson(ctx, &types.Lesson{ModuleID: m.ID, Order: 0, Title: "Hello", Content: "world"})
	})
	require.NoError(t, err)

	tree, err := g.GetCourseTree(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, tree.Modules, 1)
	require.Len(t, tree.Modules[0].Lessons, 1)

	l, err := g.GetLesson(ctx, tree.Modules[0].Lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "world", l.Content)
}

func TestInTxRollsBackOnError(t *testing.T) {
	g, ctx := newGateway(t)
	course := &types.Course{UserID: uuid.New(), Title: "Go"}
	boom := errors.New("boom")
	err := g.InTx(ctx, func(ctx context.Context, tx Tx) error {
		require.NoError(t, tx.CreateCourse(ctx, course))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = g.GetCourseTree(ctx, course.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetCourseTreeOrdersChildren(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	g := New(db, repos.New(db, log), log)
	ctx := context.Background()

	course := testutil.SeedCourse(t, ctx, db, uuid.New())
	m1 := testutil.SeedCourseModule(t, ctx, db, course.ID, 1)
	m0 := testutil.SeedCourseModule(t, ctx, db, course.ID, 0)
	testutil.SeedLesson(t, ctx, db, m0.ID, 1, "second")
	testutil.SeedLesson(t, ctx, db, m0.ID, 0, "first")
	testutil.SeedLesson(t, ctx, db, m1.ID, 0, "third")
	other := testutil.SeedCourse(t, ctx, db, uuid.New())
	testutil.SeedLesson(t, ctx, db, testutil.SeedCourseModule(t, ctx, db, other.ID, 0).ID, 0, "elsewhere")

	tree, err := g.GetCourseTree(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, tree.Modules, 2)
	assert.Equal(t, m0.ID, tree.Modules[0].ID)
	assert.Equal(t, m1.ID, tree.Modules[1].ID)

	lessons := tree.Modules[0].Lessons
	require.Len(t, lessons, 2)
	assert.Equal(t, "first", lessons[0].Content)
	assert.Equal(t, "second", lessons[1].Content)
	require.Len(t, tree.Modules[1].Lessons, 1)
	assert.Equal(t, "third", tree.Modules[1].Lessons[0].Content)
}

func TestGetCourseTreeWithoutModules(t *testing.T) {
	g, ctx := newGateway(t)
	course := &types.Course{UserID: uuid.New(), Title: "Empty"}
	require.NoError(t, g.InTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.CreateCourse(ctx, course)
	}))
	tree, err := g.GetCourseTree(ctx, course.ID)
	require.NoError(t, err)
	assert.Empty(t, tree.Modules)
}
