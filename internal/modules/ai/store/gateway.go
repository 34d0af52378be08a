// Package store is the persistence gateway the AI pipeline reads lessons
// through and writes generated courses with.
package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/edugenius-backend/internal/data/repos"
	types "github.com/yungbote/edugenius-backend/internal/domain"
	"github.com/yungbote/edugenius-backend/internal/platform/logger"
)

var ErrNotFound = repos.ErrNotFound

// Tx writes inside one database transaction.
type Tx interface {
	CreateCourse(ctx context.Context, c *types.Course) error
	CreateModule(ctx context.Context, m *types.CourseModule) error
	CreateLesson(ctx context.Context, l *types.Lesson) error
}

type Gateway interface {
	GetLesson(ctx context.Context, lessonID uuid.UUID) (*types.Lesson, error)
	// GetCourseTree loads a course with modules and lessons in display order.
	GetCourseTree(ctx context.Context, courseID uuid.UUID) (*types.Course, error)
	// InTx commits when fn returns nil and rolls everything back otherwise.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type gormGateway struct {
	db    *gorm.DB
	repos repos.Repos
	log   *logger.Logger
}

func New(db *gorm.DB, r repos.Repos, baseLog *logger.Logger) Gateway {
	return &gormGateway{db: db, repos: r, log: baseLog.With("service", "PersistenceGateway")}
}

func (g *gormGateway) GetLesson(ctx context.Context, lessonID uuid.UUID) (*types.Lesson, error) {
	rows, err := g.repos.Lesson.GetByIDs(ctx, nil, []uuid.UUID{lessonID})
	if err != nil {
		return nil, fmt.Errorf("load lesson %s: %w", lessonID, repos.MapError(err))
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("lesson %s: %w", lessonID, ErrNotFound)
	}
	return rows[0], nil
}

func (g *gormGateway) GetCourseTree(ctx context.Context, courseID uuid.UUID) (*types.Course, error) {
	courses, err := g.repos.Course.GetByIDs(ctx, nil, []uuid.UUID{courseID})
	if err != nil {
		return nil, fmt.Errorf("load course %s: %w", courseID, repos.MapError(err))
	}
	if len(courses) == 0 {
		return nil, fmt.Errorf("course %s: %w", courseID, ErrNotFound)
	}
	course := courses[0]

	modules, err := g.repos.CourseModule.GetByCourseIDs(ctx, nil, []uuid.UUID{courseID})
	if err != nil {
		return nil, fmt.Errorf("load modules of %s: %w", courseID, repos.MapError(err))
	}
	moduleIDs := make([]uuid.UUID, len(modules))
	for i, m := range modules {
		moduleIDs[i] = m.ID
	}
	lessons, err := g.repos.Lesson.GetByModuleIDs(ctx, nil, moduleIDs)
	if err != nil {
		return nil, fmt.Errorf("load lessons of %s: %w", courseID, repos.MapError(err))
	}

	// lessons arrive ordered within each module
	byModule := make(map[uuid.UUID][]types.Lesson, len(modules))
	for _, l := range lessons {
		byModule[l.ModuleID] = append(byModule[l.ModuleID], *l)
	}
	course.Modules = make([]types.CourseModule, len(modules))
	for i, m := range modules {
		m.Lessons = byModule[m.ID]
		course.Modules[i] = *m
	}
	return course, nil
}

func (g *gormGateway) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &gormTx{tx: tx, repos: g.repos})
	})
}

type gormTx struct {
	tx    *gorm.DB
	repos repos.Repos
}

func (t *gormTx) CreateCourse(ctx context.Context, c *types.Course) error {
	if _, err := t.repos.Course.Create(ctx, t.tx, []*types.Course{c}); err != nil {
		return fmt.Errorf("create course: %w", repos.MapError(err))
	}
	return nil
}

func (t *gormTx) CreateModule(ctx context.Context, m *types.CourseModule) error {
	if _, err := t.repos.CourseModule.Create(ctx, t.tx, []*types.CourseModule{m}); err != nil {
		return fmt.Errorf("create module: %w", repos.MapError(err))
	}
	return nil
}

func (t *gormTx) CreateLesson(ctx context.Context, l *types.Lesson) error {
	if _, err := t.repos.Lesson.Create(ctx, t.tx, []*types.Lesson{l}); err != nil {
		return fmt.Errorf("create lesson: %w", repos.MapError(err))
	}
	return nil
}
