package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/edugenius-backend/internal/domain"
)

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID) *types.Course {
	tb.Helper()
	c := &types.Course{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       "Go Basics",
		Description: "An introduction",
		Level:       "beginner",
		Metadata:    datatypes.JSON([]byte(`{"topic":"go"}`)),
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedCourseModule(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, order int) *types.CourseModule {
	tb.Helper()
	m := &types.CourseModule{
		ID:       uuid.New(),
		CourseID: courseID,
		Order:    order,
		Title:    fmt.Sprintf("Module %d", order),
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed course module: %v", err)
	}
	return m
}

func SeedLesson(tb testing.TB, ctx context.Context, tx *gorm.DB, moduleID uuid.UUID, order int, content string) *types.Lesson {
	tb.Helper()
	l := &types.Lesson{
		ID:       uuid.New(),
		ModuleID: moduleID,
		Order:    order,
		Title:    fmt.Sprintf("Lesson %d", order),
		Content:  content,
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed lesson: %v", err)
	}
	return l
}
