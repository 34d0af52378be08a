package learning

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/edugenius-backend/internal/data/repos/testutil"
	types "github.com/yungbote/edugenius-backend/internal/domain"
)

func TestCourseModuleRepo(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewCourseModuleRepo(db, testutil.Logger(t))

	course := testutil.SeedCourse(t, ctx, db, uuid.New())
	other := testutil.SeedCourse(t, ctx, db, uuid.New())

	m1 := &types.CourseModule{CourseID: course.ID, Order: 1, Title: "m1"}
	m0 := &types.CourseModule{CourseID: course.ID, Order: 0, Title: "m0"}
	if _, err := repo.Create(ctx, nil, []*types.CourseModule{m1, m0}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	testutil.SeedCourseModule(t, ctx, db, other.ID, 0)

	if rows, err := repo.GetByIDs(ctx, nil, []uuid.UUID{m1.ID}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByIDs: err=%v len=%d", err, len(rows))
	}
	rows, err := repo.GetByCourseIDs(ctx, nil, []uuid.UUID{course.ID})
	if err != nil || len(rows) != 2 {
		t.Fatalf("GetByCourseIDs: err=%v len=%d", err, len(rows))
	}
	if rows[0].Title != "m0" || rows[1].Title != "m1" {
		t.Fatalf("GetByCourseIDs order: %s, %s", rows[0].Title, rows[1].Title)
	}
}
