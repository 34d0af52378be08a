package learning

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/edugenius-backend/internal/data/repos/testutil"
	types "github.com/yungbote/edugenius-backend/internal/domain"
)

func TestCourseRepo(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewCourseRepo(db, testutil.Logger(t))

	c1 := &types.Course{UserID: uuid.New(), Title: "Rust", Level: "advanced"}
	if _, err := repo.Create(ctx, nil, []*types.Course{c1}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c1.ID == uuid.Nil {
		t.Fatalf("Create: id not assigned")
	}

	rows, err := repo.GetByIDs(ctx, nil, []uuid.UUID{c1.ID, uuid.New()})
	if err != nil || len(rows) != 1 {
		t.Fatalf("GetByIDs: err=%v len=%d", err, len(rows))
	}
	if rows[0].Title != "Rust" {
		t.Fatalf("GetByIDs title: %s", rows[0].Title)
	}
	if rows, err := repo.GetByIDs(ctx, nil, nil); err != nil || len(rows) != 0 {
		t.Fatalf("GetByIDs empty: err=%v len=%d", err, len(rows))
	}
}

func TestCourseRepoCreateInTxRollsBack(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewCourseRepo(db, testutil.Logger(t))

	c := &types.Course{UserID: uuid.New(), Title: "Go"}
	tx := db.Begin()
	if _, err := repo.Create(ctx, tx, []*types.Course{c}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	tx.Rollback()
	if rows, err := repo.GetByIDs(ctx, nil, []uuid.UUID{c.ID}); err != nil || len(rows) != 0 {
		t.Fatalf("after rollback: err=%v len=%d", err, len(rows))
	}
}
