package learning

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/edugenius-backend/internal/platform/logger"
)

// table holds the query shapes every course-tree repo shares. Each method
// takes an optional tx so callers can enlist it in a transaction.
type table[T any] struct {
	db  *gorm.DB
	log *logger.Logger
}

func newTable[T any](db *gorm.DB, log *logger.Logger, name string) table[T] {
	return table[T]{db: db, log: log.With("repo", name)}
}

func (t table[T]) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx == nil {
		tx = t.db
	}
	return tx.WithContext(ctx)
}

func (t table[T]) create(ctx context.Context, tx *gorm.DB, rows []*T) ([]*T, error) {
	if len(rows) == 0 {
		return []*T{}, nil
	}
	if err := t.conn(ctx, tx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// findIn returns rows whose column is in ids, sorted by order when given.
func (t table[T]) findIn(ctx context.Context, tx *gorm.DB, column string, ids []uuid.UUID, order string) ([]*T, error) {
	var out []*T
	if len(ids) == 0 {
		return out, nil
	}
	q := t.conn(ctx, tx).Where(column+" IN ?", ids)
	if order != "" {
		q = q.Order(order)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
