package repos

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/edugenius-backend/internal/data/repos/learning"
	"github.com/yungbote/edugenius-backend/internal/platform/logger"
)

type CourseRepo = learning.CourseRepo
type CourseModuleRepo = learning.CourseModuleRepo
type LessonRepo = learning.LessonRepo

type Repos struct {
	Course       CourseRepo
	CourseModule CourseModuleRepo
	Lesson       LessonRepo
}

func New(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		Course:       learning.NewCourseRepo(db, log),
		CourseModule: learning.NewCourseModuleRepo(db, log),
		Lesson:       learning.NewLessonRepo(db, log),
	}
}

var (
	ErrNotFound  = errors.New("record not found")
	ErrConflict  = errors.New("record conflict")
	ErrTransient = errors.New("transient database error")
)

// MapError folds driver errors into the package sentinels while keeping the
// original in the chain.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Join(ErrNotFound, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return errors.Join(ErrConflict, err)
		case "40001", "40P01", "57P01":
			return errors.Join(ErrTransient, err)
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errors.Join(ErrConflict, err)
	}
	return err
}
