package domain

import (
	"github.com/yungbote/edugenius-backend/internal/domain/learning"
)

type Course = learning.Course
type CourseModule = learning.CourseModule
type Lesson = learning.Lesson

// Models lists every persisted model in migration order.
func Models() []any {
	return []any{
		&Course{},
		&CourseModule{},
		&Lesson{},
	}
}
