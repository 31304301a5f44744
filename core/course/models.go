package course

import (
	"time"

	"github.com/trezcool/masomo-lms/core"
)

type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	TeacherID   string    `json:"teacher_id"`
	TeacherName string    `json:"teacher_name"`
	CreatedAt   time.Time `json:"created_at"`
}

type Enrollment struct {
	ID         string    `json:"id"`
	CourseID   string    `json:"course_id"`
	StudentID  string    `json:"student_id"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// EnrollmentStatus answers "is this student enrolled in this course?" in one query.
type EnrollmentStatus struct {
	CourseID   string      `json:"course_id"`
	Enrolled   bool        `json:"enrolled"`
	Enrollment *Enrollment `json:"enrollment,omitempty"`
}

type NewCourse struct {
	Title       string `json:"title" validate:"required,notblank"`
	Description string `json:"description"`
	Category    string `json:"category" validate:"omitempty,alphanum_"`
	// TeacherID may only be set by admins; it defaults to the creator.
	TeacherID string `json:"teacher_id"`
}

type QueryFilter struct {
	Search    string `query:"search"`
	Category  string `query:"category"`
	TeacherID string `query:"teacher_id"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Category = core.CleanString(qf.Category, true /* lower */)
	qf.TeacherID = core.CleanString(qf.TeacherID)
}

type EnrollmentFilter struct {
	CourseID  string
	StudentID string
}

// OrderingFields are the fields courses can be ordered by.
var OrderingFields = []string{"title", "category", "created_at"}
