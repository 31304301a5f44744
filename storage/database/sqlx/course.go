package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/masomo-lms/core"
	"github.com/trezcool/masomo-lms/core/course"
)

const (
	courseColumns     = `id, title, description, category, teacher_id, teacher_name, created_at`
	enrollmentColumns = `id, course_id, student_id, enrolled_at`
)

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

type courseRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Category    string    `db:"category"`
	TeacherID   string    `db:"teacher_id"`
	TeacherName string    `db:"teacher_name"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r courseRow) toCourse() course.Course {
	return course.Course{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		TeacherID:   r.TeacherID,
		TeacherName: r.TeacherName,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

type enrollmentRow struct {
	ID         string    `db:"id"`
	CourseID   string    `db:"course_id"`
	StudentID  string    `db:"student_id"`
	EnrolledAt time.Time `db:"enrolled_at"`
}

func (r enrollmentRow) toEnrollment() course.Enrollment {
	return course.Enrollment{ID: r.ID, CourseID: r.CourseID, StudentID: r.StudentID, EnrolledAt: r.EnrolledAt.UTC()}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	if crs.ID == "" {
		crs.ID = uuid.New().String()
	}
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO course (`+courseColumns+`)
		VALUES (:id, :title, :description, :category, :teacher_id, :teacher_name, :created_at)`,
		courseRow{
			ID:          crs.ID,
			Title:       crs.Title,
			Description: crs.Description,
			Category:    crs.Category,
			TeacherID:   crs.TeacherID,
			TeacherName: crs.TeacherName,
			CreatedAt:   crs.CreatedAt.UTC(),
		},
	)
	if err != nil {
		return course.Course{}, wrapErr(err, "inserting course")
	}
	return crs, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Course{}, course.ErrNotFound
	}
	var row courseRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+courseColumns+` FROM course WHERE id = $1`, id); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "finding course")
	}
	return row.toCourse(), nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			where = append(where, "(title ILIKE ? OR description ILIKE ?)")
			args = append(args, val, val)
		}
		if filter.Category != "" {
			where = append(where, "category = ?")
			args = append(args, filter.Category)
		}
		if filter.TeacherID != "" {
			where = append(where, "teacher_id::text = ?")
			args = append(args, filter.TeacherID)
		}
	}

	q := `SELECT ` + courseColumns + ` FROM course`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += orderBy(ordering, "title ASC")

	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, wrapErr(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.toCourse())
	}
	return courses, nil
}

func (repo *courseRepository) CreateEnrollment(ctx context.Context, enr course.Enrollment) (course.Enrollment, error) {
	if enr.ID == "" {
		enr.ID = uuid.New().String()
	}
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO enrollment (`+enrollmentColumns+`) VALUES (:id, :course_id, :student_id, :enrolled_at)`,
		enrollmentRow{ID: enr.ID, CourseID: enr.CourseID, StudentID: enr.StudentID, EnrolledAt: enr.EnrolledAt.UTC()},
	)
	if err != nil {
		if isUniqueViolation(err) {
			return course.Enrollment{}, course.ErrAlreadyEnrolled
		}
		return course.Enrollment{}, wrapErr(err, "inserting enrollment")
	}
	return enr, nil
}

func (repo *courseRepository) GetEnrollment(ctx context.Context, courseID, studentID string) (course.Enrollment, error) {
	var row enrollmentRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT `+enrollmentColumns+` FROM enrollment WHERE course_id::text = $1 AND student_id::text = $2`,
		courseID, studentID,
	)
	if err != nil {
		return course.Enrollment{}, trapNoRowsErr(err, course.ErrEnrollmentNotFound, "finding enrollment")
	}
	return row.toEnrollment(), nil
}

func (repo *courseRepository) QueryEnrollments(ctx context.Context, filter course.EnrollmentFilter) ([]course.Enrollment, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.CourseID != "" {
		where = append(where, "course_id::text = ?")
		args = append(args, filter.CourseID)
	}
	if filter.StudentID != "" {
		where = append(where, "student_id::text = ?")
		args = append(args, filter.StudentID)
	}
	q := `SELECT ` + enrollmentColumns + ` FROM enrollment`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY enrolled_at ASC, id ASC"

	var rows []enrollmentRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, wrapErr(err, "querying enrollments")
	}
	enrs := make([]course.Enrollment, 0, len(rows))
	for _, r := range rows {
		enrs = append(enrs, r.toEnrollment())
	}
	return enrs, nil
}
