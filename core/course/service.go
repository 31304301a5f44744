package course

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trezcool/masomo-lms/core"
	"github.com/trezcool/masomo-lms/core/user"
)

var (
	// errors
	ErrNotFound           = errors.New("course not found")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrAlreadyEnrolled    = errors.New("already enrolled in this course")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		// QueryCourses applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Course.Title or Course.Description.
		QueryCourses(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error)
		// CreateEnrollment returns ErrAlreadyEnrolled if the student is already enrolled.
		CreateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		// GetEnrollment returns ErrEnrollmentNotFound when the student is not enrolled.
		GetEnrollment(ctx context.Context, courseID, studentID string) (Enrollment, error)
		QueryEnrollments(ctx context.Context, filter EnrollmentFilter) ([]Enrollment, error)
	}

	Users interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	Service struct {
		repo     Repository
		users    Users
		validate *validator.Validate
	}
)

func NewService(repo Repository, users Users, validate *validator.Validate) *Service {
	return &Service{repo: repo, users: users, validate: validate}
}

// Create lets a teacher open a course. Admins may open one on behalf of a teacher.
func (svc *Service) Create(ctx context.Context, author user.User, nc NewCourse) (Course, error) {
	if author.IsStudent() {
		return Course{}, core.ErrPermissionDenied
	}
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	nc.Category = core.CleanString(nc.Category, true /* lower */)
	if err := svc.validate.Struct(nc); err != nil {
		return Course{}, err
	}

	teacher := author
	if author.IsAdmin() && nc.TeacherID != "" {
		usr, err := svc.users.GetByID(ctx, nc.TeacherID)
		if err != nil || !usr.IsTeacher() {
			return Course{}, core.NewValidationError(err, core.FieldError{Field: "teacher_id", Error: "teacher not found"})
		}
		teacher = usr
	}

	return svc.repo.CreateCourse(ctx, Course{
		ID:          uuid.New().String(),
		Title:       nc.Title,
		Description: nc.Description,
		Category:    nc.Category,
		TeacherID:   teacher.ID,
		TeacherName: teacher.Name,
		CreatedAt:   time.Now().UTC(),
	})
}

func (svc *Service) Get(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryCourses(ctx, filter, ordering)
}

func (svc *Service) Enroll(ctx context.Context, student user.User, courseID string) (Enrollment, error) {
	if !student.IsStudent() {
		return Enrollment{}, core.ErrPermissionDenied
	}
	if _, err := svc.repo.GetCourse(ctx, courseID); err != nil {
		return Enrollment{}, err
	}
	return svc.repo.CreateEnrollment(ctx, Enrollment{
		ID:         uuid.New().String(),
		CourseID:   courseID,
		StudentID:  student.ID,
		EnrolledAt: time.Now().UTC(),
	})
}

// EnrollmentStatus tells whether `studentID` is enrolled in `courseID`.
func (svc *Service) EnrollmentStatus(ctx context.Context, studentID, courseID string) (EnrollmentStatus, error) {
	if _, err := svc.repo.GetCourse(ctx, courseID); err != nil {
		return EnrollmentStatus{}, err
	}
	status := EnrollmentStatus{CourseID: courseID}
	enr, err := svc.repo.GetEnrollment(ctx, courseID, studentID)
	switch err {
	case nil:
		status.Enrolled = true
		status.Enrollment = &enr
	case ErrEnrollmentNotFound:
	default:
		return EnrollmentStatus{}, err
	}
	return status, nil
}

func (svc *Service) MyEnrollments(ctx context.Context, studentID string) ([]Enrollment, error) {
	return svc.repo.QueryEnrollments(ctx, EnrollmentFilter{StudentID: studentID})
}

func (svc *Service) EnrolledCourseIDs(ctx context.Context, studentID string) ([]string, error) {
	enrs, err := svc.MyEnrollments(ctx, studentID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(enrs))
	for i, enr := range enrs {
		ids[i] = enr.CourseID
	}
	return ids, nil
}

func (svc *Service) EnrolledStudentIDs(ctx context.Context, courseID string) ([]string, error) {
	enrs, err := svc.repo.QueryEnrollments(ctx, EnrollmentFilter{CourseID: courseID})
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(enrs))
	for i, enr := range enrs {
		ids[i] = enr.StudentID
	}
	return ids, nil
}

// IsMember tells whether `usr` takes part in the course: as its teacher or as an enrolled student.
func (svc *Service) IsMember(ctx context.Context, usr user.User, courseID string) (bool, error) {
	crs, err := svc.repo.GetCourse(ctx, courseID)
	if err != nil {
		return false, err
	}
	if crs.TeacherID == usr.ID {
		return true, nil
	}
	if !usr.IsStudent() {
		return false, nil
	}
	_, err = svc.repo.GetEnrollment(ctx, courseID, usr.ID)
	switch err {
	case nil:
		return true, nil
	case ErrEnrollmentNotFound:
		return false, nil
	default:
		return false, err
	}
}

// CourseIDsOf returns the courses `usr` takes part in.
func (svc *Service) CourseIDsOf(ctx context.Context, usr user.User) ([]string, error) {
	if usr.IsStudent() {
		return svc.EnrolledCourseIDs(ctx, usr.ID)
	}
	var filter *QueryFilter
	if !usr.IsAdmin() {
		filter = &QueryFilter{TeacherID: usr.ID}
	}
	courses, err := svc.repo.QueryCourses(ctx, filter, nil)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(courses))
	for i, crs := range courses {
		ids[i] = crs.ID
	}
	return ids, nil
}
