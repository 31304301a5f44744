package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/masomo-lms/core"
	"github.com/trezcool/masomo-lms/core/course"
)

type courseRepository struct {
	db *courseTable
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db.course}
}

func (repo *courseRepository) CreateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if crs.ID == "" {
		crs.ID = newID()
	}
	repo.db.table[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) GetCourse(_ context.Context, id string) (course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if crs, ok := repo.db.table[id]; ok {
		return *crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.table))
	for _, crs := range repo.db.table {
		if filter != nil {
			if filter.Search != "" {
				search := strings.ToLower(filter.Search)
				if !strings.Contains(strings.ToLower(crs.Title), search) &&
					!strings.Contains(strings.ToLower(crs.Description), search) {
					continue
				}
			}
			if filter.Category != "" && crs.Category != filter.Category {
				continue
			}
			if filter.TeacherID != "" && crs.TeacherID != filter.TeacherID {
				continue
			}
		}
		courses = append(courses, *crs)
	}

	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "title", Ascending: true}}
	}
	cmp := func(a, b course.Course, field string) int {
		switch field {
		case "category":
			return strings.Compare(a.Category, b.Category)
		case "created_at":
			return compareTime(a.CreatedAt, b.CreatedAt)
		default:
			return strings.Compare(a.Title, b.Title)
		}
	}
	sort.SliceStable(courses, func(i, j int) bool {
		for _, ord := range ordering {
			c := cmp(courses[i], courses[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return courses[i].ID < courses[j].ID
	})
	return courses, nil
}

func (repo *courseRepository) CreateEnrollment(_ context.Context, enr course.Enrollment) (course.Enrollment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, e := range repo.db.enrollments {
		if e.CourseID == enr.CourseID && e.StudentID == enr.StudentID {
			return course.Enrollment{}, course.ErrAlreadyEnrolled
		}
	}
	if enr.ID == "" {
		enr.ID = newID()
	}
	repo.db.enrollments[enr.ID] = &enr
	return enr, nil
}

func (repo *courseRepository) GetEnrollment(_ context.Context, courseID, studentID string) (course.Enrollment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, e := range repo.db.enrollments {
		if e.CourseID == courseID && e.StudentID == studentID {
			return *e, nil
		}
	}
	return course.Enrollment{}, course.ErrEnrollmentNotFound
}

func (repo *courseRepository) QueryEnrollments(_ context.Context, filter course.EnrollmentFilter) ([]course.Enrollment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	enrs := make([]course.Enrollment, 0)
	for _, e := range repo.db.enrollments {
		if filter.CourseID != "" && e.CourseID != filter.CourseID {
			continue
		}
		if filter.StudentID != "" && e.StudentID != filter.StudentID {
			continue
		}
		enrs = append(enrs, *e)
	}
	sort.Slice(enrs, func(i, j int) bool {
		if c := compareTime(enrs[i].EnrolledAt, enrs[j].EnrolledAt); c != 0 {
			return c < 0
		}
		return enrs[i].ID < enrs[j].ID
	})
	return enrs, nil
}
