package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/yigit/roster/internal/app/models"
	"github.com/yigit/roster/internal/pkg/apperrors"
)

// CourseRepository is the persistence surface the course service depends on.
type CourseRepository interface {
	GetAll(ctx context.Context) ([]*models.Course, error)
	GetByID(ctx context.Context, id int64) (*models.Course, error)
}

// CourseService defines the interface for course-related operations
type CourseService interface {
	ListCourses(ctx context.Context) ([]*models.Course, error)
	GetCourse(ctx context.Context, id int64) (*models.Course, error)
}

// courseServiceImpl implements the CourseService interface
type courseServiceImpl struct {
	courseRepo CourseRepository
}

// NewCourseService creates a new course service instance
func NewCourseService(courseRepo CourseRepository) CourseService {
	return &courseServiceImpl{courseRepo: courseRepo}
}

// ListCourses retrieves all courses sorted by name
func (s *courseServiceImpl) ListCourses(ctx context.Context) ([]*models.Course, error) {
	courses, err := s.courseRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("error retrieving courses: %w", err)
	}
	return courses, nil
}

// GetCourse retrieves a course by ID
func (s *courseServiceImpl) GetCourse(ctx context.Context, id int64) (*models.Course, error) {
	if id <= 0 {
		return nil, apperrors.ErrCourseNotFound
	}

	course, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrCourseNotFound) {
			return nil, apperrors.ErrCourseNotFound
		}
		return nil, fmt.Errorf("error retrieving course: %w", err)
	}
	return course, nil
}
