package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/roster/internal/app/models"
	"github.com/yigit/roster/internal/pkg/apperrors"
)

type fakeCourseRepo struct {
	courses []*models.Course
	err     error
}

func (r *fakeCourseRepo) GetAll(ctx context.Context) ([]*models.Course, error) {
	return r.courses, r.err
}

func (r *fakeCourseRepo) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	for _, c := range r.courses {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, apperrors.ErrCourseNotFound
}

func TestCourseService(t *testing.T) {
	repo := &fakeCourseRepo{courses: []*models.Course{{ID: 1, Code: "CBSE9-SCI", Name: "Science"}}}
	svc := NewCourseService(repo)
	ctx := context.Background()

	course, err := svc.GetCourse(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Science", course.Name)

	_, err = svc.GetCourse(ctx, 2)
	assert.ErrorIs(t, err, apperrors.ErrCourseNotFound)

	_, err = svc.GetCourse(ctx, -1)
	assert.ErrorIs(t, err, apperrors.ErrCourseNotFound)

	courses, err := svc.ListCourses(ctx)
	require.NoError(t, err)
	assert.Len(t, courses, 1)
}

func TestListCoursesWrapsRepositoryError(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewCourseService(&fakeCourseRepo{err: boom})

	_, err := svc.ListCourses(context.Background())
	assert.ErrorIs(t, err, boom)
}
