package seed

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	appModels "github.com/yigit/roster/internal/app/models"
	"github.com/yigit/roster/internal/pkg/apperrors"
)

// CourseCreator is the part of the course repository the seed needs.
type CourseCreator interface {
	GetByCode(ctx context.Context, code string) (*appModels.Course, error)
	Create(ctx context.Context, course *appModels.Course) error
}

// DefaultCourses are the courses every installation starts with.
func DefaultCourses() []appModels.Course {
	return []appModels.Course{
		{Code: "CBSE9-SCI", Name: "CBSE 9 Science", Description: strPtr("Science for Class 9 CBSE")},
		{Code: "CBSE9-MATH", Name: "CBSE 9 Math", Description: strPtr("Mathematics for Class 9 CBSE")},
		{Code: "CBSE9-ENG", Name: "CBSE 9 English", Description: strPtr("English for Class 9 CBSE")},
	}
}

// Result counts what a seed run did.
type Result struct {
	Created  int
	Existing int
}

// CreateDefaultData creates the default courses that don't exist yet. It is safe to
// run repeatedly: a course whose code is already taken is left untouched, including
// when another process inserts it between the lookup and the insert. Errors
// for one course don't stop the others; they are joined and returned at the end.
func CreateDefaultData(ctx context.Context, courses CourseCreator, lgr zerolog.Logger) (Result, error) {
	lgr.Info().Msg("Checking/Creating default data (Courses)...")

	var (
		result   Result
		finalErr error
	)
	for _, course := range DefaultCourses() {
		course := course

		existing, err := courses.GetByCode(ctx, course.Code)
		if err == nil {
			result.Existing++
			lgr.Debug().Str("code", course.Code).Int64("id", existing.ID).Msg("Course already exists")
			continue
		}
		if !errors.Is(err, apperrors.ErrCourseNotFound) {
			lgr.Error().Err(err).Str("code", course.Code).Msg("Error looking up course")
			finalErr = errors.Join(finalErr, err)
			continue
		}

		err = courses.Create(ctx, &course)
		switch {
		case err == nil:
			result.Created++
			lgr.Info().Str("code", course.Code).Int64("id", course.ID).Msg("Created course")
		case errors.Is(err, apperrors.ErrCourseAlreadyExists):
			result.Existing++
			lgr.Debug().Str("code", course.Code).Msg("Course already exists")
		default:
			lgr.Error().Err(err).Str("code", course.Code).Msg("Error creating course")
			finalErr = errors.Join(finalErr, err)
		}
	}

	lgr.Info().Int("created", result.Created).Int("existing", result.Existing).Msg("Default data check complete")
	return result, finalErr
}

func strPtr(s string) *string {
	return &s
}
