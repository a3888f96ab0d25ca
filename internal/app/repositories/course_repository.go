package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/roster/internal/app/models"
	"github.com/yigit/roster/internal/db"
	"github.com/yigit/roster/internal/pkg/apperrors"
	"github.com/yigit/roster/internal/pkg/dberrors"
	"github.com/yigit/roster/internal/pkg/logger"
)

var courseColumns = []string{"id", "code", "name", "description", "created_at", "updated_at"}

// CourseRepository handles course database operations
type CourseRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(conn db.Querier) *CourseRepository {
	return &CourseRepository{
		db: conn,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanCourse(row pgx.Row) (*models.Course, error) {
	course := &models.Course{}
	err := row.Scan(&course.ID, &course.Code, &course.Name, &course.Description, &course.CreatedAt, &course.UpdatedAt)
	return course, err
}

// Create inserts a course and fills in its generated fields.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	sql, args, err := r.sb.Insert("courses").
		Columns("code", "name", "description").
		Values(course.Code, course.Name, course.Description).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create course SQL")
		return fmt.Errorf("failed to build create course query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&course.ID, &course.CreatedAt, &course.UpdatedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, dberrors.ConstraintCoursesCodeKey) {
			return apperrors.ErrCourseAlreadyExists
		}
		logger.Error().Err(err).Str("code", course.Code).Msg("Error executing create course query")
		return fmt.Errorf("error creating course: %w", err)
	}
	return nil
}

// GetByID retrieves a course by ID
func (r *CourseRepository) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByCode retrieves a course by its unique code
func (r *CourseRepository) GetByCode(ctx context.Context, code string) (*models.Course, error) {
	return r.getOne(ctx, squirrel.Eq{"code": code})
}

func (r *CourseRepository) getOne(ctx context.Context, where squirrel.Eq) (*models.Course, error) {
	sql, args, err := r.sb.Select(courseColumns...).From("courses").Where(where).Limit(1).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get course SQL")
		return nil, fmt.Errorf("failed to build get course query: %w", err)
	}

	course, err := scanCourse(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCourseNotFound
		}
		logger.Error().Err(err).Interface("where", where).Msg("Error scanning course row")
		return nil, fmt.Errorf("error getting course: %w", err)
	}
	return course, nil
}

// GetAll retrieves all courses sorted by name
func (r *CourseRepository) GetAll(ctx context.Context) ([]*models.Course, error) {
	sql, args, err := r.sb.Select(courseColumns...).From("courses").OrderBy("name ASC", "id ASC").ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get all courses SQL")
		return nil, fmt.Errorf("failed to build get all courses query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing get all courses query")
		return nil, fmt.Errorf("error querying courses: %w", err)
	}
	defer rows.Close()

	courses := []*models.Course{}
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning course row during get all")
			return nil, fmt.Errorf("error scanning course row: %w", err)
		}
		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating course rows")
		return nil, fmt.Errorf("error iterating course rows: %w", err)
	}

	return courses, nil
}
