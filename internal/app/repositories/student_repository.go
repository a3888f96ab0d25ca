package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/roster/internal/app/models"
	"github.com/yigit/roster/internal/db"
	"github.com/yigit/roster/internal/pkg/apperrors"
	"github.com/yigit/roster/internal/pkg/dberrors"
	"github.com/yigit/roster/internal/pkg/logger"
)

// studentColumns is the select list shared by every student read. The courses
// column aggregates the joined rows into one JSON array per student, so a
// student is returned once however many enrollments it has.
var studentColumns = []string{
	"s.id", "s.name", "s.email", "s.cohort", "s.status", "s.img_url", "s.created_at", "s.updated_at",
	`COALESCE(jsonb_agg(DISTINCT jsonb_build_object('id', c.id, 'name', c.name)) FILTER (WHERE c.id IS NOT NULL), '[]'::jsonb) AS courses`,
}

// StudentRepository handles student database operations
type StudentRepository struct {
	db db.TxBeginner
	sb squirrel.StatementBuilderType
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(conn db.TxBeginner) *StudentRepository {
	return &StudentRepository{
		db: conn,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// selectStudentsQuery joins students with their courses, grouped per student.
func (r *StudentRepository) selectStudentsQuery() squirrel.SelectBuilder {
	return r.sb.Select(studentColumns...).
		From("students s").
		LeftJoin("student_courses sc ON sc.student_id = s.id").
		LeftJoin("courses c ON c.id = sc.course_id").
		GroupBy("s.id")
}

// scanStudent scans one row produced by selectStudentsQuery.
func scanStudent(row pgx.Row) (*models.Student, error) {
	var (
		student     models.Student
		coursesJSON []byte
	)
	err := row.Scan(
		&student.ID, &student.Name, &student.Email, &student.Cohort, &student.Status,
		&student.ImgURL, &student.CreatedAt, &student.UpdatedAt, &coursesJSON,
	)
	if err != nil {
		return nil, err
	}

	var courses []models.CourseSummary
	if len(coursesJSON) > 0 {
		if err := json.Unmarshal(coursesJSON, &courses); err != nil {
			return nil, fmt.Errorf("error decoding courses of student %d: %w", student.ID, err)
		}
	}
	student.SetCourses(courses)
	return &student, nil
}

// getByID reads one student with its courses using q, which may be a transaction.
func (r *StudentRepository) getByID(ctx context.Context, q db.Querier, id int64) (*models.Student, error) {
	sql, args, err := r.selectStudentsQuery().Where(squirrel.Eq{"s.id": id}).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get student by ID SQL")
		return nil, fmt.Errorf("failed to build get student query: %w", err)
	}

	student, err := scanStudent(q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		logger.Error().Err(err).Int64("studentID", id).Msg("Error scanning student row")
		return nil, fmt.Errorf("error getting student by ID: %w", err)
	}
	return student, nil
}

// GetByID retrieves a student and its courses.
func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	return r.getByID(ctx, r.db, id)
}

// GetAll retrieves every student with its courses, newest first.
func (r *StudentRepository) GetAll(ctx context.Context) ([]*models.Student, error) {
	sql, args, err := r.selectStudentsQuery().OrderBy("s.id DESC").ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get all students SQL")
		return nil, fmt.Errorf("failed to build get all students query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing get all students query")
		return nil, fmt.Errorf("error querying students: %w", err)
	}
	defer rows.Close()

	students := []*models.Student{}
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning student row during get all")
			return nil, fmt.Errorf("error scanning student row: %w", err)
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating student rows")
		return nil, fmt.Errorf("error iterating student rows: %w", err)
	}

	return students, nil
}

// insertEnrollments bulk-inserts one association row per course id.
func (r *StudentRepository) insertEnrollments(ctx context.Context, tx pgx.Tx, studentID int64, courseIDs []int64) error {
	if len(courseIDs) == 0 {
		return nil
	}

	builder := r.sb.Insert("student_courses").Columns("student_id", "course_id")
	for _, courseID := range courseIDs {
		builder = builder.Values(studentID, courseID)
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert enrollments query: %w", err)
	}

	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return translateWriteError(err)
	}
	return nil
}

// Create inserts a student and its enrollments in one transaction and returns the
// stored student as re-read inside that transaction.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student, courseIDs []int64) (*models.Student, error) {
	var created *models.Student

	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		now := time.Now().UTC()
		sql, args, err := r.sb.Insert("students").
			Columns("name", "email", "cohort", "status", "img_url", "created_at", "updated_at").
			Values(student.Name, student.Email, student.Cohort, student.Status, student.ImgURL, now, now).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build create student query: %w", err)
		}

		var id int64
		if err := tx.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
			return translateWriteError(err)
		}

		if err := r.insertEnrollments(ctx, tx, id, courseIDs); err != nil {
			return err
		}

		created, err = r.getByID(ctx, tx, id)
		return err
	})
	if err != nil {
		logFailedWrite(err, "create", student.Email)
		return nil, err
	}

	return created, nil
}

// Update replaces the scalar fields of a student and its whole enrollment set.
// img_url is left untouched.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student, courseIDs []int64) (*models.Student, error) {
	var updated *models.Student

	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := r.sb.Update("students").
			SetMap(map[string]interface{}{
				"name":       student.Name,
				"email":      student.Email,
				"cohort":     student.Cohort,
				"status":     student.Status,
				"updated_at": time.Now().UTC(),
			}).
			Where(squirrel.Eq{"id": student.ID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build update student query: %w", err)
		}

		cmdTag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return translateWriteError(err)
		}
		if cmdTag.RowsAffected() == 0 {
			return apperrors.ErrStudentNotFound
		}

		delSQL, delArgs, err := r.sb.Delete("student_courses").Where(squirrel.Eq{"student_id": student.ID}).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build clear enrollments query: %w", err)
		}
		if _, err := tx.Exec(ctx, delSQL, delArgs...); err != nil {
			return fmt.Errorf("error clearing enrollments: %w", err)
		}

		if err := r.insertEnrollments(ctx, tx, student.ID, courseIDs); err != nil {
			return err
		}

		updated, err = r.getByID(ctx, tx, student.ID)
		return err
	})
	if err != nil {
		logFailedWrite(err, "update", student.Email)
		return nil, err
	}

	return updated, nil
}

// Delete removes a student; enrollments go with it through ON DELETE CASCADE.
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("students").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building delete student SQL")
		return fmt.Errorf("failed to build delete student query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("studentID", id).Msg("Error executing delete student query")
		return fmt.Errorf("error deleting student: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotFound
	}
	return nil
}

// translateWriteError maps constraint violations onto application errors.
func translateWriteError(err error) error {
	switch {
	case dberrors.IsDuplicateConstraintError(err, dberrors.ConstraintStudentsEmailKey):
		return apperrors.ErrStudentEmailExists
	case dberrors.IsForeignKeyViolation(err, dberrors.ConstraintStudentCoursesCourseFK):
		return apperrors.ErrInvalidCourseReference
	case dberrors.IsDuplicateConstraintError(err, dberrors.ConstraintStudentCoursesPKey):
		return apperrors.NewValidationFieldError("courseIds", "course ids must not repeat")
	case dberrors.IsCheckViolation(err):
		return apperrors.NewValidationError("student violates a table constraint")
	default:
		return fmt.Errorf("error writing student: %w", err)
	}
}

// logFailedWrite logs unexpected write failures; expected domain errors are left
// to the request logger.
func logFailedWrite(err error, op, email string) {
	if apperrors.Is(err, apperrors.ErrValidationFailed, apperrors.ErrResourceAlreadyExists, apperrors.ErrResourceNotFound) {
		return
	}
	logger.Error().Err(err).Str("op", op).Str("email", email).Msg("Student write rolled back")
}
