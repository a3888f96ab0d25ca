package dberrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes the application reacts to.
const (
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeCheckViolation      = "23514"
)

// Constraint names declared in the schema migrations.
const (
	ConstraintStudentsEmailKey       = "students_email_key"
	ConstraintCoursesCodeKey         = "courses_code_key"
	ConstraintStudentCoursesCourseFK = "student_courses_course_id_fkey"
	ConstraintStudentCoursesPKey     = "student_courses_pkey"
)

func pgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsDuplicateConstraintError checks if the error is a PostgreSQL unique violation error
// for a specific constraint.
func IsDuplicateConstraintError(err error, constraintName string) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == CodeUniqueViolation && pgErr.ConstraintName == constraintName
}

// IsForeignKeyViolation checks if the error is a foreign key violation, optionally
// restricted to one constraint (empty name matches any).
func IsForeignKeyViolation(err error, constraintName string) bool {
	pgErr, ok := pgError(err)
	if !ok || pgErr.Code != CodeForeignKeyViolation {
		return false
	}
	return constraintName == "" || pgErr.ConstraintName == constraintName
}

// IsCheckViolation checks if the error is a CHECK constraint violation.
func IsCheckViolation(err error) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == CodeCheckViolation
}

// IsConnectionError reports whether err comes from failing to reach the server.
func IsConnectionError(err error) bool {
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}
