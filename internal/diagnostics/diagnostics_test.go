package diagnostics

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func tableRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"table_name", "select", "insert", "update", "delete"})
}

func TestCheckerRun(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`SELECT current_database\(\), current_user`).
		WillReturnRows(pgxmock.NewRows([]string{"current_database", "current_user"}).AddRow("roster", "app"))
	mock.ExpectQuery(`FROM information_schema.schemata WHERE schema_name = \$1`).
		WithArgs("public").
		WillReturnRows(pgxmock.NewRows([]string{"schema_name", "usage", "create"}).AddRow("public", true, false))
	mock.ExpectQuery(`FROM information_schema.tables`).
		WillReturnRows(tableRows().
			AddRow("courses", true, true, true, true).
			AddRow("schema_migrations", true, true, true, true).
			AddRow("student_courses", true, true, true, true).
			AddRow("students", true, true, false, true))

	report, err := NewChecker(mock).Run(context.Background(), "public")
	require.NoError(t, err)

	assert.Equal(t, "roster", report.Database)
	assert.Equal(t, "app", report.CurrentUser)
	require.NotNil(t, report.Schema)
	assert.True(t, report.Schema.Usage)
	assert.False(t, report.Schema.Create)
	assert.Len(t, report.Tables, 4)
	assert.Equal(t, []string{"insufficient privileges on table students"}, report.Problems())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckerRunMissingSchemaAndTables(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`SELECT current_database`).
		WillReturnRows(pgxmock.NewRows([]string{"current_database", "current_user"}).AddRow("roster", "app"))
	mock.ExpectQuery(`FROM information_schema.schemata`).
		WillReturnRows(pgxmock.NewRows([]string{"schema_name", "usage", "create"}))
	mock.ExpectQuery(`FROM information_schema.tables`).WillReturnRows(tableRows())

	report, err := NewChecker(mock).Run(context.Background(), "missing")
	require.NoError(t, err)

	assert.Nil(t, report.Schema)
	assert.Empty(t, report.Tables)
	assert.Equal(t, []string{
		"schema does not exist",
		"table students is missing (run migrations)",
		"table courses is missing (run migrations)",
		"table student_courses is missing (run migrations)",
	}, report.Problems())
}

func TestCheckerRunConnectionFailure(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT current_database`).WillReturnError(errors.New("connection refused"))

	_, err := NewChecker(mock).Run(context.Background(), "public")
	assert.ErrorContains(t, err, "connection refused")
}
