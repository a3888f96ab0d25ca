package diagnostics

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/roster/internal/db"
)

// RequiredTables are the tables the API reads and writes.
var RequiredTables = []string{"students", "courses", "student_courses"}

// SchemaPrivileges describes what the current user may do in a schema.
type SchemaPrivileges struct {
	Name   string `json:"name"`
	Usage  bool   `json:"usage"`
	Create bool   `json:"create"`
}

// TablePrivileges describes what the current user may do with one table.
type TablePrivileges struct {
	Name   string `json:"name"`
	Select bool   `json:"select"`
	Insert bool   `json:"insert"`
	Update bool   `json:"update"`
	Delete bool   `json:"delete"`
}

// Report is the outcome of a connection check.
type Report struct {
	Database    string            `json:"database"`
	CurrentUser string            `json:"currentUser"`
	Schema      *SchemaPrivileges `json:"schema"` // nil when the schema does not exist
	Tables      []TablePrivileges `json:"tables"`
}

// Problems lists everything that would stop the API from working.
func (r *Report) Problems() []string {
	var problems []string

	if r.Schema == nil {
		problems = append(problems, "schema does not exist")
	} else if !r.Schema.Usage {
		problems = append(problems, fmt.Sprintf("no USAGE privilege on schema %s", r.Schema.Name))
	}

	tables := make(map[string]TablePrivileges, len(r.Tables))
	for _, t := range r.Tables {
		tables[t.Name] = t
	}

	for _, name := range RequiredTables {
		t, ok := tables[name]
		if !ok {
			problems = append(problems, fmt.Sprintf("table %s is missing (run migrations)", name))
			continue
		}
		if !(t.Select && t.Insert && t.Update && t.Delete) {
			problems = append(problems, fmt.Sprintf("insufficient privileges on table %s", name))
		}
	}

	return problems
}

// Checker inspects a database connection.
type Checker struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewChecker creates a Checker on conn.
func NewChecker(conn db.Querier) *Checker {
	return &Checker{
		db: conn,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Run collects the current database, schema privileges and table privileges.
func (c *Checker) Run(ctx context.Context, schema string) (*Report, error) {
	report := &Report{Tables: []TablePrivileges{}}

	if err := c.db.QueryRow(ctx, "SELECT current_database(), current_user").
		Scan(&report.Database, &report.CurrentUser); err != nil {
		return nil, fmt.Errorf("error querying current database: %w", err)
	}

	schemaSQL, args, err := c.sb.Select(
		"schema_name",
		"has_schema_privilege(current_user, schema_name, 'usage')",
		"has_schema_privilege(current_user, schema_name, 'create')",
	).From("information_schema.schemata").Where(squirrel.Eq{"schema_name": schema}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build schema privileges query: %w", err)
	}

	var sp SchemaPrivileges
	err = c.db.QueryRow(ctx, schemaSQL, args...).Scan(&sp.Name, &sp.Usage, &sp.Create)
	switch {
	case err == nil:
		report.Schema = &sp
	case errors.Is(err, pgx.ErrNoRows):
	default:
		return nil, fmt.Errorf("error querying schema privileges: %w", err)
	}

	tablesSQL, args, err := c.sb.Select(
		"table_name",
		"has_table_privilege(current_user, quote_ident(table_schema) || '.' || quote_ident(table_name), 'SELECT')",
		"has_table_privilege(current_user, quote_ident(table_schema) || '.' || quote_ident(table_name), 'INSERT')",
		"has_table_privilege(current_user, quote_ident(table_schema) || '.' || quote_ident(table_name), 'UPDATE')",
		"has_table_privilege(current_user, quote_ident(table_schema) || '.' || quote_ident(table_name), 'DELETE')",
	).From("information_schema.tables").
		Where(squirrel.Eq{"table_schema": schema, "table_type": "BASE TABLE"}).
		OrderBy("table_name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build table privileges query: %w", err)
	}

	rows, err := c.db.Query(ctx, tablesSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying table privileges: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t TablePrivileges
		if err := rows.Scan(&t.Name, &t.Select, &t.Insert, &t.Update, &t.Delete); err != nil {
			return nil, fmt.Errorf("error scanning table privileges: %w", err)
		}
		report.Tables = append(report.Tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table privileges: %w", err)
	}

	return report, nil
}
