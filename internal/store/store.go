// Package store persists named secret references in a SQL table. Only the
// op:// reference is written; secrets are resolved on demand.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/go-sql-driver/mysql" // MySQL / MariaDB
	_ "github.com/lib/pq"              // PostgreSQL

	"github.com/systmms/opfield/pkg/opfield"
)

// DefaultTable is used when no table name is configured.
const DefaultTable = "opfield_secret_refs"

// ErrNotFound is returned when no reference has the requested name.
var ErrNotFound = errors.New("secret reference not found")

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// driverMap maps configured database types to database/sql driver names.
var driverMap = map[string]string{
	"postgresql": "postgres",
	"postgres":   "postgres",
	"mysql":      "mysql",
	"mariadb":    "mysql",
}

// Record is one stored reference.
type Record struct {
	Name string
	URI  opfield.URI
}

// Store reads and writes references through a Field definition.
type Store struct {
	db     *sql.DB
	driver string
	table  string
	field  *opfield.Field
}

// Open connects to the database and pings it.
func Open(ctx context.Context, dbType, dsn, table string, field *opfield.Field) (*Store, error) {
	driver, ok := driverMap[strings.ToLower(dbType)]
	if !ok {
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	s, err := New(db, driver, table, field)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection. driver is "postgres" or "mysql".
func New(db *sql.DB, driver, table string, field *opfield.Field) (*Store, error) {
	if table == "" {
		table = DefaultTable
	}
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name: %q", table)
	}
	if driver != "postgres" && driver != "mysql" {
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}
	if field == nil {
		field = opfield.New("op_uri")
	}
	if !identPattern.MatchString(field.Name()) {
		return nil, fmt.Errorf("invalid column name: %q", field.Name())
	}
	return &Store{db: db, driver: driver, table: table, field: field}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Field returns the field definition references are checked against.
func (s *Store) Field() *opfield.Field {
	return s.field
}

func (s *Store) placeholder(n int) string {
	if s.driver == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// EnsureSchema creates the reference table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	colType, err := s.field.ColumnType(s.driver)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (name VARCHAR(255) PRIMARY KEY, %s %s NOT NULL)",
		s.table, s.field.Name(), colType,
	)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	return nil
}

// Put validates uri and inserts or replaces the reference called name.
func (s *Store) Put(ctx context.Context, name string, uri opfield.URI) error {
	if name == "" {
		return fmt.Errorf("reference name is required")
	}
	if err := s.field.Clean(uri); err != nil {
		return err
	}

	col := s.field.Name()
	var query string
	if s.driver == "postgres" {
		query = fmt.Sprintf(
			"INSERT INTO %s (name, %s) VALUES ($1, $2) ON CONFLICT (name) DO UPDATE SET %s = EXCLUDED.%s",
			s.table, col, col, col,
		)
	} else {
		query = fmt.Sprintf(
			"INSERT INTO %s (name, %s) VALUES (?, ?) ON DUPLICATE KEY UPDATE %s = VALUES(%s)",
			s.table, col, col, col,
		)
	}
	if _, err := s.db.ExecContext(ctx, query, name, uri); err != nil {
		return fmt.Errorf("failed to store reference %q: %w", name, err)
	}
	return nil
}

// Get returns the reference called name.
func (s *Store) Get(ctx context.Context, name string) (Record, error) {
	query := fmt.Sprintf("SELECT name, %s FROM %s WHERE name = %s", s.field.Name(), s.table, s.placeholder(1))

	var rec Record
	err := s.db.QueryRowContext(ctx, query, name).Scan(&rec.Name, &rec.URI)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to load reference %q: %w", name, err)
	}
	return rec, nil
}

// List returns every reference ordered by name.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	query := fmt.Sprintf("SELECT name, %s FROM %s ORDER BY name", s.field.Name(), s.table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list references: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Name, &rec.URI); err != nil {
			return nil, fmt.Errorf("failed to scan reference: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete removes the reference called name.
func (s *Store) Delete(ctx context.Context, name string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE name = %s", s.table, s.placeholder(1))

	res, err := s.db.ExecContext(ctx, query, name)
	if err != nil {
		return fmt.Errorf("failed to delete reference %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete reference %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// Secret loads the reference called name and resolves it through the field.
func (s *Store) Secret(ctx context.Context, name string) (string, error) {
	rec, err := s.Get(ctx, name)
	if err != nil {
		return "", err
	}
	return s.field.Secret(ctx, rec.URI)
}
