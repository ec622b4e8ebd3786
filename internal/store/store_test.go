package store

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/opfield/pkg/opfield"
)

type stubReader struct {
	value string
}

func (s stubReader) Read(context.Context, string) (string, error) {
	return s.value, nil
}

func newMockStore(t *testing.T, driver string, field *opfield.Field) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s, err := New(db, driver, "secret_refs", field)
	require.NoError(t, err)
	return s, mock
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	tests := []struct {
		name    string
		driver  string
		table   string
		field   *opfield.Field
		wantErr bool
	}{
		{name: "defaults", driver: "postgres"},
		{name: "mysql", driver: "mysql", table: "refs"},
		{name: "bad table", driver: "postgres", table: "refs; DROP TABLE users", wantErr: true},
		{name: "bad column", driver: "postgres", field: opfield.New("op uri"), wantErr: true},
		{name: "unknown driver", driver: "sqlserver", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, err := New(db, tt.driver, tt.table, tt.field)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, s.Field())
		})
	}
}

func TestOpen_UnsupportedType(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "oracle", "dsn", "", nil)
	assert.ErrorContains(t, err, "unsupported database type")
}

func TestStore_EnsureSchema(t *testing.T) {
	t.Parallel()

	tests := []struct {
		driver string
	}{
		{driver: "postgres"},
		{driver: "mysql"},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			t.Parallel()

			s, mock := newMockStore(t, tt.driver, opfield.New("op_uri", opfield.WithMaxLength(512)))
			mock.ExpectExec(regexp.QuoteMeta(
				"CREATE TABLE IF NOT EXISTS secret_refs (name VARCHAR(255) PRIMARY KEY, op_uri VARCHAR(512) NOT NULL)",
			)).WillReturnResult(sqlmock.NewResult(0, 0))

			require.NoError(t, s.EnsureSchema(context.Background()))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStore_Put(t *testing.T) {
	t.Parallel()

	t.Run("postgres upsert", func(t *testing.T) {
		t.Parallel()

		s, mock := newMockStore(t, "postgres", nil)
		mock.ExpectExec(regexp.QuoteMeta(
			"INSERT INTO secret_refs (name, op_uri) VALUES ($1, $2) ON CONFLICT (name) DO UPDATE SET op_uri = EXCLUDED.op_uri",
		)).WithArgs("db-password", "op://vault/db/password").WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.Put(context.Background(), "db-password", "op://vault/db/password"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("mysql upsert", func(t *testing.T) {
		t.Parallel()

		s, mock := newMockStore(t, "mysql", nil)
		mock.ExpectExec(regexp.QuoteMeta(
			"INSERT INTO secret_refs (name, op_uri) VALUES (?, ?) ON DUPLICATE KEY UPDATE op_uri = VALUES(op_uri)",
		)).WithArgs("db-password", "op://vault/db/section/password").WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.Put(context.Background(), "db-password", "op://vault/db/section/password"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid reference never reaches the database", func(t *testing.T) {
		t.Parallel()

		s, mock := newMockStore(t, "postgres", opfield.New("op_uri", opfield.WithVaults("Production")))

		err := s.Put(context.Background(), "db-password", "op://Staging/db/password")
		assert.Equal(t, opfield.CodeInvalidVault, opfield.ValidationCode(err))

		err = s.Put(context.Background(), "db-password", "https://example.com")
		assert.Equal(t, opfield.CodeInvalidFormat, opfield.ValidationCode(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("name required", func(t *testing.T) {
		t.Parallel()

		s, _ := newMockStore(t, "postgres", nil)
		assert.Error(t, s.Put(context.Background(), "", "op://vault/db/password"))
	})
}

func TestStore_Get(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		s, mock := newMockStore(t, "postgres", nil)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT name, op_uri FROM secret_refs WHERE name = $1")).
			WithArgs("db-password").
			WillReturnRows(sqlmock.NewRows([]string{"name", "op_uri"}).AddRow("db-password", "op://vault/db/password"))

		rec, err := s.Get(context.Background(), "db-password")
		require.NoError(t, err)
		assert.Equal(t, Record{Name: "db-password", URI: "op://vault/db/password"}, rec)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()

		s, mock := newMockStore(t, "mysql", nil)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT name, op_uri FROM secret_refs WHERE name = ?")).
			WithArgs("nope").
			WillReturnError(sql.ErrNoRows)

		_, err := s.Get(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_List(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t, "postgres", nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT name, op_uri FROM secret_refs ORDER BY name")).
		WillReturnRows(sqlmock.NewRows([]string{"name", "op_uri"}).
			AddRow("api-key", "op://vault/api/credential").
			AddRow("db-password", "op://vault/db/password"))

	records, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Record{
		{Name: "api-key", URI: "op://vault/api/credential"},
		{Name: "db-password", URI: "op://vault/db/password"},
	}, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t, "postgres", nil)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM secret_refs WHERE name = $1")).
		WithArgs("db-password").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM secret_refs WHERE name = $1")).
		WithArgs("db-password").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Delete(context.Background(), "db-password"))
	assert.ErrorIs(t, s.Delete(context.Background(), "db-password"), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Secret(t *testing.T) {
	t.Parallel()

	field := opfield.New("op_uri", opfield.WithReader(stubReader{value: "s3cr3t"}))
	s, mock := newMockStore(t, "postgres", field)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT name, op_uri FROM secret_refs WHERE name = $1")).
		WithArgs("db-password").
		WillReturnRows(sqlmock.NewRows([]string{"name", "op_uri"}).AddRow("db-password", "op://vault/db/password"))

	secret, err := s.Secret(context.Background(), "db-password")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", secret)
}
