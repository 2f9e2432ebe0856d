package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	apperrors "github.com/adaptmel/missionquery/internal/errors"
)

// ResultSet is a fully materialised query result. Columns preserves the
// SELECT order so presentation layers can render headers without
// re-inspecting the SQL.
type ResultSet struct {
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

// RowCount returns the number of rows in the result
func (rs *ResultSet) RowCount() int {
	return len(rs.Rows)
}

// Store executes read-only queries against the project database. Each
// query gets its own connection, so a failed statement never poisons
// subsequent ones.
type Store struct {
	path string
}

// New creates a Store for the database file at path
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// open opens a read-only connection to the database file
func (s *Store) open() (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro", s.path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// Execute runs a single read-only query and materialises the full
// result. Driver errors come back verbatim inside an execution error
// so callers can surface the exact complaint.
func (s *Store) Execute(ctx context.Context, query string) (*ResultSet, error) {
	db, err := s.open()
	if err != nil {
		return nil, apperrors.NewExecutionError(err, query)
	}
	defer db.Close()

	rs, err := queryResultSet(ctx, db, query)
	if err != nil {
		return nil, apperrors.NewExecutionError(err, query)
	}
	return rs, nil
}

// Ping verifies the database file is present and readable
func (s *Store) Ping(ctx context.Context) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()
	return db.PingContext(ctx)
}

// queryResultSet materialises all rows of a query. Split out so tests
// can drive it with any database/sql handle.
func queryResultSet(ctx context.Context, db *sql.DB, query string) (*ResultSet, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &ResultSet{
		Columns: columns,
		Rows:    make([][]interface{}, 0),
	}

	for rows.Next() {
		values := make([]interface{}, len(columns))
		scanArgs := make([]interface{}, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}

		if err := rows.Scan(scanArgs...); err != nil {
			return nil, err
		}

		// SQLite hands TEXT back as []byte; normalise to string so
		// JSON encoding does not base64 the cell.
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}

		result.Rows = append(result.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
