package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// ScanFunc converts one database row into a Record.
type ScanFunc func(row *sql.Row) (Record, error)

// SQLStore is a Store backed by database/sql. The query must select exactly
// one record and take the lookup key as its single placeholder argument:
//
//	store := records.NewSQLStore(db,
//	    `SELECT id, email FROM users WHERE id = ?`,
//	    func(row *sql.Row) (records.Record, error) {
//	        u := &User{}
//	        return u, row.Scan(&u.ID, &u.Email)
//	    })
//
// sql.ErrNoRows is translated to ErrNotFound.
type SQLStore struct {
	db    *sql.DB
	query string
	scan  ScanFunc
}

// NewSQLStore creates a SQLStore over an open database handle.
func NewSQLStore(db *sql.DB, query string, scan ScanFunc) *SQLStore {
	return &SQLStore{db: db, query: query, scan: scan}
}

// Open opens a sqlite database at path using the pure-Go driver.
func Open(path string) (*sql.DB, error) {
	return sql.Open("sqlite", path)
}

// FindByKey implements Store.
func (s *SQLStore) FindByKey(ctx context.Context, key any) (Record, error) {
	row := s.db.QueryRowContext(ctx, s.query, key)
	rec, err := s.scan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: key %v", ErrNotFound, key)
		}
		return nil, err
	}
	return rec, nil
}
