package catalog

import (
	"context"
	"database/sql"
	"errors"
)

type SQLCatalog struct{ db *sql.DB }

func NewSQLCatalog(db *sql.DB) *SQLCatalog { return &SQLCatalog{db: db} }

func (s *SQLCatalog) Lookup(ctx context.Context, bookID string) (Book, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, author, format, total_units, cover_url FROM books WHERE id=$1`,
		bookID)
	var b Book
	if err := row.Scan(&b.ID, &b.Title, &b.Author, &b.Format, &b.TotalUnits, &b.CoverURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	return b, nil
}
