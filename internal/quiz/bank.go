package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// ErrBankEmpty means no question bank exists for the book, scoped or legacy.
var ErrBankEmpty = errors.New("no question bank for book")

// BankSource looks up the question bank for a book. Banks are keyed by
// (bookID, academic period); an empty period addresses the unscoped legacy
// bank.
type BankSource interface {
	Questions(ctx context.Context, bookID, period string) ([]Question, error)
}

// MemoryBank backs tests, keyed "bookID|period".
type MemoryBank map[string][]Question

func (m MemoryBank) Questions(_ context.Context, bookID, period string) ([]Question, error) {
	qs, ok := m[bookID+"|"+period]
	if !ok || len(qs) == 0 {
		return nil, ErrBankEmpty
	}
	return qs, nil
}

type SQLBank struct{ db *sql.DB }

func NewSQLBank(db *sql.DB) *SQLBank { return &SQLBank{db: db} }

func (s *SQLBank) Questions(ctx context.Context, bookID, period string) ([]Question, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT questions_json FROM question_banks WHERE book_id=$1 AND period=$2`,
		bookID, period)
	var qjson string
	if err := row.Scan(&qjson); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBankEmpty
		}
		return nil, err
	}
	var qs []Question
	if err := json.Unmarshal([]byte(qjson), &qs); err != nil {
		return nil, err
	}
	if len(qs) == 0 {
		return nil, ErrBankEmpty
	}
	return qs, nil
}
