package consent

import (
	"context"
	"database/sql"
	"errors"
)

type SQLCodeSource struct{ db *sql.DB }

func NewSQLCodeSource(db *sql.DB) *SQLCodeSource { return &SQLCodeSource{db: db} }

func (s *SQLCodeSource) CodeHash(ctx context.Context, studentID string) (string, string, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT code_hash, issued_by FROM student_codes WHERE student_id=$1`, studentID)
	var hash, issuedBy string
	if err := row.Scan(&hash, &issuedBy); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", ErrNoCode
		}
		return "", "", err
	}
	return hash, issuedBy, nil
}

func (s *SQLCodeSource) Guardians(ctx context.Context, studentID string) ([]Guardian, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, contact FROM guardians WHERE student_id=$1`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Guardian
	for rows.Next() {
		var g Guardian
		if err := rows.Scan(&g.ID, &g.Contact); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *SQLCodeSource) SetCode(ctx context.Context, studentID, codeHash, issuedBy string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO student_codes (student_id, code_hash, issued_by)
		VALUES ($1,$2,$3)
		ON CONFLICT (student_id) DO UPDATE SET code_hash=EXCLUDED.code_hash, issued_by=EXCLUDED.issued_by`,
		studentID, codeHash, issuedBy)
	return err
}
