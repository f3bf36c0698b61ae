package reading

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

const recordCols = `id, student_id, book_id, format, progress_units, total_units,
	pinned, rating, notes, completed, status, submission_type, submitted_at,
	revision_requested_at, failed_at, rejected_at, unlock_requested_at,
	parent_unlocked_at, teacher_notes, quiz_score, version, created_at, updated_at`

func (s *SQLStore) Create(ctx context.Context, r Record) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO reading_records
		(id, student_id, book_id, format, progress_units, total_units, pinned,
		 rating, notes, completed, status, submission_type, submitted_at,
		 revision_requested_at, failed_at, rejected_at, unlock_requested_at,
		 parent_unlocked_at, teacher_notes, quiz_score, version, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,1,$21,$21)`,
		r.ID, r.StudentID, r.BookID, string(r.Format), r.ProgressUnits, r.TotalUnits,
		r.Pinned, nullInt(r.Rating), r.Notes, r.Completed, string(r.Status),
		r.SubmissionType, unixPtr(r.SubmittedAt), unixPtr(r.RevisionRequestedAt),
		unixPtr(r.FailedAt), unixPtr(r.RejectedAt), unixPtr(r.UnlockRequestedAt),
		unixPtr(r.ParentUnlockedAt), r.TeacherNotes, r.QuizScore, s.now().Unix())
	if err != nil && isUniqueViolation(err) {
		return ErrAlreadyReading
	}
	return err
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || // sqlite
		strings.Contains(msg, "duplicate key") // postgres
}

func (s *SQLStore) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordCols+` FROM reading_records WHERE id=$1`, id)
	return scanRecord(row)
}

func (s *SQLStore) ListByStudent(ctx context.Context, studentID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordCols+` FROM reading_records WHERE student_id=$1 ORDER BY created_at DESC`,
		studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (s *SQLStore) ListByStatus(ctx context.Context, status Status) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordCols+` FROM reading_records WHERE status=$1 ORDER BY submitted_at ASC`,
		string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

// Update is the conditional write behind every status change: the WHERE
// clause on version makes a lost race visible as zero affected rows.
func (s *SQLStore) Update(ctx context.Context, r Record) (Record, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE reading_records SET
		progress_units=$1, pinned=$2, rating=$3, notes=$4, completed=$5,
		status=$6, submission_type=$7, submitted_at=$8,
		revision_requested_at=$9, failed_at=$10, rejected_at=$11,
		unlock_requested_at=$12, parent_unlocked_at=$13,
		teacher_notes=$14, quiz_score=$15, version=version+1, updated_at=$16
		WHERE id=$17 AND version=$18`,
		r.ProgressUnits, r.Pinned, nullInt(r.Rating), r.Notes, r.Completed,
		string(r.Status), r.SubmissionType, unixPtr(r.SubmittedAt),
		unixPtr(r.RevisionRequestedAt), unixPtr(r.FailedAt), unixPtr(r.RejectedAt),
		unixPtr(r.UnlockRequestedAt), unixPtr(r.ParentUnlockedAt),
		r.TeacherNotes, r.QuizScore, s.now().Unix(), r.ID, r.Version)
	if err != nil {
		return Record{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Record{}, err
	}
	if n == 0 {
		if _, getErr := s.Get(ctx, r.ID); errors.Is(getErr, ErrNotFound) {
			return Record{}, ErrNotFound
		}
		return Record{}, ErrConflict
	}
	return s.Get(ctx, r.ID)
}

func (s *SQLStore) Delete(ctx context.Context, id string, version int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM reading_records WHERE id=$1 AND version=$2`, id, version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, getErr := s.Get(ctx, id); errors.Is(getErr, ErrNotFound) {
			return ErrNotFound
		}
		return ErrConflict
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		r          Record
		format     string
		status     string
		rating     sql.NullInt64
		submitted  sql.NullInt64
		revision   sql.NullInt64
		failed     sql.NullInt64
		rejected   sql.NullInt64
		unlockReq  sql.NullInt64
		parentUnlk sql.NullInt64
		created    int64
		updated    int64
	)
	err := row.Scan(&r.ID, &r.StudentID, &r.BookID, &format, &r.ProgressUnits,
		&r.TotalUnits, &r.Pinned, &rating, &r.Notes, &r.Completed, &status,
		&r.SubmissionType, &submitted, &revision, &failed, &rejected,
		&unlockReq, &parentUnlk, &r.TeacherNotes, &r.QuizScore, &r.Version,
		&created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	r.Format = Format(format)
	r.Status = Status(status)
	if rating.Valid {
		v := int(rating.Int64)
		r.Rating = &v
	}
	r.SubmittedAt = timePtr(submitted)
	r.RevisionRequestedAt = timePtr(revision)
	r.FailedAt = timePtr(failed)
	r.RejectedAt = timePtr(rejected)
	r.UnlockRequestedAt = timePtr(unlockReq)
	r.ParentUnlockedAt = timePtr(parentUnlk)
	r.CreatedAt = time.Unix(created, 0).UTC()
	r.UpdatedAt = time.Unix(updated, 0).UTC()
	return r, nil
}

func collectRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func unixPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}
