package reading

import "context"

// Store persists lifecycle records. Update and Delete are conditional
// writes: they only apply when the caller's copy carries the current
// version, and fail with ErrConflict otherwise. Student, parent and teacher
// all write through this interface concurrently; the version guard is what
// keeps a cancellation from silently overwriting a teacher decision.
type Store interface {
	Create(ctx context.Context, r Record) error
	Get(ctx context.Context, id string) (Record, error)
	ListByStudent(ctx context.Context, studentID string) ([]Record, error)
	ListByStatus(ctx context.Context, status Status) ([]Record, error)

	// Update applies r if the stored version equals r.Version, bumps the
	// version, and returns the stored result.
	Update(ctx context.Context, r Record) (Record, error)

	// Delete removes the record if the stored version matches.
	Delete(ctx context.Context, id string, version int64) error
}
