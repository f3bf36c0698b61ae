package reading

import "errors"

var (
	// ErrNotFound means no record exists for the given id.
	ErrNotFound = errors.New("record not found")

	// ErrLocked means the derived state forbids the attempted mutation. The
	// caller retries after the state changes, not before.
	ErrLocked = errors.New("record is locked in its current state")

	// ErrConflict means the version precondition of a conditional write no
	// longer held; a concurrent writer got there first. The caller must
	// re-read before retrying.
	ErrConflict = errors.New("record modified concurrently")

	// ErrPinned means progress is pinned at 100% and changing it requires an
	// explicit pin release first.
	ErrPinned = errors.New("progress pinned at total, release required")

	// ErrNotPinned means a pin release was requested with nothing pinned.
	ErrNotPinned = errors.New("progress is not pinned")

	// ErrNotEligible means the record is not in a submittable state.
	ErrNotEligible = errors.New("record not eligible for submission")

	ErrProgressRange  = errors.New("progress out of range")
	ErrRatingRange    = errors.New("rating out of range")
	ErrUnknownMethod  = errors.New("unknown verification method")
	ErrAlreadyReading = errors.New("record for this book already exists")
)
