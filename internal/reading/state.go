package reading

import "time"

// Window lengths. Cooldowns and the cancellation grace period are domain
// constants, not configuration.
const (
	CooldownWindow = 24 * time.Hour
	CancelWindow   = 5 * time.Minute

	// QuizPassMark is the number of correct answers that completes a book
	// via quiz.
	QuizPassMark = 7
)

// State is the derived lifecycle state. It is computed on every read from
// the stored fields and the clock; it is never persisted.
type State int

const (
	StateInProgress State = iota
	StateCompleted
	StateQuizUnlocked
	StatePendingApproval
	StatePendingParentUnlock
	StateRevisionCooldown
	StateRevisionReady
	StateQuizCooldown
	StateAdminCooldown
)

var stateNames = map[State]string{
	StateInProgress:          "in_progress",
	StateCompleted:           "completed",
	StateQuizUnlocked:        "quiz_unlocked",
	StatePendingApproval:     "pending_approval",
	StatePendingParentUnlock: "pending_parent_unlock",
	StateRevisionCooldown:    "revision_cooldown",
	StateRevisionReady:       "revision_ready",
	StateQuizCooldown:        "quiz_cooldown",
	StateAdminCooldown:       "admin_cooldown",
}

func (s State) String() string { return stateNames[s] }

// Locked reports whether the state forbids progress, submission and removal
// edits. Rating and notes follow their own rule; see Service.SetRating.
func (s State) Locked() bool {
	switch s {
	case StatePendingApproval, StatePendingParentUnlock, StateQuizCooldown,
		StateAdminCooldown, StateRevisionCooldown, StateCompleted:
		return true
	case StateInProgress, StateQuizUnlocked, StateRevisionReady:
		return false
	}
	return false
}

// Resolve derives the current state. Evaluation order matters: a record must
// never present as both locked and resubmittable, and Completed absorbs
// everything else. Expired cooldowns fall through to an unlocked state by
// mere passage of wall-clock time; nothing ever flips the stored status.
func Resolve(r Record, now time.Time) State {
	if r.Completed && r.Status == StatusCompleted {
		return StateCompleted
	}
	switch r.Status {
	case StatusQuizUnlocked:
		return StateQuizUnlocked
	case StatusPendingApproval:
		return StatePendingApproval
	case StatusPendingParentUnlock:
		return StatePendingParentUnlock
	case StatusRevisionRequested:
		if inWindow(r.RevisionRequestedAt, now, CooldownWindow) {
			return StateRevisionCooldown
		}
		return StateRevisionReady
	case StatusQuizFailed:
		if inWindow(r.FailedAt, now, CooldownWindow) {
			return StateQuizCooldown
		}
	case StatusRejected:
		if inWindow(r.RejectedAt, now, CooldownWindow) {
			return StateAdminCooldown
		}
	}
	return StateInProgress
}

// Submittable reports whether the record may enter the submission router.
func Submittable(r Record, now time.Time) bool {
	switch Resolve(r, now) {
	case StateQuizUnlocked, StateRevisionReady:
		return true
	case StateInProgress:
		return r.ProgressUnits == r.TotalUnits
	}
	return false
}

// CooldownRemaining returns how long the active cooldown still runs, zero if
// none is active.
func CooldownRemaining(r Record, now time.Time) time.Duration {
	switch Resolve(r, now) {
	case StateRevisionCooldown:
		return remaining(r.RevisionRequestedAt, now, CooldownWindow)
	case StateQuizCooldown:
		return remaining(r.FailedAt, now, CooldownWindow)
	case StateAdminCooldown:
		return remaining(r.RejectedAt, now, CooldownWindow)
	}
	return 0
}

// CancelRemaining returns how long the student may still cancel a pending
// submission, zero once the window has closed or no submission is pending.
func CancelRemaining(r Record, now time.Time) time.Duration {
	if r.Status != StatusPendingApproval {
		return 0
	}
	return remaining(r.SubmittedAt, now, CancelWindow)
}

func inWindow(since *time.Time, now time.Time, window time.Duration) bool {
	return since != nil && now.Sub(*since) < window
}

func remaining(since *time.Time, now time.Time, window time.Duration) time.Duration {
	if since == nil {
		return 0
	}
	if d := window - now.Sub(*since); d > 0 {
		return d
	}
	return 0
}
