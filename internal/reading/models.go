package reading

import "time"

type Format string

const (
	FormatPhysical Format = "physical"
	FormatAudio    Format = "audio"
)

// Status is the raw persisted lifecycle status. The state presented to
// callers is always derived from it together with the transition timestamps
// and the current time; see Resolve.
type Status string

const (
	StatusInProgress          Status = "in_progress"
	StatusPendingApproval     Status = "pending_teacher_approval"
	StatusPendingParentUnlock Status = "pending_parent_quiz_unlock"
	StatusQuizUnlocked        Status = "quiz_unlocked"
	StatusQuizFailed          Status = "quiz_failed"
	StatusRevisionRequested   Status = "revision_requested"
	StatusRejected            Status = "admin_rejected"
	StatusCompleted           Status = "completed"
)

// SubmissionQuiz marks a record verified (or being verified) by quiz; every
// other submission type is one of the configured manual review methods.
const SubmissionQuiz = "quiz"

// Record is the lifecycle record of one student reading one book.
// ProgressUnits counts pages for physical books and minutes for audiobooks;
// TotalUnits is resolved from the catalog at creation and never changes.
type Record struct {
	ID        string `json:"id"`
	StudentID string `json:"student_id"`
	BookID    string `json:"book_id"`
	Format    Format `json:"format"`

	ProgressUnits int  `json:"progress_units"`
	TotalUnits    int  `json:"total_units"`
	Pinned        bool `json:"pinned"`

	Rating *int   `json:"rating,omitempty"` // 0-5
	Notes  string `json:"notes,omitempty"`

	Completed bool   `json:"completed"`
	Status    Status `json:"status"`

	SubmissionType string     `json:"submission_type,omitempty"`
	SubmittedAt    *time.Time `json:"submitted_at,omitempty"`

	// Last-transition timestamps. At most one is set at a time; writing one
	// clears the others.
	RevisionRequestedAt *time.Time `json:"revision_requested_at,omitempty"`
	FailedAt            *time.Time `json:"failed_at,omitempty"`
	RejectedAt          *time.Time `json:"rejected_at,omitempty"`
	UnlockRequestedAt   *time.Time `json:"unlock_requested_at,omitempty"`
	ParentUnlockedAt    *time.Time `json:"parent_unlocked_at,omitempty"`

	TeacherNotes string `json:"teacher_notes,omitempty"`
	QuizScore    string `json:"quiz_score,omitempty"` // e.g. "8/10"

	// Version guards every write; see Store.Update.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// clearStamps drops all last-transition timestamps before a new one is set.
func (r *Record) clearStamps() {
	r.RevisionRequestedAt = nil
	r.FailedAt = nil
	r.RejectedAt = nil
	r.UnlockRequestedAt = nil
	r.ParentUnlockedAt = nil
}

func (r *Record) clearSubmission() {
	r.SubmissionType = ""
	r.SubmittedAt = nil
}
