package reading

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/bookloop/bookloop/internal/catalog"
)

// Service owns the lifecycle rules: which mutation is legal given the
// derived state, and which transition each actor may apply. Every
// status-changing write goes through the store's version-guarded Update, so
// a student cancelling while a teacher approves loses cleanly with
// ErrConflict instead of overwriting the decision.
type Service struct {
	store   Store
	catalog catalog.Catalog
	events  Publisher
	methods []string // manual verification methods offered besides the quiz
	now     func() time.Time
	log     *logrus.Logger
}

func NewService(store Store, cat catalog.Catalog, events Publisher, manualMethods []string, now func() time.Time, log *logrus.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	if events == nil {
		events = NopPublisher{}
	}
	if log == nil {
		log = logrus.New()
	}
	return &Service{
		store:   store,
		catalog: cat,
		events:  events,
		methods: manualMethods,
		now:     now,
		log:     log,
	}
}

func (s *Service) Now() time.Time { return s.now() }

// Create starts a lifecycle record for a book from the catalog.
func (s *Service) Create(ctx context.Context, studentID, bookID string) (Record, error) {
	book, err := s.catalog.Lookup(ctx, bookID)
	if err != nil {
		return Record{}, fmt.Errorf("catalog lookup %q: %w", bookID, err)
	}
	now := s.now()
	r := Record{
		ID:         uuid.NewString(),
		StudentID:  studentID,
		BookID:     bookID,
		Format:     Format(book.Format),
		TotalUnits: book.TotalUnits,
		Status:     StatusInProgress,
		CreatedAt:  now,
		UpdatedAt:  now,
		Version:    1,
	}
	if err := s.store.Create(ctx, r); err != nil {
		return Record{}, err
	}
	s.log.WithFields(logrus.Fields{"record": r.ID, "student": studentID, "book": bookID}).
		Info("reading record created")
	return r, nil
}

func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListByStudent(ctx context.Context, studentID string) ([]Record, error) {
	return s.store.ListByStudent(ctx, studentID)
}

// ListPending returns submissions awaiting teacher review, oldest first.
func (s *Service) ListPending(ctx context.Context) ([]Record, error) {
	return s.store.ListByStatus(ctx, StatusPendingApproval)
}

// Remove deletes a record at the student's request. Locked records,
// including completed ones, cannot be removed.
func (s *Service) Remove(ctx context.Context, id string) error {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if Resolve(r, s.now()).Locked() {
		return ErrLocked
	}
	return s.store.Delete(ctx, id, r.Version)
}

// SetProgress applies the progress gate. Reaching the total pins the value;
// while pinned, further edits at or above the total need an explicit
// ReleasePin first, and lowering below the total clears the pin by itself.
func (s *Service) SetProgress(ctx context.Context, id string, units int) (Record, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if Resolve(r, s.now()).Locked() {
		return Record{}, ErrLocked
	}
	if units < 0 || units > r.TotalUnits {
		return Record{}, ErrProgressRange
	}
	if r.Pinned {
		if units >= r.TotalUnits {
			return Record{}, ErrPinned
		}
		r.Pinned = false
	}
	r.ProgressUnits = units
	if units == r.TotalUnits {
		r.Pinned = true
	}
	updated, err := s.store.Update(ctx, r)
	if err != nil {
		return Record{}, err
	}
	s.publish(ctx, updated, EventProgressChanged, map[string]any{
		"progress_units": updated.ProgressUnits,
		"total_units":    updated.TotalUnits,
	})
	return updated, nil
}

// ReleasePin confirms the student really wants to edit progress again after
// hitting 100%. The two-step release keeps an accidental tap from bouncing
// the record in and out of submission eligibility.
func (s *Service) ReleasePin(ctx context.Context, id string) (Record, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if Resolve(r, s.now()).Locked() {
		return Record{}, ErrLocked
	}
	if !r.Pinned {
		return Record{}, ErrNotPinned
	}
	r.Pinned = false
	return s.store.Update(ctx, r)
}

// SetRating is allowed while unlocked or pinned at 100%, and also on a
// completed record: rating never affects verification.
func (s *Service) SetRating(ctx context.Context, id string, rating int) (Record, error) {
	if rating < 0 || rating > 5 {
		return Record{}, ErrRatingRange
	}
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if st := Resolve(r, s.now()); st.Locked() && st != StateCompleted {
		return Record{}, ErrLocked
	}
	r.Rating = &rating
	updated, err := s.store.Update(ctx, r)
	if err != nil {
		return Record{}, err
	}
	s.publish(ctx, updated, EventRatingSet, map[string]any{"rating": rating})
	return updated, nil
}

// SetNotes follows the same rule as SetRating.
func (s *Service) SetNotes(ctx context.Context, id string, notes string) (Record, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if st := Resolve(r, s.now()); st.Locked() && st != StateCompleted {
		return Record{}, ErrLocked
	}
	r.Notes = notes
	updated, err := s.store.Update(ctx, r)
	if err != nil {
		return Record{}, err
	}
	s.publish(ctx, updated, EventNotesSet, nil)
	return updated, nil
}

// Methods is the submission router's menu. A quiz-unlocked record skips
// method selection entirely; otherwise the quiz is always offered, plus the
// configured manual methods.
func (s *Service) Methods(ctx context.Context, id string) ([]string, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !Submittable(r, now) {
		return nil, ErrLocked
	}
	if Resolve(r, now) == StateQuizUnlocked {
		return []string{SubmissionQuiz}, nil
	}
	out := []string{SubmissionQuiz}
	out = append(out, s.methods...)
	return out, nil
}

// SubmitManual routes a finished book into teacher review.
func (s *Service) SubmitManual(ctx context.Context, id, method string) (Record, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	now := s.now()
	if !Submittable(r, now) || Resolve(r, now) == StateQuizUnlocked {
		return Record{}, ErrLocked
	}
	if !s.manualMethod(method) {
		return Record{}, ErrUnknownMethod
	}
	r.Status = StatusPendingApproval
	r.SubmissionType = method
	at := now
	r.SubmittedAt = &at
	r.clearStamps()
	updated, err := s.store.Update(ctx, r)
	if err != nil {
		return Record{}, err
	}
	s.publish(ctx, updated, EventSubmitted, map[string]any{"method": method})
	return updated, nil
}

// Cancel reverts a pending submission inside the grace window. A teacher
// decision that lands first wins via the version guard.
func (s *Service) Cancel(ctx context.Context, id string) (Record, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	now := s.now()
	if r.Status != StatusPendingApproval || CancelRemaining(r, now) <= 0 {
		return Record{}, ErrLocked
	}
	r.Status = StatusInProgress
	r.Completed = false
	r.clearSubmission()
	updated, err := s.store.Update(ctx, r)
	if err != nil {
		return Record{}, err
	}
	s.publish(ctx, updated, EventCancelled, nil)
	return updated, nil
}

// RequestParentUnlock records an asynchronous consent request and locks the
// record until a parent (or teacher) resolves it out-of-band.
func (s *Service) RequestParentUnlock(ctx context.Context, id string) (Record, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	now := s.now()
	if !Submittable(r, now) || Resolve(r, now) == StateQuizUnlocked {
		return Record{}, ErrLocked
	}
	r.Status = StatusPendingParentUnlock
	r.clearStamps()
	at := now
	r.UnlockRequestedAt = &at
	updated, err := s.store.Update(ctx, r)
	if err != nil {
		return Record{}, err
	}
	s.publish(ctx, updated, EventUnlockRequested, nil)
	return updated, nil
}

// GrantParentUnlock applies the external consent event.
func (s *Service) GrantParentUnlock(ctx context.Context, id string) (Record, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if r.Status != StatusPendingParentUnlock {
		return Record{}, ErrConflict
	}
	r.Status = StatusQuizUnlocked
	r.clearStamps()
	at := s.now()
	r.ParentUnlockedAt = &at
	updated, err := s.store.Update(ctx, r)
	if err != nil {
		return Record{}, err
	}
	s.publish(ctx, updated, EventQuizUnlocked, nil)
	return updated, nil
}

// QuizEntry reports whether a quiz may start right now and whether the
// parent gate still has to be passed first.
func (s *Service) QuizEntry(r Record) (needCode bool, err error) {
	now := s.now()
	if !Submittable(r, now) {
		return false, ErrLocked
	}
	return Resolve(r, now) != StateQuizUnlocked, nil
}

// ApplyQuizResult records the single atomic outcome of a quiz run.
func (s *Service) ApplyQuizResult(ctx context.Context, id string, correct, total int) (Record, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if !Submittable(r, s.now()) {
		return Record{}, ErrConflict
	}
	r.SubmissionType = SubmissionQuiz
	at := s.now()
	r.SubmittedAt = &at
	r.QuizScore = fmt.Sprintf("%d/%d", correct, total)
	r.clearStamps()
	// Pass threshold is fixed at 7 correct regardless of how many questions
	// the bank could supply.
	passed := correct >= QuizPassMark
	if passed {
		r.Status = StatusCompleted
		r.Completed = true
	} else {
		r.Status = StatusQuizFailed
		r.FailedAt = &at
	}
	updated, err := s.store.Update(ctx, r)
	if err != nil {
		return Record{}, err
	}
	if passed {
		s.publish(ctx, updated, EventBookCompleted, map[string]any{"score": updated.QuizScore})
	} else {
		s.publish(ctx, updated, EventQuizFailed, map[string]any{"score": updated.QuizScore})
	}
	return updated, nil
}

// Approve is the teacher confirming a manual-review submission. Only here
// does completed become true for the manual path.
func (s *Service) Approve(ctx context.Context, id, teacherNotes string) (Record, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if r.Status != StatusPendingApproval {
		return Record{}, ErrConflict
	}
	r.Status = StatusCompleted
	r.Completed = true
	r.TeacherNotes = teacherNotes
	r.clearStamps()
	updated, err := s.store.Update(ctx, r)
	if err != nil {
		return Record{}, err
	}
	s.publish(ctx, updated, EventApproved, nil)
	s.publish(ctx, updated, EventBookCompleted, map[string]any{"method": updated.SubmissionType})
	return updated, nil
}

// Reject sends the record into a 24h cooldown.
func (s *Service) Reject(ctx context.Context, id, teacherNotes string) (Record, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if r.Status != StatusPendingApproval {
		return Record{}, ErrConflict
	}
	r.Status = StatusRejected
	r.Completed = false
	r.TeacherNotes = teacherNotes
	r.clearSubmission()
	r.clearStamps()
	at := s.now()
	r.RejectedAt = &at
	updated, err := s.store.Update(ctx, r)
	if err != nil {
		return Record{}, err
	}
	s.publish(ctx, updated, EventRejected, nil)
	return updated, nil
}

// RequestRevision asks the student to rework the book; resubmission opens
// after the cooldown.
func (s *Service) RequestRevision(ctx context.Context, id, teacherNotes string) (Record, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if r.Status != StatusPendingApproval {
		return Record{}, ErrConflict
	}
	r.Status = StatusRevisionRequested
	r.Completed = false
	r.TeacherNotes = teacherNotes
	r.clearSubmission()
	r.clearStamps()
	at := s.now()
	r.RevisionRequestedAt = &at
	updated, err := s.store.Update(ctx, r)
	if err != nil {
		return Record{}, err
	}
	s.publish(ctx, updated, EventRevisionRequested, nil)
	return updated, nil
}

func (s *Service) manualMethod(method string) bool {
	for _, m := range s.methods {
		if m == method {
			return true
		}
	}
	return false
}

func (s *Service) publish(ctx context.Context, r Record, typ string, data map[string]any) {
	s.events.Publish(ctx, Event{
		Type:      typ,
		RecordID:  r.ID,
		StudentID: r.StudentID,
		BookID:    r.BookID,
		Data:      data,
	})
}
