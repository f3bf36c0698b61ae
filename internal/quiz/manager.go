package quiz

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bookloop/bookloop/internal/reading"
)

// Recorder writes the single atomic outcome of a quiz run to the lifecycle
// record.
type Recorder interface {
	ApplyQuizResult(ctx context.Context, recordID string, correct, total int) (reading.Record, error)
}

// View is the student-safe snapshot of a session: current question without
// its answer key, plus timer and navigation state.
type View struct {
	ID           string   `json:"id"`
	RecordID     string   `json:"record_id"`
	Phase        string   `json:"phase"`
	Current      int      `json:"current"`
	Total        int      `json:"total"`
	Question     Question `json:"question"`
	Answered     []bool   `json:"answered"`
	RemainingSec int      `json:"remaining_sec"`
}

type Outcome struct {
	RecordID string         `json:"record_id"`
	Correct  int            `json:"correct"`
	Total    int            `json:"total"`
	Score    string         `json:"score"`
	Passed   bool           `json:"passed"`
	Record   reading.Record `json:"record"`
}

// Manager owns the live quiz sessions of this process. Sessions are not
// persisted; a crash simply means the quiz was never taken. There is no
// background timer: expiry is observed on the next call touching the
// session and finalized then, with whatever answers exist.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session
	byRecord map[string]string // recordID -> sessionID
	banks    BankSource
	recorder Recorder
	now      func() time.Time
	rnd      *rand.Rand
}

func NewManager(banks BankSource, recorder Recorder, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{
		sessions: map[string]*session{},
		byRecord: map[string]string{},
		banks:    banks,
		recorder: recorder,
		now:      now,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start opens a session for the record, drawing min(MaxQuestions, N)
// questions without replacement from the period-scoped bank, falling back
// to the legacy unscoped bank. An unfinished session for the same record is
// resumed, not replaced.
func (m *Manager) Start(ctx context.Context, recordID, studentID, bookID, period string) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.byRecord[recordID]; ok {
		if s, ok := m.sessions[id]; ok && s.studentID == studentID {
			if s.expired(m.now()) {
				if _, err := m.finalizeLocked(ctx, s); err != nil {
					return View{}, err
				}
				return View{}, ErrExpired
			}
			return m.viewLocked(s), nil
		}
	}

	qs, err := m.banks.Questions(ctx, bookID, period)
	if errors.Is(err, ErrBankEmpty) && period != "" {
		qs, err = m.banks.Questions(ctx, bookID, "")
	}
	if err != nil {
		return View{}, err
	}

	picked := make([]Question, len(qs))
	copy(picked, qs)
	m.rnd.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	if len(picked) > MaxQuestions {
		picked = picked[:MaxQuestions]
	}

	s := &session{
		id:        uuid.NewString(),
		recordID:  recordID,
		studentID: studentID,
		questions: picked,
		answers:   make([]string, len(picked)),
	}
	m.sessions[s.id] = s
	m.byRecord[recordID] = s.id
	return m.viewLocked(s), nil
}

func (m *Manager) Get(ctx context.Context, sessionID, studentID string) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.sessionLocked(ctx, sessionID, studentID)
	if err != nil {
		return View{}, err
	}
	return m.viewLocked(s), nil
}

func (m *Manager) Answer(ctx context.Context, sessionID, studentID, answer string) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.sessionLocked(ctx, sessionID, studentID)
	if err != nil {
		return View{}, err
	}
	if err := s.answer(answer, m.now()); err != nil {
		return View{}, err
	}
	return m.viewLocked(s), nil
}

func (m *Manager) Next(ctx context.Context, sessionID, studentID string) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.sessionLocked(ctx, sessionID, studentID)
	if err != nil {
		return View{}, err
	}
	if err := s.next(); err != nil {
		return View{}, err
	}
	return m.viewLocked(s), nil
}

func (m *Manager) Prev(ctx context.Context, sessionID, studentID string) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.sessionLocked(ctx, sessionID, studentID)
	if err != nil {
		return View{}, err
	}
	if err := s.prev(); err != nil {
		return View{}, err
	}
	return m.viewLocked(s), nil
}

// Submit finalizes deliberately. It is only reachable from the answered
// last question; expiry finalizes on its own via sessionLocked.
func (m *Manager) Submit(ctx context.Context, sessionID, studentID string) (Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok || s.studentID != studentID {
		return Outcome{}, ErrSessionNotFound
	}
	if !s.expired(m.now()) {
		if err := s.canSubmit(); err != nil {
			return Outcome{}, err
		}
	}
	return m.finalizeLocked(ctx, s)
}

// sessionLocked fetches a live session, finalizing it first if its
// countdown ran out.
func (m *Manager) sessionLocked(ctx context.Context, sessionID, studentID string) (*session, error) {
	s, ok := m.sessions[sessionID]
	if !ok || s.studentID != studentID {
		return nil, ErrSessionNotFound
	}
	if s.expired(m.now()) {
		if _, err := m.finalizeLocked(ctx, s); err != nil {
			return nil, err
		}
		return nil, ErrExpired
	}
	return s, nil
}

func (m *Manager) finalizeLocked(ctx context.Context, s *session) (Outcome, error) {
	correct, total := s.score()
	s.phase = PhaseCompleted
	delete(m.sessions, s.id)
	delete(m.byRecord, s.recordID)

	rec, err := m.recorder.ApplyQuizResult(ctx, s.recordID, correct, total)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		RecordID: s.recordID,
		Correct:  correct,
		Total:    total,
		Score:    rec.QuizScore,
		Passed:   rec.Completed,
		Record:   rec,
	}, nil
}

func (m *Manager) viewLocked(s *session) View {
	q := s.questions[s.current]
	q.AnswerID = ""
	answered := make([]bool, len(s.answers))
	for i, a := range s.answers {
		answered[i] = a != ""
	}
	return View{
		ID:           s.id,
		RecordID:     s.recordID,
		Phase:        s.phase.String(),
		Current:      s.current,
		Total:        len(s.questions),
		Question:     q,
		Answered:     answered,
		RemainingSec: int(s.remaining(m.now()) / time.Second),
	}
}
