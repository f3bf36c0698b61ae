package quiz

import (
	"errors"
	"time"
)

const (
	// Duration is the single countdown each quiz run gets. The deadline is
	// fixed when the first answer lands, not when the quiz opens.
	Duration = 30 * time.Minute

	// MaxQuestions is the cap on questions drawn from a bank.
	MaxQuestions = 10
)

var (
	ErrSessionNotFound = errors.New("quiz session not found")
	ErrFinished        = errors.New("quiz already finished")
	ErrExpired         = errors.New("quiz time expired")
	ErrUnanswered      = errors.New("current question not answered")
	ErrNotAtLast       = errors.New("submission only allowed from the last question")
	ErrAtStart         = errors.New("already at the first question")
	ErrEmptyAnswer     = errors.New("answer must not be empty")
)

type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseRunning
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseRunning:
		return "running"
	case PhaseCompleted:
		return "completed"
	}
	return "not_started"
}

// session is the per-student quiz run. It lives in one process, is touched
// by one student, and only its final outcome is ever written to the record.
type session struct {
	id        string
	recordID  string
	studentID string
	questions []Question
	answers   []string
	current   int
	phase     Phase
	startedAt time.Time
	deadline  time.Time
}

// expired reports whether the running countdown has reached zero.
func (s *session) expired(now time.Time) bool {
	return s.phase == PhaseRunning && !now.Before(s.deadline)
}

// answer records the response for the current question and starts the
// countdown on the very first one.
func (s *session) answer(ans string, now time.Time) error {
	if s.phase == PhaseCompleted {
		return ErrFinished
	}
	if ans == "" {
		return ErrEmptyAnswer
	}
	if s.phase == PhaseNotStarted {
		s.phase = PhaseRunning
		s.startedAt = now
		s.deadline = now.Add(Duration)
	}
	s.answers[s.current] = ans
	return nil
}

func (s *session) next() error {
	if s.phase == PhaseCompleted {
		return ErrFinished
	}
	if s.answers[s.current] == "" {
		return ErrUnanswered
	}
	if s.current < len(s.questions)-1 {
		s.current++
	}
	return nil
}

func (s *session) prev() error {
	if s.phase == PhaseCompleted {
		return ErrFinished
	}
	if s.current == 0 {
		return ErrAtStart
	}
	s.current--
	return nil
}

// canSubmit enforces that a deliberate submission happens from the answered
// last question. Expiry bypasses this and takes whatever exists.
func (s *session) canSubmit() error {
	if s.phase == PhaseCompleted {
		return ErrFinished
	}
	if s.current != len(s.questions)-1 || s.answers[s.current] == "" {
		return ErrNotAtLast
	}
	return nil
}

// score counts answers exactly equal to the stored correct option.
func (s *session) score() (correct, total int) {
	for i, q := range s.questions {
		if s.answers[i] != "" && s.answers[i] == q.AnswerID {
			correct++
		}
	}
	return correct, len(s.questions)
}

func (s *session) remaining(now time.Time) time.Duration {
	switch s.phase {
	case PhaseNotStarted:
		return Duration
	case PhaseRunning:
		if d := s.deadline.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
