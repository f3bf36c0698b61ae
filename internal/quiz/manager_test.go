package quiz_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bookloop/bookloop/internal/catalog"
	"github.com/bookloop/bookloop/internal/quiz"
	"github.com/bookloop/bookloop/internal/reading"
)

var base = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// bankOf builds n questions whose correct option is always "a", so tests can
// score deterministically regardless of shuffling.
func bankOf(n int) []quiz.Question {
	qs := make([]quiz.Question, n)
	for i := range qs {
		qs[i] = quiz.Question{
			ID:     fmt.Sprintf("q-%d", i),
			Prompt: fmt.Sprintf("Question %d", i),
			Options: []quiz.Option{
				{ID: "a", Label: "right"},
				{ID: "b", Label: "wrong"},
				{ID: "c", Label: "also wrong"},
			},
			AnswerID: "a",
		}
	}
	return qs
}

func setup(t *testing.T, bank quiz.MemoryBank) (*quiz.Manager, *reading.Service, *fakeClock, reading.Record) {
	t.Helper()
	clk := &fakeClock{t: base}
	cat := catalog.MemoryCatalog{
		"bk-1": {ID: "bk-1", Title: "Heidi", Format: "physical", TotalUnits: 120},
	}
	svc := reading.NewService(reading.NewMemoryStore(clk.now), cat, nil, nil, clk.now, nil)
	ctx := context.Background()
	rec, err := svc.Create(ctx, "stu-1", "bk-1")
	if err != nil {
		t.Fatalf("create record: %v", err)
	}
	if _, err := svc.SetProgress(ctx, rec.ID, 120); err != nil {
		t.Fatalf("progress: %v", err)
	}
	return quiz.NewManager(bank, svc, clk.now), svc, clk, rec
}

// walk answers the remaining questions in order, "a" for the first correct
// of them and "b" afterwards, stopping on the last question.
func walk(t *testing.T, m *quiz.Manager, sessionID string, total, correct int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < total; i++ {
		ans := "b"
		if i < correct {
			ans = "a"
		}
		if _, err := m.Answer(ctx, sessionID, "stu-1", ans); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
		if i < total-1 {
			if _, err := m.Next(ctx, sessionID, "stu-1"); err != nil {
				t.Fatalf("next %d: %v", i, err)
			}
		}
	}
}

func TestStartDrawsAtMostTen(t *testing.T) {
	m, _, _, rec := setup(t, quiz.MemoryBank{"bk-1|": bankOf(25)})
	v, err := m.Start(context.Background(), rec.ID, "stu-1", "bk-1", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if v.Total != 10 {
		t.Fatalf("total = %d, want 10", v.Total)
	}
	if v.Phase != "not_started" || v.RemainingSec != 30*60 {
		t.Fatalf("fresh session: %+v", v)
	}
	if v.Question.AnswerID != "" {
		t.Fatal("answer key leaked to student view")
	}

	// Starting again resumes the same session.
	v2, err := m.Start(context.Background(), rec.ID, "stu-1", "bk-1", "")
	if err != nil || v2.ID != v.ID {
		t.Fatalf("resume: %v %q != %q", err, v2.ID, v.ID)
	}
}

func TestStartSmallBankTakesAll(t *testing.T) {
	m, _, _, rec := setup(t, quiz.MemoryBank{"bk-1|": bankOf(4)})
	v, err := m.Start(context.Background(), rec.ID, "stu-1", "bk-1", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if v.Total != 4 {
		t.Fatalf("total = %d, want 4", v.Total)
	}
}

func TestStartPeriodFallback(t *testing.T) {
	// Only the legacy unscoped bank exists.
	m, _, _, rec := setup(t, quiz.MemoryBank{"bk-1|": bankOf(10)})
	if _, err := m.Start(context.Background(), rec.ID, "stu-1", "bk-1", "2026-T1"); err != nil {
		t.Fatalf("fallback start: %v", err)
	}
}

func TestStartNoBank(t *testing.T) {
	m, _, _, rec := setup(t, quiz.MemoryBank{})
	if _, err := m.Start(context.Background(), rec.ID, "stu-1", "bk-1", "2026-T1"); !errors.Is(err, quiz.ErrBankEmpty) {
		t.Fatalf("missing bank: %v", err)
	}
}

func TestNavigationRules(t *testing.T) {
	m, _, _, rec := setup(t, quiz.MemoryBank{"bk-1|": bankOf(10)})
	ctx := context.Background()
	v, err := m.Start(ctx, rec.ID, "stu-1", "bk-1", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := m.Next(ctx, v.ID, "stu-1"); !errors.Is(err, quiz.ErrUnanswered) {
		t.Fatalf("next unanswered: %v", err)
	}
	if _, err := m.Prev(ctx, v.ID, "stu-1"); !errors.Is(err, quiz.ErrAtStart) {
		t.Fatalf("prev at start: %v", err)
	}
	if _, err := m.Answer(ctx, v.ID, "stu-1", ""); !errors.Is(err, quiz.ErrEmptyAnswer) {
		t.Fatalf("empty answer: %v", err)
	}
	if _, err := m.Submit(ctx, v.ID, "stu-1"); !errors.Is(err, quiz.ErrNotAtLast) {
		t.Fatalf("early submit: %v", err)
	}

	// Answer, move forward, come back, answer stays.
	if _, err := m.Answer(ctx, v.ID, "stu-1", "a"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	v2, err := m.Next(ctx, v.ID, "stu-1")
	if err != nil || v2.Current != 1 {
		t.Fatalf("next: %v current=%d", err, v2.Current)
	}
	v2, err = m.Prev(ctx, v.ID, "stu-1")
	if err != nil || v2.Current != 0 || !v2.Answered[0] {
		t.Fatalf("prev: %v %+v", err, v2)
	}

	if _, err := m.Get(ctx, v.ID, "someone-else"); !errors.Is(err, quiz.ErrSessionNotFound) {
		t.Fatalf("foreign student access: %v", err)
	}
}

func TestTimerStartsOnFirstAnswer(t *testing.T) {
	m, _, clk, rec := setup(t, quiz.MemoryBank{"bk-1|": bankOf(10)})
	ctx := context.Background()
	v, _ := m.Start(ctx, rec.ID, "stu-1", "bk-1", "")

	// An open but untouched quiz consumes no time.
	clk.advance(2 * time.Hour)
	got, err := m.Get(ctx, v.ID, "stu-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Phase != "not_started" || got.RemainingSec != 30*60 {
		t.Fatalf("idle session: %+v", got)
	}

	got, err = m.Answer(ctx, v.ID, "stu-1", "a")
	if err != nil || got.Phase != "running" {
		t.Fatalf("first answer: %v %+v", err, got)
	}
	clk.advance(10 * time.Minute)
	got, _ = m.Get(ctx, v.ID, "stu-1")
	if got.RemainingSec != 20*60 {
		t.Fatalf("remaining = %d, want 1200", got.RemainingSec)
	}
}

func TestExpiryAutoSubmits(t *testing.T) {
	m, svc, clk, rec := setup(t, quiz.MemoryBank{"bk-1|": bankOf(10)})
	ctx := context.Background()
	v, _ := m.Start(ctx, rec.ID, "stu-1", "bk-1", "")

	if _, err := m.Answer(ctx, v.ID, "stu-1", "a"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	clk.advance(30*time.Minute + time.Second)

	if _, err := m.Get(ctx, v.ID, "stu-1"); !errors.Is(err, quiz.ErrExpired) {
		t.Fatalf("get after deadline: %v", err)
	}

	// The single correct answer was scored; the record failed and cooled
	// down, all in one write.
	got, err := svc.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if got.Status != reading.StatusQuizFailed || got.QuizScore != "1/10" {
		t.Fatalf("record after expiry: %+v", got)
	}

	// The session is gone.
	if _, err := m.Get(ctx, v.ID, "stu-1"); !errors.Is(err, quiz.ErrSessionNotFound) {
		t.Fatalf("session after expiry: %v", err)
	}
}

func TestPassAtSeven(t *testing.T) {
	m, svc, _, rec := setup(t, quiz.MemoryBank{"bk-1|": bankOf(10)})
	ctx := context.Background()
	v, _ := m.Start(ctx, rec.ID, "stu-1", "bk-1", "")

	walk(t, m, v.ID, 10, 7)
	out, err := m.Submit(ctx, v.ID, "stu-1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !out.Passed || out.Correct != 7 || out.Score != "7/10" {
		t.Fatalf("outcome: %+v", out)
	}
	got, _ := svc.Get(ctx, rec.ID)
	if !got.Completed || got.Status != reading.StatusCompleted {
		t.Fatalf("record after pass: %+v", got)
	}
}

func TestFailBelowSeven(t *testing.T) {
	m, svc, clk, rec := setup(t, quiz.MemoryBank{"bk-1|": bankOf(10)})
	ctx := context.Background()
	v, _ := m.Start(ctx, rec.ID, "stu-1", "bk-1", "")

	walk(t, m, v.ID, 10, 6)
	out, err := m.Submit(ctx, v.ID, "stu-1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out.Passed || out.Score != "6/10" {
		t.Fatalf("outcome: %+v", out)
	}
	got, _ := svc.Get(ctx, rec.ID)
	if got.Status != reading.StatusQuizFailed {
		t.Fatalf("record after fail: %+v", got)
	}
	if st := reading.Resolve(got, clk.now()); st != reading.StateQuizCooldown {
		t.Fatalf("state after fail = %v", st)
	}
}
