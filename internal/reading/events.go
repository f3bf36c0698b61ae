package reading

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Event types consumed by the badge evaluator and the notification
// dispatcher. They describe what happened, not internal state.
const (
	EventProgressChanged   = "progress_changed"
	EventRatingSet         = "rating_set"
	EventNotesSet          = "notes_set"
	EventBookCompleted     = "book_completed"
	EventSubmitted         = "submitted"
	EventCancelled         = "cancelled"
	EventApproved          = "approved"
	EventRejected          = "rejected"
	EventRevisionRequested = "revision_requested"
	EventUnlockRequested   = "unlock_requested"
	EventQuizUnlocked      = "quiz_unlocked"
	EventQuizFailed        = "quiz_failed"
)

type Event struct {
	Type      string         `json:"type"`
	RecordID  string         `json:"record_id"`
	StudentID string         `json:"student_id"`
	BookID    string         `json:"book_id"`
	Data      map[string]any `json:"data,omitempty"`
}

// Publisher delivers events to external collaborators. Publishing is
// best-effort: a failed publish never rolls back the record write.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// LogPublisher appends events to the event_log table, which downstream
// consumers poll by offset.
type LogPublisher struct {
	db  *sql.DB
	now func() time.Time
}

func NewLogPublisher(db *sql.DB) *LogPublisher {
	return &LogPublisher{db: db, now: time.Now}
}

func (p *LogPublisher) Publish(ctx context.Context, e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	_, _ = p.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at) VALUES ($1,$2,$3,$4)`,
		e.Type, e.RecordID, string(data), p.now().Unix())
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}
