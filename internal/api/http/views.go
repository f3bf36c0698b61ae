package http

import (
	"time"

	"github.com/bookloop/bookloop/internal/reading"
)

// RecordView is a record plus everything the client would otherwise have to
// recompute: the derived state and the live window remainders.
type RecordView struct {
	reading.Record
	State             string `json:"state"`
	Locked            bool   `json:"locked"`
	Submittable       bool   `json:"submittable"`
	CooldownRemaining int    `json:"cooldown_remaining_sec"`
	CancelRemaining   int    `json:"cancel_remaining_sec"`
}

func viewRecord(r reading.Record, now time.Time) RecordView {
	st := reading.Resolve(r, now)
	return RecordView{
		Record:            r,
		State:             st.String(),
		Locked:            st.Locked(),
		Submittable:       reading.Submittable(r, now),
		CooldownRemaining: int(reading.CooldownRemaining(r, now) / time.Second),
		CancelRemaining:   int(reading.CancelRemaining(r, now) / time.Second),
	}
}

func viewRecords(rs []reading.Record, now time.Time) []RecordView {
	out := make([]RecordView, 0, len(rs))
	for _, r := range rs {
		out = append(out, viewRecord(r, now))
	}
	return out
}
