package reading

import (
	"testing"
	"time"
)

var base = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func ts(t time.Time) *time.Time { return &t }

func TestResolvePrecedence(t *testing.T) {
	cases := []struct {
		name string
		rec  Record
		now  time.Time
		want State
	}{
		{
			name: "completed absorbs everything",
			rec:  Record{Completed: true, Status: StatusCompleted, FailedAt: ts(base)},
			now:  base,
			want: StateCompleted,
		},
		{
			name: "quiz unlocked",
			rec:  Record{Status: StatusQuizUnlocked, ParentUnlockedAt: ts(base)},
			now:  base,
			want: StateQuizUnlocked,
		},
		{
			name: "pending approval",
			rec:  Record{Status: StatusPendingApproval, SubmittedAt: ts(base)},
			now:  base.Add(time.Minute),
			want: StatePendingApproval,
		},
		{
			name: "pending parent unlock",
			rec:  Record{Status: StatusPendingParentUnlock, UnlockRequestedAt: ts(base)},
			now:  base.Add(48 * time.Hour), // no expiry: external event required
			want: StatePendingParentUnlock,
		},
		{
			name: "revision inside cooldown",
			rec:  Record{Status: StatusRevisionRequested, RevisionRequestedAt: ts(base)},
			now:  base.Add(23 * time.Hour),
			want: StateRevisionCooldown,
		},
		{
			name: "revision cooldown boundary is exclusive",
			rec:  Record{Status: StatusRevisionRequested, RevisionRequestedAt: ts(base)},
			now:  base.Add(24 * time.Hour),
			want: StateRevisionReady,
		},
		{
			name: "quiz failed inside cooldown",
			rec:  Record{Status: StatusQuizFailed, FailedAt: ts(base)},
			now:  base.Add(23 * time.Hour),
			want: StateQuizCooldown,
		},
		{
			name: "quiz failed cooldown expired",
			rec:  Record{Status: StatusQuizFailed, FailedAt: ts(base)},
			now:  base.Add(25 * time.Hour),
			want: StateInProgress,
		},
		{
			name: "rejected inside cooldown",
			rec:  Record{Status: StatusRejected, RejectedAt: ts(base)},
			now:  base.Add(time.Hour),
			want: StateAdminCooldown,
		},
		{
			name: "rejected cooldown expired",
			rec:  Record{Status: StatusRejected, RejectedAt: ts(base)},
			now:  base.Add(24*time.Hour + time.Second),
			want: StateInProgress,
		},
		{
			name: "plain in progress",
			rec:  Record{Status: StatusInProgress},
			now:  base,
			want: StateInProgress,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Resolve(tc.rec, tc.now); got != tc.want {
				t.Fatalf("Resolve = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestLockedStates(t *testing.T) {
	locked := []State{StatePendingApproval, StatePendingParentUnlock,
		StateQuizCooldown, StateAdminCooldown, StateRevisionCooldown, StateCompleted}
	for _, s := range locked {
		if !s.Locked() {
			t.Errorf("%v should be locked", s)
		}
	}
	unlocked := []State{StateInProgress, StateQuizUnlocked, StateRevisionReady}
	for _, s := range unlocked {
		if s.Locked() {
			t.Errorf("%v should not be locked", s)
		}
	}
}

func TestSubmittable(t *testing.T) {
	r := Record{Status: StatusInProgress, ProgressUnits: 150, TotalUnits: 200}
	if Submittable(r, base) {
		t.Fatal("incomplete progress must not be submittable")
	}
	r.ProgressUnits = 200
	if !Submittable(r, base) {
		t.Fatal("in progress at full progress must be submittable")
	}

	r = Record{Status: StatusRevisionRequested, RevisionRequestedAt: ts(base), ProgressUnits: 10, TotalUnits: 200}
	if Submittable(r, base.Add(time.Hour)) {
		t.Fatal("revision cooldown must not be submittable")
	}
	if !Submittable(r, base.Add(25*time.Hour)) {
		t.Fatal("revision ready must be submittable")
	}

	r = Record{Status: StatusQuizUnlocked, ProgressUnits: 0, TotalUnits: 200}
	if !Submittable(r, base) {
		t.Fatal("quiz unlocked must be submittable")
	}
}

func TestCooldownRemaining(t *testing.T) {
	r := Record{Status: StatusQuizFailed, FailedAt: ts(base)}
	if got := CooldownRemaining(r, base.Add(23*time.Hour)); got != time.Hour {
		t.Fatalf("remaining = %v, want 1h", got)
	}
	if got := CooldownRemaining(r, base.Add(25*time.Hour)); got != 0 {
		t.Fatalf("remaining after expiry = %v, want 0", got)
	}
	if got := CooldownRemaining(Record{Status: StatusInProgress}, base); got != 0 {
		t.Fatalf("remaining without cooldown = %v, want 0", got)
	}
}

func TestCancelRemaining(t *testing.T) {
	r := Record{Status: StatusPendingApproval, SubmittedAt: ts(base)}
	if got := CancelRemaining(r, base.Add(4*time.Minute+59*time.Second)); got != time.Second {
		t.Fatalf("remaining = %v, want 1s", got)
	}
	if got := CancelRemaining(r, base.Add(5*time.Minute+time.Second)); got != 0 {
		t.Fatalf("remaining after window = %v, want 0", got)
	}
	if got := CancelRemaining(Record{Status: StatusInProgress}, base); got != 0 {
		t.Fatalf("remaining without submission = %v, want 0", got)
	}
}
