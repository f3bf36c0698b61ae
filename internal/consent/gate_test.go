package consent_test

import (
	"context"
	"errors"
	"testing"

	"github.com/bookloop/bookloop/internal/consent"
)

type memCodes struct {
	hashes    map[string]string
	issuers   map[string]string
	guardians map[string][]consent.Guardian
}

func newMemCodes() *memCodes {
	return &memCodes{
		hashes:    map[string]string{},
		issuers:   map[string]string{},
		guardians: map[string][]consent.Guardian{},
	}
}

func (m *memCodes) CodeHash(_ context.Context, studentID string) (string, string, error) {
	h, ok := m.hashes[studentID]
	if !ok {
		return "", "", consent.ErrNoCode
	}
	return h, m.issuers[studentID], nil
}

func (m *memCodes) Guardians(_ context.Context, studentID string) ([]consent.Guardian, error) {
	return m.guardians[studentID], nil
}

func (m *memCodes) SetCode(_ context.Context, studentID, codeHash, issuedBy string) error {
	m.hashes[studentID] = codeHash
	m.issuers[studentID] = issuedBy
	return nil
}

func TestVerifyCode(t *testing.T) {
	codes := newMemCodes()
	gate := consent.NewGate(codes)
	ctx := context.Background()

	if err := gate.VerifyCode(ctx, "stu-1", "4711"); !errors.Is(err, consent.ErrNoCode) {
		t.Fatalf("no code issued: %v", err)
	}

	if err := gate.IssueCode(ctx, "stu-1", "4711", consent.IssuedByParent); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := gate.VerifyCode(ctx, "stu-1", "4711"); err != nil {
		t.Fatalf("correct code: %v", err)
	}

	// Wrong code fails but never locks out; retries stay possible.
	for i := 0; i < 5; i++ {
		if err := gate.VerifyCode(ctx, "stu-1", "0000"); !errors.Is(err, consent.ErrInvalidCode) {
			t.Fatalf("wrong code: %v", err)
		}
	}
	if err := gate.VerifyCode(ctx, "stu-1", "4711"); err != nil {
		t.Fatalf("correct code after retries: %v", err)
	}
}

func TestReissueReplacesCode(t *testing.T) {
	codes := newMemCodes()
	gate := consent.NewGate(codes)
	ctx := context.Background()

	if err := gate.IssueCode(ctx, "stu-1", "1111", consent.IssuedByParent); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := gate.IssueCode(ctx, "stu-1", "2222", consent.IssuedByTeacher); err != nil {
		t.Fatalf("reissue: %v", err)
	}
	if err := gate.VerifyCode(ctx, "stu-1", "1111"); !errors.Is(err, consent.ErrInvalidCode) {
		t.Fatalf("old code still valid: %v", err)
	}
	if err := gate.VerifyCode(ctx, "stu-1", "2222"); err != nil {
		t.Fatalf("new code: %v", err)
	}
	if m := codes.issuers["stu-1"]; m != consent.IssuedByTeacher {
		t.Fatalf("issuer = %q", m)
	}
}

func TestHasGuardian(t *testing.T) {
	codes := newMemCodes()
	gate := consent.NewGate(codes)
	ctx := context.Background()

	linked, err := gate.HasGuardian(ctx, "stu-1")
	if err != nil || linked {
		t.Fatalf("unlinked student: %v %v", linked, err)
	}

	codes.guardians["stu-1"] = []consent.Guardian{{ID: "g-1", Contact: "parent@example.com"}}
	linked, err = gate.HasGuardian(ctx, "stu-1")
	if err != nil || !linked {
		t.Fatalf("linked student: %v %v", linked, err)
	}
}
