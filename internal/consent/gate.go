// Package consent implements the parent gate in front of the quiz: a shared
// secret code verified immediately, or an asynchronous unlock request
// resolved by a parent out-of-band. When no guardian is linked the code is
// issued by the teacher and verified through the same path.
package consent

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCode is a wrong code. No lockout, unlimited retries.
	ErrInvalidCode = errors.New("invalid code")

	// ErrNoCode means no code has been issued for the student yet.
	ErrNoCode = errors.New("no code issued for student")
)

// Issuer values for a student code.
const (
	IssuedByParent  = "parent"
	IssuedByTeacher = "teacher"
)

type Guardian struct {
	ID      string `json:"id"`
	Contact string `json:"contact"`
}

// CodeSource supplies the per-student secret and linked guardians.
type CodeSource interface {
	CodeHash(ctx context.Context, studentID string) (hash, issuedBy string, err error)
	Guardians(ctx context.Context, studentID string) ([]Guardian, error)
	SetCode(ctx context.Context, studentID, codeHash, issuedBy string) error
}

type Gate struct {
	codes CodeSource
}

func NewGate(codes CodeSource) *Gate { return &Gate{codes: codes} }

// VerifyCode checks the supplied code against the student's stored secret.
// A match opens the quiz immediately with no record mutation.
func (g *Gate) VerifyCode(ctx context.Context, studentID, code string) error {
	hash, _, err := g.codes.CodeHash(ctx, studentID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) != nil {
		return ErrInvalidCode
	}
	return nil
}

// HasGuardian reports whether any parent contact is linked; without one the
// async-request path is not offered.
func (g *Gate) HasGuardian(ctx context.Context, studentID string) (bool, error) {
	gs, err := g.codes.Guardians(ctx, studentID)
	if err != nil {
		return false, err
	}
	return len(gs) > 0, nil
}

// IssueCode stores a new code for the student, replacing any previous one.
func (g *Gate) IssueCode(ctx context.Context, studentID, code, issuedBy string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return g.codes.SetCode(ctx, studentID, string(hash), issuedBy)
}
