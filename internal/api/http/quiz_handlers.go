package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/bookloop/bookloop/internal/auth/middleware"
	"github.com/bookloop/bookloop/internal/consent"
	"github.com/bookloop/bookloop/internal/quiz"
	"github.com/bookloop/bookloop/internal/reading"
)

// StartQuizHandler opens a quiz session. An already-unlocked record goes
// straight in; otherwise the parent gate must be passed with a code first.
func StartQuizHandler(svc *reading.Service, gate *consent.Gate, mgr *quiz.Manager, period string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := ownRecord(svc, r, chi.URLParam(r, "recordID"))
		if err != nil {
			writeError(w, err)
			return
		}
		var req struct {
			Code string `json:"code"`
		}
		// body is optional for the unlocked path
		_ = json.NewDecoder(r.Body).Decode(&req)

		needCode, err := svc.QuizEntry(rec)
		if err != nil {
			writeError(w, err)
			return
		}
		if needCode {
			if err := gate.VerifyCode(r.Context(), rec.StudentID, req.Code); err != nil {
				writeError(w, err)
				return
			}
		}
		v, err := mgr.Start(r.Context(), rec.ID, rec.StudentID, rec.BookID, period)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, v)
	}
}

// RequestUnlockHandler records the asynchronous consent request; the record
// locks until a parent grants it. Only offered when a guardian is linked.
func RequestUnlockHandler(svc *reading.Service, gate *consent.Gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := ownRecord(svc, r, chi.URLParam(r, "recordID"))
		if err != nil {
			writeError(w, err)
			return
		}
		linked, err := gate.HasGuardian(r.Context(), rec.StudentID)
		if err != nil {
			writeError(w, err)
			return
		}
		if !linked {
			http.Error(w, "no guardian linked; use the code issued by your teacher", http.StatusConflict)
			return
		}
		updated, err := svc.RequestParentUnlock(r.Context(), rec.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, viewRecord(updated, svc.Now()))
	}
}

func GetQuizHandler(mgr *quiz.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := mgr.Get(r.Context(), chi.URLParam(r, "sessionID"), auth.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, v)
	}
}

func AnswerHandler(mgr *quiz.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Answer string `json:"answer"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		v, err := mgr.Answer(r.Context(), chi.URLParam(r, "sessionID"), auth.SubjectFromContext(r.Context()), req.Answer)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, v)
	}
}

func NextQuestionHandler(mgr *quiz.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := mgr.Next(r.Context(), chi.URLParam(r, "sessionID"), auth.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, v)
	}
}

func PrevQuestionHandler(mgr *quiz.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := mgr.Prev(r.Context(), chi.URLParam(r, "sessionID"), auth.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, v)
	}
}

func SubmitQuizHandler(mgr *quiz.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := mgr.Submit(r.Context(), chi.URLParam(r, "sessionID"), auth.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, out)
	}
}
