package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bookloop/bookloop/internal/reading"
)

// GrantUnlockHandler applies the parent's consent: the pending request
// becomes quiz_unlocked and the submission router will skip straight into
// the quiz.
func GrantUnlockHandler(svc *reading.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.GrantParentUnlock(r.Context(), chi.URLParam(r, "recordID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, viewRecord(rec, svc.Now()))
	}
}
