package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bookloop/bookloop/internal/consent"
	"github.com/bookloop/bookloop/internal/reading"
)

func PendingRecordsHandler(svc *reading.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := svc.ListPending(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, viewRecords(recs, svc.Now()))
	}
}

func decisionBody(r *http.Request) string {
	var req struct {
		Notes string `json:"notes"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	return req.Notes
}

func ApproveHandler(svc *reading.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.Approve(r.Context(), chi.URLParam(r, "recordID"), decisionBody(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, viewRecord(rec, svc.Now()))
	}
}

func RejectHandler(svc *reading.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.Reject(r.Context(), chi.URLParam(r, "recordID"), decisionBody(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, viewRecord(rec, svc.Now()))
	}
}

func RequestRevisionHandler(svc *reading.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.RequestRevision(r.Context(), chi.URLParam(r, "recordID"), decisionBody(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, viewRecord(rec, svc.Now()))
	}
}

// IssueCodeHandler lets a teacher (re)issue the quiz code for a student
// without a linked guardian.
func IssueCodeHandler(gate *consent.Gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Code string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
			http.Error(w, "code required", http.StatusBadRequest)
			return
		}
		studentID := chi.URLParam(r, "studentID")
		if err := gate.IssueCode(r.Context(), studentID, req.Code, consent.IssuedByTeacher); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
