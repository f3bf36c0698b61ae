package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/bookloop/bookloop/internal/auth/middleware"
	"github.com/bookloop/bookloop/internal/rbac"
	"github.com/bookloop/bookloop/internal/reading"
)

// ownRecord loads the record and enforces that the caller owns it, unless
// the role may view all records.
func ownRecord(svc *reading.Service, r *http.Request, recordID string) (reading.Record, error) {
	rec, err := svc.Get(r.Context(), recordID)
	if err != nil {
		return reading.Record{}, err
	}
	sub := auth.SubjectFromContext(r.Context())
	if rec.StudentID != sub && !rbac.NewChecker(nil).Has(rbac.RoleFromContext(r.Context()), "record:view-all") {
		return reading.Record{}, reading.ErrNotFound
	}
	return rec, nil
}

func CreateRecordHandler(svc *reading.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			BookID string `json:"book_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BookID == "" {
			http.Error(w, "book_id required", http.StatusBadRequest)
			return
		}
		rec, err := svc.Create(r.Context(), auth.SubjectFromContext(r.Context()), req.BookID)
		if err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, viewRecord(rec, svc.Now()))
	}
}

func ListRecordsHandler(svc *reading.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := svc.ListByStudent(r.Context(), auth.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, viewRecords(recs, svc.Now()))
	}
}

func GetRecordHandler(svc *reading.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := ownRecord(svc, r, chi.URLParam(r, "recordID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, viewRecord(rec, svc.Now()))
	}
}

func DeleteRecordHandler(svc *reading.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := ownRecord(svc, r, chi.URLParam(r, "recordID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if err := svc.Remove(r.Context(), rec.ID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func SetProgressHandler(svc *reading.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := ownRecord(svc, r, chi.URLParam(r, "recordID"))
		if err != nil {
			writeError(w, err)
			return
		}
		var req struct {
			Units int `json:"units"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		updated, err := svc.SetProgress(r.Context(), rec.ID, req.Units)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, viewRecord(updated, svc.Now()))
	}
}

func ReleasePinHandler(svc *reading.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := ownRecord(svc, r, chi.URLParam(r, "recordID"))
		if err != nil {
			writeError(w, err)
			return
		}
		updated, err := svc.ReleasePin(r.Context(), rec.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, viewRecord(updated, svc.Now()))
	}
}

func SetRatingHandler(svc *reading.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := ownRecord(svc, r, chi.URLParam(r, "recordID"))
		if err != nil {
			writeError(w, err)
			return
		}
		var req struct {
			Rating int `json:"rating"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		updated, err := svc.SetRating(r.Context(), rec.ID, req.Rating)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, viewRecord(updated, svc.Now()))
	}
}

func SetNotesHandler(svc *reading.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := ownRecord(svc, r, chi.URLParam(r, "recordID"))
		if err != nil {
			writeError(w, err)
			return
		}
		var req struct {
			Notes string `json:"notes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		updated, err := svc.SetNotes(r.Context(), rec.ID, req.Notes)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, viewRecord(updated, svc.Now()))
	}
}

func MethodsHandler(svc *reading.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := ownRecord(svc, r, chi.URLParam(r, "recordID"))
		if err != nil {
			writeError(w, err)
			return
		}
		methods, err := svc.Methods(r.Context(), rec.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]any{"methods": methods})
	}
}

func SubmitHandler(svc *reading.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := ownRecord(svc, r, chi.URLParam(r, "recordID"))
		if err != nil {
			writeError(w, err)
			return
		}
		var req struct {
			Method string `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Method == "" {
			http.Error(w, "method required", http.StatusBadRequest)
			return
		}
		updated, err := svc.SubmitManual(r.Context(), rec.ID, req.Method)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, viewRecord(updated, svc.Now()))
	}
}

func CancelHandler(svc *reading.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := ownRecord(svc, r, chi.URLParam(r, "recordID"))
		if err != nil {
			writeError(w, err)
			return
		}
		updated, err := svc.Cancel(r.Context(), rec.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, viewRecord(updated, svc.Now()))
	}
}
