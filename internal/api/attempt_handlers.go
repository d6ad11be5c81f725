package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-journey-scheduling/internal/attempts"
	"github.com/hackgods/clinic-journey-scheduling/internal/cases"
)

func (h *handlers) listAttempts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f attempts.Filter
	for name, dst := range map[string]**uuid.UUID{"caseId": &f.CaseID, "professionalId": &f.ProfessionalID} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_"+name, name+" must be a valid UUID")
			return
		}
		*dst = &id
	}
	for _, raw := range q["status"] {
		label := attempts.Label(raw)
		if !label.Valid() {
			writeValidation(w, &cases.ValidationError{Field: "status", Reason: "unknown label"})
			return
		}
		f.Statuses = append(f.Statuses, label)
	}

	list, err := h.cfg.Attempts.List(r.Context(), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if list == nil {
		list = []attempts.Attempt{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handlers) createAttempt(w http.ResponseWriter, r *http.Request) {
	var req CreateAttemptRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := h.cfg.Attempts.Create(r.Context(), ActorFromContext(r.Context()), req.CaseID, req.ProfessionalID, req.Notes)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *handlers) advanceAttempt(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	a, err := h.cfg.Attempts.Advance(r.Context(), id, ActorFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *handlers) setAttemptStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req SetAttemptStatusRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := h.cfg.Attempts.SetStatus(r.Context(), id, attempts.Label(req.Status), ActorFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
