package api

import (
	"net/http"

	"github.com/hackgods/clinic-journey-scheduling/internal/availability"
	"github.com/hackgods/clinic-journey-scheduling/internal/cases"
)

func (h *handlers) replaceAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req ReplaceAvailabilityRequest
	if !decode(w, r, &req) {
		return
	}
	if _, err := h.cfg.Professionals.Get(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	windows := req.toDomain(id)
	if err := availability.Validate(windows); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.cfg.Availability.Replace(r.Context(), id, windows); err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Info("availability replaced",
		"professional_id", id.String(),
		"windows", len(windows),
		"actor", ActorFromContext(r.Context()),
	)
	writeJSON(w, http.StatusOK, availability.ProfessionalWindows{ProfessionalID: id, Windows: windows})
}

func (h *handlers) allAvailability(w http.ResponseWriter, r *http.Request) {
	groups, err := h.cfg.Availability.ListAll(r.Context(), availability.Filter{})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if groups == nil {
		groups = []availability.ProfessionalWindows{}
	}
	writeJSON(w, http.StatusOK, groups)
}

func (h *handlers) createProfessional(w http.ResponseWriter, r *http.Request) {
	var req CreateProfessionalRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.cfg.Professionals.Create(r.Context(), ActorFromContext(r.Context()), req.toDomain())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *handlers) usernameAvailable(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("username")
	if raw == "" {
		writeValidation(w, &cases.ValidationError{Field: "username", Reason: "required"})
		return
	}
	ok, err := h.cfg.Professionals.UsernameAvailable(r.Context(), raw)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UsernameAvailabilityResponse{Username: raw, Available: ok})
}
