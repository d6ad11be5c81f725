package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/clinic-journey-scheduling/internal/stages"
)

func (h *handlers) createCase(w http.ResponseWriter, r *http.Request) {
	var req CreateCaseRequest
	if !decode(w, r, &req) {
		return
	}
	rec, err := h.cfg.Cases.CreateIntake(r.Context(), ActorFromContext(r.Context()), req.toDomain())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *handlers) getCase(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	rec, err := h.cfg.Cases.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *handlers) presentStage(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	vm, err := h.cfg.Stages.Present(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vm)
}

// commitStage takes the stage input union; the current status decides which member is read.
func (h *handlers) commitStage(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var in stages.Input
	if !decode(w, r, &in) {
		return
	}
	rec, err := h.cfg.Stages.Commit(r.Context(), id, ActorFromContext(r.Context()), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *handlers) engagementOutcome(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var in stages.EngagementOutcomeInput
	if !decode(w, r, &in) {
		return
	}
	in.EngagementID = chi.URLParam(r, "engagementId")
	rec, err := h.cfg.Stages.RecordEngagementOutcome(r.Context(), id, ActorFromContext(r.Context()), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, OutcomeResponse{
		Success: true,
		Message: fmt.Sprintf("engagement %s closed, case is %s", in.EngagementID, rec.Status),
		Case:    rec,
	})
}

func (h *handlers) manualMatches(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	groups, err := h.cfg.Bookings.ManualMatches(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (h *handlers) board(w http.ResponseWriter, r *http.Request) {
	b, err := h.cfg.Board.Current(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
