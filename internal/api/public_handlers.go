package api

import (
	"net/http"

	"github.com/hackgods/clinic-journey-scheduling/internal/cases"
	"github.com/hackgods/clinic-journey-scheduling/internal/slots"
)

func (h *handlers) availableSlots(w http.ResponseWriter, r *http.Request) {
	open, err := h.cfg.Bookings.GetAvailableSlots(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if open == nil {
		open = []slots.Slot{}
	}
	writeJSON(w, http.StatusOK, SlotsResponse{Slots: open})
}

func (h *handlers) matchPublic(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if !decode(w, r, &req) {
		return
	}
	matches, err := h.cfg.Bookings.MatchPublic(r.Context(), cases.Demand{Modality: req.Modality, Buckets: req.Buckets})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if matches == nil {
		matches = []slots.Slot{}
	}
	writeJSON(w, http.StatusOK, SlotsResponse{Slots: matches})
}

func (h *handlers) lookupCase(w http.ResponseWriter, r *http.Request) {
	var req LookupRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.cfg.Bookings.CheckExistingCaseByTaxID(r.Context(), req.TaxID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) bookSlot(w http.ResponseWriter, r *http.Request) {
	var req BookSlotRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.cfg.Bookings.BookSlot(r.Context(), req.toDomain())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *handlers) cancelBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	b, err := h.cfg.Bookings.CancelBooking(r.Context(), id, ActorFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CancelBookingResponse{Success: true, Booking: b})
}
