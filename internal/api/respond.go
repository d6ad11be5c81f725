package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hackgods/clinic-journey-scheduling/internal/attempts"
	"github.com/hackgods/clinic-journey-scheduling/internal/availability"
	"github.com/hackgods/clinic-journey-scheduling/internal/booking"
	"github.com/hackgods/clinic-journey-scheduling/internal/cases"
	"github.com/hackgods/clinic-journey-scheduling/internal/logging"
	"github.com/hackgods/clinic-journey-scheduling/internal/professional"
	redisclient "github.com/hackgods/clinic-journey-scheduling/internal/redis"
	"github.com/hackgods/clinic-journey-scheduling/internal/stages"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Field   string `json:"field,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// decode reads a JSON body into dst and runs its validate tags. A malformed body is
// reported as 400; a body that decodes but breaks a rule becomes a ValidationError.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			writeValidation(w, &cases.ValidationError{Field: fieldPath(fe), Reason: "failed " + fe.Tag()})
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid_request_body", err.Error())
		return false
	}
	return true
}

// fieldPath drops the struct name from the validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func writeValidation(w http.ResponseWriter, v *cases.ValidationError) {
	writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation_error",
		Details: v.Reason,
		Field:   v.Field,
	})
}

// writeServiceError maps domain errors onto the HTTP surface. Anything unrecognised is
// logged and reported as a retryable internal error without leaking its text.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *logging.Logger, err error) {
	var verr *cases.ValidationError
	switch {
	case errors.As(err, &verr):
		writeValidation(w, verr)
	case errors.Is(err, availability.ErrMalformedWindow):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: "validation_error", Details: err.Error(), Field: "windows"})

	case errors.Is(err, cases.ErrCaseNotFound):
		writeError(w, http.StatusNotFound, "case_not_found", err.Error())
	case errors.Is(err, cases.ErrEngagementNotFound):
		writeError(w, http.StatusNotFound, "engagement_not_found", err.Error())
	case errors.Is(err, professional.ErrProfessionalNotFound):
		writeError(w, http.StatusNotFound, "professional_not_found", err.Error())
	case errors.Is(err, attempts.ErrAttemptNotFound):
		writeError(w, http.StatusNotFound, "attempt_not_found", err.Error())
	case errors.Is(err, booking.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, "booking_not_found", err.Error())

	case errors.Is(err, booking.ErrSlotAlreadyBooked):
		writeError(w, http.StatusConflict, "slot_already_booked", err.Error())
	case errors.Is(err, booking.ErrSlotBeingBooked),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, booking.ErrSlotUnavailable):
		writeError(w, http.StatusConflict, "slot_unavailable", err.Error())
	case errors.Is(err, booking.ErrAlreadyCancelled):
		writeError(w, http.StatusConflict, "booking_cancelled", err.Error())
	case errors.Is(err, professional.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "username_taken", err.Error())
	case errors.Is(err, cases.ErrStaleCase):
		writeError(w, http.StatusConflict, "stale_case", err.Error())
	case errors.Is(err, stages.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, stages.ErrStageMismatch):
		writeError(w, http.StatusConflict, "stage_mismatch", err.Error())
	case errors.Is(err, stages.ErrUnknownStatus):
		writeError(w, http.StatusConflict, "unknown_status", err.Error())
	case errors.Is(err, attempts.ErrAlreadyBooked):
		writeError(w, http.StatusConflict, "attempt_already_scheduled", err.Error())
	case errors.Is(err, attempts.ErrStaleAttempt):
		writeError(w, http.StatusConflict, "attempt_changed", err.Error())

	default:
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", GetRequestID(r.Context()),
			"error", err.Error(),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "something went wrong, please retry")
	}
}
