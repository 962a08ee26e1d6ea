package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// ERROR RESPONSES
// =============================================================================

// ErrorResponse is the body of every non-2xx response.
// Code is stable and machine-readable; Error is for people.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

const (
	CodeValidation      = "validation_failed"
	CodeInvalidInput    = "invalid_input"
	CodeInvalidAmount   = "invalid_amount"
	CodeMissingDuration = "missing_duration"
	CodeNotFound        = "not_found"
	CodeNoBaseSalary    = "no_base_salary"
	CodeLocked          = "locked"
	CodeConflict        = "conflict"
	CodeDuplicate       = "duplicate_idempotency_key"
	CodeInternal        = "internal"
)

// classify maps a domain error to status, code and message.
//
//	400 malformed input            404 missing record / no base salary
//	409 locked or conflicting      422 well-formed but not priceable
func classify(err error) (int, ErrorResponse) {
	var (
		locked *generic.LockedError
		vErrs  validator.ValidationErrors
	)
	switch {
	case errors.As(err, &vErrs):
		return http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Code: CodeValidation, Details: describeValidation(vErrs)}
	case errors.Is(err, generic.ErrNoBaseSalary):
		return http.StatusNotFound, ErrorResponse{Error: "Employee has no base salary in effect on that date", Code: CodeNoBaseSalary}
	case errors.Is(err, generic.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "Not found", Code: CodeNotFound}
	case errors.As(err, &locked):
		return http.StatusConflict, ErrorResponse{
			Error: "Absence is locked for payroll",
			Code:  CodeLocked,
			Details: fmt.Sprintf("dated %s, locked since %s",
				locked.EventDate, locked.LockedSince.Format("2006-01-02 15:04 MST")),
		}
	case errors.Is(err, generic.ErrDuplicateIdempotencyKey):
		return http.StatusConflict, ErrorResponse{Error: "Already recorded", Code: CodeDuplicate}
	case generic.IsConflict(err):
		return http.StatusConflict, ErrorResponse{Error: "Conflicting base salary", Code: CodeConflict}
	case errors.Is(err, generic.ErrMissingDuration):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: "Duration is required for permissions", Code: CodeMissingDuration}
	case errors.Is(err, generic.ErrInvalidAmount):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: "Invalid amount", Code: CodeInvalidAmount}
	case errors.Is(err, generic.ErrInvalidInput), errors.Is(err, generic.ErrInvalidPeriod):
		return http.StatusBadRequest, ErrorResponse{Error: "Invalid input", Code: CodeInvalidInput}
	}
	return http.StatusInternalServerError, ErrorResponse{Error: "Internal error", Code: CodeInternal}
}

// writeServiceError writes err as JSON. Details carry the error text for
// everything except internal errors, which are logged instead.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := classify(err)
	if status == http.StatusInternalServerError {
		h.Log.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).WithError(err).Error("request failed")
	} else if resp.Details == "" {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeError(w http.ResponseWriter, status int, code, message string, err error) {
	resp := ErrorResponse{Error: message, Code: code}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// =============================================================================
// VALIDATION
// =============================================================================

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func describeValidation(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		switch e.Tag() {
		case "required":
			parts = append(parts, e.Field()+" is required")
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of [%s]", e.Field(), e.Param()))
		case "datetime":
			parts = append(parts, e.Field()+" must be a date (YYYY-MM-DD)")
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid (%s)", e.Field(), e.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
