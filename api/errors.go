package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/warp/work-ledger/worktime"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error        string   `json:"error"`
	Code         string   `json:"code,omitempty"`
	Details      string   `json:"details,omitempty"`
	MissingDays  []string `json:"missing_days,omitempty"`
	BlockingWeek string   `json:"blocking_week,omitempty"`
	BlockingDay  string   `json:"blocking_day,omitempty"`
}

var validate = newValidator()

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

// decodeJSON reads and validates a request body. Failures are written as 400
// (malformed) or 422 (invalid) and false is returned.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", bindingError(err))
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "Validation failed",
			Code:    "invalid_request",
			Details: bindingError(err).Error(),
		})
		return false
	}
	return true
}

func bindingError(err error) error {
	if errors.Is(err, io.EOF) {
		return errors.New("request body is empty")
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Errorf("invalid JSON at byte offset %d", syntaxErr.Offset)
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Errorf("field '%s' should be of type %s", typeErr.Field, typeErr.Type)
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		out := make([]string, len(ve))
		for i, fe := range ve {
			out[i] = formatFieldError(fe)
		}
		return errors.New(strings.Join(out, ", "))
	}
	return err
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("field '%s' is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("field '%s' must be one of [%s]", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("field '%s' must be a date (YYYY-MM-DD)", fe.Field())
	}
	return fmt.Sprintf("field '%s' failed validation for '%s'", fe.Field(), fe.Tag())
}

// writeDomainError maps ledger errors onto HTTP statuses.
//
//	validation            422
//	sequence violation    409 (+ blocking period)
//	state conflict        409
//	not found             404
//	not assigned reviewer 403
//	manager resolution    500
//	persistence           503
func writeDomainError(w http.ResponseWriter, op string, err error) {
	resp := ErrorResponse{Error: err.Error()}

	var ve *worktime.ValidationError
	var sv *worktime.SequenceViolationError
	var status int
	switch {
	case errors.As(err, &ve):
		status = http.StatusUnprocessableEntity
		resp.Code = ve.Code
		if len(ve.MissingDays) > 0 {
			resp.MissingDays = dateStrings(ve.MissingDays)
		}
	case errors.As(err, &sv):
		status = http.StatusConflict
		resp.Code = "sequence_violation"
		if sv.Week != nil {
			resp.BlockingWeek = sv.Week.String()
		}
		if sv.Day != nil {
			resp.BlockingDay = sv.Day.String()
		}
	case errors.Is(err, worktime.ErrValidation):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, worktime.ErrStateConflict):
		status, resp.Code = http.StatusConflict, "state_conflict"
	case errors.Is(err, worktime.ErrNotFound):
		status, resp.Code = http.StatusNotFound, "not_found"
	case errors.Is(err, worktime.ErrNotAssignedReviewer):
		status, resp.Code = http.StatusForbidden, "not_assigned_reviewer"
	case errors.Is(err, worktime.ErrManagerResolution):
		status, resp.Code = http.StatusInternalServerError, "manager_resolution"
		log.Printf("[Server] %s: configuration error: %v", op, err)
	case worktime.IsRetryable(err):
		status, resp.Code = http.StatusServiceUnavailable, "persistence"
		log.Printf("[Server] %s: %v", op, err)
	default:
		status = http.StatusInternalServerError
		log.Printf("[Server] %s: unexpected error: %v", op, err)
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
