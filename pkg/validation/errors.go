package validation

import (
	"encoding/json"
	"net/http"
)

// Exception tags surfaced to clients in ErrorRecord.Exception. These names
// are part of the wire contract and must not change.
const (
	ExcMissingRequiredParameter    = "MissingRequiredParameter"
	ExcParameterValidationError    = "ParameterValidationError"
	ExcValidationError             = "ValidationError"
	ExcSecurityValidationError     = "SecurityValidationError"
	ExcInvalidCustomFormatterValue = "InvalidCustomFormatterValue"
	ExcRequestBodyValidationError  = "RequestBodyValidationError"
	ExcResponseNotFound            = "ResponseNotFound"
)

// ErrorRecord is the flattened, client-facing representation of one failure
// leaf. Serialized key order is exception, message, field; field is omitted
// entirely (never null) when no field is determinable.
type ErrorRecord struct {
	Exception string `json:"exception"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
}

// RequestValidationError reports that an incoming request violates the API
// contract. It carries the extracted records from the validation phase to
// the rendering phase and is discarded once rendered.
type RequestValidationError struct {
	Errors []ErrorRecord
}

// Error implements error.
func (e *RequestValidationError) Error() string {
	return summarize("request validation failed", e.Errors)
}

// Status returns the HTTP status the error renders as: 401 when every record
// is a security failure (the caller lacks credentials rather than having
// sent a malformed request), 400 otherwise.
func (e *RequestValidationError) Status() int {
	if len(e.Errors) == 0 {
		return http.StatusBadRequest
	}
	for _, rec := range e.Errors {
		if rec.Exception != ExcSecurityValidationError {
			return http.StatusBadRequest
		}
	}
	return http.StatusUnauthorized
}

// ResponseValidationError reports that a handler produced a response which
// violates its own declared contract. Always rendered as a server fault.
type ResponseValidationError struct {
	Errors []ErrorRecord
}

// Error implements error.
func (e *ResponseValidationError) Error() string {
	return summarize("response validation failed", e.Errors)
}

func summarize(prefix string, errs []ErrorRecord) string {
	if len(errs) == 0 {
		return prefix
	}
	return prefix + ": " + errs[0].Message
}

// RenderErrors writes a validation error as an HTTP response: a JSON array
// of error records (always an array, even for a single record) with
// Content-Type application/json. Request-side failures render as 400 (401
// when purely security), response-side failures as 500: a server breaking
// its own contract is never the client's fault. Unrecognized errors render
// as a bare 500.
func RenderErrors(w http.ResponseWriter, err error) {
	var records []ErrorRecord
	status := http.StatusInternalServerError

	switch e := err.(type) {
	case *RequestValidationError:
		records = e.Errors
		status = e.Status()
	case *ResponseValidationError:
		records = e.Errors
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(records)
}
