package httppresentation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Zhima-Mochi/minishop-tracing/internal/domain/failure"
)

// statusBody is the {status, message, category} envelope of every non-order endpoint.
type statusBody struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Category string `json:"category,omitempty"`
	OrderID  string `json:"order_id,omitempty"`
	TraceID  string `json:"trace_id,omitempty"`
}

const (
	statusSuccess = "success"
	statusFailure = "failure"
)

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeFailure(w http.ResponseWriter, status int, err error) {
	category := failure.CategoryOf(err)
	writeJSON(w, status, statusBody{
		Status:   statusFailure,
		Message:  failure.MessageOf(err),
		Category: string(category),
	})
}

// statusFor maps a failure category onto an HTTP status code.
func statusFor(err error) int {
	switch failure.CategoryOf(err) {
	case failure.Validation, failure.Capacity:
		return http.StatusBadRequest
	case failure.Fraud:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// flexString accepts a JSON string or number, so numeric order and user ids from older clients still decode.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*f = flexString(n.String())
	return nil
}
