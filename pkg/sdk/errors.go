package sdk

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized matches any *APIError carrying HTTP 401.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRouteNotFound is returned when a path does not resolve to a declared route.
	ErrRouteNotFound = errors.New("route not found")

	// ErrTooManyRedirects is returned when navigation does not settle.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrSessionChanged is returned when the session token changed while an
	// identity fetch was in flight and its result was discarded.
	ErrSessionChanged = errors.New("session changed during identity fetch")

	// ErrMissingToken is returned when the login endpoint answers without a token.
	ErrMissingToken = errors.New("login response did not contain auth_token")
)

// DefaultErrorMessage is shown when a failure carries no readable body.
const DefaultErrorMessage = "Request failed"

// BodyKind tags the shape of an error response body.
type BodyKind int

const (
	BodyKindUnknown BodyKind = iota
	BodyKindText
	BodyKindDetail
	BodyKindFieldErrors
)

func (k BodyKind) String() string {
	switch k {
	case BodyKindText:
		return "text"
	case BodyKindDetail:
		return "detail"
	case BodyKindFieldErrors:
		return "field_errors"
	default:
		return "unknown"
	}
}

// ErrorBody is the decoded body of a non-2xx response. The shape is decided
// once when the response is received.
type ErrorBody struct {
	Kind        BodyKind
	Text        string
	Detail      string
	FieldErrors []string
	Raw         []byte
}

// Message returns the human readable text for the body, or "" when the
// body carries none.
func (b ErrorBody) Message() string {
	switch b.Kind {
	case BodyKindText:
		return b.Text
	case BodyKindDetail:
		return b.Detail
	case BodyKindFieldErrors:
		return strings.Join(b.FieldErrors, ", ")
	default:
		return ""
	}
}

// parseErrorBody classifies a response body. JSON strings and non-JSON
// payloads are text; objects are checked for "detail" and then
// "non_field_errors".
func parseErrorBody(raw []byte) ErrorBody {
	body := ErrorBody{Kind: BodyKindUnknown, Raw: raw}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return body
	}

	var decoded any
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		body.Kind = BodyKindText
		body.Text = string(raw)
		return body
	}

	switch v := decoded.(type) {
	case string:
		if v != "" {
			body.Kind = BodyKindText
			body.Text = v
		}
	case map[string]any:
		if detail, ok := v["detail"].(string); ok && detail != "" {
			body.Kind = BodyKindDetail
			body.Detail = detail
			return body
		}
		if list, ok := v["non_field_errors"].([]any); ok && len(list) > 0 {
			body.Kind = BodyKindFieldErrors
			for _, item := range list {
				body.FieldErrors = append(body.FieldErrors, fmt.Sprint(item))
			}
		}
	}
	return body
}

// APIError is returned for every non-2xx response.
type APIError struct {
	Status    int
	Method    string
	Path      string
	RequestID string
	Body      ErrorBody
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
	if text := e.Body.Message(); text != "" {
		msg += ": " + text
	}
	return msg
}

// Is reports ErrUnauthorized for 401 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// TransportError wraps failures where no response was received.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ValidationError is returned when a payload is rejected before any request is sent.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ErrorMessage extracts a single human readable message from err.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if msg := apiErr.Body.Message(); msg != "" {
			return msg
		}
		return DefaultErrorMessage
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Error()
	}

	return DefaultErrorMessage
}
