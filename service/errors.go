package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// UnreachableMessage is shown whenever a request got no response at all.
const UnreachableMessage = "Unable to reach the server. Check your connection and try again."

var (
	// ErrAuth matches rejected credentials and missing, expired or invalid tokens.
	ErrAuth = errors.New("authentication failed")
	// ErrValidation matches input the server refused.
	ErrValidation = errors.New("request rejected by server")
	// ErrNotFound matches missing resources.
	ErrNotFound = errors.New("resource not found")
	// ErrNetwork matches requests that never got a response.
	ErrNetwork = errors.New("server unreachable")
)

// APIError is returned when the API responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Status     string
	Endpoint   string
	Body       string
	// Fields holds the decoded JSON error body, keyed by field name.
	Fields map[string]any
}

func (e *APIError) Error() string {
	if e == nil {
		return "movienight api error"
	}
	return fmt.Sprintf("movienight api error: %s: %s", e.Status, e.Body)
}

func (e *APIError) Is(target error) bool {
	if e == nil {
		return false
	}
	switch target {
	case ErrAuth:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrValidation:
		return e.StatusCode == http.StatusBadRequest
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// Field returns the first message the server attached to the named field.
func (e *APIError) Field(name string) string {
	if e == nil || e.Fields == nil {
		return ""
	}
	return firstMessage(e.Fields[name])
}

// HasField reports whether the server returned any message for the named field.
func (e *APIError) HasField(name string) bool {
	return e.Field(name) != ""
}

// Messages flattens every message in the error body, ordered by field name.
func (e *APIError) Messages() []string {
	if e == nil {
		return nil
	}
	if len(e.Fields) == 0 {
		if e.Body != "" {
			return []string{e.Body}
		}
		return nil
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []string
	for _, k := range keys {
		out = append(out, allMessages(e.Fields[k])...)
	}
	return out
}

// NetworkError wraps a transport failure where no response was received.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// IsNotFound reports whether the error represents a 404 from the API.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsCanceled reports whether the request was abandoned by its caller.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// Message turns err into a single display string: the first message of the
// listed fields, then non_field_errors, then detail, then fallback. Transport
// failures always yield UnreachableMessage.
func Message(err error, fallback string, fields ...string) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrNetwork) {
		return UnreachableMessage
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return fallback
	}
	for _, field := range fields {
		if msg := apiErr.Field(field); msg != "" {
			return msg
		}
	}
	if msg := apiErr.Field("non_field_errors"); msg != "" {
		return msg
	}
	if msg := apiErr.Field("detail"); msg != "" {
		return msg
	}
	return fallback
}

func firstMessage(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case []any:
		for _, item := range val {
			if msg := firstMessage(item); msg != "" {
				return msg
			}
		}
	}
	return ""
}

func allMessages(v any) []string {
	switch val := v.(type) {
	case string:
		if s := strings.TrimSpace(val); s != "" {
			return []string{s}
		}
	case []any:
		var out []string
		for _, item := range val {
			out = append(out, allMessages(item)...)
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var out []string
		for _, k := range keys {
			out = append(out, allMessages(val[k])...)
		}
		return out
	}
	return nil
}
