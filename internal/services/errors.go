package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/flix/internal/shared"
)

// DefaultErrorMessage is shown when a failure carries no usable message.
const DefaultErrorMessage = "Something went wrong; please try again later."

// ErrorKind classifies an [APIError].
type ErrorKind int

const (
	KindNetwork ErrorKind = iota
	KindUnauthorized
	KindValidation
	KindUnexpectedResponse
	KindServer
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindUnauthorized:
		return "unauthorized"
	case KindValidation:
		return "validation"
	case KindUnexpectedResponse:
		return "unexpected_response"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindNetwork:
		return shared.ErrServiceUnavailable
	case KindUnauthorized:
		return shared.ErrAuthFailed
	case KindValidation:
		return shared.ErrInvalidInput
	case KindUnexpectedResponse:
		return shared.ErrUnexpectedResponse
	default:
		return shared.ErrAPIRequest
	}
}

// APIError is a failed API call normalized to a single human-readable Message.
//
// It matches the shared sentinel for its Kind with [errors.Is], as well as its underlying cause.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind.sentinel(), e.Err}
	}
	return []error{e.Kind.sentinel()}
}

// kindForStatus maps a non-2xx status to an [ErrorKind].
func kindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindUnauthorized
	case status >= 400 && status < 500:
		return KindValidation
	case status >= 500:
		return KindServer
	default:
		return KindUnexpectedResponse
	}
}

func networkError(err error) *APIError {
	return &APIError{Kind: KindNetwork, Message: err.Error(), Err: err}
}

func unexpectedResponse(status int, format string, args ...any) *APIError {
	return &APIError{Kind: KindUnexpectedResponse, StatusCode: status, Message: fmt.Sprintf(format, args...)}
}

func statusError(status int, body []byte) *APIError {
	return &APIError{Kind: kindForStatus(status), StatusCode: status, Message: extractMessage(body)}
}

// extractMessage pulls a readable message out of an error body: a JSON "message" field, the joined
// "errors[].msg" list from validation failures, the compacted JSON, the raw text, then [DefaultErrorMessage].
func extractMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return DefaultErrorMessage
	}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return string(body)
	}

	switch v := parsed.(type) {
	case string:
		if v != "" {
			return v
		}
		return DefaultErrorMessage
	case map[string]any:
		if msg, ok := v["message"].(string); ok && msg != "" {
			return msg
		}
		if list, ok := v["errors"].([]any); ok {
			var msgs []string
			for _, item := range list {
				if entry, ok := item.(map[string]any); ok {
					if msg, ok := entry["msg"].(string); ok && msg != "" {
						msgs = append(msgs, msg)
					}
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, body); err != nil {
		return string(body)
	}
	return compact.String()
}
