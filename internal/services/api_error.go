package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// APIError ошибка обращения к OpenProject: ответ не 2xx или сбой транспорта (StatusCode == 0).
type APIError struct {
	StatusCode int
	Message    string
	Details    []string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return "openproject: " + e.Message
	}
	return fmt.Sprintf("openproject: status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsNotFound сообщает, что OpenProject ответил 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// halError тело ошибки OpenProject (HAL+JSON).
type halError struct {
	ErrorIdentifier string `json:"errorIdentifier"`
	Message         string `json:"message"`
	Embedded        struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	} `json:"_embedded"`
	Errors map[string]json.RawMessage `json:"errors"`
}

// newAPIError разбирает тело ответа с ошибкой. Нераспознанное тело не мешает
// вернуть ошибку со статусом.
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: status,
		Message:    fmt.Sprintf("API request failed: %d %s", status, http.StatusText(status)),
	}

	var he halError
	if len(body) == 0 || json.Unmarshal(body, &he) != nil {
		if text := strings.TrimSpace(string(body)); text != "" {
			apiErr.Details = []string{text}
		}
		return apiErr
	}

	if he.Message != "" {
		apiErr.Message = he.Message
	}

	var messages []string
	for _, e := range he.Embedded.Errors {
		if e.Message != "" {
			messages = append(messages, e.Message)
		}
	}
	if len(messages) > 0 {
		apiErr.Message = strings.Join(messages, "; ")
		apiErr.Details = messages
	}

	if fields := fieldErrors(he.Errors); len(fields) > 0 {
		apiErr.Message += ". Validation errors: " + strings.Join(fields, "; ")
		apiErr.Details = append(apiErr.Details, fields...)
	}
	return apiErr
}

// fieldErrors раскладывает {"field": ["msg", ...]} или {"field": "msg"} в строки "field: msg".
func fieldErrors(raw map[string]json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	fields := make([]string, 0, len(raw))
	for field := range raw {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var out []string
	for _, field := range fields {
		var list []string
		if err := json.Unmarshal(raw[field], &list); err == nil {
			for _, msg := range list {
				out = append(out, field+": "+msg)
			}
			continue
		}
		var single string
		if err := json.Unmarshal(raw[field], &single); err == nil {
			out = append(out, field+": "+single)
			continue
		}
		out = append(out, field+": "+string(raw[field]))
	}
	return out
}
