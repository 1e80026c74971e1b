// Package httpx holds the JSON envelope shared by the REST services:
// {"success":true,"data":...} or {"success":false,"error":"..."}.
package httpx

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope[any]{Success: true, Data: data})
}

func OK(w http.ResponseWriter, data any) { JSON(w, http.StatusOK, data) }

func Created(w http.ResponseWriter, data any) { JSON(w, http.StatusCreated, data) }

func Error(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope[any]{Error: msg})
}

// ErrorWithData is used when the client needs structured detail next to
// the message, e.g. per-field validation errors.
func ErrorWithData(w http.ResponseWriter, status int, msg string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope[any]{Error: msg, Data: data})
}

// Decode reads an envelope from a response body. A body with
// success=false, or a non-2xx status, is returned as *StatusError.
func Decode[T any](resp *http.Response) (T, error) {
	var zero T
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return zero, err
	}
	var env Envelope[T]
	if len(body) > 0 {
		if err := json.Unmarshal(body, &env); err != nil {
			if resp.StatusCode >= 300 {
				return zero, &StatusError{Code: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
			}
			return zero, fmt.Errorf("decode response: %w", err)
		}
	}
	if resp.StatusCode >= 300 || !env.Success {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return zero, &StatusError{Code: resp.StatusCode, Message: msg}
	}
	return env.Data, nil
}

type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Code, e.Message)
}
