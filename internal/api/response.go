package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/hongsenwang01/knowledge-base/internal/kb"
)

// Result is the envelope of every JSON response.
//
// Code repeats the HTTP status. ErrorCode carries the machine-readable kb
// error code on failures, for example "NAME_CONFLICT".
type Result struct {
	Code      int       `json:"code"`
	Message   string    `json:"message"`
	ErrorCode string    `json:"errorCode,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// Headers are already sent, so an encode failure cannot be reported.
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes a 200 envelope around data.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Result{
		Code:      http.StatusOK,
		Message:   "success",
		Data:      data,
		Timestamp: now(),
	})
}

// Created writes a 201 envelope around data.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, Result{
		Code:      http.StatusCreated,
		Message:   "created",
		Data:      data,
		Timestamp: now(),
	})
}

// Fail writes an error envelope with an explicit status and code.
func Fail(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, Result{
		Code:      status,
		Message:   message,
		ErrorCode: code,
		Timestamp: now(),
	})
}

// BadRequest writes a 400 validation failure.
func BadRequest(w http.ResponseWriter, message string) {
	Fail(w, http.StatusBadRequest, kb.CodeValidation, message)
}

// Error maps err to a status and writes the envelope. Internal failures are
// logged and reported without detail.
func Error(w http.ResponseWriter, logger kb.Logger, err error) {
	status := StatusFor(err)
	code := kb.CodeOf(err)

	var kbErr *kb.Error
	if status >= http.StatusInternalServerError || !errors.As(err, &kbErr) {
		logger.Error("request failed", "code", code, "error", err)
	}
	if !errors.As(err, &kbErr) {
		Fail(w, status, code, "internal server error")
		return
	}
	Fail(w, status, code, kbErr.Error())
}

// StatusFor returns the HTTP status for err.
func StatusFor(err error) int {
	if kb.CodeOf(err) == kb.CodeFileTooLarge {
		return http.StatusRequestEntityTooLarge
	}
	switch kb.KindOf(err) {
	case kb.KindNotFound:
		return http.StatusNotFound
	case kb.KindConflict, kb.KindPreconditionFailed:
		return http.StatusConflict
	case kb.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func now() time.Time { return time.Now().UTC() }
