// Package httpx holds the JSON request and response helpers shared by the handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-taskbite/internal/apperr"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Message is the body of responses that only acknowledge an action.
type Message struct {
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, Message{Message: msg})
}

// WriteError maps err onto a status code and writes the error body. Server
// side failures are logged with their cause; the client only sees the message.
func WriteError(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, err error) {
	WriteErrorStatus(w, r, logger, apperr.Status(err), err)
}

func WriteErrorStatus(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, status int, err error) {
	if logger != nil {
		if status >= http.StatusInternalServerError {
			logger.Errorw("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		} else {
			logger.Debugw("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
		}
	}
	WriteJSON(w, status, errorResponse{Error: apperr.Message(err), Fields: apperr.Fields(err)})
}

// DecodeJSON reads a single JSON object from the request body into dst.
// Malformed or oversized bodies come back as validation errors.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return apperr.New(apperr.ErrValidation, "No input data provided")
	}
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperr.New(apperr.ErrValidation, "No input data provided")
		case errors.As(err, &tooLarge):
			return apperr.Wrap(apperr.ErrValidation, "request body too large", err)
		default:
			return apperr.Wrap(apperr.ErrValidation, "malformed JSON body", err)
		}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperr.New(apperr.ErrValidation, "body must contain a single JSON object")
	}
	return nil
}
