package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"filez/api/internal/store"
)

// envelope is the uniform JSON body for API responses. Bridge endpoints
// consumed by the editor bypass it and write their contract bodies raw.
type envelope struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func success(w http.ResponseWriter, data interface{}, message ...string) {
	msg := "Success"
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	writeJSON(w, http.StatusOK, envelope{
		Code:      0,
		Message:   msg,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	})
}

func failure(w http.ResponseWriter, status, code int, message string) {
	writeJSON(w, status, envelope{
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UnixMilli(),
	})
}

func badRequest(w http.ResponseWriter, message string) {
	failure(w, http.StatusBadRequest, http.StatusBadRequest, message)
}

func unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "authentication required"
	}
	failure(w, http.StatusUnauthorized, http.StatusUnauthorized, message)
}

func forbidden(w http.ResponseWriter, message string) {
	if message == "" {
		message = "access denied"
	}
	failure(w, http.StatusForbidden, http.StatusForbidden, message)
}

func notFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = "not found"
	}
	failure(w, http.StatusNotFound, http.StatusNotFound, message)
}

func serverError(w http.ResponseWriter, log *logrus.Logger, err error) {
	log.WithError(err).Error("internal error")
	failure(w, http.StatusInternalServerError, http.StatusInternalServerError, "internal server error")
}

func decodeBody(r *http.Request, target interface{}) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

// respondError maps a service error onto the envelope, unwrapping
// DomainError when present.
func respondError(w http.ResponseWriter, log *logrus.Logger, err error) {
	var de *DomainError
	if errors.As(err, &de) {
		failure(w, de.Status, de.Code, de.Message)
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		notFound(w, "")
		return
	}
	serverError(w, log, err)
}
