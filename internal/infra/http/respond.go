package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/Spok95/pressops/internal/domain/errs"
	"github.com/Spok95/pressops/internal/domain/users"
	"github.com/Spok95/pressops/internal/infra/db"
)

const maxBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorBody struct {
	Message    string            `json:"message"`
	Errors     map[string]string `json:"errors,omitempty"`
	Code       string            `json:"code,omitempty"`
	Constraint string            `json:"constraint,omitempty"`
	Detail     string            `json:"detail,omitempty"`
}

// writeError maps the error taxonomy onto status codes. Anything
// unclassified is logged and answered with a bare 500.
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	var (
		ve *errs.ValidationError
		ce *db.ConstraintError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Message: "validation failed", Errors: ve.Fields})
	case errors.As(err, &ce):
		status := http.StatusInternalServerError
		switch {
		case errors.Is(ce, errs.ErrConflict):
			status = http.StatusConflict
		case errors.Is(ce, errs.ErrValidation):
			status = http.StatusUnprocessableEntity
		default:
			log.Error("unmapped constraint violation", "err", err)
		}
		writeJSON(w, status, errorBody{
			Message:    http.StatusText(status),
			Code:       ce.Code,
			Constraint: ce.Constraint,
			Detail:     ce.Detail,
		})
	case errors.Is(err, errs.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Message: err.Error()})
	case errors.Is(err, errs.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Message: err.Error()})
	case errors.Is(err, errs.ErrAccessDenied):
		writeJSON(w, http.StatusForbidden, errorBody{Message: err.Error()})
	case errors.Is(err, errs.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody{Message: err.Error()})
	default:
		log.Error("request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: "internal error"})
	}
}

// decode reads a JSON body into dst.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errs.Invalid("body", "malformed JSON: "+err.Error())
	}
	return nil
}

type callerKey struct{}

// callerFrom returns the caller resolved by identify, or reads the identity
// the upstream auth layer put in the headers. A missing or bad header yields
// a zero caller, which every mutation rejects.
func callerFrom(r *http.Request) users.Caller {
	if c, ok := r.Context().Value(callerKey{}).(users.Caller); ok {
		return c
	}
	id, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
	if err != nil {
		return users.Caller{}
	}
	return users.Caller{UserID: id, Role: users.Role(r.Header.Get("X-User-Role"))}
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.Invalid(name, "must be a positive integer")
	}
	return id, nil
}

func queryInt(r *http.Request, name string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
