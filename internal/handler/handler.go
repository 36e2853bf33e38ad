package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"

	"divyashree/internal/auth"
	"divyashree/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxBodyBytes caps decoded request bodies.
const maxBodyBytes = 1 << 20

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// respond writes a success envelope.
func respond(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Response{Success: true, Data: data})
}

// respondMessage writes a success envelope with a message and no data.
func respondMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, Response{Success: true, Message: message})
}

// writeError maps err to a status code and writes a failure envelope.
// Internal errors are logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	status := model.HTTPStatus(err)

	var de *model.DomainError
	if !errors.As(err, &de) {
		logger.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("handler error")
		writeJSON(w, status, Response{Message: "Internal server error", Code: model.ErrCodeInternalError})
		return
	}

	logger.Debug().
		Str("code", de.Code).
		Int("status", status).
		Str("path", r.URL.Path).
		Msg(de.Message)
	writeJSON(w, status, Response{Message: de.Message, Code: de.Code})
}

var errInvalidJSON = model.NewDomainError(model.KindValidation, model.ErrCodeInvalidJSON, "Invalid request body")

// decode reads a JSON body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errInvalidJSON
	}
	return nil
}

// decodeOptional is decode for endpoints whose body may be empty.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errInvalidJSON
	}
	return nil
}

// pathID parses a uuid route parameter.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, model.NewValidation("Invalid %s", name)
	}
	return id, nil
}

// queryInt reads an integer query parameter, falling back to def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.NewValidation("invalid %s parameter", name)
	}
	return v, nil
}

// pageParams reads the page and limit query parameters.
func pageParams(r *http.Request) (page, limit int, err error) {
	if page, err = queryInt(r, "page", 1); err != nil {
		return 0, 0, err
	}
	if limit, err = queryInt(r, "limit", model.DefaultPageSize); err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}

// currentUser returns the authenticated user. Routes using it sit behind
// the authentication middleware.
func currentUser(r *http.Request) (*model.User, error) {
	user := auth.UserFrom(r.Context())
	if user == nil {
		return nil, model.ErrUnauthorised
	}
	return user, nil
}

// actorFrom describes the caller for audit records.
func actorFrom(r *http.Request, user *model.User) model.Actor {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return model.Actor{ID: user.ID, Role: user.Role, IP: ip, UserAgent: r.UserAgent()}
}
