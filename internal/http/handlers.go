package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// userID resolves the request's identity, writing a 401 on failure.
func (s *Server) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := s.resolver.UserID(r)
	if err != nil {
		s.logger.WarnContext(r.Context(), "request without identity",
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		writeUnauthorized(w)
		return "", false
	}
	return userID, true
}

// pathID extracts the record id that follows prefix. The returned rest holds
// any trailing segment ("progress"), empty otherwise.
func pathID(path, prefix string) (id, rest string) {
	tail := strings.TrimPrefix(path, prefix)
	tail = strings.Trim(tail, "/")
	if i := strings.IndexByte(tail, '/'); i >= 0 {
		return tail[:i], tail[i+1:]
	}
	return tail, ""
}

var errInvalidBody = errors.New("invalid request body")

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errInvalidBody
	}
	return nil
}

// writeRecordError converts any service failure into the generic 500
// envelope. Rejected input is not distinguished on the wire, only in the
// log level: client faults log at warn, everything else at error.
func (s *Server) writeRecordError(w http.ResponseWriter, r *http.Request, err error) {
	if core.IsValidationError(err) || errors.Is(err, errInvalidBody) {
		s.logger.WarnContext(r.Context(), "record operation rejected",
			log.FieldPath, r.URL.Path,
			log.FieldMethod, r.Method,
			log.FieldError, err)
	} else {
		s.logger.ErrorContext(r.Context(), "record operation failed",
			log.FieldPath, r.URL.Path,
			log.FieldMethod, r.Method,
			log.FieldError, err)
	}
	writeInternalError(w, err)
}

// writeGetResult renders a single-record lookup. A missing record is an
// empty object with a 200, not a 404.
func (s *Server) writeGetResult(w http.ResponseWriter, r *http.Request, record any, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, record)
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusOK, struct{}{})
	default:
		s.writeRecordError(w, r, err)
	}
}
