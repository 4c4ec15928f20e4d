package http

import "net/http"

// handleAnalytics serves the cached cross-cutting spending summary for the
// authenticated user.
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	summary, err := s.svc.Summary(r.Context(), userID)
	if err != nil {
		s.writeRecordError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
