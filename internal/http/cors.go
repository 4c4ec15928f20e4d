package http

import "net/http"

// CORS headers attached to every response, preflight included. The API is
// meant to sit behind a browser SPA on another origin.
const (
	corsAllowOrigin  = "*"
	corsAllowHeaders = "Content-Type,Authorization"
	corsAllowMethods = "GET,POST,PUT,DELETE,OPTIONS"
)

// withCORS decorates every response and short-circuits OPTIONS preflights
// with a 200 before auth or rate limiting can reject them.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", corsAllowOrigin)
		h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		h.Set("Access-Control-Allow-Methods", corsAllowMethods)

		if r.Method == http.MethodOptions {
			writeJSON(w, http.StatusOK, messageBody{Message: "CORS preflight successful"})
			return
		}

		next.ServeHTTP(w, r)
	})
}
