// Package security applies the response headers a JSON API should always
// carry, mostly to blunt content sniffing and accidental caching of
// per-user data.
package security

import (
	"fmt"
	"net/http"
)

type HeadersConfig struct {
	XContentTypeOptions string
	XFrameOptions       string
	ReferrerPolicy      string
	CacheControl        string

	// HSTS, sent only on TLS connections.
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
}

func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		XContentTypeOptions:   "nosniff",
		XFrameOptions:         "DENY",
		ReferrerPolicy:        "no-referrer",
		CacheControl:          "no-store",
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
	}
}

type HeadersMiddleware struct {
	config HeadersConfig
}

func NewHeadersMiddleware(config HeadersConfig) *HeadersMiddleware {
	return &HeadersMiddleware{config: config}
}

func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		headers.Set("X-Content-Type-Options", h.config.XContentTypeOptions)
		headers.Set("X-Frame-Options", h.config.XFrameOptions)
		headers.Set("Referrer-Policy", h.config.ReferrerPolicy)
		if h.config.CacheControl != "" {
			headers.Set("Cache-Control", h.config.CacheControl)
		}

		if r.TLS != nil && h.config.HSTSMaxAge > 0 {
			value := fmt.Sprintf("max-age=%d", h.config.HSTSMaxAge)
			if h.config.HSTSIncludeSubdomains {
				value += "; includeSubDomains"
			}
			headers.Set("Strict-Transport-Security", value)
		}

		next.ServeHTTP(w, r)
	})
}
