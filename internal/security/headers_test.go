package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func noContent() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestHeadersMiddlewareSetsSecurityHeaders(t *testing.T) {
	handler := Headers{Enable: true, EnableHSTS: true, HSTSIncludeSubdomains: true}.Middleware(noContent())

	req := httptest.NewRequest(http.MethodGet, "https://api.example.com/api/v1/lists", nil)
	req.TLS = &tls.ConnectionState{}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	h := rr.Result().Header
	require.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
	require.Equal(t, "no-store", h.Get("Cache-Control"))
	require.Equal(t, "max-age=31536000; includeSubDomains", h.Get("Strict-Transport-Security"))
}

func TestHeadersMiddlewareSkipsHSTSWithoutTLS(t *testing.T) {
	rr := httptest.NewRecorder()
	Headers{Enable: true, EnableHSTS: true}.Middleware(noContent()).
		ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://localhost/", nil))
	require.Empty(t, rr.Header().Get("Strict-Transport-Security"))
	require.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
}

func TestHeadersMiddlewareDisabled(t *testing.T) {
	rr := httptest.NewRecorder()
	Headers{Enable: false, EnableHSTS: true}.Middleware(noContent()).
		ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://localhost/", nil))
	require.Empty(t, rr.Header().Get("X-Content-Type-Options"))
}
