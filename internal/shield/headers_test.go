package shield

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestHSTS(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(r *http.Request)
		maxAge int
		want   string
	}{
		{"plain http", func(r *http.Request) {}, DefaultHSTSMaxAge, ""},
		{"tls", func(r *http.Request) { r.TLS = &tls.ConnectionState{} }, DefaultHSTSMaxAge, "max-age=31536000;"},
		{"forwarded https", func(r *http.Request) { r.Header.Set("X-Forwarded-Proto", "HTTPS, http") }, 600, "max-age=600;"},
		{"forwarded http", func(r *http.Request) { r.Header.Set("X-Forwarded-Proto", "http") }, 600, ""},
		{"disabled", func(r *http.Request) { r.TLS = &tls.ConnectionState{} }, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			HSTS(tt.maxAge)(okHandler).ServeHTTP(rec, req)

			if got := rec.Header().Get("Strict-Transport-Security"); got != tt.want {
				t.Errorf("Strict-Transport-Security = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPermissions(t *testing.T) {
	rec := httptest.NewRecorder()
	Permissions(DefaultPermissionsPolicy)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := rec.Header().Get("Permissions-Policy"); got != DefaultPermissionsPolicy {
		t.Errorf("Permissions-Policy = %q, want %q", got, DefaultPermissionsPolicy)
	}
}

func TestPermissions_KeepsExisting(t *testing.T) {
	preset := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Permissions-Policy", "camera=(self)")
			next.ServeHTTP(w, r)
		})
	}

	rec := httptest.NewRecorder()
	preset(Permissions(DefaultPermissionsPolicy)(okHandler)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := rec.Header().Values("Permissions-Policy"); len(got) != 1 || got[0] != "camera=(self)" {
		t.Errorf("Permissions-Policy = %v, want [camera=(self)]", got)
	}
}
