package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
)

func TestPages(t *testing.T) {
	cfg := validConfig()
	cfg.prefix = "/games"

	errs := make(chan error, 8)
	mux := httprouter.New()
	mux.GET(cfg.prefix+"/", serveHomePage(cfg, errs))
	mux.GET(cfg.prefix+"/healthz", serveHealthCheck(cfg, errs))
	mux.GET(cfg.prefix+"/version", serveVersion(cfg, errs))
	mux.GET(cfg.prefix+"/robots.txt", serveRobots(cfg, errs))
	mux.GET(cfg.prefix+"/favicons/*favicon", serveFavicons(cfg, errs))

	cases := []struct {
		path        string
		status      int
		contentType string
		contains    string
	}{
		{"/games/", http.StatusOK, "text/html; charset=utf-8", `href="/games/story"`},
		{"/games/healthz", http.StatusOK, "text/plain; charset=utf-8", "Ok"},
		{"/games/version", http.StatusOK, "text/plain; charset=utf-8", "storybox v" + releaseVersion},
		{"/games/robots.txt", http.StatusOK, "text/plain; charset=utf-8", "GPTBot"},
		{"/games/favicons/favicon.svg", http.StatusOK, "image/svg+xml", "<svg"},
		{"/games/favicons/site.webmanifest", http.StatusOK, "application/manifest+json", "storybox"},
		{"/games/favicons/missing.png", http.StatusNotFound, "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))

			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			if tc.contentType != "" && rec.Header().Get("Content-Type") != tc.contentType {
				t.Fatalf("expected content type %q, got %q", tc.contentType, rec.Header().Get("Content-Type"))
			}
			if !strings.Contains(rec.Body.String(), tc.contains) {
				t.Fatalf("body does not contain %q", tc.contains)
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	cfg := validConfig()

	rec := httptest.NewRecorder()
	securityHeaders(cfg, rec)
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Fatal("HSTS must not be sent over plain http")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("expected nosniff")
	}

	cfg.tlsCert, cfg.tlsKey = "cert.pem", "key.pem"
	rec = httptest.NewRecorder()
	securityHeaders(cfg, rec)
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Fatal("expected HSTS over https")
	}
}

func TestRealIP(t *testing.T) {
	cases := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"remote addr", "10.0.0.1:1234", nil, "10.0.0.1:1234"},
		{"cloudflare", "10.0.0.1:1234", map[string]string{"CF-Connecting-IP": "203.0.113.7"}, "203.0.113.7:1234"},
		{"real ip", "10.0.0.1:1234", map[string]string{"X-Real-IP": "203.0.113.8"}, "203.0.113.8:1234"},
		{"bogus header", "10.0.0.1:1234", map[string]string{"X-Real-IP": "nope"}, "10.0.0.1:1234"},
		{"ipv6", "[::1]:1234", nil, "[::1]:1234"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				r.Header.Set(k, v)
			}

			if got := realIP(r); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestHumanReadableSize(t *testing.T) {
	cases := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{999, "999 B"},
		{1000, "1.0 kB"},
		{1500000, "1.5 MB"},
	}

	for _, tc := range cases {
		if got := humanReadableSize(tc.bytes); got != tc.want {
			t.Errorf("humanReadableSize(%d) = %q, want %q", tc.bytes, got, tc.want)
		}
	}
}
