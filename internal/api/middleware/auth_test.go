package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeValidator struct {
	accept string
}

func (f *fakeValidator) Validate(_ context.Context, token string) error {
	if token == f.accept {
		return nil
	}
	return errors.New("invalid token")
}

func authedHandler(t *testing.T) (http.Handler, *bool) {
	t.Helper()
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	return Auth(&fakeValidator{accept: "spn_good"})(next), &called
}

func TestAuth_AcceptsBearerToken(t *testing.T) {
	handler, called := authedHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tracks", nil)
	req.Header.Set("Authorization", "Bearer spn_good")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !*called {
		t.Error("next handler never called")
	}
}

func TestAuth_AcceptsQueryToken(t *testing.T) {
	handler, _ := authedHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tracks?token=spn_good", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestAuth_RejectsMissingAndBadTokens(t *testing.T) {
	handler, called := authedHandler(t)

	cases := []struct {
		name  string
		setup func(*http.Request)
	}{
		{"no token", func(*http.Request) {}},
		{"wrong token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer spn_bad") }},
		{"malformed header", func(r *http.Request) { r.Header.Set("Authorization", "spn_good") }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			*called = false
			req := httptest.NewRequest(http.MethodGet, "/api/v1/tracks", nil)
			tc.setup(req)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
			if !strings.Contains(w.Body.String(), `"error"`) {
				t.Errorf("body = %q, want a JSON error", w.Body.String())
			}
			if *called {
				t.Error("next handler called for unauthorized request")
			}
		})
	}
}

func TestScrubQuery(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"limit=10&offset=0", "limit=10&offset=0"},
		{"token=spn_secret", "token=REDACTED"},
		{"limit=5&api_token=abc", "limit=5&api_token=REDACTED"},
	}
	for _, tc := range cases {
		if got := scrubQuery(tc.in); got != tc.want {
			t.Errorf("scrubQuery(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
