package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSuggestNameFromService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"name":{"first_name":"Ottoline"}}]}`))
	}))
	defer srv.Close()

	cfg := &Config{nameAPI: srv.URL}
	if got := suggestName(context.Background(), cfg); got != "Ottoline" {
		t.Fatalf("expected Ottoline, got %q", got)
	}
}

func TestSuggestNameFallback(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusInternalServerError)
		}},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}},
		{"no results", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"results":[]}`))
		}},
		{"blank name", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"results":[{"name":{"first_name":"  "}}]}`))
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			got := suggestName(context.Background(), &Config{nameAPI: srv.URL})
			if !isLocalName(got) {
				t.Fatalf("expected a local name, got %q", got)
			}
		})
	}
}

func TestSuggestNameWithoutService(t *testing.T) {
	got := suggestName(context.Background(), &Config{})
	if !isLocalName(got) {
		t.Fatalf("expected a local name, got %q", got)
	}
}

func TestLookupNameTruncates(t *testing.T) {
	long := strings.Repeat("é", maxSuggestedName+8)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"name":{"first_name":"` + long + `"}}]}`))
	}))
	defer srv.Close()

	got, err := lookupName(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if n := utf8.RuneCountInString(got); n != maxSuggestedName {
		t.Fatalf("expected %d runes, got %d", maxSuggestedName, n)
	}
}

func isLocalName(name string) bool {
	adjective, noun, ok := strings.Cut(name, " ")
	if !ok {
		return false
	}
	return slices.Contains(fallbackAdjectives, adjective) && slices.Contains(fallbackNouns, noun)
}
