package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newServer(t *testing.T, reply map[string]any, status int) (*httptest.Server, *[]string) {
	t.Helper()
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(reply)
	}))
	t.Cleanup(srv.Close)
	return srv, &paths
}

func TestNewProvider_RequiresKey(t *testing.T) {
	if _, err := NewProvider("", DefaultModel, ""); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestGenerate(t *testing.T) {
	srv, paths := newServer(t, map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"role":  "model",
				"parts": []map[string]any{{"text": "Looks fine."}},
			},
			"finishReason": "STOP",
		}},
	}, http.StatusOK)

	p, err := NewProvider("test-key", "gemini-test", srv.URL+"/")
	if err != nil {
		t.Fatalf("NewProvider error: %v", err)
	}
	if p.Name() != "gemini" || p.Model() != "gemini-test" {
		t.Fatalf("unexpected provider identity %s/%s", p.Name(), p.Model())
	}

	got, err := p.Generate(context.Background(), "review this")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if got != "Looks fine." {
		t.Errorf("Generate() = %q, want %q", got, "Looks fine.")
	}
	if len(*paths) != 1 || !strings.Contains((*paths)[0], "gemini-test") {
		t.Errorf("unexpected request paths %v", *paths)
	}
}

func TestGenerate_EmptyResponse(t *testing.T) {
	srv, _ := newServer(t, map[string]any{"candidates": []map[string]any{}}, http.StatusOK)
	p, err := NewProvider("test-key", "gemini-test", srv.URL+"/")
	if err != nil {
		t.Fatalf("NewProvider error: %v", err)
	}
	if _, err := p.Generate(context.Background(), "x"); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestGenerate_HTTPError(t *testing.T) {
	srv, _ := newServer(t, map[string]any{"error": map[string]any{"code": 500, "message": "boom"}}, http.StatusInternalServerError)
	p, err := NewProvider("test-key", "gemini-test", srv.URL+"/")
	if err != nil {
		t.Fatalf("NewProvider error: %v", err)
	}
	if _, err := p.Generate(context.Background(), "x"); err == nil {
		t.Fatal("expected error for 500 response")
	}
}
