package describe

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDescribe(t *testing.T) {
	var gotModel string
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")

		var req struct {
			Model string `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		gotModel = req.Model

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [
				{"message": {"role": "assistant", "content": "A red bicycle leaning against a wall."}}
			]
		}`))
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewClient("test-key", srv.URL+"/v1", "gpt-4o", logger)

	desc, err := c.Describe(context.Background(), "", "http://example.com/img.png")
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if desc != "A red bicycle leaning against a wall." {
		t.Fatalf("unexpected description %q", desc)
	}
	if gotModel != "gpt-4o" {
		t.Fatalf("expected default model to be used, got %q", gotModel)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
}

func TestDescribeEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL+"/v1", "gpt-4o", nil)

	if _, err := c.Describe(context.Background(), "gpt-4o", "http://example.com/img.png"); err == nil {
		t.Fatalf("expected error on empty choices")
	}
}
