package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCreateDraft(t *testing.T) {
	var got DraftRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/drafts" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Error(err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	err := c.CreateDraft(context.Background(), DraftRequest{
		To:              "ana@acme.example",
		Subject:         "Hola Ana",
		Body:            "<p>...</p>",
		ThreadReference: "thread-123",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.To != "ana@acme.example" || got.ThreadReference != "thread-123" {
		t.Fatalf("payload mismatch: %+v", got)
	}
}

func TestCreateDraft_Rejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "outlook not running", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, 5*time.Second).CreateDraft(context.Background(), DraftRequest{})
	if err == nil {
		t.Fatal("want rejection error")
	}
	if !strings.Contains(err.Error(), "outlook not running") {
		t.Fatalf("rejection should carry the bridge message: %v", err)
	}
}

func TestFindLastSent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Recipient string `json:"recipient"`
			Subject   string `json:"subject"`
			DaysBack  int    `json:"days_back"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Error(err)
		}
		if req.DaysBack != 60 {
			t.Errorf("days_back = %d", req.DaysBack)
		}
		json.NewEncoder(w).Encode(map[string]string{"thread_reference": "ref-9"})
	}))
	defer srv.Close()

	ref, err := NewClient(srv.URL, 5*time.Second).FindLastSent(context.Background(), "ana@acme.example", "Hola Ana", 60)
	if err != nil {
		t.Fatal(err)
	}
	if ref != "ref-9" {
		t.Fatalf("ref = %q", ref)
	}
}

func TestFindLastSent_NoMatch(t *testing.T) {
	for name, handler := range map[string]http.HandlerFunc{
		"404":          func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) },
		"empty result": func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{}`)) },
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()

			_, err := NewClient(srv.URL, 5*time.Second).FindLastSent(context.Background(), "a@b", "s", 60)
			if !errors.Is(err, ErrNoThread) {
				t.Fatalf("want ErrNoThread, got %v", err)
			}
		})
	}
}
