package topic

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRandom(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/page/random/summary" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q", got)
		}
		w.Write([]byte(`{"title":"Voyager 1","extract":"A space probe."}`))
	}))
	defer srv.Close()

	f := New(WithBaseURL(srv.URL))
	got, err := f.Random(context.Background())
	if err != nil {
		t.Fatalf("Random failed: %v", err)
	}
	if got != "Voyager 1" {
		t.Errorf("title = %q, want %q", got, "Voyager 1")
	}
}

func TestRandomServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream sad", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(WithBaseURL(srv.URL)).Random(context.Background())
	if err == nil {
		t.Fatal("Random should fail on non-200 status")
	}
	if !strings.Contains(err.Error(), "502") {
		t.Errorf("error should carry the status code: %v", err)
	}
}

func TestRandomMissingTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"extract":"no title here"}`))
	}))
	defer srv.Close()

	_, err := New(WithBaseURL(srv.URL)).Random(context.Background())
	if err == nil {
		t.Fatal("Random should fail when the response has no title")
	}
}

func TestRandomContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(WithBaseURL(srv.URL)).Random(ctx); err == nil {
		t.Fatal("Random should fail with a cancelled context")
	}
}
