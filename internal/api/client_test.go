package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestBearerHeaderApplied(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(Identity{Email: "a@b.c"})
	}))
	defer srv.Close()

	c := New(srv.URL, WithTokenSource(staticToken("tok123")))
	if _, err := c.Me(context.Background()); err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if gotAuth != "Bearer tok123" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
}

func TestSharedConversationIsUnauthenticated(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(SharedConversation{Filename: "a.pdf"})
	}))
	defer srv.Close()

	c := New(srv.URL, WithTokenSource(staticToken("tok123")))
	if _, err := c.SharedConversation(context.Background(), "abc"); err != nil {
		t.Fatalf("SharedConversation failed: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("share fetch must not carry credentials, got %q", gotAuth)
	}
}

func TestErrorBodyPreference(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"error field wins", 500, `{"error":"boom","message":"other"}`, "boom"},
		{"message field fallback", 500, `{"message":"softer boom"}`, "softer boom"},
		{"no body falls back to status text", 500, ``, "Internal Server Error"},
		{"non-json body falls back", 502, `<html>bad gateway</html>`, "Bad Gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := New(srv.URL)
			_, err := c.Ask(context.Background(), "q", 1)
			if err == nil {
				t.Fatal("expected an error")
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T", err)
			}
			if apiErr.Message != tt.wantMsg {
				t.Errorf("message: got %q, want %q", apiErr.Message, tt.wantMsg)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("status: got %d, want %d", apiErr.StatusCode, tt.status)
			}
		})
	}
}

func TestUnauthorizedFiresGlobalHook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Token is invalid!"}`))
	}))
	defer srv.Close()

	var hookCalls int
	c := New(srv.URL, WithUnauthorizedHook(func() { hookCalls++ }))

	_, err := c.Document(context.Background(), 7)
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if hookCalls != 1 {
		t.Errorf("expected hook to fire once, fired %d times", hookCalls)
	}

	// Fires for any endpoint, feedback included.
	if err := c.SendFeedback(context.Background(), 1, "up", ""); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized from feedback, got %v", err)
	}
	if hookCalls != 2 {
		t.Errorf("expected hook to fire twice, fired %d times", hookCalls)
	}
}

func TestNotFoundSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Share link not found"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.SharedConversation(context.Background(), "gone")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Error("404 must not match ErrUnauthorized")
	}
}

func TestAskPayloadShape(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(AskResponse{Answer: "$42", MessageID: 9})
	}))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.Ask(context.Background(), "What is the total?", 3)
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if got["question"] != "What is the total?" {
		t.Errorf("question: got %v", got["question"])
	}
	if got["doc_id"] != float64(3) {
		t.Errorf("doc_id must be numeric, got %v", got["doc_id"])
	}
	if resp.Answer != "$42" || resp.MessageID != 9 {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestUploadStreamsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/uploads/report.docx" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte("raw-bytes"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	rc, size, err := c.Upload(context.Background(), "report.docx")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	defer rc.Close()
	if size != int64(len("raw-bytes")) {
		t.Errorf("size: got %d", size)
	}
	buf := make([]byte, 32)
	n, _ := rc.Read(buf)
	if string(buf[:n]) != "raw-bytes" {
		t.Errorf("body: got %q", buf[:n])
	}
}
