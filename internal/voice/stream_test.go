package voice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{}

// recognizerStub is a websocket handler that waits for the start
// message and then plays back the given frames.
func recognizerStub(t *testing.T, frames []streamMessage) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var start streamMessage
		if err := conn.ReadJSON(&start); err != nil {
			t.Errorf("reading start message: %v", err)
			return
		}
		if start.Type != "start" || !start.Continuous || !start.InterimResults {
			t.Errorf("unexpected start message: %+v", start)
		}

		for _, f := range frames {
			if err := conn.WriteJSON(f); err != nil {
				return
			}
		}
	})
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func collectEvents(t *testing.T, rec *StreamRecognizer, n int) []Event {
	t.Helper()
	var events []Event
	for len(events) < n {
		select {
		case ev := <-rec.Events():
			events = append(events, ev)
		case <-time.After(2 * time.Second):
			t.Fatalf("got %d events, want %d", len(events), n)
		}
	}
	return events
}

func TestStreamRecognizerDecodesFrames(t *testing.T) {
	ts := httptest.NewServer(recognizerStub(t, []streamMessage{
		{Type: "partial", Text: "what"},
		{Type: "partial", Text: "what is"},
		{Type: "final", Text: "what is the total"},
		{Type: "end"},
	}))
	defer ts.Close()

	rec := NewStreamRecognizer(wsURL(ts))
	defer rec.Close()

	if err := rec.Start(context.Background(), Options{Language: "en-US", Continuous: true, InterimResults: true}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	events := collectEvents(t, rec, 4)
	want := []Event{
		{Type: EventPartial, Text: "what"},
		{Type: EventPartial, Text: "what is"},
		{Type: EventFinal, Text: "what is the total"},
		{Type: EventStopped},
	}
	for i, ev := range events {
		if ev != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, ev, want[i])
		}
	}
}

func TestStreamRecognizerStopEmitsStopped(t *testing.T) {
	ts := httptest.NewServer(recognizerStub(t, nil))
	defer ts.Close()

	rec := NewStreamRecognizer(wsURL(ts))
	defer rec.Close()

	if err := rec.Start(context.Background(), Options{Continuous: true, InterimResults: true}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := rec.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	events := collectEvents(t, rec, 1)
	if events[0].Type != EventStopped {
		t.Fatalf("event = %+v, want stopped", events[0])
	}
}

func TestStreamRecognizerUnsupported(t *testing.T) {
	rec := NewStreamRecognizer("")
	if rec.Supported() {
		t.Fatal("empty endpoint must be unsupported")
	}
	if err := rec.Start(context.Background(), Options{}); err == nil {
		t.Fatal("Start must fail without an endpoint")
	}
}

func TestStreamRecognizerRestartAfterStop(t *testing.T) {
	ts := httptest.NewServer(recognizerStub(t, []streamMessage{{Type: "end"}}))
	defer ts.Close()

	rec := NewStreamRecognizer(wsURL(ts))
	defer rec.Close()

	if err := rec.Start(context.Background(), Options{Continuous: true, InterimResults: true}); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	collectEvents(t, rec, 1) // stream end

	if err := rec.Start(context.Background(), Options{Continuous: true, InterimResults: true}); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	collectEvents(t, rec, 1)
}
