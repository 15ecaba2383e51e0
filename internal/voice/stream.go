package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

// streamMessage is the wire format of the recognition service: the
// client sends a start/stop command, the service streams transcript
// frames back.
type streamMessage struct {
	Type           string `json:"type"` // "start", "stop", "partial", "final", "end"
	Text           string `json:"text,omitempty"`
	Language       string `json:"language,omitempty"`
	Continuous     bool   `json:"continuous,omitempty"`
	InterimResults bool   `json:"interim_results,omitempty"`
}

// StreamRecognizer is a Recognizer backed by a websocket streaming
// speech-to-text service. A zero endpoint means speech input is not
// available on this installation.
type StreamRecognizer struct {
	url    string
	mu     sync.Mutex
	conn   *websocket.Conn
	events chan Event
}

// NewStreamRecognizer creates a recognizer for the given ws:// or
// wss:// endpoint. An empty endpoint yields an unsupported recognizer.
func NewStreamRecognizer(endpoint string) *StreamRecognizer {
	return &StreamRecognizer{
		url:    endpoint,
		events: make(chan Event, 16),
	}
}

// Supported reports whether a recognition endpoint is configured.
func (s *StreamRecognizer) Supported() bool {
	return s.url != ""
}

// Events returns the stream of recognition events. The channel is
// shared across capture sessions and closed only by Close.
func (s *StreamRecognizer) Events() <-chan Event {
	return s.events
}

// Start dials the service and begins a capture session.
func (s *StreamRecognizer) Start(ctx context.Context, opts Options) error {
	if !s.Supported() {
		return fmt.Errorf("speech recognition is not configured")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return fmt.Errorf("capture already in progress")
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dialling recognizer: %w", err)
	}

	start := streamMessage{
		Type:           "start",
		Language:       opts.Language,
		Continuous:     opts.Continuous,
		InterimResults: opts.InterimResults,
	}
	if err := conn.WriteJSON(start); err != nil {
		conn.Close()
		return fmt.Errorf("starting capture: %w", err)
	}

	s.conn = conn
	go s.readLoop(conn)
	return nil
}

// Stop ends the current capture session. The read loop emits the
// trailing EventStopped.
func (s *StreamRecognizer) Stop() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()
	if conn == nil {
		return nil
	}

	// Best effort; the close below unblocks the read loop regardless.
	_ = conn.WriteJSON(streamMessage{Type: "stop"})
	return conn.Close()
}

// Close releases the recognizer and closes the events channel.
func (s *StreamRecognizer) Close() error {
	err := s.Stop()
	s.mu.Lock()
	if s.events != nil {
		close(s.events)
		s.events = nil
	}
	s.mu.Unlock()
	return err
}

// readLoop decodes transcript frames until the stream ends, then emits
// EventStopped exactly once.
func (s *StreamRecognizer) readLoop(conn *websocket.Conn) {
	defer func() {
		conn.Close()
		s.mu.Lock()
		if s.conn == conn {
			s.conn = nil
		}
		if s.events != nil {
			select {
			case s.events <- Event{Type: EventStopped}:
			default:
			}
		}
		s.mu.Unlock()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg streamMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		s.mu.Lock()
		events := s.events
		s.mu.Unlock()
		if events == nil {
			return
		}

		switch msg.Type {
		case "partial":
			events <- Event{Type: EventPartial, Text: msg.Text}
		case "final":
			events <- Event{Type: EventFinal, Text: msg.Text}
		case "end":
			return
		}
	}
}
