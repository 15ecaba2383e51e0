package voice

import "context"

// EventType classifies recognition stream events.
type EventType int

const (
	// EventPartial carries the interim cumulative transcript.
	EventPartial EventType = iota
	// EventFinal carries the finalized cumulative transcript.
	EventFinal
	// EventStopped signals that the stream stopped producing results,
	// whether naturally, on error, or after an explicit stop.
	EventStopped
)

// Event is one recognition stream event.
type Event struct {
	Type EventType
	Text string
}

// Options configures a capture session.
type Options struct {
	Language       string
	Continuous     bool
	InterimResults bool
}

// Recognizer wraps a continuous speech capture stream. Implementations
// deliver cumulative transcripts on Events and must emit EventStopped
// every time a started stream ends. When Supported reports false, all
// voice entry points degrade to an absent control; Start is never
// called.
type Recognizer interface {
	Supported() bool
	Start(ctx context.Context, opts Options) error
	Stop() error
	Events() <-chan Event
}
