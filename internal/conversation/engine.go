package conversation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/harshithareddy1810/SmartDocQ/internal/api"
)

// State is the per-document conversation state.
type State int

const (
	StateLoading State = iota
	StateReady
	StateAwaitingAnswer
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAwaitingAnswer:
		return "awaiting-answer"
	default:
		return "ready"
	}
}

// Submit guard violations. All of them leave the history untouched.
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNoDocument       = errors.New("no document loaded")
	ErrEmptyQuestion    = errors.New("empty question")
	ErrBusy             = errors.New("a question is already in flight")
	ErrNoMessageID      = errors.New("message has no id yet")
)

// Rating values accepted by the feedback endpoint.
const (
	RatingUp   = "up"
	RatingDown = "down"
)

// answerFallback mirrors the message shown when the backend gives no
// usable error text.
const answerFallback = "Sorry, I ran into an error."

// Backend is the slice of the API client the engine needs. *api.Client
// satisfies it.
type Backend interface {
	Document(ctx context.Context, docID int64) (*api.Document, error)
	Ask(ctx context.Context, question string, docID int64) (*api.AskResponse, error)
	SendFeedback(ctx context.Context, messageID int64, rating, note string) error
}

// Gate reports whether the session is authenticated. *session.Store
// satisfies it.
type Gate interface {
	Authenticated() bool
}

// Clipboard receives copied answer text.
type Clipboard interface {
	Write(text string) error
}

// Engine owns one document's conversation: ordered message history,
// the single-in-flight ask guard, and per-message feedback state. The
// history is discarded, never merged, when a different document is
// loaded.
type Engine struct {
	mu               sync.Mutex
	backend          Backend
	gate             Gate
	clipboard        Clipboard
	state            State
	doc              *api.Document
	messages         []api.Message
	feedbackInflight map[int64]bool
	feedbackGiven    map[int64]string
	now              func() time.Time

	// OnChange is invoked (outside the engine lock) after every state
	// or history mutation so the frontend can re-render.
	OnChange func()
	// OnClearInput is invoked when an accepted submission must clear
	// the typed buffer and any live voice transcript.
	OnClearInput func()
	// Logf receives non-blocking failures (feedback errors). Defaults
	// to stderr.
	Logf func(format string, args ...any)
}

// NewEngine creates an engine over the given backend and session gate.
func NewEngine(backend Backend, gate Gate) *Engine {
	return &Engine{
		backend:          backend,
		gate:             gate,
		state:            StateLoading,
		feedbackInflight: make(map[int64]bool),
		feedbackGiven:    make(map[int64]string),
		now:              time.Now,
		Logf: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		},
	}
}

// SetClipboard injects the clipboard used by CopyAnswer.
func (e *Engine) SetClipboard(cb Clipboard) {
	e.mu.Lock()
	e.clipboard = cb
	e.mu.Unlock()
}

// State returns the current machine state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Document returns the loaded document, nil before Load succeeds.
func (e *Engine) Document() *api.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc
}

// Messages returns a copy of the ordered history.
func (e *Engine) Messages() []api.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]api.Message, len(e.messages))
	copy(out, e.messages)
	return out
}

// Feedback returns the confirmed rating for a message, if any.
func (e *Engine) Feedback(messageID int64) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rating, ok := e.feedbackGiven[messageID]
	return rating, ok
}

// Load fetches the document and its prior conversation. It requires an
// authenticated session; the ErrNotAuthenticated return is the redirect
// intent. Any previously loaded document's history and feedback state
// are discarded.
func (e *Engine) Load(ctx context.Context, docID int64) error {
	if !e.gate.Authenticated() {
		return ErrNotAuthenticated
	}

	e.mu.Lock()
	e.state = StateLoading
	e.mu.Unlock()
	e.notify()

	doc, err := e.backend.Document(ctx, docID)

	e.mu.Lock()
	e.state = StateReady
	if err != nil {
		e.mu.Unlock()
		e.notify()
		return fmt.Errorf("loading document %d: %w", docID, err)
	}
	e.doc = doc
	e.messages = append([]api.Message(nil), doc.Conversation...)
	e.feedbackInflight = make(map[int64]bool)
	e.feedbackGiven = make(map[int64]string)
	e.mu.Unlock()
	e.notify()
	return nil
}

// Submit appends the question optimistically, issues the ask call, and
// appends the answer (or the most specific error text available) when
// it resolves. Only one question may be in flight at a time; that guard
// is what keeps history order equal to submission order. Remote
// failures are shown inline and do not abort the session, so they do
// not produce an error return.
func (e *Engine) Submit(ctx context.Context, text string) error {
	question := strings.TrimSpace(text)

	e.mu.Lock()
	switch {
	case question == "":
		e.mu.Unlock()
		return ErrEmptyQuestion
	case e.doc == nil:
		e.mu.Unlock()
		return ErrNoDocument
	case e.state == StateAwaitingAnswer:
		e.mu.Unlock()
		return ErrBusy
	case e.state == StateLoading:
		e.mu.Unlock()
		return ErrNoDocument
	}

	docID := e.doc.ID
	e.messages = append(e.messages, api.Message{
		Role:    api.RoleUser,
		Content: question,
		Time:    e.clock(),
	})
	e.state = StateAwaitingAnswer
	e.mu.Unlock()

	if e.OnClearInput != nil {
		e.OnClearInput()
	}
	e.notify()

	resp, err := e.backend.Ask(ctx, question, docID)

	reply := api.Message{Role: api.RoleAssistant, Time: e.clock()}
	if err != nil {
		reply.Content = askErrorText(err)
	} else {
		reply.Content = resp.Answer
		reply.MessageID = resp.MessageID
	}

	e.mu.Lock()
	e.messages = append(e.messages, reply)
	e.state = StateReady
	e.mu.Unlock()
	e.notify()
	return nil
}

// askErrorText prefers the server-supplied error message over the
// generic fallback.
func askErrorText(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return answerFallback
}

// RecordFeedback sends an up/down rating for a message. A second call
// for the same message while one is outstanding is a no-op. The locally
// displayed rating changes only on confirmed success; failures are
// logged, never surfaced as blocking errors.
func (e *Engine) RecordFeedback(ctx context.Context, messageID int64, rating string) error {
	if messageID == 0 {
		return ErrNoMessageID
	}

	e.mu.Lock()
	if e.feedbackInflight[messageID] {
		e.mu.Unlock()
		return nil
	}
	e.feedbackInflight[messageID] = true
	e.mu.Unlock()

	err := e.backend.SendFeedback(ctx, messageID, rating, "")

	e.mu.Lock()
	delete(e.feedbackInflight, messageID)
	if err == nil {
		e.feedbackGiven[messageID] = rating
	}
	e.mu.Unlock()

	if err != nil {
		e.Logf("feedback for message %d failed: %v", messageID, err)
		return nil
	}
	e.notify()
	return nil
}

// CopyAnswer writes the text to the clipboard. Failure is non-fatal.
func (e *Engine) CopyAnswer(text string) error {
	e.mu.Lock()
	cb := e.clipboard
	e.mu.Unlock()
	if cb == nil {
		return nil
	}
	return cb.Write(text)
}

// clock returns the HH:MM timestamp format the backend also uses.
func (e *Engine) clock() string {
	return e.now().Format("15:04")
}

func (e *Engine) notify() {
	if e.OnChange != nil {
		e.OnChange()
	}
}
