package voice

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// State is the capture controller state.
type State int

const (
	StateIdle State = iota
	StateListening
	StateFinalizing
)

func (s State) String() string {
	switch s {
	case StateListening:
		return "listening"
	case StateFinalizing:
		return "finalizing"
	default:
		return "idle"
	}
}

// Mode is a capture mode. Only one mode may be active at a time;
// activating one deactivates the other and resets the transcript.
type Mode int

const (
	ModeStandard Mode = iota
	ModeAssistant
)

func (m Mode) String() string {
	if m == ModeAssistant {
		return "assistant"
	}
	return "standard"
}

// ErrUnsupported is returned when no recognizer is available. Callers
// hide the voice controls instead of reporting it.
var ErrUnsupported = errors.New("speech recognition unavailable")

const (
	defaultRestartDelay  = 250 * time.Millisecond
	standardSubmitDelay  = 300 * time.Millisecond
	assistantSubmitDelay = 500 * time.Millisecond
)

// Controller turns a continuous recognition stream into discrete
// finalized utterances. A natural stream stop with a transcript
// finalizes and auto-submits after a short debounce; a premature stop
// auto-restarts capture; an intentional stop does neither.
type Controller struct {
	mu           sync.Mutex
	rec          Recognizer
	language     string
	state        State
	mode         Mode
	active       bool
	transcript   string
	pendingStops int // deliberate stops whose trailing event must be swallowed
	speakNext    bool
	gen          int
	ctx          context.Context
	loopOnce     sync.Once

	restartDelay   time.Duration
	standardDelay  time.Duration
	assistantDelay time.Duration

	// OnTranscript receives the live (and finalized) transcript for
	// display in the question field.
	OnTranscript func(text string)
	// Submit receives the finalized utterance for auto-submission.
	Submit func(text string)
	// Speak, when set, voices the next assistant reply after an
	// assistant-mode submission. Absent support degrades silently.
	Speak func(text string)
	// OnChange is invoked after every state transition.
	OnChange func()
}

// NewController creates a controller over the given recognizer.
func NewController(rec Recognizer, language string) *Controller {
	return &Controller{
		rec:            rec,
		language:       language,
		restartDelay:   defaultRestartDelay,
		standardDelay:  standardSubmitDelay,
		assistantDelay: assistantSubmitDelay,
	}
}

// Supported reports whether voice input is available at all.
func (c *Controller) Supported() bool {
	return c.rec.Supported()
}

// State returns the current controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Active returns the active capture mode, if any.
func (c *Controller) Active() (Mode, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode, c.active
}

// Transcript returns the current cumulative transcript.
func (c *Controller) Transcript() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript
}

// Activate starts capture in the given mode, deactivating any other
// mode first and resetting the transcript buffer.
func (c *Controller) Activate(ctx context.Context, mode Mode) error {
	if !c.rec.Supported() {
		return ErrUnsupported
	}

	c.mu.Lock()
	wasActive := c.active
	if wasActive {
		c.pendingStops++
	}
	c.gen++
	c.active = true
	c.mode = mode
	c.state = StateListening
	c.transcript = ""
	c.speakNext = false
	c.ctx = ctx
	c.mu.Unlock()

	c.setQuestion("")
	if wasActive {
		_ = c.rec.Stop()
	}

	if err := c.rec.Start(ctx, c.options()); err != nil {
		c.mu.Lock()
		c.active = false
		c.state = StateIdle
		c.mu.Unlock()
		c.notify()
		return err
	}

	c.loopOnce.Do(func() { go c.loop() })
	c.notify()
	return nil
}

// Stop deactivates capture on the user's request. Unlike a natural
// stream stop, it neither auto-submits nor auto-restarts; whatever was
// transcribed stays in the question field.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	c.active = false
	c.state = StateIdle
	c.pendingStops++
	c.mu.Unlock()

	_ = c.rec.Stop()
	c.notify()
}

// OnAssistantReply voices the reply to an assistant-mode question.
func (c *Controller) OnAssistantReply(text string) {
	c.mu.Lock()
	speak := c.speakNext && c.Speak != nil
	c.speakNext = false
	c.mu.Unlock()
	if speak {
		c.Speak(text)
	}
}

func (c *Controller) options() Options {
	return Options{Language: c.language, Continuous: true, InterimResults: true}
}

// loop is the single consumer of the recognizer's event stream for the
// controller's lifetime.
func (c *Controller) loop() {
	for ev := range c.rec.Events() {
		switch ev.Type {
		case EventPartial, EventFinal:
			c.handleTranscript(ev.Text)
		case EventStopped:
			c.handleStopped()
		}
	}
}

func (c *Controller) handleTranscript(text string) {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	c.transcript = text
	c.mu.Unlock()

	c.setQuestion(text)
	c.notify()
}

// handleStopped reacts to the recognition stream going quiet while a
// capture session is still marked active.
func (c *Controller) handleStopped() {
	c.mu.Lock()
	if c.pendingStops > 0 {
		c.pendingStops--
		c.mu.Unlock()
		return
	}
	if !c.active {
		c.mu.Unlock()
		return
	}

	if strings.TrimSpace(c.transcript) != "" {
		// Natural end of an utterance: finalize after a short debounce
		// so the question field settles before submission.
		c.state = StateFinalizing
		gen := c.gen
		text := c.transcript
		delay := c.standardDelay
		if c.mode == ModeAssistant {
			delay = c.assistantDelay
		}
		c.mu.Unlock()

		c.setQuestion(text)
		c.notify()
		time.AfterFunc(delay, func() { c.finalize(gen) })
		return
	}

	// The stream stopped before producing anything. Restart after a
	// small delay; tight loops would hammer a pending permission
	// prompt.
	gen := c.gen
	c.mu.Unlock()
	time.AfterFunc(c.restartDelay, func() { c.restart(gen) })
}

// finalize submits the captured utterance and returns to Idle. The
// capture session flag is cleared whether or not there is anything to
// submit.
func (c *Controller) finalize(gen int) {
	c.mu.Lock()
	if c.gen != gen || c.state != StateFinalizing {
		c.mu.Unlock()
		return
	}
	text := strings.TrimSpace(c.transcript)
	c.speakNext = c.mode == ModeAssistant && text != ""
	c.active = false
	c.state = StateIdle
	c.transcript = ""
	c.mu.Unlock()

	c.notify()
	if text != "" && c.Submit != nil {
		c.Submit(text)
	}
}

// restart resumes capture after a premature stop, unless the session
// was deactivated in the meantime.
func (c *Controller) restart(gen int) {
	c.mu.Lock()
	if c.gen != gen || !c.active {
		c.mu.Unlock()
		return
	}
	ctx := c.ctx
	c.mu.Unlock()

	if err := c.rec.Start(ctx, c.options()); err != nil {
		c.mu.Lock()
		if c.gen == gen {
			c.active = false
			c.state = StateIdle
		}
		c.mu.Unlock()
		c.notify()
	}
}

func (c *Controller) setQuestion(text string) {
	if c.OnTranscript != nil {
		c.OnTranscript(text)
	}
}

func (c *Controller) notify() {
	if c.OnChange != nil {
		c.OnChange()
	}
}
