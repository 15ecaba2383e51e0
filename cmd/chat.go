package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/harshithareddy1810/SmartDocQ/internal/api"
	"github.com/harshithareddy1810/SmartDocQ/internal/conversation"
	"github.com/harshithareddy1810/SmartDocQ/internal/preview"
	"github.com/harshithareddy1810/SmartDocQ/internal/share"
	"github.com/harshithareddy1810/SmartDocQ/internal/voice"
)

var (
	chatDocID     int64
	chatVoice     bool
	chatAssistant bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Hold a conversation about a document",
	Long: `Open an interactive conversation about one of your documents.

Inside the chat, a line starting with / is a command:

  /copy        copy the last answer to the clipboard
  /up N        rate answer N up
  /down N      rate answer N down
  /share       create a read-only share link
  /preview     show the document preview
  /voice       dictate the next question
  /assistant   dictate and have the answer spoken
  /stop        stop dictation
  /quit        leave the chat`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().Int64Var(&chatDocID, "doc", 0, "document id (prompts when omitted)")
	chatCmd.Flags().BoolVar(&chatVoice, "voice", false, "start with dictation active")
	chatCmd.Flags().BoolVar(&chatAssistant, "assistant", false, "start with assistant dictation active")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, client, err := newSession(cfg)
	if err != nil {
		return err
	}
	if err := requireAuth(ctx, store, client); err != nil {
		return err
	}

	docID := chatDocID
	if docID == 0 {
		docID, err = pickDocument(ctx, client)
		if err != nil {
			return err
		}
	}

	engine := conversation.NewEngine(client, store)
	engine.SetClipboard(osc52Clipboard{})
	if err := engine.Load(ctx, docID); err != nil {
		return fmt.Errorf("loading document %d: %w", docID, err)
	}

	resolver := preview.NewResolver(client)
	resolver.ShowProgress = true

	history := openHistory(cfg)
	if history != nil {
		defer history.Close()
	}
	var shareHistory share.History
	if history != nil {
		shareHistory = history
	}
	shares := share.NewService(client, store, shareHistory)

	doc := engine.Document()
	fmt.Printf("Chatting about %s (doc %d). Type /quit to leave.\n\n", doc.Filename, doc.ID)
	printHistory(engine)

	ctrl := newVoiceController(cfg.Voice.RecognizerURL, cfg.Voice.Language)
	submit := func(text string) {
		submitAndPrint(ctx, engine, ctrl, text)
	}
	if ctrl != nil {
		ctrl.Submit = submit
		ctrl.OnTranscript = func(text string) {
			if text != "" {
				fmt.Fprintf(os.Stderr, "\r… %s", text)
			}
		}
	}
	if chatVoice || chatAssistant {
		mode := voice.ModeStandard
		if chatAssistant {
			mode = voice.ModeAssistant
		}
		if err := activateVoice(ctx, ctrl, mode); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	for {
		prompt := promptui.Prompt{Label: ">"}
		line, err := prompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := runChatCommand(ctx, line, engine, resolver, shares, ctrl); quit {
				return nil
			}
			continue
		}

		submit(line)
	}
}

// pickDocument lists the user's documents and asks which one to open.
func pickDocument(ctx context.Context, client *api.Client) (int64, error) {
	docs, err := client.Documents(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing documents: %w", err)
	}
	if len(docs) == 0 {
		return 0, fmt.Errorf("no documents uploaded yet")
	}

	items := make([]string, len(docs))
	for i, d := range docs {
		items[i] = fmt.Sprintf("%s (uploaded %s)", d.Filename, d.CreatedAt)
	}
	sel := promptui.Select{
		Label: "Select a document",
		Items: items,
		Size:  10,
	}
	idx, _, err := sel.Run()
	if err != nil {
		return 0, fmt.Errorf("document selection: %w", err)
	}
	return docs[idx].ID, nil
}

// submitAndPrint sends one question and prints the resulting answer.
// Remote failures surface as an inline assistant message, so the only
// hard errors here are local guards.
func submitAndPrint(ctx context.Context, engine *conversation.Engine, ctrl *voice.Controller, text string) {
	before := len(engine.Messages())
	if err := engine.Submit(ctx, text); err != nil {
		switch {
		case errors.Is(err, conversation.ErrBusy):
			fmt.Fprintln(os.Stderr, "An answer is still in flight; wait for it first.")
		case errors.Is(err, conversation.ErrEmptyQuestion):
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return
	}

	msgs := engine.Messages()
	for _, m := range msgs[before:] {
		printMessage(engine, m)
	}
	if ctrl != nil && len(msgs) > 0 {
		if last := msgs[len(msgs)-1]; last.Role == api.RoleAssistant {
			ctrl.OnAssistantReply(last.Content)
		}
	}
}

// runChatCommand handles a /command line; it reports whether the chat
// should end.
func runChatCommand(ctx context.Context, line string, engine *conversation.Engine, resolver *preview.Resolver, shares *share.Service, ctrl *voice.Controller) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true

	case "/copy":
		answers := assistantMessages(engine)
		if len(answers) == 0 {
			fmt.Fprintln(os.Stderr, "Nothing to copy yet.")
			return false
		}
		if err := engine.CopyAnswer(answers[len(answers)-1].Content); err != nil {
			fmt.Fprintf(os.Stderr, "Copy failed: %v\n", err)
			return false
		}
		fmt.Println("Copied the last answer.")

	case "/up", "/down":
		rating := conversation.RatingUp
		if fields[0] == "/down" {
			rating = conversation.RatingDown
		}
		rateAnswer(ctx, engine, fields, rating)

	case "/share":
		doc := engine.Document()
		res, err := shares.Create(ctx, doc.ID, doc.Filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Share failed: %v\n", err)
			return false
		}
		fmt.Printf("Share link: %s\n", res.ShareURL)

	case "/preview":
		doc := engine.Document()
		printPreview(ctx, resolver, doc)

	case "/voice":
		if err := activateVoice(ctx, ctrl, voice.ModeStandard); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}

	case "/assistant":
		if err := activateVoice(ctx, ctrl, voice.ModeAssistant); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}

	case "/stop":
		if ctrl != nil {
			ctrl.Stop()
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown command %s\n", fields[0])
	}
	return false
}

// rateAnswer records feedback for answer N (1-based, as printed).
func rateAnswer(ctx context.Context, engine *conversation.Engine, fields []string, rating string) {
	answers := assistantMessages(engine)
	if len(answers) == 0 {
		fmt.Fprintln(os.Stderr, "No answers to rate yet.")
		return
	}

	idx := len(answers) // default: the latest answer
	if len(fields) > 1 {
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 || n > len(answers) {
			fmt.Fprintf(os.Stderr, "Usage: %s [1-%d]\n", fields[0], len(answers))
			return
		}
		idx = n
	}

	msg := answers[idx-1]
	if err := engine.RecordFeedback(ctx, msg.MessageID, rating); err != nil {
		if errors.Is(err, conversation.ErrNoMessageID) {
			fmt.Fprintln(os.Stderr, "That answer cannot be rated.")
			return
		}
		fmt.Fprintf(os.Stderr, "Feedback failed: %v\n", err)
		return
	}
	fmt.Printf("Rated answer %d %s.\n", idx, rating)
}

func assistantMessages(engine *conversation.Engine) []api.Message {
	var out []api.Message
	for _, m := range engine.Messages() {
		if m.Role == api.RoleAssistant {
			out = append(out, m)
		}
	}
	return out
}

func printHistory(engine *conversation.Engine) {
	for _, m := range engine.Messages() {
		printMessage(engine, m)
	}
}

func printMessage(engine *conversation.Engine, m api.Message) {
	who := "you"
	if m.Role == api.RoleAssistant {
		who = "smartdocq"
	}
	header := who
	if m.Time != "" {
		header = fmt.Sprintf("%s %s", m.Time, who)
	}
	if m.Role == api.RoleAssistant {
		if rating, ok := engine.Feedback(m.MessageID); ok {
			header += " [" + rating + "]"
		}
	}
	fmt.Printf("%s: %s\n", header, m.Content)
}

// newVoiceController wires a controller when a recognizer endpoint is
// configured, nil otherwise.
func newVoiceController(endpoint, language string) *voice.Controller {
	rec := voice.NewStreamRecognizer(endpoint)
	if !rec.Supported() {
		return nil
	}
	ctrl := voice.NewController(rec, language)
	ctrl.Speak = speakText
	return ctrl
}

func activateVoice(ctx context.Context, ctrl *voice.Controller, mode voice.Mode) error {
	if ctrl == nil {
		return fmt.Errorf("voice input is not configured; set voice.recognizer_url")
	}
	if err := ctrl.Activate(ctx, mode); err != nil {
		return fmt.Errorf("starting dictation: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Listening (%s mode). /stop to cancel.\n", mode)
	return nil
}

// speakText voices text through whatever speech synthesizer the host
// has. Missing synthesizers degrade to silence.
func speakText(text string) {
	for _, name := range []string{"say", "espeak", "spd-say"} {
		if path, err := exec.LookPath(name); err == nil {
			_ = exec.Command(path, text).Run()
			return
		}
	}
}
