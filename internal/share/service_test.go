package share

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/harshithareddy1810/SmartDocQ/internal/api"
	"github.com/harshithareddy1810/SmartDocQ/internal/db"
)

type fakeBackend struct {
	mu          sync.Mutex
	createCalls []int64
	createRes   *api.ShareResult
	createErr   error
	fetchRes    *api.SharedConversation
	fetchErr    error
}

func (f *fakeBackend) CreateShare(ctx context.Context, docID int64) (*api.ShareResult, error) {
	f.mu.Lock()
	f.createCalls = append(f.createCalls, docID)
	f.mu.Unlock()
	return f.createRes, f.createErr
}

func (f *fakeBackend) SharedConversation(ctx context.Context, shareID string) (*api.SharedConversation, error) {
	return f.fetchRes, f.fetchErr
}

type openGate bool

func (g openGate) Authenticated() bool { return bool(g) }

func TestCreateRequiresAuth(t *testing.T) {
	backend := &fakeBackend{}
	svc := NewService(backend, openGate(false), nil)

	_, err := svc.Create(context.Background(), 1, "a.pdf")
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("err = %v, want ErrNotAuthenticated", err)
	}
	if len(backend.createCalls) != 0 {
		t.Fatal("backend called despite guest session")
	}
}

func TestCreateRecordsHistory(t *testing.T) {
	backend := &fakeBackend{
		createRes: &api.ShareResult{ShareID: "s-9", ShareURL: "http://localhost:8080/share/s-9"},
	}
	history, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer history.Close()

	svc := NewService(backend, openGate(true), history)
	res, err := svc.Create(context.Background(), 4, "report.docx")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.ShareID != "s-9" {
		t.Fatalf("ShareID = %q", res.ShareID)
	}

	links, err := svc.List(0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("got %d history rows, want 1", len(links))
	}
	if links[0].DocID != 4 || links[0].Filename != "report.docx" || links[0].ShareID != "s-9" {
		t.Fatalf("unexpected history row: %+v", links[0])
	}
}

func TestFetchMapsNotFound(t *testing.T) {
	backend := &fakeBackend{fetchErr: api.ErrNotFound}
	svc := NewService(backend, openGate(false), nil)

	_, err := svc.Fetch(context.Background(), "gone")
	if !errors.Is(err, api.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestFetchWorksForGuests(t *testing.T) {
	backend := &fakeBackend{
		fetchRes: &api.SharedConversation{
			Filename: "invoice.pdf",
			Conversation: []api.Message{
				{Role: api.RoleUser, Content: "What is the total?", Time: "14:02"},
				{Role: api.RoleAssistant, Content: "The total is **$42**.", Time: "14:02"},
			},
		},
	}
	svc := NewService(backend, openGate(false), nil)

	sc, err := svc.Fetch(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(sc.Conversation) != 2 {
		t.Fatalf("got %d messages", len(sc.Conversation))
	}
}

func TestRenderHTML(t *testing.T) {
	sc := &api.SharedConversation{
		Filename:  "invoice.pdf",
		CreatedAt: "2025-03-01",
		Conversation: []api.Message{
			{Role: api.RoleUser, Content: "What is <the> total?", Time: "14:02"},
			{Role: api.RoleAssistant, Content: "The total is **$42**.", Time: "14:02"},
		},
	}

	page, err := RenderHTML(sc)
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	html := string(page)

	if !strings.Contains(html, "invoice.pdf") {
		t.Error("page missing filename")
	}
	if !strings.Contains(html, "<strong>$42</strong>") {
		t.Error("assistant markdown was not rendered")
	}
	if strings.Contains(html, "<the>") {
		t.Error("user content was not escaped")
	}
	if !strings.Contains(html, "What is &lt;the&gt; total?") {
		t.Error("escaped user content missing")
	}
}

func TestServeShare(t *testing.T) {
	backend := &fakeBackend{
		fetchRes: &api.SharedConversation{
			Filename: "notes.txt",
			Conversation: []api.Message{
				{Role: api.RoleAssistant, Content: "Hello.", Time: "09:00"},
			},
		},
	}
	svc := NewService(backend, openGate(false), nil)
	srv := NewServer(svc, 0)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/share/s-1")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "notes.txt") {
		t.Error("page missing filename")
	}
}

func TestServeShareNotFound(t *testing.T) {
	backend := &fakeBackend{fetchErr: api.ErrNotFound}
	svc := NewService(backend, openGate(false), nil)
	srv := NewServer(svc, 0)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/share/nope")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}
