package api

// Role values used in conversation messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single conversation entry as the backend stores it.
// MessageID is assigned by the backend and present only on assistant
// rows; feedback can only be recorded once it exists.
type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Time      string `json:"time,omitempty"` // HH:MM local time
	MessageID int64  `json:"message_id,omitempty"`
}

// Document is the payload of GET /api/documents/{id}. The backend does
// not echo the id; the client fills it in from the request.
type Document struct {
	ID           int64     `json:"-"`
	Filename     string    `json:"filename"`
	Text         string    `json:"text,omitempty"`
	Conversation []Message `json:"conversation"`
}

// DocumentSummary is one row of GET /api/documents. Text is a snippet,
// not the full extracted content.
type DocumentSummary struct {
	ID        int64  `json:"id"`
	Filename  string `json:"filename"`
	CreatedAt string `json:"created_at"`
	Text      string `json:"text"`
}

// AskResponse is the payload of POST /api/ask and /api/general-ask.
type AskResponse struct {
	Answer    string `json:"answer"`
	MessageID int64  `json:"message_id"`
}

// Identity is the payload of GET /api/me.
type Identity struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// ShareResult is the payload of POST /api/share.
type ShareResult struct {
	ShareURL string `json:"share_url"`
	ShareID  string `json:"share_id"`
}

// SharedConversation is the payload of the unauthenticated
// GET /api/share/{shareId}.
type SharedConversation struct {
	Filename     string    `json:"filename"`
	CreatedAt    string    `json:"created_at"`
	Conversation []Message `json:"conversation"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type askRequest struct {
	Question string `json:"question"`
	DocID    int64  `json:"doc_id,omitempty"`
}

type feedbackRequest struct {
	MessageID int64  `json:"message_id"`
	Rating    string `json:"rating"`
	Note      string `json:"note,omitempty"`
}

type shareRequest struct {
	DocID int64 `json:"doc_id"`
}

// errorBody is the backend's error convention: an HTTP status plus an
// optional JSON body carrying a human-readable field.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
