package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Sentinel errors for the failure classes callers need to tell apart.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// APIError is a backend failure with an HTTP status and the most
// specific human-readable message the server supplied.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
}

// Is maps the status code onto the sentinel errors so callers can use
// errors.Is without inspecting status codes themselves.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// TokenSource supplies the current bearer token; an empty string means
// no credentials. The session store implements this.
type TokenSource interface {
	Token() string
}

// Client talks to the SmartDocQ backend. The bearer header and the
// global unauthorized hook are applied here, at the single network
// boundary, regardless of which component issues the call.
type Client struct {
	baseURL        string
	http           *http.Client
	tokens         TokenSource
	onUnauthorized func()
}

// Option configures a Client.
type Option func(*Client)

// WithTokenSource injects the bearer token supplier.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithUnauthorizedHook registers a function invoked whenever any
// backend call fails with a 401.
func WithUnauthorizedHook(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// UploadURL returns the public URL of a raw uploaded document.
func (c *Client) UploadURL(filename string) string {
	return c.baseURL + "/uploads/" + url.PathEscape(filename)
}

const (
	authRequired = true
	authNone     = false
)

// do issues a JSON request and decodes the JSON response into out (when
// non-nil). Failures are returned as *APIError with the server-supplied
// error/message field preferred over a generic status description.
func (c *Client) do(ctx context.Context, method, path string, in, out any, authed bool) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshalling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed && c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response from %s: %w", path, err)
	}

	if resp.StatusCode >= 400 {
		return c.asError(resp.StatusCode, respBody)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("unmarshalling response from %s: %w", path, err)
		}
	}
	return nil
}

// asError builds the *APIError for a failed call and fires the global
// unauthorized hook on 401, whatever the endpoint was.
func (c *Client) asError(status int, body []byte) error {
	apiErr := &APIError{StatusCode: status, Message: http.StatusText(status)}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if eb.Error != "" {
			apiErr.Message = eb.Error
		} else if eb.Message != "" {
			apiErr.Message = eb.Message
		}
	}

	if status == http.StatusUnauthorized && c.onUnauthorized != nil {
		c.onUnauthorized()
	}
	return apiErr
}

// Me performs the identity/liveness check used by session bootstrap.
func (c *Client) Me(ctx context.Context) (*Identity, error) {
	var id Identity
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, &id, authRequired); err != nil {
		return nil, err
	}
	return &id, nil
}

// Login exchanges credentials for a bearer token. It does not store the
// token; that is the session store's job.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out loginResponse
	err := c.do(ctx, http.MethodPost, "/api/login", loginRequest{Email: email, Password: password}, &out, authNone)
	if err != nil {
		return "", err
	}
	return out.Token, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, email, password, name string) error {
	return c.do(ctx, http.MethodPost, "/api/register", registerRequest{Email: email, Password: password, Name: name}, nil, authNone)
}

// Document fetches a document's metadata and prior conversation.
func (c *Client) Document(ctx context.Context, docID int64) (*Document, error) {
	var doc Document
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/documents/%d", docID), nil, &doc, authRequired); err != nil {
		return nil, err
	}
	doc.ID = docID
	return &doc, nil
}

// Documents lists the caller's documents.
func (c *Client) Documents(ctx context.Context) ([]DocumentSummary, error) {
	var docs []DocumentSummary
	if err := c.do(ctx, http.MethodGet, "/api/documents", nil, &docs, authRequired); err != nil {
		return nil, err
	}
	return docs, nil
}

// DeleteDocument removes a document and its conversation.
func (c *Client) DeleteDocument(ctx context.Context, docID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/documents/%d", docID), nil, nil, authRequired)
}

// Ask submits a question against a document and returns the answer.
func (c *Client) Ask(ctx context.Context, question string, docID int64) (*AskResponse, error) {
	var out AskResponse
	if err := c.do(ctx, http.MethodPost, "/api/ask", askRequest{Question: question, DocID: docID}, &out, authRequired); err != nil {
		return nil, err
	}
	return &out, nil
}

// GeneralAsk submits an open-ended question without document context.
func (c *Client) GeneralAsk(ctx context.Context, question string) (*AskResponse, error) {
	var out AskResponse
	if err := c.do(ctx, http.MethodPost, "/api/general-ask", askRequest{Question: question}, &out, authRequired); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendFeedback records an up/down rating for an assistant message.
func (c *Client) SendFeedback(ctx context.Context, messageID int64, rating, note string) error {
	return c.do(ctx, http.MethodPost, "/api/feedback", feedbackRequest{MessageID: messageID, Rating: rating, Note: note}, nil, authRequired)
}

// CreateShare mints an immutable snapshot of a document's conversation.
func (c *Client) CreateShare(ctx context.Context, docID int64) (*ShareResult, error) {
	var out ShareResult
	if err := c.do(ctx, http.MethodPost, "/api/share", shareRequest{DocID: docID}, &out, authRequired); err != nil {
		return nil, err
	}
	return &out, nil
}

// SharedConversation fetches a share snapshot. The endpoint is public,
// so no bearer token is attached.
func (c *Client) SharedConversation(ctx context.Context, shareID string) (*SharedConversation, error) {
	var out SharedConversation
	if err := c.do(ctx, http.MethodGet, "/api/share/"+url.PathEscape(shareID), nil, &out, authNone); err != nil {
		return nil, err
	}
	return &out, nil
}

// Upload opens a stream over the raw bytes of an uploaded document.
// The caller owns the returned ReadCloser. Size is -1 when unknown.
func (c *Client) Upload(ctx context.Context, filename string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.UploadURL(filename), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetching %s: %w", filename, err)
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, 0, c.asError(resp.StatusCode, body)
	}
	return resp.Body, resp.ContentLength, nil
}
