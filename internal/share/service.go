package share

import (
	"context"
	"errors"
	"fmt"

	"github.com/harshithareddy1810/SmartDocQ/internal/api"
	"github.com/harshithareddy1810/SmartDocQ/internal/db"
)

// ErrNotAuthenticated is returned when a guest tries to mint a link.
var ErrNotAuthenticated = errors.New("sign in to share conversations")

// Backend is the subset of the API client the share service needs.
type Backend interface {
	CreateShare(ctx context.Context, docID int64) (*api.ShareResult, error)
	SharedConversation(ctx context.Context, shareID string) (*api.SharedConversation, error)
}

// Gate reports whether the current session may mint share links.
type Gate interface {
	Authenticated() bool
}

// History records minted links locally. Failures to record are not
// fatal; the mint already happened server-side.
type History interface {
	RecordShare(link db.ShareLink) (db.ShareLink, error)
	ListShares(limit int) ([]db.ShareLink, error)
}

// Service mints and resolves share links. Minting requires an
// authenticated session; resolving a link is a pure read open to
// anyone who holds the link.
type Service struct {
	backend Backend
	gate    Gate
	history History

	// Logf reports non-fatal problems, such as a failed history write.
	Logf func(format string, args ...any)
}

// NewService creates a share service. history may be nil when no local
// database is available.
func NewService(backend Backend, gate Gate, history History) *Service {
	return &Service{backend: backend, gate: gate, history: history}
}

// Create mints a share link for the given document.
func (s *Service) Create(ctx context.Context, docID int64, filename string) (*api.ShareResult, error) {
	if !s.gate.Authenticated() {
		return nil, ErrNotAuthenticated
	}

	res, err := s.backend.CreateShare(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("creating share link: %w", err)
	}

	if s.history != nil {
		_, err := s.history.RecordShare(db.ShareLink{
			ShareID:  res.ShareID,
			DocID:    docID,
			Filename: filename,
			URL:      res.ShareURL,
		})
		if err != nil {
			s.logf("recording share link: %v", err)
		}
	}
	return res, nil
}

// Fetch resolves a share link. It never consults the session: a valid
// link is readable whether or not anyone is signed in.
func (s *Service) Fetch(ctx context.Context, shareID string) (*api.SharedConversation, error) {
	sc, err := s.backend.SharedConversation(ctx, shareID)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("share link %q: %w", shareID, api.ErrNotFound)
		}
		return nil, fmt.Errorf("fetching shared conversation: %w", err)
	}
	return sc, nil
}

// List returns locally recorded share links, newest first.
func (s *Service) List(limit int) ([]db.ShareLink, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.ListShares(limit)
}

func (s *Service) logf(format string, args ...any) {
	if s.Logf != nil {
		s.Logf(format, args...)
	}
}
