package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/harshithareddy1810/SmartDocQ/internal/api"
)

// State is the session lifecycle state.
type State int

const (
	// StateUnknown means bootstrap has not finished; callers must not
	// make a redirect decision yet.
	StateUnknown State = iota
	// StateGuest means there are no usable credentials.
	StateGuest
	// StateAuthenticated means a token is present and considered live.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateGuest:
		return "guest"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// EnvToken is the environment variable that overrides the stored token.
const EnvToken = "SMARTDOCQ_TOKEN"

// credentials is the on-disk shape of ~/.smartdocq/credentials.json.
type credentials struct {
	Token string `json:"token,omitempty"`
}

// IdentityChecker is the backend liveness probe used by Bootstrap.
// *api.Client satisfies it.
type IdentityChecker interface {
	Me(ctx context.Context) (*api.Identity, error)
}

// Store owns the bearer token and its validity state. It is the only
// place the token is mutated: Login, Logout, and the client's global
// unauthorized hook (which calls Logout).
type Store struct {
	mu    sync.Mutex
	path  string
	token string
	state State
}

// NewStore creates a store backed by dataDir/credentials.json. The
// SMARTDOCQ_TOKEN environment variable takes priority over the file.
// State starts as StateUnknown until Bootstrap resolves it.
func NewStore(dataDir string) (*Store, error) {
	s := &Store{path: filepath.Join(dataDir, "credentials.json")}

	if token := os.Getenv(EnvToken); token != "" {
		s.token = token
		return s, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading credentials: %w", err)
	}
	var creds credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	s.token = creds.Token
	return s, nil
}

// Token returns the current bearer token, empty when logged out.
// Implements api.TokenSource.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// State returns the current session state. StateUnknown means the
// bootstrap check is still outstanding.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Authenticated reports whether the session is validated and live.
func (s *Store) Authenticated() bool {
	return s.State() == StateAuthenticated
}

// Bootstrap resolves the session state. With no token it settles on
// StateGuest immediately. With a token it probes the identity endpoint:
// success keeps the session; an explicit unauthorized clears the token;
// anything else (network, timeout, server error) preserves the token
// and treats the session as still authenticated so a transient outage
// cannot log the user out.
func (s *Store) Bootstrap(ctx context.Context, check IdentityChecker) State {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()

	if token == "" {
		s.setState(StateGuest)
		return StateGuest
	}

	_, err := check.Me(ctx)
	switch {
	case err == nil:
		s.setState(StateAuthenticated)
	case errors.Is(err, api.ErrUnauthorized):
		// The client's unauthorized hook normally gets here first;
		// Logout is idempotent either way.
		s.Logout()
	default:
		// Fail open. Token lifetime is whatever the backend issued;
		// expiry surfaces as a later 401. No silent refresh is
		// scheduled.
		s.setState(StateAuthenticated)
	}
	return s.State()
}

// Login persists the token and marks the session authenticated
// synchronously. Navigation is the caller's responsibility.
func (s *Store) Login(token string) error {
	s.mu.Lock()
	s.token = token
	s.state = StateAuthenticated
	s.mu.Unlock()
	return s.save(credentials{Token: token})
}

// Logout clears the token, in memory and on disk. Safe to call
// repeatedly and from the unauthorized hook.
func (s *Store) Logout() {
	s.mu.Lock()
	s.token = ""
	s.state = StateGuest
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: removing credentials: %v\n", err)
	}
}

func (s *Store) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// save writes the credentials file with restricted permissions.
func (s *Store) save(creds credentials) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling credentials: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}
