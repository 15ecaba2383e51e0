package session

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/harshithareddy1810/SmartDocQ/internal/api"
)

// fakeChecker is a canned identity endpoint.
type fakeChecker struct {
	err   error
	calls int
}

func (f *fakeChecker) Me(ctx context.Context) (*api.Identity, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &api.Identity{Email: "user@example.com"}, nil
}

func newStoreWithToken(t *testing.T, token string) *Store {
	t.Helper()
	t.Setenv(EnvToken, "")
	dir := t.TempDir()

	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if token != "" {
		if err := s.Login(token); err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		// Reload so the token comes from disk, as at application start.
		s, err = NewStore(dir)
		if err != nil {
			t.Fatalf("NewStore reload failed: %v", err)
		}
	}
	return s
}

func TestStateUnknownBeforeBootstrap(t *testing.T) {
	s := newStoreWithToken(t, "tok")
	if s.State() != StateUnknown {
		t.Errorf("expected StateUnknown before bootstrap, got %v", s.State())
	}
	if s.Authenticated() {
		t.Error("must not report authenticated before bootstrap resolves")
	}
}

func TestBootstrapWithoutToken(t *testing.T) {
	s := newStoreWithToken(t, "")
	check := &fakeChecker{}

	if got := s.Bootstrap(context.Background(), check); got != StateGuest {
		t.Errorf("expected StateGuest, got %v", got)
	}
	if check.calls != 0 {
		t.Errorf("no liveness check expected without a token, got %d calls", check.calls)
	}
}

func TestBootstrapSuccess(t *testing.T) {
	s := newStoreWithToken(t, "tok")

	if got := s.Bootstrap(context.Background(), &fakeChecker{}); got != StateAuthenticated {
		t.Errorf("expected StateAuthenticated, got %v", got)
	}
	if s.Token() != "tok" {
		t.Errorf("token must be preserved, got %q", s.Token())
	}
}

func TestBootstrapFailOpenOnTransientError(t *testing.T) {
	s := newStoreWithToken(t, "tok")
	check := &fakeChecker{err: errors.New("dial tcp: connection refused")}

	if got := s.Bootstrap(context.Background(), check); got != StateAuthenticated {
		t.Errorf("expected fail-open StateAuthenticated, got %v", got)
	}
	if s.Token() != "tok" {
		t.Error("transient failure must preserve the token")
	}
}

func TestBootstrapFailOpenOnServerError(t *testing.T) {
	s := newStoreWithToken(t, "tok")
	check := &fakeChecker{err: &api.APIError{StatusCode: http.StatusInternalServerError, Message: "boom"}}

	if got := s.Bootstrap(context.Background(), check); got != StateAuthenticated {
		t.Errorf("expected fail-open StateAuthenticated, got %v", got)
	}
}

func TestBootstrapFailClosedOn401(t *testing.T) {
	s := newStoreWithToken(t, "tok")
	check := &fakeChecker{err: &api.APIError{StatusCode: http.StatusUnauthorized, Message: "Token is invalid!"}}

	if got := s.Bootstrap(context.Background(), check); got != StateGuest {
		t.Errorf("expected StateGuest, got %v", got)
	}
	if s.Token() != "" {
		t.Errorf("401 must clear the token, got %q", s.Token())
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(s.path), "credentials.json")); !os.IsNotExist(err) {
		t.Error("credentials file must be removed on 401")
	}
}

func TestLoginPersistsWithRestrictedPerms(t *testing.T) {
	t.Setenv(EnvToken, "")
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	if err := s.Login("fresh-token"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if s.State() != StateAuthenticated {
		t.Errorf("login must authenticate synchronously, got %v", s.State())
	}

	info, err := os.Stat(filepath.Join(dir, "credentials.json"))
	if err != nil {
		t.Fatalf("credentials file missing: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected 0600 perms, got %o", perm)
	}

	reloaded, err := NewStore(dir)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Token() != "fresh-token" {
		t.Errorf("token did not round-trip, got %q", reloaded.Token())
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	s := newStoreWithToken(t, "tok")
	s.Logout()
	s.Logout()
	if s.State() != StateGuest || s.Token() != "" {
		t.Errorf("expected guest with no token, got %v %q", s.State(), s.Token())
	}
}

func TestEnvTokenOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvToken, "")
	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := s.Login("file-token"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	t.Setenv(EnvToken, "env-token")
	s, err = NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if s.Token() != "env-token" {
		t.Errorf("expected env token to win, got %q", s.Token())
	}
}
