package auth

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestGate(t *testing.T) *Gate {
	t.Helper()
	return NewGate(filepath.Join(t.TempDir(), "user.cred"), WithCost(bcrypt.MinCost))
}

func TestBootstrapThenVerify(t *testing.T) {
	g := newTestGate(t)

	outcome, err := g.Authenticate("alice", "secret")
	if err != nil {
		t.Fatalf("first Authenticate failed: %v", err)
	}
	if outcome != OutcomeRegistered {
		t.Errorf("first outcome: got %v, want registered", outcome)
	}
	if _, err := os.Stat(g.Path()); err != nil {
		t.Fatalf("credential file not created: %v", err)
	}

	outcome, err = g.Authenticate("alice", "secret")
	if err != nil || outcome != OutcomeVerified {
		t.Errorf("second Authenticate: got (%v, %v), want (verified, nil)", outcome, err)
	}

	outcome, err = g.Authenticate("alice", "wrong")
	if outcome.OK() {
		t.Error("wrong password should be rejected")
	}
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestCredentialFileStoresHash(t *testing.T) {
	g := newTestGate(t)
	if _, err := g.Authenticate("alice", "secret"); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	data, err := os.ReadFile(g.Path())
	if err != nil {
		t.Fatalf("read credential file: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("credential file lines: got %d, want 2", len(lines))
	}
	if lines[0] != "alice" {
		t.Errorf("username line: got %q", lines[0])
	}
	if lines[1] == "secret" || !IsHash(lines[1]) {
		t.Errorf("password line should be a bcrypt hash, got %q", lines[1])
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(g.Path())
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if perm := info.Mode().Perm(); perm&0077 != 0 {
			t.Errorf("credential file should not be group/world accessible, mode %v", perm)
		}
	}
}

func TestAuthenticateCaseSensitive(t *testing.T) {
	g := newTestGate(t)
	if _, err := g.Authenticate("alice", "Secret"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	tests := []struct {
		name     string
		user     string
		password string
		wantOK   bool
	}{
		{"exact", "alice", "Secret", true},
		{"username case", "Alice", "Secret", false},
		{"password case", "alice", "secret", false},
		{"wrong user", "bob", "Secret", false},
		{"empty", "", "", false},
		{"trailing space", "alice ", "Secret", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := g.Authenticate(tt.user, tt.password)
			if outcome.OK() != tt.wantOK {
				t.Errorf("Authenticate(%q, %q) ok = %v, want %v (err %v)", tt.user, tt.password, outcome.OK(), tt.wantOK, err)
			}
			if !tt.wantOK && !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestLegacyPlaintextUpgraded(t *testing.T) {
	g := newTestGate(t)
	if err := os.WriteFile(g.Path(), []byte("alice\nsecret\n"), 0600); err != nil {
		t.Fatalf("write legacy file: %v", err)
	}

	outcome, err := g.Authenticate("alice", "wrong")
	if outcome.OK() || !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong legacy password: got (%v, %v)", outcome, err)
	}
	info, err := g.Inspect()
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if info.Hashed {
		t.Error("failed login must not upgrade the file")
	}

	outcome, err = g.Authenticate("alice", "secret")
	if err != nil || outcome != OutcomeVerified {
		t.Fatalf("legacy login: got (%v, %v)", outcome, err)
	}

	info, err = g.Inspect()
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if !info.Hashed {
		t.Error("legacy file should be rewritten with a hash")
	}

	outcome, err = g.Authenticate("alice", "secret")
	if err != nil || outcome != OutcomeVerified {
		t.Errorf("login after upgrade: got (%v, %v)", outcome, err)
	}
}

func TestLegacyCRLF(t *testing.T) {
	g := newTestGate(t)
	if err := os.WriteFile(g.Path(), []byte("alice\r\nsecret\r\n"), 0600); err != nil {
		t.Fatalf("write legacy file: %v", err)
	}
	if outcome, err := g.Authenticate("alice", "secret"); !outcome.OK() {
		t.Errorf("CRLF legacy file should verify, got %v", err)
	}
}

func TestShortCredentialFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"username only", "alice\n"},
		{"username without newline", "alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGate(t)
			if err := os.WriteFile(g.Path(), []byte(tt.content), 0600); err != nil {
				t.Fatalf("write: %v", err)
			}
			outcome, err := g.Authenticate("alice", "")
			if outcome.OK() {
				t.Error("short file must not authenticate")
			}
			if !errors.Is(err, ErrCorruptCredentials) {
				t.Errorf("expected ErrCorruptCredentials, got %v", err)
			}
			// The file must not be treated as missing and overwritten.
			data, _ := os.ReadFile(g.Path())
			if string(data) != tt.content {
				t.Errorf("credential file modified: %q", data)
			}
		})
	}
}

func TestEmptyPasswordLine(t *testing.T) {
	g := newTestGate(t)
	if err := os.WriteFile(g.Path(), []byte("alice\n\n"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if outcome, err := g.Authenticate("alice", ""); !outcome.OK() {
		t.Errorf("empty stored password should match empty input, got %v", err)
	}
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	t.Run("newline in username", func(t *testing.T) {
		g := newTestGate(t)
		outcome, err := g.Authenticate("ali\nce", "secret")
		if outcome.OK() || !errors.Is(err, ErrInvalidUsername) {
			t.Errorf("got (%v, %v), want ErrInvalidUsername", outcome, err)
		}
		if registered, _ := g.Registered(); registered {
			t.Error("no credential file should be written")
		}
	})

	t.Run("password too long", func(t *testing.T) {
		g := newTestGate(t)
		outcome, err := g.Authenticate("alice", strings.Repeat("x", MaxPasswordBytes+1))
		if outcome.OK() || !errors.Is(err, ErrPasswordTooLong) {
			t.Errorf("got (%v, %v), want ErrPasswordTooLong", outcome, err)
		}
	})
}

func TestRegisterWriteFailureFailsClosed(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("file"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	g := NewGate(filepath.Join(blocker, "user.cred"), WithCost(bcrypt.MinCost))

	outcome, err := g.Authenticate("alice", "secret")
	if outcome.OK() {
		t.Error("write failure must not grant access")
	}
	if err == nil {
		t.Error("expected an error")
	}
}

func TestRegistered(t *testing.T) {
	g := newTestGate(t)
	registered, err := g.Registered()
	if err != nil || registered {
		t.Fatalf("fresh gate: got (%v, %v)", registered, err)
	}
	if _, err := g.Authenticate("alice", "secret"); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	registered, err = g.Registered()
	if err != nil || !registered {
		t.Errorf("after bootstrap: got (%v, %v)", registered, err)
	}
}

func TestOutcome(t *testing.T) {
	if OutcomeRejected.OK() {
		t.Error("rejected should not be OK")
	}
	if !OutcomeVerified.OK() || !OutcomeRegistered.OK() {
		t.Error("verified and registered should be OK")
	}
	if OutcomeRegistered.String() != "registered" {
		t.Errorf("String: got %q", OutcomeRegistered.String())
	}
}
