// Package auth guards access behind a single stored username and password.
//
// The credential file holds two lines: the username, then a bcrypt hash of the
// password. When the file does not exist, the first Authenticate call registers
// the supplied pair. Files from older versions that keep the password in plain
// text are still accepted and rewritten with a hash on the first successful login.
package auth

import (
	"bufio"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/natefinch/atomic"
)

var (
	// ErrInvalidCredentials is returned when the username or password does not match.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrCorruptCredentials is returned when the credential file has fewer than two lines.
	ErrCorruptCredentials = errors.New("credential file is incomplete")
	// ErrInvalidUsername is returned when registering a username with a line break.
	ErrInvalidUsername = errors.New("username must not contain line breaks")
	// ErrPasswordTooLong is returned when registering a password bcrypt cannot hash.
	ErrPasswordTooLong = fmt.Errorf("password exceeds %d bytes", MaxPasswordBytes)
)

// Outcome is the result of an authentication attempt.
type Outcome int

const (
	OutcomeRejected Outcome = iota
	OutcomeVerified
	OutcomeRegistered
)

// OK reports whether access was granted.
func (o Outcome) OK() bool {
	return o == OutcomeVerified || o == OutcomeRegistered
}

func (o Outcome) String() string {
	switch o {
	case OutcomeVerified:
		return "verified"
	case OutcomeRegistered:
		return "registered"
	default:
		return "rejected"
	}
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithCost sets the bcrypt cost for newly stored hashes.
func WithCost(cost int) GateOption {
	return func(g *Gate) {
		g.hasher = NewPasswordHasher(cost)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) GateOption {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// Gate verifies or bootstraps the credential stored at a path.
type Gate struct {
	path   string
	hasher *PasswordHasher
	logger *log.Logger
}

// NewGate creates a gate for the credential file at path.
func NewGate(path string, opts ...GateOption) *Gate {
	g := &Gate{
		path:   path,
		hasher: NewPasswordHasher(0),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Path returns the credential file path.
func (g *Gate) Path() string {
	return g.path
}

// Registered reports whether a credential file exists.
func (g *Gate) Registered() (bool, error) {
	_, err := os.Stat(g.path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat credential file: %w", err)
}

// Authenticate checks username and password against the stored credential, or
// stores them if no credential exists yet. Every error yields OutcomeRejected.
func (g *Gate) Authenticate(username, password string) (Outcome, error) {
	f, err := os.Open(g.path)
	if errors.Is(err, fs.ErrNotExist) {
		return g.register(username, password)
	}
	if err != nil {
		g.logger.Error("open credential file", "path", g.path, "err", err)
		return OutcomeRejected, fmt.Errorf("open credential file: %w", err)
	}

	stored, err := readCredential(f)
	f.Close()
	if err != nil {
		g.logger.Warn("unreadable credential file", "path", g.path, "err", err)
		return OutcomeRejected, err
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(stored.username)) == 1
	legacy := !IsHash(stored.secret)
	var passOK bool
	if legacy {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(stored.secret)) == 1
	} else {
		passOK = g.hasher.Verify(password, stored.secret)
	}

	if !userOK || !passOK {
		g.logger.Info("authentication rejected", "path", g.path)
		return OutcomeRejected, ErrInvalidCredentials
	}

	if legacy {
		g.upgrade(username, password)
	}
	g.logger.Info("authenticated", "user", username)
	return OutcomeVerified, nil
}

func (g *Gate) register(username, password string) (Outcome, error) {
	if strings.ContainsAny(username, "\r\n") {
		return OutcomeRejected, ErrInvalidUsername
	}
	hash, err := g.hasher.Hash(password)
	if err != nil {
		return OutcomeRejected, err
	}
	if err := g.write(username, hash); err != nil {
		g.logger.Error("write credential file", "path", g.path, "err", err)
		return OutcomeRejected, err
	}
	g.logger.Info("registered credential", "user", username, "path", g.path)
	return OutcomeRegistered, nil
}

// upgrade replaces a plaintext password with its hash. Failure keeps the old
// file and does not affect the login.
func (g *Gate) upgrade(username, password string) {
	hash, err := g.hasher.Hash(password)
	if err != nil {
		g.logger.Warn("could not hash legacy password", "err", err)
		return
	}
	if err := g.write(username, hash); err != nil {
		g.logger.Warn("could not upgrade legacy credential file", "path", g.path, "err", err)
		return
	}
	g.logger.Info("upgraded legacy credential file", "path", g.path)
}

func (g *Gate) write(username, hash string) error {
	if dir := filepath.Dir(g.path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create credential dir: %w", err)
		}
	}
	content := username + "\n" + hash + "\n"
	if err := atomic.WriteFile(g.path, strings.NewReader(content)); err != nil {
		return fmt.Errorf("write credential file: %w", err)
	}
	return nil
}

type credential struct {
	username string
	secret   string
}

func readCredential(r io.Reader) (credential, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for len(lines) < 2 && scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return credential{}, fmt.Errorf("read credential file: %w", err)
	}
	if len(lines) < 2 {
		return credential{}, ErrCorruptCredentials
	}
	return credential{username: lines[0], secret: lines[1]}, nil
}

// Inspect reports the shape of the credential file without revealing its
// contents. It is meant for diagnostics.
func (g *Gate) Inspect() (CredentialInfo, error) {
	info := CredentialInfo{Path: g.path}
	f, err := os.Open(g.path)
	if errors.Is(err, fs.ErrNotExist) {
		return info, nil
	}
	if err != nil {
		return info, fmt.Errorf("open credential file: %w", err)
	}
	defer f.Close()

	info.Exists = true
	if st, err := f.Stat(); err == nil {
		info.Mode = st.Mode().Perm()
	}
	stored, err := readCredential(f)
	if err != nil {
		return info, err
	}
	info.Hashed = IsHash(stored.secret)
	return info, nil
}

// CredentialInfo describes the credential file for diagnostics.
type CredentialInfo struct {
	Path   string
	Exists bool
	Hashed bool
	Mode   fs.FileMode
}
