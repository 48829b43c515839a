// Package session keeps the signed-in user's token between console runs.
// The Manager is the application-scoped auth slice: it is started at login,
// read by every API request and torn down at logout.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ehr/praxis/internal/platform/auth"
)

var (
	// ErrNoSession is returned when nobody is signed in.
	ErrNoSession = errors.New("no active session")
	// ErrExpired is returned when the stored token is past its expiry.
	ErrExpired = errors.New("session expired")
)

// Session is the persisted form of a sign-in.
type Session struct {
	Token     string    `json:"token"`
	Subject   string    `json:"subject,omitempty"`
	Name      string    `json:"name,omitempty"`
	Roles     []string  `json:"roles,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

// Expired reports whether the session is past its expiry. Sessions whose
// token carried no expiry never expire client-side.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Manager owns the current session and its file.
type Manager struct {
	path string
	now  func() time.Time

	mu      sync.RWMutex
	current *Session
	loaded  bool
}

// NewManager creates a Manager persisting to path.
func NewManager(path string) *Manager {
	return &Manager{path: path, now: time.Now}
}

// Start builds a session from token, persists it and makes it current. The
// token's claims are read without verification to learn who signed in and
// when the session ends; tokens that are not JWTs are stored as-is.
func (m *Manager) Start(token string) (*Session, error) {
	if token == "" {
		return nil, fmt.Errorf("token is required")
	}
	s := &Session{Token: token, StartedAt: m.now().UTC()}
	if claims, err := auth.ParseUnverified(token); err == nil {
		s.Subject = claims.Subject
		s.Name = claims.Name
		s.Roles = claims.Roles
		if claims.ExpiresAt != nil {
			s.ExpiresAt = claims.ExpiresAt.Time.UTC()
		}
	}

	if err := m.write(s); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.current = s
	m.loaded = true
	m.mu.Unlock()
	return s, nil
}

// Current returns the active session, loading it from disk on first use.
func (m *Manager) Current() (*Session, error) {
	m.mu.RLock()
	if m.loaded {
		s := m.current
		m.mu.RUnlock()
		if s == nil {
			return nil, ErrNoSession
		}
		return s, nil
	}
	m.mu.RUnlock()

	s, err := m.read()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.current = s
	m.loaded = true
	m.mu.Unlock()

	if s == nil {
		return nil, ErrNoSession
	}
	return s, nil
}

// Token returns the token of the active, unexpired session.
func (m *Manager) Token() (string, error) {
	s, err := m.Current()
	if err != nil {
		return "", err
	}
	if s.Expired(m.now()) {
		return "", ErrExpired
	}
	return s.Token, nil
}

// End tears the session down and removes the file.
func (m *Manager) End() error {
	m.mu.Lock()
	m.current = nil
	m.loaded = true
	m.mu.Unlock()

	if err := os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func (m *Manager) read() (*Session, error) {
	data, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	if s.Token == "" {
		return nil, nil
	}
	return &s, nil
}

func (m *Manager) write(s *Session) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// StaticToken is a token source for a fixed token, e.g. API_TOKEN.
type StaticToken string

// Token returns the fixed token.
func (t StaticToken) Token() (string, error) {
	if t == "" {
		return "", ErrNoSession
	}
	return string(t), nil
}
