package sweetclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Skotchmaster/sweet_shop/pkg/tokens"
)

// Session is the signed-in user as the client shows it.
type Session struct {
	Token    string
	UserID   string
	Username string
	Email    string
	Role     string
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == tokens.RoleAdmin
}

type sessionFile struct {
	Token string `json:"token"`
}

// SessionStore keeps the current session in memory and its token on disk.
// An empty path keeps the session in memory only.
type SessionStore struct {
	path string

	mu      sync.RWMutex
	current *Session
	now     func() time.Time
}

func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path, now: time.Now}
}

// Load rehydrates the session from disk. A token that cannot be decoded or has
// expired is removed and Load returns a nil session.
func (s *SessionStore) Load() (*Session, error) {
	if s.path == "" {
		return s.Current(), nil
	}

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var f sessionFile
	if err := json.Unmarshal(raw, &f); err != nil || f.Token == "" {
		return nil, s.Clear()
	}

	sess, err := s.decode(f.Token)
	if err != nil {
		return nil, s.Clear()
	}

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()
	return sess, nil
}

// Save stores the token from a successful login. Username and role from the login
// response take precedence over the token payload.
func (s *SessionStore) Save(token, username, role string) (*Session, error) {
	sess, err := s.decode(token)
	if err != nil {
		sess = &Session{Token: token}
	}
	if username != "" {
		sess.Username = username
	}
	if role != "" {
		sess.Role = tokens.NormalizeRole(role)
	}
	if sess.Role == "" {
		sess.Role = tokens.RoleUser
	}

	if s.path != "" {
		raw, err := json.Marshal(sessionFile{Token: token})
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
			return nil, fmt.Errorf("session dir: %w", err)
		}
		if err := os.WriteFile(s.path, raw, 0o600); err != nil {
			return nil, fmt.Errorf("write session: %w", err)
		}
	}

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()
	return sess, nil
}

func (s *SessionStore) Clear() error {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

func (s *SessionStore) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

func (s *SessionStore) decode(token string) (*Session, error) {
	claims, err := tokens.UnverifiedClaims(token)
	if err != nil {
		return nil, err
	}
	if claims.ExpiresAt != nil && !claims.ExpiresAt.After(s.now()) {
		return nil, tokens.ErrInvalidToken
	}

	username := claims.Name
	if username == "" {
		username = claims.Email
	}
	if username == "" {
		username = claims.Subject
	}
	return &Session{
		Token:    token,
		UserID:   claims.Subject,
		Username: username,
		Email:    claims.Email,
		Role:     claims.Role,
	}, nil
}
