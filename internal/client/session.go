package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/pageza/recipebook/backend/internal/types"
)

const (
	tokenFile = "token"
	userFile  = "user.json"
)

// User is the cached identity of the signed-in caller
type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"userName,omitempty"`
}

// Session holds the credential and cached user, persisted in the state directory.
// It is created once at start and passed to whatever needs it.
type Session struct {
	fs    afero.Fs
	dir   string
	token string
	user  *User
}

// OpenSession restores any saved credential from dir
func OpenSession(fs afero.Fs, dir string) (*Session, error) {
	s := &Session{fs: fs, dir: dir}

	data, err := afero.ReadFile(fs, filepath.Join(dir, tokenFile))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read token: %w", err)
	default:
		s.token = strings.TrimSpace(string(data))
	}

	data, err = afero.ReadFile(fs, filepath.Join(dir, userFile))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read user: %w", err)
	default:
		var u User
		// A corrupt cache is treated as no cached user
		if json.Unmarshal(data, &u) == nil {
			s.user = &u
		}
	}
	return s, nil
}

// Token returns the bearer credential, or "" when signed out
func (s *Session) Token() string { return s.token }

// User returns the cached user, or nil
func (s *Session) User() *User { return s.user }

// LoggedIn reports whether a credential is present
func (s *Session) LoggedIn() bool { return s.token != "" }

// Login stores token and the identity read from its claims.
// The claims are not verified here; the server does that on every call.
func (s *Session) Login(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("empty token")
	}

	user, err := userFromToken(token)
	if err != nil {
		return err
	}

	if err := s.fs.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	if err := afero.WriteFile(s.fs, filepath.Join(s.dir, tokenFile), []byte(token), 0o600); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(s.fs, filepath.Join(s.dir, userFile), data, 0o600); err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	s.token = token
	s.user = user
	return nil
}

// Logout forgets the credential and cached user. Favorites are kept.
func (s *Session) Logout() error {
	for _, name := range []string{tokenFile, userFile} {
		if err := s.fs.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	s.token = ""
	s.user = nil
	return nil
}

func userFromToken(token string) (*User, error) {
	var claims types.TokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("token is not a JWT: %w", err)
	}

	id := claims.UserID
	if id == uuid.Nil {
		parsed, err := uuid.Parse(claims.Subject)
		if err != nil {
			return nil, errors.New("token carries no user id")
		}
		id = parsed
	}
	return &User{ID: id, Username: claims.Username}, nil
}
