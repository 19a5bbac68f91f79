// Package auth checks logins against a fixed credential table and keeps the
// logged-in user in a keyed session record.
package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rpupo63/our-little-infinity/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SessionKey is the key the session record is stored under.
const SessionKey = "our-little-infinity-auth"

// Account is one row of the credential table.
type Account struct {
	Password string
	Role     models.Role
}

// Credentials maps a lowercase username to its account.
type Credentials map[string]Account

// DefaultCredentials returns the two compiled-in accounts.
func DefaultCredentials() Credentials {
	return Credentials{
		"sarru": {Password: "sarru", Role: models.RoleAdmin},
		"hiba":  {Password: "ammukutty", Role: models.RoleUser},
	}
}

// SessionStore persists the session record. Load returns nil data when no
// record exists.
type SessionStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

type account struct {
	hash string
	role models.Role
}

type Store struct {
	accounts  map[string]account
	dummyHash string
	sessions  SessionStore
	logger    zerolog.Logger
}

// NewStore hashes every password of creds up front. Plain passwords are not
// kept after construction.
func NewStore(creds Credentials, sessions SessionStore) (*Store, error) {
	accounts := make(map[string]account, len(creds))
	for username, acc := range creds {
		if !acc.Role.Valid() {
			return nil, fmt.Errorf("account %q: unknown role %q", username, acc.Role)
		}
		hash, err := HashPassword(acc.Password)
		if err != nil {
			return nil, fmt.Errorf("hashing password of %q: %w", username, err)
		}
		accounts[username] = account{hash: hash, role: acc.Role}
	}

	dummy, err := HashPassword("")
	if err != nil {
		return nil, fmt.Errorf("hashing placeholder password: %w", err)
	}

	return &Store{
		accounts:  accounts,
		dummyHash: dummy,
		sessions:  sessions,
		logger:    log.With().Str("component", "authStore").Logger(),
	}, nil
}

// Login checks username and password exactly as given. On success the user
// is written to the session record and returned. On failure the session is
// left untouched and nil is returned.
func (s *Store) Login(ctx context.Context, username, password string) *models.AuthUser {
	acc, known := s.accounts[username]

	hash := acc.hash
	if !known {
		// unknown users still pay for one verification
		hash = s.dummyHash
	}
	ok, err := CheckPassword(password, hash)
	if err != nil {
		s.logger.Error().Err(err).Str("username", username).Msg("Error verifying password")
		return nil
	}
	if !known || !ok {
		s.logger.Info().Str("username", username).Msg("Login rejected")
		return nil
	}

	user := &models.AuthUser{Username: username, Role: acc.role}
	data, err := json.Marshal(user)
	if err != nil {
		s.logger.Error().Err(err).Msg("Error encoding session record")
		return nil
	}
	if err := s.sessions.Save(ctx, SessionKey, data); err != nil {
		s.logger.Error().Err(err).Str("username", username).Msg("Error saving session record")
		return nil
	}

	s.logger.Info().Str("username", username).Str("role", string(acc.role)).Msg("Logged in")
	return user
}

// Logout clears the session record.
func (s *Store) Logout(ctx context.Context) {
	if err := s.sessions.Delete(ctx, SessionKey); err != nil {
		s.logger.Error().Err(err).Msg("Error clearing session record")
	}
}

// CurrentUser returns the user in the session record, or nil when there is
// none or it cannot be decoded.
func (s *Store) CurrentUser(ctx context.Context) *models.AuthUser {
	data, err := s.sessions.Load(ctx, SessionKey)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Error loading session record")
		return nil
	}
	if len(data) == 0 {
		return nil
	}

	var user models.AuthUser
	if err := json.Unmarshal(data, &user); err != nil {
		s.logger.Warn().Err(err).Msg("Discarding malformed session record")
		return nil
	}
	if user.Username == "" || !user.Role.Valid() {
		s.logger.Warn().Str("username", user.Username).Str("role", string(user.Role)).Msg("Discarding invalid session record")
		return nil
	}
	return &user
}

// IsAdmin reports whether user is logged in with the admin role.
func IsAdmin(user *models.AuthUser) bool {
	return user != nil && user.Role == models.RoleAdmin
}
