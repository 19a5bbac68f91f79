package api

import (
	"context"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/rpupo63/our-little-infinity/auth"
)

// NewSessionManager creates the cookie session manager. Records live in the
// scs in-memory store.
func NewSessionManager(lifetime time.Duration, isDev bool) *scs.SessionManager {
	sm := scs.New()
	sm.Lifetime = lifetime
	sm.Cookie.Name = "our_little_infinity_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev // Secure cookies in production only
	return sm
}

// NewSessionStore adapts sm to the auth session record interface.
func NewSessionStore(sm *scs.SessionManager) auth.SessionStore {
	return scsSessions{manager: sm}
}

// scsSessions stores the auth record in the request's scs session. It only
// works inside the session manager's LoadAndSave middleware.
type scsSessions struct {
	manager *scs.SessionManager
}

func (s scsSessions) Load(ctx context.Context, key string) ([]byte, error) {
	return s.manager.GetBytes(ctx, key), nil
}

func (s scsSessions) Save(ctx context.Context, key string, data []byte) error {
	if err := s.manager.RenewToken(ctx); err != nil {
		return err
	}
	s.manager.Put(ctx, key, data)
	return nil
}

func (s scsSessions) Delete(ctx context.Context, key string) error {
	s.manager.Remove(ctx, key)
	return s.manager.RenewToken(ctx)
}
