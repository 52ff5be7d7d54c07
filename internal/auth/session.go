package auth

import (
	"fmt"
	"net/http"

	"bom-tracker/internal/config"

	"github.com/gorilla/sessions"
)

const sessionUserIDKey = "user_id"

// Sessions binds an authenticated user id to a signed cookie.
type Sessions struct {
	store *sessions.CookieStore
	name  string
}

func NewSessions(cfg config.SessionConfig) *Sessions {
	store := sessions.NewCookieStore(cfg.Key)
	store.Options.HttpOnly = true
	store.Options.Secure = cfg.Secure
	store.Options.SameSite = http.SameSiteLaxMode
	store.Options.Path = "/"
	store.Options.MaxAge = cfg.MaxAge

	name := cfg.Name
	if name == "" {
		name = "bom-session"
	}
	return &Sessions{store: store, name: name}
}

// Login stores userID in the session cookie.
func (s *Sessions) Login(w http.ResponseWriter, r *http.Request, userID int64) error {
	session, _ := s.store.Get(r, s.name)
	session.Values[sessionUserIDKey] = userID
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Logout expires the cookie. Calling it without a session is a no-op for the client.
func (s *Sessions) Logout(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.store.Get(r, s.name)
	delete(session.Values, sessionUserIDKey)
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// CurrentUser reads the user id without touching the cookie. A tampered or
// expired cookie reads as logged out.
func (s *Sessions) CurrentUser(r *http.Request) (int64, bool) {
	session, err := s.store.Get(r, s.name)
	if err != nil {
		return 0, false
	}
	userID, ok := session.Values[sessionUserIDKey].(int64)
	if !ok || userID <= 0 {
		return 0, false
	}
	return userID, true
}
