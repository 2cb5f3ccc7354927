package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-diary-auth/internal/models"
)

// SessionVerifier — проверка cookie сессии и чтение её данных из кэша.
type SessionVerifier interface {
	ParseSessionCookie(value string) (string, uuid.UUID, error)
	SessionByID(ctx context.Context, id string) (*models.Session, bool, error)
}

// Session — guard cookie-сессии.
//
// Нет cookie или подпись не сошлась — session_required; записи в кэше нет —
// session_not_found; userId записи не совпал с заявленным в cookie —
// session_mismatch; сбой кэша — Failed (500).
type Session struct {
	sessions   SessionVerifier
	cookieName string
}

func NewSession(sessions SessionVerifier, cookieName string) *Session {
	return &Session{sessions: sessions, cookieName: cookieName}
}

func (s *Session) Name() string { return "session" }

func (s *Session) Authenticate(r *http.Request) Result {
	const op = "auth.session.Authenticate"

	c, err := r.Cookie(s.cookieName)
	if err != nil || c.Value == "" {
		return Deny(ReasonSessionRequired)
	}

	sid, claimed, err := s.sessions.ParseSessionCookie(c.Value)
	if err != nil {
		return Deny(ReasonSessionRequired)
	}

	sess, found, err := s.sessions.SessionByID(r.Context(), sid)
	if err != nil {
		return Fail(fmt.Errorf("%s: %w", op, err))
	}
	if !found {
		return Deny(ReasonSessionNotFound)
	}

	if sess.UserID != claimed {
		return Deny(ReasonSessionMismatch)
	}

	return Allow(Identity{
		UserID:      sess.UserID,
		DisplayName: sess.DisplayName,
		SessionID:   sid,
	})
}
