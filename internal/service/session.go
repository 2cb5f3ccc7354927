package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-diary-auth/internal/metrics"
	"github.com/pribylovaa/go-diary-auth/internal/models"
	"github.com/pribylovaa/go-diary-auth/internal/pkg/log"
)

// sessionKeyPrefix — ключ кэша данных сессии: sess:<sessionId>.
const sessionKeyPrefix = "sess:"

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// userSessionsPrefix — индекс сессий пользователя: usess:<userId>,
// JSON-массив id сессий.
const userSessionsPrefix = "usess:"

func userSessionsKey(uid uuid.UUID) string {
	return userSessionsPrefix + uid.String()
}

// CreateSession создаёт сессию пользователя и возвращает её вместе
// со значением cookie. Cookie — подписанный токен {sid, sub}, поэтому
// заявленный в ней id пользователя подделать нельзя.
func (s *Service) CreateSession(ctx context.Context, user *models.User) (*models.Session, string, error) {
	const op = "service.session.CreateSession"

	lg := log.From(ctx)

	sid, err := randomToken(32)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	sess := &models.Session{
		ID:          sid,
		UserID:      user.ID,
		DisplayName: user.DisplayName(),
		ExpiresAt:   now.Add(s.sess.TTL).Truncate(time.Second),
	}

	blob, err := json.Marshal(sess)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	cookie, err := s.sign(tokenClaims{
		UserID:           user.ID.String(),
		Type:             typSession,
		SessionID:        sid,
		RegisteredClaims: s.registered(user.ID, now, sess.ExpiresAt, ""),
	})
	if err != nil {
		lg.Error("session_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	if err := s.trackSession(ctx, user.ID, sid); err != nil {
		lg.Error("session_index_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	if err := s.tokens.Set(ctx, sessionKey(sid), string(blob), s.sess.TTL); err != nil {
		lg.Error("session_store_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	metrics.TokensIssuedTotal.WithLabelValues(typSession).Inc()

	return sess, cookie, nil
}

// ParseSessionCookie проверяет подпись cookie сессии и возвращает
// id сессии и заявленный id пользователя.
func (s *Service) ParseSessionCookie(value string) (string, uuid.UUID, error) {
	const op = "service.session.ParseSessionCookie"

	c, err := s.parse(value, typSession)
	if err != nil || c.SessionID == "" {
		return "", uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	uid, err := uuid.Parse(c.UserID)
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return c.SessionID, uid, nil
}

// SessionByID читает данные сессии из кэша.
// Отсутствие записи — (nil, false, nil).
func (s *Service) SessionByID(ctx context.Context, id string) (*models.Session, bool, error) {
	const op = "service.session.SessionByID"

	raw, found, err := s.tokens.Get(ctx, sessionKey(id))
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return nil, false, nil
	}

	var sess models.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		// Повреждённая запись равносильна отсутствующей.
		log.From(ctx).Warn("session_blob_corrupted",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, false, nil
	}
	sess.ID = id

	return &sess, true, nil
}

// DestroySession удаляет сессию из кэша.
func (s *Service) DestroySession(ctx context.Context, id string) error {
	const op = "service.session.DestroySession"

	if err := s.tokens.Del(ctx, sessionKey(id)); err != nil {
		log.From(ctx).Error("session_delete_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DestroyUserSessions удаляет все сессии пользователя вместе с индексом.
func (s *Service) DestroyUserSessions(ctx context.Context, uid uuid.UUID) error {
	const op = "service.session.DestroyUserSessions"

	lg := log.From(ctx)

	ids, err := s.userSessions(ctx, uid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, id := range ids {
		if err := s.tokens.Del(ctx, sessionKey(id)); err != nil {
			lg.Error("session_delete_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := s.tokens.Del(ctx, userSessionsKey(uid)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// userSessions читает индекс сессий пользователя.
func (s *Service) userSessions(ctx context.Context, uid uuid.UUID) ([]string, error) {
	raw, found, err := s.tokens.Get(ctx, userSessionsKey(uid))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		log.From(ctx).Warn("session_index_corrupted", slog.String("err", err.Error()))
		return nil, nil
	}

	return ids, nil
}

// trackSession дописывает sid в индекс пользователя, выбрасывая
// сессии, которых в кэше уже нет. TTL индекса продлевается до TTL
// новой сессии, так что он переживает каждую из перечисленных.
func (s *Service) trackSession(ctx context.Context, uid uuid.UUID, sid string) error {
	ids, err := s.userSessions(ctx, uid)
	if err != nil {
		return err
	}

	live := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		_, found, err := s.tokens.Get(ctx, sessionKey(id))
		if err != nil {
			return err
		}
		if found {
			live = append(live, id)
		}
	}
	live = append(live, sid)

	blob, err := json.Marshal(live)
	if err != nil {
		return err
	}

	return s.tokens.Set(ctx, userSessionsKey(uid), string(blob), s.sess.TTL)
}

// randomToken возвращает n случайных байт в base64url без паддинга.
func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
