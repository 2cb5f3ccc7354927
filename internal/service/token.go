package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pribylovaa/go-diary-auth/internal/metrics"
	"github.com/pribylovaa/go-diary-auth/internal/models"
	"github.com/pribylovaa/go-diary-auth/internal/pkg/log"
)

// Значения claim typ: токен одного вида нельзя предъявить вместо другого.
const (
	typAccess  = "access"
	typRefresh = "refresh"
	typSession = "session"
)

// refreshKeyPrefix — ключ кэша действующего refresh-токена: rt:<userId>.
const refreshKeyPrefix = "rt:"

type tokenClaims struct {
	UserID    string `json:"id"`
	Type      string `json:"typ"`
	SessionID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

func refreshKey(userID uuid.UUID) string {
	return refreshKeyPrefix + userID.String()
}

// IssueAccessToken подписывает access-токен для пользователя.
// Кэш не используется; ExpiresAt — значение expires для cookie.
func (s *Service) IssueAccessToken(ctx context.Context, userID uuid.UUID) (models.IssuedToken, error) {
	const op = "service.token.IssueAccessToken"

	now := s.now()
	exp := now.Add(s.cfg.AccessTokenTTL)

	signed, err := s.sign(tokenClaims{
		UserID:           userID.String(),
		Type:             typAccess,
		RegisteredClaims: s.registered(userID, now, exp, ""),
	})
	if err != nil {
		log.From(ctx).Error("access_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return models.IssuedToken{}, fmt.Errorf("%s: %w", op, err)
	}

	metrics.TokensIssuedTotal.WithLabelValues(typAccess).Inc()

	return models.IssuedToken{Token: signed, ExpiresAt: exp.Truncate(time.Second)}, nil
}

// IssueRefreshToken подписывает refresh-токен и делает его единственным
// действующим для пользователя: прежняя запись rt:<userId> удаляется,
// новая пишется с TTL, равным сроку жизни токена.
// При гонке двух выпусков действует последний записанный.
func (s *Service) IssueRefreshToken(ctx context.Context, userID uuid.UUID) (models.IssuedToken, error) {
	const op = "service.token.IssueRefreshToken"

	lg := log.From(ctx)

	now := s.now()
	exp := now.Add(s.cfg.RefreshTokenTTL)

	signed, err := s.sign(tokenClaims{
		UserID:           userID.String(),
		Type:             typRefresh,
		RegisteredClaims: s.registered(userID, now, exp, uuid.NewString()),
	})
	if err != nil {
		lg.Error("refresh_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return models.IssuedToken{}, fmt.Errorf("%s: %w", op, err)
	}

	key := refreshKey(userID)

	_, found, err := s.tokens.Get(ctx, key)
	if err != nil {
		lg.Error("refresh_lookup_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return models.IssuedToken{}, fmt.Errorf("%s: %w", op, err)
	}

	if found {
		if err := s.tokens.Del(ctx, key); err != nil {
			lg.Error("refresh_revoke_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return models.IssuedToken{}, fmt.Errorf("%s: %w", op, err)
		}
		lg.Debug("refresh_token_replaced", slog.String("user_id", userID.String()))
	}

	if err := s.tokens.Set(ctx, key, signed, s.cfg.RefreshTokenTTL); err != nil {
		lg.Error("refresh_store_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return models.IssuedToken{}, fmt.Errorf("%s: %w", op, err)
	}

	metrics.TokensIssuedTotal.WithLabelValues(typRefresh).Inc()

	return models.IssuedToken{Token: signed, ExpiresAt: exp.Truncate(time.Second)}, nil
}

// VerifyRefreshToken сверяет предъявленный refresh-токен с записью в кэше.
//
// Возвращает (userID, true, nil) только при точном совпадении.
// Отсутствие записи или несовпадение — (uuid.Nil, false, nil);
// ошибка означает сбой кэша.
func (s *Service) VerifyRefreshToken(ctx context.Context, candidate string, userID uuid.UUID) (uuid.UUID, bool, error) {
	const op = "service.token.VerifyRefreshToken"

	if candidate == "" || userID == uuid.Nil {
		return uuid.Nil, false, nil
	}

	stored, found, err := s.tokens.Get(ctx, refreshKey(userID))
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("%s: %w", op, err)
	}

	if !found || subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) != 1 {
		return uuid.Nil, false, nil
	}

	return userID, true, nil
}

// IssueTokenPair выпускает access и refresh для пользователя.
// При любой ошибке токены не возвращаются, cookie выставлять нечего.
func (s *Service) IssueTokenPair(ctx context.Context, userID uuid.UUID) (*models.TokenPair, error) {
	const op = "service.token.IssueTokenPair"

	access, err := s.IssueAccessToken(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refresh, err := s.IssueRefreshToken(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{Access: access, Refresh: refresh}, nil
}

// ParseAccessToken проверяет access-токен.
//
// Для просроченного токена с корректной подписью возвращается id
// пользователя вместе с ErrTokenExpired: по нему ищется refresh-запись.
func (s *Service) ParseAccessToken(token string) (uuid.UUID, error) {
	const op = "service.token.ParseAccessToken"

	c, err := s.parse(token, typAccess)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) && c != nil {
			uid, perr := uuid.Parse(c.UserID)
			if perr != nil {
				return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
			}
			return uid, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	uid, err := uuid.Parse(c.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return uid, nil
}

// ParseRefreshToken проверяет подпись и тип refresh-токена и возвращает
// id пользователя. Просроченный refresh-токен недействителен.
func (s *Service) ParseRefreshToken(token string) (uuid.UUID, error) {
	const op = "service.token.ParseRefreshToken"

	c, err := s.parse(token, typRefresh)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	uid, err := uuid.Parse(c.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return uid, nil
}

// RevokeRefreshToken удаляет запись rt:<userId>.
func (s *Service) RevokeRefreshToken(ctx context.Context, userID uuid.UUID) error {
	const op = "service.token.RevokeRefreshToken"

	if err := s.tokens.Del(ctx, refreshKey(userID)); err != nil {
		log.From(ctx).Error("refresh_revoke_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RotateRefreshToken обменивает действующий refresh-токен на новую пару.
//
// Неподписанный, чужой, просроченный или уже заменённый токен — ErrRefreshRejected.
func (s *Service) RotateRefreshToken(ctx context.Context, refresh string) (*models.TokenPair, uuid.UUID, error) {
	const op = "service.token.RotateRefreshToken"

	lg := log.From(ctx)

	uid, err := s.ParseRefreshToken(refresh)
	if err != nil {
		lg.Warn("refresh_token_unparsable", slog.String("op", op))
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrRefreshRejected)
	}

	_, ok, err := s.VerifyRefreshToken(ctx, refresh, uid)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		lg.Warn("refresh_token_mismatch",
			slog.String("op", op),
			slog.String("user_id", uid.String()),
		)
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrRefreshRejected)
	}

	pair, err := s.IssueTokenPair(ctx, uid)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return pair, uid, nil
}

func (s *Service) registered(userID uuid.UUID, now, exp time.Time, jti string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    s.cfg.Issuer,
		Subject:   userID.String(),
		Audience:  jwt.ClaimStrings(s.cfg.Audience),
		ID:        jti,
	}
}

func (s *Service) sign(c tokenClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(s.cfg.JWTSecret))
}

// parse проверяет подпись, issuer, audience, срок и тип токена.
// При ErrTokenExpired claims заполнены: подпись к этому моменту уже проверена.
func (s *Service) parse(token, typ string) (*tokenClaims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	c := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, c,
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, ErrInvalidToken
			}

			return []byte(s.cfg.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5*time.Second),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience...),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) &&
			!errors.Is(err, jwt.ErrTokenInvalidIssuer) &&
			!errors.Is(err, jwt.ErrTokenInvalidAudience) &&
			c.Type == typ {
			return c, ErrTokenExpired
		}

		return nil, ErrInvalidToken
	}

	if !parsed.Valid || c.Type != typ {
		return nil, ErrInvalidToken
	}

	return c, nil
}
