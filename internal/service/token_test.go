package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-diary-auth/internal/cache"
)

func TestIssueAccessToken_RoundTrip(t *testing.T) {
	t.Parallel()

	svc, _, mem := newSvc(t)
	uid := uuid.New()

	tok, err := svc.IssueAccessToken(context.Background(), uid)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)
	require.WithinDuration(t, time.Now().Add(15*time.Minute), tok.ExpiresAt, 2*time.Second)
	require.Equal(t, 0, mem.Len(), "access-токен не пишется в кэш")

	got, err := svc.ParseAccessToken(tok.Token)
	require.NoError(t, err)
	require.Equal(t, uid, got)
}

func TestParseAccessToken_Expired_ReturnsUserID(t *testing.T) {
	t.Parallel()

	svc, _, _ := newSvc(t)
	uid := uuid.New()

	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	tok, err := svc.IssueAccessToken(context.Background(), uid)
	require.NoError(t, err)

	got, err := svc.ParseAccessToken(tok.Token)
	require.ErrorIs(t, err, ErrTokenExpired)
	require.Equal(t, uid, got)
}

func TestParseAccessToken_Invalid(t *testing.T) {
	t.Parallel()

	svc, _, _ := newSvc(t)
	ctx := context.Background()
	uid := uuid.New()

	// Refresh вместо access.
	rt, err := svc.IssueRefreshToken(ctx, uid)
	require.NoError(t, err)
	_, err = svc.ParseAccessToken(rt.Token)
	require.ErrorIs(t, err, ErrInvalidToken)

	// Чужой секрет.
	other, _, _ := newSvc(t)
	other.cfg.JWTSecret = "other-secret"
	at, err := other.IssueAccessToken(ctx, uid)
	require.NoError(t, err)
	_, err = svc.ParseAccessToken(at.Token)
	require.ErrorIs(t, err, ErrInvalidToken)

	// Просроченный и с чужой подписью — всё равно invalid, не expired.
	other.now = func() time.Time { return time.Now().Add(-time.Hour) }
	at, err = other.IssueAccessToken(ctx, uid)
	require.NoError(t, err)
	_, err = svc.ParseAccessToken(at.Token)
	require.ErrorIs(t, err, ErrInvalidToken)

	// Другой алгоритм.
	none := jwt.NewWithClaims(jwt.SigningMethodNone, tokenClaims{UserID: uid.String(), Type: typAccess})
	s, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ParseAccessToken(s)
	require.ErrorIs(t, err, ErrInvalidToken)

	for _, bad := range []string{"", "garbage", "a.b.c"} {
		_, err = svc.ParseAccessToken(bad)
		require.ErrorIs(t, err, ErrInvalidToken, bad)
	}
}

func TestIssueRefreshToken_SingleValidPerUser(t *testing.T) {
	t.Parallel()

	svc, _, mem := newSvc(t)
	ctx := context.Background()
	uid := uuid.New()

	first, err := svc.IssueRefreshToken(ctx, uid)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(720*time.Hour), first.ExpiresAt, 2*time.Second)

	stored, ok, err := mem.Get(ctx, "rt:"+uid.String())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, first.Token, stored)

	second, err := svc.IssueRefreshToken(ctx, uid)
	require.NoError(t, err)
	require.NotEqual(t, first.Token, second.Token)

	_, ok, err = svc.VerifyRefreshToken(ctx, first.Token, uid)
	require.NoError(t, err)
	require.False(t, ok, "прежний refresh-токен отозван")

	got, ok, err := svc.VerifyRefreshToken(ctx, second.Token, uid)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uid, got)

	require.Equal(t, 1, mem.Len())
}

func TestVerifyRefreshToken_Cases(t *testing.T) {
	t.Parallel()

	svc, _, _ := newSvc(t)
	ctx := context.Background()
	uid := uuid.New()

	// Записи нет.
	got, ok, err := svc.VerifyRefreshToken(ctx, "whatever", uid)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, uuid.Nil, got)

	rt, err := svc.IssueRefreshToken(ctx, uid)
	require.NoError(t, err)

	// Токен другого пользователя.
	_, ok, err = svc.VerifyRefreshToken(ctx, rt.Token, uuid.New())
	require.NoError(t, err)
	require.False(t, ok)

	// Пустой кандидат.
	_, ok, err = svc.VerifyRefreshToken(ctx, "", uid)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifyRefreshToken_CacheError(t *testing.T) {
	t.Parallel()

	svc, _ := newSvcWithCache(t, &brokenCache{TokenCache: cache.NewMemory(), failGet: true})

	_, ok, err := svc.VerifyRefreshToken(context.Background(), "tok", uuid.New())
	require.ErrorIs(t, err, errCacheDown)
	require.False(t, ok)
}

func TestIssueTokenPair_CacheFailure_NoTokens(t *testing.T) {
	t.Parallel()

	for name, bc := range map[string]*brokenCache{
		"get": {failGet: true},
		"set": {failSet: true},
	} {
		bc.TokenCache = cache.NewMemory()
		svc, _ := newSvcWithCache(t, bc)

		pair, err := svc.IssueTokenPair(context.Background(), uuid.New())
		require.ErrorIs(t, err, errCacheDown, name)
		require.Nil(t, pair, name)
	}
}

func TestIssueRefreshToken_DelFailure(t *testing.T) {
	t.Parallel()

	mem := cache.NewMemory()
	bc := &brokenCache{TokenCache: mem}
	svc, _ := newSvcWithCache(t, bc)
	ctx := context.Background()
	uid := uuid.New()

	_, err := svc.IssueRefreshToken(ctx, uid)
	require.NoError(t, err)

	bc.failDel = true
	_, err = svc.IssueRefreshToken(ctx, uid)
	require.ErrorIs(t, err, errCacheDown)
}

func TestRotateRefreshToken(t *testing.T) {
	t.Parallel()

	svc, _, _ := newSvc(t)
	ctx := context.Background()
	uid := uuid.New()

	pair, err := svc.IssueTokenPair(ctx, uid)
	require.NoError(t, err)

	rotated, got, err := svc.RotateRefreshToken(ctx, pair.Refresh.Token)
	require.NoError(t, err)
	require.Equal(t, uid, got)
	require.NotEqual(t, pair.Refresh.Token, rotated.Refresh.Token)

	// Повторное предъявление старого токена отклоняется.
	_, _, err = svc.RotateRefreshToken(ctx, pair.Refresh.Token)
	require.ErrorIs(t, err, ErrRefreshRejected)

	// Access-токен вместо refresh.
	_, _, err = svc.RotateRefreshToken(ctx, rotated.Access.Token)
	require.ErrorIs(t, err, ErrRefreshRejected)

	_, _, err = svc.RotateRefreshToken(ctx, "garbage")
	require.ErrorIs(t, err, ErrRefreshRejected)
}

func TestRotateRefreshToken_ExpiredRefresh(t *testing.T) {
	t.Parallel()

	svc, _, _ := newSvc(t)
	ctx := context.Background()

	svc.now = func() time.Time { return time.Now().Add(-800 * time.Hour) }
	rt, err := svc.IssueRefreshToken(ctx, uuid.New())
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Now().UTC() }

	_, _, err = svc.RotateRefreshToken(ctx, rt.Token)
	require.ErrorIs(t, err, ErrRefreshRejected)
}

func TestRevokeRefreshToken(t *testing.T) {
	t.Parallel()

	svc, _, _ := newSvc(t)
	ctx := context.Background()
	uid := uuid.New()

	rt, err := svc.IssueRefreshToken(ctx, uid)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeRefreshToken(ctx, uid))

	_, ok, err := svc.VerifyRefreshToken(ctx, rt.Token, uid)
	require.NoError(t, err)
	require.False(t, ok)

	// Повторный отзыв не ошибка.
	require.NoError(t, svc.RevokeRefreshToken(ctx, uid))
}
