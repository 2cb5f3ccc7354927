package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-diary-auth/internal/models"
	"github.com/pribylovaa/go-diary-auth/internal/storage"
)

func TestRegisterUser_OK(t *testing.T) {
	t.Parallel()

	svc, st, _ := newSvc(t)

	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *models.User) error {
			require.Equal(t, "alice@example.com", u.Email)
			require.Equal(t, "alice", u.Username)
			require.NotEqual(t, uuid.Nil, u.ID)
			require.True(t, CheckPassword(u.PasswordHash, "pw123"))
			return nil
		})

	u, err := svc.RegisterUser(context.Background(), " alice ", "Alice@Example.com", "pw123")
	require.NoError(t, err)
	require.Equal(t, "alice", u.Username)
	require.False(t, u.Pending())
}

func TestRegisterUser_Validation(t *testing.T) {
	t.Parallel()

	svc, _, _ := newSvc(t)
	ctx := context.Background()

	tests := []struct {
		name                      string
		username, email, password string
		want                      error
	}{
		{"bad_email", "alice", "not-an-email", "pw", ErrInvalidEmail},
		{"empty_email", "alice", "", "pw", ErrInvalidEmail},
		{"short_username", "al", "a@b.com", "pw", ErrInvalidUsername},
		{"username_with_at", "al@ce", "a@b.com", "pw", ErrInvalidUsername},
		{"empty_password", "alice", "a@b.com", "", ErrEmptyPassword},
		{"long_password", "alice", "a@b.com", strings.Repeat("x", 73), ErrPasswordTooLong},
	}

	for _, tt := range tests {
		_, err := svc.RegisterUser(ctx, tt.username, tt.email, tt.password)
		require.ErrorIs(t, err, tt.want, tt.name)
	}
}

func TestRegisterUser_Taken(t *testing.T) {
	t.Parallel()

	svc, st, _ := newSvc(t)

	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(storage.ErrAlreadyExists)

	_, err := svc.RegisterUser(context.Background(), "alice", "a@b.com", "pw123")
	require.ErrorIs(t, err, ErrUserTaken)
}

func TestVerifyCredentials_ByEmailAndUsername(t *testing.T) {
	t.Parallel()

	svc, st, _ := newSvc(t)
	ctx := context.Background()
	u := activeUser(t, "a@b.com", "alice", "pw123")

	st.EXPECT().UserByEmail(gomock.Any(), "a@b.com").Return(u, nil)
	got, err := svc.VerifyCredentials(ctx, "A@B.com", "pw123")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	st.EXPECT().UserByUsername(gomock.Any(), "alice").Return(u, nil)
	got, err = svc.VerifyCredentials(ctx, "alice", "pw123")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
}

func TestVerifyCredentials_Failures(t *testing.T) {
	t.Parallel()

	svc, st, mem := newSvc(t)
	ctx := context.Background()

	_, err := svc.VerifyCredentials(ctx, "", "pw")
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.VerifyCredentials(ctx, "alice", "")
	require.ErrorIs(t, err, ErrInvalidInput)

	st.EXPECT().UserByEmail(gomock.Any(), "x@y.com").Return(nil, storage.ErrNotFound)
	_, err = svc.VerifyCredentials(ctx, "x@y.com", "pw123")
	require.ErrorIs(t, err, ErrUserNotFound)

	u := activeUser(t, "a@b.com", "alice", "pw123")
	st.EXPECT().UserByEmail(gomock.Any(), "a@b.com").Return(u, nil)
	_, err = svc.VerifyCredentials(ctx, "a@b.com", "bad")
	require.ErrorIs(t, err, ErrPasswordMismatch)

	pending := &models.User{ID: uuid.New(), Email: "p@b.com"}
	st.EXPECT().UserByEmail(gomock.Any(), "p@b.com").Return(pending, nil)
	_, err = svc.VerifyCredentials(ctx, "p@b.com", "anything")
	require.ErrorIs(t, err, ErrPasswordMismatch)

	boom := errors.New("db down")
	st.EXPECT().UserByUsername(gomock.Any(), "bob").Return(nil, boom)
	_, err = svc.VerifyCredentials(ctx, "bob", "pw")
	require.ErrorIs(t, err, boom)

	require.Equal(t, 0, mem.Len(), "неудачный вход не трогает кэш")
}
