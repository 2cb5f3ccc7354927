package service

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-diary-auth/internal/models"
	"github.com/pribylovaa/go-diary-auth/internal/storage"
)

func TestLoginFederated(t *testing.T) {
	t.Parallel()

	svc, st, mem := newSvc(t)
	ctx := context.Background()
	u := activeUser(t, "g@gmail.com", "gina", "pw123")

	st.EXPECT().UserByEmail(gomock.Any(), "g@gmail.com").Return(u, nil)
	got, pair, err := svc.LoginFederated(ctx, "G@gmail.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.NotNil(t, pair)
	require.Equal(t, 1, mem.Len())

	st.EXPECT().UserByEmail(gomock.Any(), "new@gmail.com").Return(nil, storage.ErrNotFound)
	_, _, err = svc.LoginFederated(ctx, "new@gmail.com")
	require.ErrorIs(t, err, ErrUserNotFound)

	st.EXPECT().UserByEmail(gomock.Any(), "p@gmail.com").
		Return(&models.User{ID: uuid.New(), Email: "p@gmail.com"}, nil)
	_, _, err = svc.LoginFederated(ctx, "p@gmail.com")
	require.ErrorIs(t, err, ErrUserNotFound)

	_, _, err = svc.LoginFederated(ctx, "")
	require.ErrorIs(t, err, ErrInvalidEmail)
}
