package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-diary-auth/internal/service"
)

func TestToHTTP_DomainMapping(t *testing.T) {
	t.Parallel()

	wrap := func(err error) error { return fmt.Errorf("service.auth.Op: %w", err) }

	tcs := []struct {
		name       string
		in         error
		wantStatus int
		wantCode   string
	}{
		{"invalid_json", ErrInvalidJSON, http.StatusBadRequest, "invalid_argument"},
		{"invalid_input", wrap(service.ErrInvalidInput), http.StatusBadRequest, "invalid_argument"},
		{"invalid_email", wrap(service.ErrInvalidEmail), http.StatusBadRequest, "invalid_argument"},
		{"empty_password", wrap(service.ErrEmptyPassword), http.StatusBadRequest, "invalid_argument"},
		{"long_password", wrap(service.ErrPasswordTooLong), http.StatusBadRequest, "invalid_argument"},
		{"bad_username", wrap(service.ErrInvalidUsername), http.StatusBadRequest, "invalid_argument"},
		{"user_not_found", wrap(service.ErrUserNotFound), http.StatusNotFound, "user_not_found"},
		{"verification", wrap(service.ErrVerificationNotFound), http.StatusNotFound, "invalid_verification_token"},
		{"password_mismatch", wrap(service.ErrPasswordMismatch), http.StatusUnauthorized, "invalid_password"},
		{"invalid_token", wrap(service.ErrInvalidToken), http.StatusUnauthorized, "invalid_token"},
		{"refresh_rejected", wrap(service.ErrRefreshRejected), http.StatusForbidden, "refresh_token_invalid"},
		{"not_verified", wrap(service.ErrEmailNotVerified), http.StatusForbidden, "email_not_verified"},
		{"forbidden", wrap(service.ErrForbidden), http.StatusForbidden, "permission_denied"},
		{"taken", wrap(service.ErrUserTaken), http.StatusConflict, "already_exists"},
		{"canceled", wrap(context.Canceled), StatusClientClosedRequest, "canceled"},
		{"deadline", wrap(context.DeadlineExceeded), http.StatusGatewayTimeout, "deadline_exceeded"},
		{"unknown", errors.New("pg: connection refused"), http.StatusInternalServerError, "internal"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			gotStatus, resp := ToHTTP(tc.in)
			require.Equal(t, tc.wantStatus, gotStatus)
			require.Equal(t, tc.wantCode, resp.Error.Code)
			require.NotEmpty(t, resp.Error.Message)
		})
	}
}

func TestToHTTP_NilError_Returns500Internal(t *testing.T) {
	t.Parallel()

	gotStatus, resp := ToHTTP(nil)
	require.Equal(t, http.StatusInternalServerError, gotStatus)
	require.Equal(t, "internal", resp.Error.Code)
	require.Equal(t, "internal error", resp.Error.Message)
}

func TestToHTTP_Rejection(t *testing.T) {
	t.Parallel()

	gotStatus, resp := ToHTTP(fmt.Errorf("mw: %w", &Rejection{
		Status:  http.StatusUnauthorized,
		Code:    "access_token_expired",
		Message: "access token expired",
	}))
	require.Equal(t, http.StatusUnauthorized, gotStatus)
	require.Equal(t, "access_token_expired", resp.Error.Code)
	require.Equal(t, "access token expired", resp.Error.Message)
}

func TestWriteError_DoesNotLeakInternals(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "rid-1")

	WriteError(rr, req, errors.New("dial tcp 10.0.0.1:5432: secret detail"))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	require.NotContains(t, rr.Body.String(), "secret detail")

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "internal", body.Error.Code)
	require.Equal(t, "rid-1", body.Error.RequestID)
}
