package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-diary-auth/internal/auth"
	"github.com/pribylovaa/go-diary-auth/internal/config"
	apierrors "github.com/pribylovaa/go-diary-auth/internal/errors"
	"github.com/pribylovaa/go-diary-auth/internal/models"
	"github.com/pribylovaa/go-diary-auth/internal/oauth"
)

func TestSetTokenCookies_Attributes(t *testing.T) {
	t.Parallel()

	h := &Handlers{opts: Options{Cookies: config.CookieConfig{Domain: "example.com", Secure: true, SameSite: "strict"}}}

	exp := time.Now().Add(15 * time.Minute).UTC().Truncate(time.Second)
	rec := httptest.NewRecorder()
	h.setTokenCookies(rec, &models.TokenPair{
		Access:  models.IssuedToken{Token: "a", ExpiresAt: exp},
		Refresh: models.IssuedToken{Token: "r", ExpiresAt: exp.Add(time.Hour)},
	})

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)

	for _, c := range cookies {
		require.True(t, c.HttpOnly)
		require.True(t, c.Secure)
		require.Equal(t, http.SameSiteStrictMode, c.SameSite)
		require.Equal(t, "example.com", c.Domain)
		require.Equal(t, "/", c.Path)
	}

	require.Equal(t, auth.AccessCookie, cookies[0].Name)
	require.True(t, exp.Equal(cookies[0].Expires))
	require.Equal(t, auth.RefreshCookie, cookies[1].Name)
}

func TestClearTokenCookies(t *testing.T) {
	t.Parallel()

	h := &Handlers{}
	rec := httptest.NewRecorder()
	h.clearTokenCookies(rec)

	for _, c := range rec.Result().Cookies() {
		require.Empty(t, c.Value)
		require.Equal(t, -1, c.MaxAge)
	}
}

// consentOnly — провайдер, у которого вызывается только AuthCodeURL.
type consentOnly struct{ oauth.Provider }

func (consentOnly) AuthCodeURL(state string) string { return "https://idp.test/auth?state=" + state }

func TestStateCookie_SameAttributesOnSetAndClear(t *testing.T) {
	t.Parallel()

	h := &Handlers{opts: Options{
		BasePath:       "/api",
		Cookies:        config.CookieConfig{Secure: true, SameSite: "strict"},
		Google:         consentOnly{},
		GoogleRedirect: config.GoogleConfig{FailureRedirect: "/login?failed=1"},
	}}

	rec := httptest.NewRecorder()
	h.GoogleLogin(rec, httptest.NewRequest(http.MethodGet, "/api/users/google", nil))
	set := rec.Result().Cookies()
	require.Len(t, set, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/users/google/callback?state=other&code=x", nil)
	req.AddCookie(&http.Cookie{Name: set[0].Name, Value: set[0].Value})
	rec = httptest.NewRecorder()
	h.GoogleCallback(rec, req)
	require.Equal(t, "/login?failed=1", rec.Header().Get("Location"))

	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	require.Empty(t, cleared[0].Value)
	require.Equal(t, -1, cleared[0].MaxAge)

	for _, c := range []*http.Cookie{set[0], cleared[0]} {
		require.Equal(t, "oauth_state", c.Name)
		require.Equal(t, "/api/users/google", c.Path)
		require.True(t, c.HttpOnly)
		require.True(t, c.Secure)
		require.Equal(t, http.SameSiteLaxMode, c.SameSite)
	}
}

func TestDecodeStrict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"ok", `{"email":"a@example.com"}`, false},
		{"unknown field", `{"email":"a@example.com","admin":true}`, true},
		{"broken", `{"email":`, true},
		{"too large", `{"email":"` + strings.Repeat("a", maxBody) + `"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var in models.EmailRequest
			err := decodeStrict(httptest.NewRecorder(), r, &in)
			if !tt.wantErr {
				require.NoError(t, err)
				require.Equal(t, "a@example.com", in.Email)
				return
			}
			require.True(t, errors.Is(err, apierrors.ErrInvalidJSON))
		})
	}
}

func TestIdentity_Missing(t *testing.T) {
	t.Parallel()

	_, err := identity(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Error(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(auth.WithIdentity(r.Context(), auth.Identity{DisplayName: "x"}))
	id, err := identity(r)
	require.NoError(t, err)
	require.Equal(t, "x", id.DisplayName)
}
