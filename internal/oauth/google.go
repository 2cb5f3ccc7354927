// oauth — вход через внешнего провайдера (Google OAuth2, authorization code).
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// ErrEmailNotVerified — провайдер не подтвердил e-mail пользователя.
var ErrEmailNotVerified = errors.New("provider email not verified")

// UserInfo — профиль пользователя у провайдера.
type UserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// Provider — OAuth2-провайдер.
type Provider interface {
	// AuthCodeURL — адрес страницы согласия с переданным state.
	AuthCodeURL(state string) string
	// Exchange меняет code на токен провайдера и читает профиль.
	Exchange(ctx context.Context, code string) (*UserInfo, error)
}

// Google — Provider поверх x/oauth2 с эндпоинтами Google.
type Google struct {
	cfg         *oauth2.Config
	userInfoURL string
}

// GoogleOptions — параметры OAuth2-клиента Google.
type GoogleOptions struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func NewGoogle(opts GoogleOptions) *Google {
	return &Google{
		cfg: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURL,
			Endpoint:     endpoints.Google,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
		},
		userInfoURL: googleUserInfoURL,
	}
}

func (g *Google) AuthCodeURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (g *Google) Exchange(ctx context.Context, code string) (*UserInfo, error) {
	const op = "oauth.google.Exchange"

	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: exchange code: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := g.cfg.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: user info request: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%s: user info status: %s", op, resp.Status)
	}

	var info UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%s: decode user info: %w", op, err)
	}

	if info.Email == "" || !info.VerifiedEmail {
		return nil, fmt.Errorf("%s: %w", op, ErrEmailNotVerified)
	}

	return &info, nil
}

var _ Provider = (*Google)(nil)
