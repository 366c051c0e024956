package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	stateCookieName = "oauth_state"
	userinfoURL     = "https://openidconnect.googleapis.com/v1/userinfo"
)

var ErrInvalidState = errors.New("invalid_oauth_state")

// GoogleUser est le profil OpenID Connect renvoyé par Google.
type GoogleUser struct {
	Subject   string `json:"sub"`
	Email     string `json:"email"`
	Verified  bool   `json:"email_verified"`
	Name      string `json:"name"`
	GivenName string `json:"given_name"`
	Family    string `json:"family_name"`
	Picture   string `json:"picture"`
}

// OAuth porte la configuration du fournisseur d'identité Google.
type OAuth struct {
	cfg *oauth2.Config
}

// NewGoogleOAuth construit le flux OAuth. Retourne nil si le client n'est
// pas configuré : la connexion Google est alors simplement désactivée.
func NewGoogleOAuth(clientID, clientSecret, redirectURL string) *OAuth {
	if clientID == "" || clientSecret == "" {
		return nil
	}
	return &OAuth{cfg: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}}
}

// Begin pose le cookie anti-CSRF et redirige vers la page de consentement.
func (o *OAuth) Begin(w http.ResponseWriter, r *http.Request) {
	state := randomState()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(10 * time.Minute),
	})
	http.Redirect(w, r, o.cfg.AuthCodeURL(state), http.StatusSeeOther)
}

// Complete vérifie l'état, échange le code et récupère le profil.
func (o *OAuth) Complete(ctx context.Context, r *http.Request) (*GoogleUser, error) {
	c, err := r.Cookie(stateCookieName)
	if err != nil || c.Value == "" || c.Value != r.URL.Query().Get("state") {
		return nil, ErrInvalidState
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		return nil, errors.New("missing_oauth_code")
	}
	token, err := o.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("oauth exchange: %w", err)
	}
	resp, err := o.cfg.Client(ctx, token).Get(userinfoURL)
	if err != nil {
		return nil, fmt.Errorf("oauth userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oauth userinfo: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	var gu GoogleUser
	if err := json.Unmarshal(body, &gu); err != nil {
		return nil, err
	}
	if gu.Email == "" {
		return nil, errors.New("missing_oauth_email")
	}
	return &gu, nil
}

func randomState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
