package google

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type UserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

type ItfGoogle interface {
	AuthCodeURL(state string) string
	GetUserInfo(ctx context.Context, code string) (UserInfo, error)
}

type googleProvider struct {
	config *oauth2.Config
}

// New returns nil when GOOGLE_CLIENT_ID is not configured, which disables
// Google sign in.
func New() ItfGoogle {
	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	if clientID == "" {
		return nil
	}

	redirectURL := os.Getenv("GOOGLE_REDIRECT_URL")
	if redirectURL == "" {
		redirectURL = "http://localhost:3000/auth/google/callback"
	}

	return &googleProvider{config: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  redirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}}
}

func (g *googleProvider) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (g *googleProvider) GetUserInfo(ctx context.Context, code string) (UserInfo, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return UserInfo{}, fmt.Errorf("exchange code: %w", err)
	}

	resp, err := g.config.Client(ctx, token).Get(userInfoURL)
	if err != nil {
		return UserInfo{}, fmt.Errorf("get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return UserInfo{}, fmt.Errorf("get user info: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return UserInfo{}, err
	}

	var info UserInfo
	if err := jsoniter.Unmarshal(body, &info); err != nil {
		return UserInfo{}, err
	}
	return info, nil
}
