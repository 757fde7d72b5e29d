package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

// GoTrueProvider talks to the Supabase auth REST API.
type GoTrueProvider struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewGoTrueProvider(projectURL, anonKey string) *GoTrueProvider {
	return &GoTrueProvider{
		BaseURL:    strings.TrimRight(projectURL, "/") + "/auth/v1",
		APIKey:     anonKey,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type gotrueUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
	CreatedAt    time.Time      `json:"created_at"`
}

func (u gotrueUser) identity() (*Identity, error) {
	id, err := uuid.Parse(u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse auth user id %q: %w", u.ID, err)
	}
	return &Identity{ID: id, Email: u.Email, Metadata: u.UserMetadata, CreatedAt: u.CreatedAt}, nil
}

type gotrueError struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorDescription string `json:"error_description"`
	Error            string `json:"error"`
}

func (e gotrueError) text() string {
	for _, s := range []string{e.Msg, e.Message, e.ErrorDescription, e.Error} {
		if s != "" {
			return s
		}
	}
	return "Authentication request rejected"
}

func (p *GoTrueProvider) post(ctx context.Context, path, bearer string, body any, out any) (int, error) {
	var rdr io.Reader
	if body != nil {
		buf, err := sonic.Marshal(body)
		if err != nil {
			return 0, err
		}
		rdr = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+path, rdr)
	if err != nil {
		return 0, fmt.Errorf("failed to build auth request: %w", err)
	}
	req.Header.Set("apikey", p.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to reach auth service: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= 400 {
		var ge gotrueError
		_ = sonic.Unmarshal(raw, &ge)
		return resp.StatusCode, &RejectedError{Message: ge.text()}
	}
	if out != nil && len(raw) > 0 {
		if err := sonic.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode auth response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func (p *GoTrueProvider) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*Identity, error) {
	// signup answers with the user, or with a session wrapping it when autoconfirm is on
	var out struct {
		gotrueUser
		User *gotrueUser `json:"user"`
	}
	body := map[string]any{"email": email, "password": password, "data": metadata}
	if _, err := p.post(ctx, "/signup", "", body, &out); err != nil {
		return nil, err
	}
	if out.User != nil {
		return out.User.identity()
	}
	return out.gotrueUser.identity()
}

func (p *GoTrueProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var out struct {
		AccessToken string     `json:"access_token"`
		ExpiresIn   int        `json:"expires_in"`
		ExpiresAt   int64      `json:"expires_at"`
		User        gotrueUser `json:"user"`
	}
	body := map[string]any{"email": email, "password": password}
	if _, err := p.post(ctx, "/token?grant_type=password", "", body, &out); err != nil {
		return nil, err
	}
	ident, err := out.User.identity()
	if err != nil {
		return nil, err
	}
	exp := time.Unix(out.ExpiresAt, 0).UTC()
	if out.ExpiresAt == 0 {
		exp = time.Now().UTC().Add(time.Duration(out.ExpiresIn) * time.Second)
	}
	return &Session{AccessToken: out.AccessToken, ExpiresAt: exp, User: *ident}, nil
}

func (p *GoTrueProvider) SignOut(ctx context.Context, accessToken string) error {
	_, err := p.post(ctx, "/logout", accessToken, nil, nil)
	return err
}
