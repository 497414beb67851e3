package portal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Credentials are the sign-in form fields.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login signs in and stores the returned access token on the client.
func (c *Client) Login(ctx context.Context, creds Credentials) (string, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := c.validate.Struct(creds); err != nil {
		return "", credentialsError(err)
	}

	resp, err := c.send(ctx, request{
		op:     "login",
		method: "POST",
		url:    c.apiBase + "/api/auth/login",
		body:   creds,
	})
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	var payload struct {
		AccessToken string `json:"access_token"`
		Token       string `json:"token"`
	}
	data, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(data, &payload)

	token := firstNonEmpty(payload.AccessToken, payload.Token)
	if token == "" {
		for _, ck := range resp.Cookies() {
			if ck.Name == SessionCookie {
				token = ck.Value
				break
			}
		}
	}
	if token == "" {
		return "", &FetchError{Status: resp.StatusCode, Message: "Login response did not include a token"}
	}

	c.SetToken(token)
	return token, nil
}

// Logout ends the backend session and forgets the token.
// The local token is cleared even if the backend call fails.
func (c *Client) Logout(ctx context.Context) error {
	defer c.SetToken("")
	if c.Token() == "" {
		return nil
	}
	return c.sendJSON(ctx, request{op: "logout", method: "POST", url: c.apiBase + "/api/auth/logout"}, nil)
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context) (User, error) {
	var raw rawUser
	if err := c.sendJSON(ctx, request{op: "me", method: "GET", url: c.apiBase + "/api/auth/me"}, &raw); err != nil {
		return User{}, err
	}
	return raw.normalize(), nil
}

func credentialsError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("invalid credentials: %w", err)
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "email":
		return fmt.Errorf("%s must be a valid email address", field)
	default:
		return fmt.Errorf("%s is invalid", field)
	}
}
