package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"movienight-cli/model"
)

const (
	tokenPath        = "auth/token/"
	tokenRefreshPath = "auth/token/refresh/"
	googleLoginPath  = "auth/google/"
	usersPath        = "auth/users/"
)

// ObtainToken exchanges credentials for an access/refresh token pair.
func (c *Client) ObtainToken(ctx context.Context, credentials model.Credentials) (model.Tokens, error) {
	if strings.TrimSpace(credentials.Email) == "" || credentials.Password == "" {
		return model.Tokens{}, errors.New("email and password are required")
	}
	var tokens model.Tokens
	if err := c.Post(ctx, tokenPath, credentials, &tokens); err != nil {
		return model.Tokens{}, err
	}
	if tokens.Access == "" {
		return model.Tokens{}, errors.New("token response did not include an access token")
	}
	return tokens, nil
}

// RefreshToken exchanges a refresh token for a new access token. The refresh
// token in the result is empty unless the server rotated it.
func (c *Client) RefreshToken(ctx context.Context, refresh string) (model.Tokens, error) {
	if refresh == "" {
		return model.Tokens{}, errors.New("refresh token is required")
	}
	var tokens model.Tokens
	body := map[string]string{"refresh": refresh}
	if err := c.Post(ctx, tokenRefreshPath, body, &tokens); err != nil {
		return model.Tokens{}, err
	}
	if tokens.Access == "" {
		return model.Tokens{}, errors.New("refresh response did not include an access token")
	}
	return tokens, nil
}

// GoogleLogin exchanges an identity-provider ID token for a token pair.
func (c *Client) GoogleLogin(ctx context.Context, idToken string) (model.Tokens, error) {
	if strings.TrimSpace(idToken) == "" {
		return model.Tokens{}, errors.New("id token is required")
	}
	var tokens model.Tokens
	body := map[string]string{"id_token": idToken}
	if err := c.Post(ctx, googleLoginPath, body, &tokens); err != nil {
		return model.Tokens{}, err
	}
	if tokens.Access == "" {
		return model.Tokens{}, errors.New("token response did not include an access token")
	}
	return tokens, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, registration model.Registration) (model.User, error) {
	var user model.User
	if err := c.Post(ctx, usersPath, registration, &user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

// CurrentUser fetches the profile of the signed-in user. The endpoint answers
// with a page, a bare list, or a single object depending on server settings.
func (c *Client) CurrentUser(ctx context.Context) (model.User, error) {
	var raw json.RawMessage
	if err := c.Get(ctx, usersPath, nil, &raw); err != nil {
		return model.User{}, err
	}

	var page model.Page[model.User]
	if err := json.Unmarshal(raw, &page); err == nil && len(page.Results) > 0 {
		return page.Results[0], nil
	}
	var list []model.User
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return model.User{}, errors.New("user profile not found")
		}
		return list[0], nil
	}
	var user model.User
	if err := json.Unmarshal(raw, &user); err == nil && user.Email != "" {
		return user, nil
	}
	return model.User{}, errors.New("user profile not found")
}
