package api

import (
	"context"
	"net/http"

	"github.com/and161185/homeservices/internal/model"
)

// Login exchanges credentials for a token pair and the user record.
func (c *Client) Login(ctx context.Context, cr model.Credentials) (model.AuthResponse, error) {
	var out model.AuthResponse
	err := c.do(ctx, http.MethodPost, "/login", nil, cr, &out)
	return out, err
}

// Register creates an account and signs it in.
func (c *Client) Register(ctx context.Context, r model.Registration) (model.AuthResponse, error) {
	var out model.AuthResponse
	err := c.do(ctx, http.MethodPost, "/register", nil, r, &out)
	return out, err
}

// Refresh trades a refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (model.RefreshResponse, error) {
	var out model.RefreshResponse
	body := struct {
		RefreshToken string `json:"refresh_token"`
	}{refreshToken}
	err := c.do(ctx, http.MethodPost, "/refresh", nil, body, &out)
	return out, err
}

// Logout asks the backend to revoke the current session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/logout", nil, nil, nil)
}
