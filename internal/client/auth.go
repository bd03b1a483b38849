package client

import (
	"context"
	"net/http"

	"github.com/actionculture/heritage/internal/api"
)

// Login exchanges credentials for an access token. On success the token is
// kept and sent with every later request.
func (c *Client) Login(ctx context.Context, email, password string) (*api.LoginResponse, error) {
	r, err := jsonRequest(http.MethodPost, endpointLogin, api.LoginRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	var resp api.LoginResponse
	if err := c.do(ctx, r, &resp); err != nil {
		return nil, err
	}

	c.SetToken(resp.AccessToken)
	return &resp, nil
}
