package client

import (
	"context"
	"net/http"
)

type LoginRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

// Login exchanges a name and role for a bearer token.
func (c *Client) Login(ctx context.Context, name, role string) (string, error) {
	var resp LoginResponse
	req := LoginRequest{Name: name, Role: role}
	if err := c.do(ctx, http.MethodPost, "/auth/login", req, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}
