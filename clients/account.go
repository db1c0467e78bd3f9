package clients

import (
	"context"
	"net/http"
)

func (c *RaffleClient) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/account/register", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *RaffleClient) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/account/login", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
