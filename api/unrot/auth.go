package unrot

import (
	"context"
)

// endpoint: POST /auth/login
// endpoint: POST /auth/register

type AuthLogin_Input struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthRegister_Input struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type AuthResponse struct {
	AccessToken      string `json:"accessToken"`
	TokenType        string `json:"tokenType"`
	ExpiresInSeconds int64  `json:"expiresInSeconds"`
}

func AuthLogin(ctx context.Context, c RestClient, input *AuthLogin_Input) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.RestDo(ctx, Procedure, "/auth/login", nil, input, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func AuthRegister(ctx context.Context, c RestClient, input *AuthRegister_Input) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.RestDo(ctx, Procedure, "/auth/register", nil, input, &out); err != nil {
		return nil, err
	}

	return &out, nil
}
