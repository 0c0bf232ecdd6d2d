package auth

import "context"

type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (TokenResponse, error)
	// Logout revokes the presented access token.
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context) (MeResponse, error)
	// Register is reserved to administrators.
	Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error)
	IssueSSEToken(ctx context.Context) (SSETokenResponse, error)
}
