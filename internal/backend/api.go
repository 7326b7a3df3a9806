package backend

import "context"

// API is the first-party marketplace backend as the client core sees it.
// The session owns the bearer token and passes it explicitly to the
// authenticated calls.
type API interface {
	Register(ctx context.Context, email, password, displayName string) (AuthResult, error)
	Login(ctx context.Context, email, password string) (AuthResult, error)
	GoogleAuth(ctx context.Context, idToken string) (AuthResult, error)
	GetProfile(ctx context.Context, token string) (UserRecord, error)
	VerifyIdentity(ctx context.Context, token string) error
}
