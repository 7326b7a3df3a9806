package devbackend

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sokoni-app/sokoni_mobile/internal/backend"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// login responses do not leak which accounts exist.
	ErrInvalidCredentials = errors.New("devbackend: invalid email or password")
	// ErrWeakPassword rejects registrations below the minimum length.
	ErrWeakPassword = errors.New("devbackend: password must be at least 8 characters")
)

// Service manages devbackend account lifecycle.
type Service struct {
	repo   Repository
	tokens *TokenIssuer
}

// NewService creates a new account service.
func NewService(repo Repository, tokens *TokenIssuer) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Register creates a new account and issues its first token.
func (s *Service) Register(ctx context.Context, email, password, displayName string) (backend.AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return backend.AuthResult{}, errors.New("devbackend: a valid email is required")
	}
	if len(password) < 8 {
		return backend.AuthResult{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return backend.AuthResult{}, err
	}

	user := User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return backend.AuthResult{}, err
	}

	return s.issue(user)
}

// Login verifies credentials and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (backend.AuthResult, error) {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return backend.AuthResult{}, ErrInvalidCredentials
	}
	if len(user.PasswordHash) == 0 {
		return backend.AuthResult{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return backend.AuthResult{}, ErrInvalidCredentials
	}
	return s.issue(user)
}

// GoogleAuth finds or creates the account behind a federated token and
// issues a session token for it.
func (s *Service) GoogleAuth(ctx context.Context, idToken string) (backend.AuthResult, error) {
	email, name, err := googleClaims(idToken)
	if err != nil {
		return backend.AuthResult{}, err
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		user = User{
			ID:            uuid.New().String(),
			Email:         email,
			DisplayName:   name,
			EmailVerified: true,
			GoogleSubject: email,
			CreatedAt:     time.Now().UTC(),
		}
		if err := s.repo.Create(ctx, user); err != nil {
			return backend.AuthResult{}, err
		}
	} else if err != nil {
		return backend.AuthResult{}, err
	}

	return s.issue(user)
}

// Profile returns the account record for the token subject.
func (s *Service) Profile(ctx context.Context, userID string) (backend.UserRecord, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return backend.UserRecord{}, err
	}
	return user.Record(), nil
}

// ConfirmIdentity durably records a passed identity verification.
func (s *Service) ConfirmIdentity(ctx context.Context, userID string) error {
	return s.repo.SetIdentityVerified(ctx, userID)
}

func (s *Service) issue(user User) (backend.AuthResult, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return backend.AuthResult{}, err
	}
	return backend.AuthResult{Token: token, User: user.Record()}, nil
}
