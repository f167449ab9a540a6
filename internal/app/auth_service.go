// Package app holds the application services and business logic.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"moviecatalog/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials indicates that the login identifier or password was incorrect.
	ErrInvalidCredentials = &domain.AuthError{Message: "invalid credentials"}
	// ErrInvalidToken indicates a malformed, forged or orphaned session token.
	ErrInvalidToken = &domain.AuthError{Message: "invalid session token"}
	// ErrSessionExpired indicates that the session token has expired.
	ErrSessionExpired = &domain.AuthError{Message: "session expired"}
)

// Session is the outcome of a successful signup or login.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// AuthService handles registration, login and session token verification.
type AuthService struct {
	users      domain.UserRepository
	tokens     *TokenSigner
	bcryptCost int
}

// NewAuthService creates a new authentication service.
func NewAuthService(users domain.UserRepository, tokens *TokenSigner) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// TokenTTL returns the lifetime of issued tokens.
func (s *AuthService) TokenTTL() time.Duration { return s.tokens.TTL() }

// Register validates the input, creates a user and opens a session for it.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*Session, error) {
	user, err := s.CreateUser(ctx, username, email, password, false)
	if err != nil {
		return nil, err
	}
	return s.openSession(user)
}

// CreateUser validates the input and persists a user without opening a
// session. The operator CLI uses it to create admin accounts.
func (s *AuthService) CreateUser(ctx context.Context, username, email, password string, isAdmin bool) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	if err := domain.ValidateRegistration(username, email, password); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("lookup username: %w", err)
	}
	if existing != nil {
		return nil, &domain.ConflictError{Field: "username", Message: "username already exists"}
	}
	existing, err = s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if existing != nil {
		return nil, &domain.ConflictError{Field: "email", Message: "email already exists"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, domain.NewUser{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsAdmin:      isAdmin,
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login authenticates by email (when identifier contains "@") or username.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var (
		user *domain.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.users.GetByEmail(ctx, normalizeEmail(identifier))
	} else {
		user, err = s.users.GetByUsername(ctx, identifier)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.openSession(user)
}

// LoginWithEmail opens a session for an identity already verified by an
// external provider (SSO), provisioning an account on first sight.
func (s *AuthService) LoginWithEmail(ctx context.Context, email string) (*Session, error) {
	email = normalizeEmail(email)
	if !domain.IsEmail(email) {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if user == nil {
		user, err = s.provision(ctx, email)
		if err != nil {
			return nil, err
		}
	}
	return s.openSession(user)
}

// provision creates an SSO account with no usable password.
func (s *AuthService) provision(ctx context.Context, email string) (*domain.User, error) {
	username := email[:strings.LastIndex(email, "@")]
	user, err := s.users.Create(ctx, domain.NewUser{Username: username, Email: email})
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) && conflict.Field == "username" {
		username = username + "-" + uuid.NewString()[:8]
		user, err = s.users.Create(ctx, domain.NewUser{Username: username, Email: email})
	}
	if errors.As(err, &conflict) && conflict.Field == "email" {
		// Lost a race with a concurrent provision of the same address.
		user, err = s.users.GetByEmail(ctx, email)
	}
	if err != nil {
		return nil, fmt.Errorf("provision user: %w", err)
	}
	if user == nil {
		return nil, errors.New("provision user: user vanished")
	}
	return user, nil
}

// VerifyToken checks a session token and returns the embedded user id.
func (s *AuthService) VerifyToken(token string) (string, error) {
	return s.tokens.Verify(token)
}

// CurrentUser resolves a session token to its user.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	id, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	return user, nil
}

func (s *AuthService) openSession(user *domain.User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
