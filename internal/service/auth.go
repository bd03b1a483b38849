package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/actionculture/heritage/internal/auth"
	"github.com/actionculture/heritage/internal/domain"
	"github.com/actionculture/heritage/internal/event"
	"github.com/actionculture/heritage/internal/storage"
)

// AuthService handles back-office authentication.
type AuthService struct {
	users     storage.UserRepository
	jwt       *auth.JWTManager
	publisher event.Publisher
}

func NewAuthService(
	users storage.UserRepository,
	jwt *auth.JWTManager,
	publisher event.Publisher,
) *AuthService {
	return &AuthService{
		users:     users,
		jwt:       jwt,
		publisher: publisher,
	}
}

// LoginInput contains the credentials for login.
type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

// LoginResult contains the access token and user info after successful login.
type LoginResult struct {
	AccessToken      string
	ExpiresInSeconds int64
	User             *domain.User
}

// Login authenticates a user and returns an access token.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredential
	}

	if err = auth.CheckPassword(input.Password, user.PasswordHash); err != nil {
		return nil, domain.ErrInvalidCredential
	}

	if !user.IsActive() {
		return nil, domain.ErrUnauthorized
	}

	token, _, err := s.jwt.GenerateAccessToken(auth.TokenPayload{
		UserID:      user.ID,
		Email:       user.Email,
		Role:        string(user.Role),
		Permissions: user.Role.Permissions(),
	})
	if err != nil {
		return nil, err
	}

	_ = s.publisher.Publish(ctx, domain.UserLoggedInEvent(user.ID, input.IPAddress, input.UserAgent))

	return &LoginResult{
		AccessToken:      token,
		ExpiresInSeconds: int64(s.jwt.AccessTokenTTL().Seconds()),
		User:             user,
	}, nil
}

// ValidateToken checks an access token and returns its claims.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

// EnsureAdmin creates an admin account unless the email is already registered.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string, logger *slog.Logger) error {
	if email == "" || password == "" {
		return nil
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	if err := auth.ValidatePasswordStrength(password); err != nil {
		return domain.ValidationError{Field: "password", Message: err.Error()}
	}

	user, err := domain.NewUser(email, "Administrateur", domain.RoleAdmin)
	if err != nil {
		return err
	}

	if user.PasswordHash, err = auth.HashPassword(password); err != nil {
		return err
	}

	if err := s.users.Create(ctx, user); err != nil {
		return err
	}

	logger.Info("bootstrap admin created", slog.String("email", user.Email))
	return nil
}

// CreateUser registers a back-office account.
func (s *AuthService) CreateUser(ctx context.Context, email, fullName, password string, role domain.Role) (*domain.User, error) {
	if err := auth.ValidatePasswordStrength(password); err != nil {
		return nil, domain.ValidationError{Field: "password", Message: err.Error()}
	}

	user, err := domain.NewUser(email, fullName, role)
	if err != nil {
		return nil, err
	}

	if user.PasswordHash, err = auth.HashPassword(password); err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.ValidationError{Field: "email", Message: "already taken"}
		}
		return nil, err
	}

	return user, nil
}
