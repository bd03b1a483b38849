package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/actionculture/heritage/internal/auth"
	"github.com/actionculture/heritage/internal/domain"
	"github.com/actionculture/heritage/internal/event"
	"github.com/actionculture/heritage/internal/storage/memory"
)

func newTestAuthService() *AuthService {
	jwt := auth.NewJWTManager(auth.JWTConfig{SecretKey: "secret", AccessTokenTTL: time.Hour, Issuer: "action-culture"})
	return NewAuthService(memory.New().Repositories().Users, jwt, event.NewNoopPublisher())
}

func TestLoginIssuesTokenWithRolePermissions(t *testing.T) {
	svc := newTestAuthService()
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, "Editeur@Culture.dz", "Editeur", "Patrimoine2025", domain.RoleEditor); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	res, err := svc.Login(ctx, LoginInput{Email: "editeur@culture.dz", Password: "Patrimoine2025"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.ExpiresInSeconds != 3600 {
		t.Errorf("ExpiresInSeconds = %d", res.ExpiresInSeconds)
	}

	claims, err := svc.ValidateToken(ctx, res.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if !domain.HasPermission(claims.Permissions, "sites", "write") || domain.HasPermission(claims.Permissions, "sites", "delete") {
		t.Errorf("editor permissions = %v", claims.Permissions)
	}
}

func TestLoginFailures(t *testing.T) {
	svc := newTestAuthService()
	ctx := context.Background()
	_, _ = svc.CreateUser(ctx, "admin@culture.dz", "", "Patrimoine2025", domain.RoleAdmin)

	if _, err := svc.Login(ctx, LoginInput{Email: "admin@culture.dz", Password: "nope"}); !errors.Is(err, domain.ErrInvalidCredential) {
		t.Errorf("wrong password: %v", err)
	}
	if _, err := svc.Login(ctx, LoginInput{Email: "ghost@culture.dz", Password: "Patrimoine2025"}); !errors.Is(err, domain.ErrInvalidCredential) {
		t.Errorf("unknown email: %v", err)
	}
	if _, err := svc.ValidateToken(ctx, "garbage"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("bad token: %v", err)
	}
	if _, err := svc.CreateUser(ctx, "admin@culture.dz", "", "Patrimoine2025", domain.RoleAdmin); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("duplicate email: %v", err)
	}
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	svc := newTestAuthService()
	ctx := context.Background()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	for i := 0; i < 2; i++ {
		if err := svc.EnsureAdmin(ctx, "root@culture.dz", "Patrimoine2025", logger); err != nil {
			t.Fatalf("EnsureAdmin #%d: %v", i, err)
		}
	}
	if n := bytes.Count(buf.Bytes(), []byte("bootstrap admin created")); n != 1 {
		t.Errorf("admin created %d times, want 1", n)
	}
	if err := svc.EnsureAdmin(ctx, "", "", logger); err != nil {
		t.Errorf("EnsureAdmin(disabled) = %v", err)
	}
	if err := svc.EnsureAdmin(ctx, "weak@culture.dz", "weak", logger); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("EnsureAdmin(weak password) = %v", err)
	}
}
