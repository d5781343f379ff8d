package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sumire/devtrack/internal/domain"
	"github.com/sumire/devtrack/internal/policy"
	"github.com/sumire/devtrack/internal/service"
)

func TestRegisterLoginLogout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t, policy.Options{})

	user, tokens, err := env.auth.Register(ctx, service.RegisterInput{
		Name:     "Ada",
		Email:    " Ada@Example.com ",
		Password: "password123",
		Role:     domain.RoleEngineer,
	})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if user.Email != "ada@example.com" || user.Role != domain.RoleEngineer {
		t.Fatalf("registered = %+v", user)
	}

	claims, err := env.auth.ValidateToken(ctx, tokens.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken() error: %v", err)
	}
	if claims.UserID != user.ID || claims.ID == "" {
		t.Fatalf("claims = %+v, want user %d with a token id", claims, user.ID)
	}
	if _, err := env.auth.ValidateToken(ctx, tokens.RefreshToken); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("refresh token accepted as access token: %v", err)
	}

	_, _, err = env.auth.Register(ctx, service.RegisterInput{
		Name: "Ada again", Email: "ada@example.com", Password: "password123", Role: domain.RoleManager,
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("duplicate Register() error = %v, want conflict", err)
	}

	_, _, err = env.auth.Login(ctx, service.LoginInput{Email: "ada@example.com", Password: "wrong-password"})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("Login() with wrong password error = %v, want unauthorized", err)
	}

	_, loginTokens, err := env.auth.Login(ctx, service.LoginInput{Email: "ADA@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	loginClaims, err := env.auth.ValidateToken(ctx, loginTokens.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken() error: %v", err)
	}
	if err := env.auth.Logout(ctx, loginClaims); err != nil {
		t.Fatalf("Logout() error: %v", err)
	}
	if _, err := env.auth.ValidateToken(ctx, loginTokens.AccessToken); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("revoked token error = %v, want unauthorized", err)
	}
	if _, err := env.auth.ValidateToken(ctx, tokens.AccessToken); err != nil {
		t.Fatalf("other session revoked too: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t, policy.Options{})

	tests := []struct {
		name  string
		in    service.RegisterInput
		field string
	}{
		{"short password", service.RegisterInput{Name: "a", Email: "a@example.com", Password: "short", Role: domain.RoleManager}, "password"},
		{"bad email", service.RegisterInput{Name: "a", Email: "nope", Password: "password123", Role: domain.RoleManager}, "email"},
		{"bad role", service.RegisterInput{Name: "a", Email: "a@example.com", Password: "password123", Role: "admin"}, "role"},
		{"blank name", service.RegisterInput{Name: "  ", Email: "a@example.com", Password: "password123", Role: domain.RoleManager}, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := env.auth.Register(ctx, tt.in)
			assertValidation(t, err, tt.field)
		})
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t, policy.Options{})

	_, tokens, err := env.auth.Register(ctx, service.RegisterInput{
		Name: "Grace", Email: "grace@example.com", Password: "password123", Role: domain.RoleManager,
	})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	if _, err := env.auth.RefreshAccessToken(ctx, tokens.AccessToken); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("access token accepted as refresh token: %v", err)
	}

	fresh, err := env.auth.RefreshAccessToken(ctx, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshAccessToken() error: %v", err)
	}
	if _, err := env.auth.ValidateToken(ctx, fresh.AccessToken); err != nil {
		t.Fatalf("ValidateToken(fresh) error: %v", err)
	}
	if _, err := env.auth.RefreshAccessToken(ctx, tokens.RefreshToken); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("reused refresh token error = %v, want unauthorized", err)
	}
}

func TestConcurrentRefreshSucceedsOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t, policy.Options{})

	_, tokens, err := env.auth.Register(ctx, service.RegisterInput{
		Name: "Linus", Email: "linus@example.com", Password: "password123", Role: domain.RoleEngineer,
	})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	const callers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.auth.RefreshAccessToken(ctx, tokens.RefreshToken)
			if err != nil && !errors.Is(err, domain.ErrUnauthorized) {
				t.Errorf("RefreshAccessToken() error: %v", err)
				return
			}
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("successful refreshes = %d, want 1", succeeded)
	}
}

func TestListEngineers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t, policy.Options{})
	env.user(t, "m", domain.RoleManager)
	e1 := env.user(t, "e1", domain.RoleEngineer)
	e2 := env.user(t, "e2", domain.RoleEngineer)

	engineers, err := env.auth.ListEngineers(ctx)
	if err != nil {
		t.Fatalf("ListEngineers() error: %v", err)
	}
	if len(engineers) != 2 || engineers[0].ID != e1.ID || engineers[1].ID != e2.ID {
		t.Fatalf("engineers = %+v, want e1 and e2", engineers)
	}
}
