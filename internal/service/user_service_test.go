package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

func newTestUserService(limiter RateLimiter) (*UserService, *mockUserRepo, *mockProfileRepo) {
	users := newMockUserRepo()
	profiles := newMockProfileRepo()
	if limiter == nil {
		limiter = &mockLimiter{allow: true}
	}
	return NewUserService(zap.NewNop(), users, profiles, limiter), users, profiles
}

func TestUserServiceSignUp_CreatesUserAndProfile(t *testing.T) {
	svc, users, profiles := newTestUserService(nil)

	user, profile, err := svc.SignUp(context.Background(), SignUpInput{
		Email:    " Ana@Example.com ",
		Password: "supersecret",
		Username: "Ana_B",
		FullName: " Ana B ",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.Email != "ana@example.com" {
		t.Fatalf("expected normalized email, got %s", user.Email)
	}
	if user.PasswordHash == "" || user.PasswordHash == "supersecret" {
		t.Fatalf("expected bcrypt hash to be stored")
	}
	if profile.ID != user.ID || profile.Username != "ana_b" || profile.FullName != "Ana B" {
		t.Fatalf("unexpected profile %+v", profile)
	}
	if _, err := users.GetByEmail(context.Background(), "ana@example.com"); err != nil {
		t.Fatalf("expected user stored, got %v", err)
	}
	if _, err := profiles.GetByUsername(context.Background(), "ana_b"); err != nil {
		t.Fatalf("expected profile stored, got %v", err)
	}
}

func TestUserServiceSignUp_Validation(t *testing.T) {
	cases := []struct {
		name  string
		input SignUpInput
		want  error
	}{
		{"bad email", SignUpInput{Email: "nope", Password: "supersecret", Username: "ana"}, ErrInvalidEmail},
		{"short username", SignUpInput{Email: "a@b.co", Password: "supersecret", Username: "an"}, ErrValidation},
		{"username with spaces", SignUpInput{Email: "a@b.co", Password: "supersecret", Username: "an a"}, ErrValidation},
		{"short password", SignUpInput{Email: "a@b.co", Password: "short", Username: "ana"}, ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, _ := newTestUserService(nil)
			_, _, err := svc.SignUp(context.Background(), tc.input)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestUserServiceSignUp_Duplicates(t *testing.T) {
	svc, _, _ := newTestUserService(nil)
	ctx := context.Background()
	if _, _, err := svc.SignUp(ctx, SignUpInput{Email: "ana@example.com", Password: "supersecret", Username: "ana"}); err != nil {
		t.Fatalf("first signup failed: %v", err)
	}

	_, _, err := svc.SignUp(ctx, SignUpInput{Email: "ana@example.com", Password: "supersecret", Username: "other"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	_, _, err = svc.SignUp(ctx, SignUpInput{Email: "bea@example.com", Password: "supersecret", Username: "ana"})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestUserServiceAuthenticate(t *testing.T) {
	svc, _, _ := newTestUserService(nil)
	ctx := context.Background()
	created, _, err := svc.SignUp(ctx, SignUpInput{Email: "ana@example.com", Password: "supersecret", Username: "ana"})
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	user, err := svc.Authenticate(ctx, "ANA@example.com", "supersecret")
	if err != nil {
		t.Fatalf("expected login success, got %v", err)
	}
	if user.ID != created.ID {
		t.Fatalf("expected user %s, got %s", created.ID, user.ID)
	}

	if _, err := svc.Authenticate(ctx, "ana@example.com", "wrongpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "ghost@example.com", "supersecret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestUserServiceAuthenticate_RateLimited(t *testing.T) {
	svc, _, _ := newTestUserService(&mockLimiter{allow: false})

	_, err := svc.Authenticate(context.Background(), "ana@example.com", "supersecret")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestUserServiceGetUser_NotFound(t *testing.T) {
	svc, _, _ := newTestUserService(nil)
	if _, err := svc.GetUser(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
