package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"youtrait/internal/domain"
	"youtrait/internal/repository"
)

const minPasswordLen = 8

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)

// UserService coordina alta y autenticación de usuarios.
type UserService struct {
	logger       *zap.Logger
	users        repository.UserRepository
	profiles     repository.ProfileRepository
	loginLimiter RateLimiter
}

func NewUserService(logger *zap.Logger, users repository.UserRepository, profiles repository.ProfileRepository, loginLimiter RateLimiter) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loginLimiter == nil {
		loginLimiter = NewRateLimiter(10*time.Minute, 5)
	}
	return &UserService{
		logger:       logger,
		users:        users,
		profiles:     profiles,
		loginLimiter: loginLimiter,
	}
}

type SignUpInput struct {
	Email    string
	Password string
	Username string
	FullName string
}

// SignUp crea el usuario y su perfil público.
func (s *UserService) SignUp(ctx context.Context, input SignUpInput) (domain.User, domain.Profile, error) {
	if s.users == nil || s.profiles == nil {
		return domain.User{}, domain.Profile{}, errors.New("user service not configured")
	}

	email := normalizeEmail(input.Email)
	if !isValidEmail(email) {
		return domain.User{}, domain.Profile{}, ErrInvalidEmail
	}
	username := strings.ToLower(strings.TrimSpace(input.Username))
	if !usernamePattern.MatchString(username) {
		return domain.User{}, domain.Profile{}, fmt.Errorf("%w: username must be 3-30 chars of a-z, 0-9 or _", ErrValidation)
	}
	password := strings.TrimSpace(input.Password)
	if len(password) < minPasswordLen {
		return domain.User{}, domain.Profile{}, fmt.Errorf("%w: password too short", ErrValidation)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return domain.User{}, domain.Profile{}, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return domain.User{}, domain.Profile{}, err
	}
	if _, err := s.profiles.GetByUsername(ctx, username); err == nil {
		return domain.User{}, domain.Profile{}, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return domain.User{}, domain.Profile{}, err
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, domain.Profile{}, err
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hashBytes),
		CreatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, domain.Profile{}, mapUniqueViolation(err, ErrEmailTaken)
	}

	profile := domain.Profile{
		ID:        user.ID,
		Username:  username,
		FullName:  strings.TrimSpace(input.FullName),
		CreatedAt: now,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return domain.User{}, domain.Profile{}, mapUniqueViolation(err, ErrUsernameTaken)
	}

	s.logger.Info("user signed up", zap.String("user_id", user.ID), zap.String("username", username))
	return user, profile, nil
}

// Authenticate valida credenciales. Los intentos por email están limitados.
func (s *UserService) Authenticate(ctx context.Context, emailAddr, password string) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	password = strings.TrimSpace(password)
	if emailAddr == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	if s.loginLimiter != nil && !s.loginLimiter.Allow(emailAddr) {
		return domain.User{}, ErrRateLimited
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if user.PasswordHash == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.User{}, ErrNotFound
	}
	return user, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isValidEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// mapUniqueViolation traduce una violación de unicidad de Postgres a target.
func mapUniqueViolation(err, target error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return target
	}
	return err
}
