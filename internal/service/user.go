package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"go-gin-library/internal/domain"
	"go-gin-library/pkg/utils"
)

const minPasswordLen = 6

type TokenIssuer interface {
	Issue(uid, role string) (string, error)
}

type UserService struct {
	users  domain.UserRepository
	tokens TokenIssuer
	log    *zap.Logger
}

func NewUserService(users domain.UserRepository, tokens TokenIssuer, l *zap.Logger) *UserService {
	if l == nil {
		l = zap.NewNop()
	}
	return &UserService{users: users, tokens: tokens, log: l}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates a member account. Admins are made through SetRole or
// EnsureAdmin, never through self-registration.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	return s.create(ctx, in, domain.RoleUser)
}

func (s *UserService) create(ctx context.Context, in RegisterInput, role string) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", domain.ErrValidation)
	}
	if len(in.Password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLen)
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	u := &domain.User{
		ID:           utils.NewID(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
	}
	// a concurrent signup with the same email surfaces as ErrEmailTaken from the repo
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	s.log.Info("user registered", zap.String("userId", u.ID), zap.String("role", role))
	return u, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	u, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", nil, fmt.Errorf("login: %w", err)
	}
	if u == nil || !utils.CheckPassword(password, u.PasswordHash) {
		return "", nil, domain.ErrInvalidCredentials
	}
	tok, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return tok, u, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context, f domain.UserFilter) ([]domain.User, int64, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	f.Q = strings.TrimSpace(f.Q)
	users, total, err := s.users.List(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// Ban soft-deletes the account; the user can no longer log in or borrow.
func (s *UserService) Ban(ctx context.Context, id string) error {
	ok, err := s.users.SoftDelete(ctx, id)
	if err != nil {
		return fmt.Errorf("ban user: %w", err)
	}
	if !ok {
		return domain.ErrUserNotFound
	}
	s.log.Info("user banned", zap.String("userId", id))
	return nil
}

func (s *UserService) SetRole(ctx context.Context, id, role string) error {
	if !domain.ValidRole(role) {
		return fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}
	ok, err := s.users.SetRole(ctx, id, role)
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	if !ok {
		return domain.ErrUserNotFound
	}
	s.log.Info("user role changed", zap.String("userId", id), zap.String("role", role))
	return nil
}

// EnsureAdmin makes sure an admin account exists for email, creating or
// promoting it. It reports whether anything changed.
func (s *UserService) EnsureAdmin(ctx context.Context, in RegisterInput) (bool, error) {
	u, err := s.users.FindByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		return false, fmt.Errorf("ensure admin: %w", err)
	}
	if u != nil {
		if u.Role == domain.RoleAdmin {
			return false, nil
		}
		return true, s.SetRole(ctx, u.ID, domain.RoleAdmin)
	}
	if _, err := s.create(ctx, in, domain.RoleAdmin); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func normalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }
