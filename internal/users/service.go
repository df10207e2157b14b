package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"probate-backend/internal/shared/auth"
)

const minPasswordLen = 8

// TokenSigner issues session tokens.
type TokenSigner interface {
	Sign(s auth.Session) (string, error)
}

type Service struct {
	Repo   Repo
	Roles  *auth.RoleResolver
	Tokens TokenSigner
	// Cost is the bcrypt cost; zero means bcrypt.DefaultCost.
	Cost int
}

func NewService(repo Repo, roles *auth.RoleResolver, tokens TokenSigner) *Service {
	return &Service{Repo: repo, Roles: roles, Tokens: tokens}
}

// Register creates a password account and signs the user in.
func (s *Service) Register(ctx context.Context, email, password, fullName string) (User, string, error) {
	user, err := s.CreateAccount(ctx, email, password, fullName, "")
	if err != nil {
		return User{}, "", err
	}
	token, err := s.sign(user)
	if err != nil {
		return User{}, "", err
	}
	return user, token, nil
}

// CreateAccount stores a password account. An empty role is resolved from
// the admin allowlist.
func (s *Service) CreateAccount(ctx context.Context, email, password, fullName string, role auth.Role) (User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return User{}, err
	}
	if len(password) < minPasswordLen {
		return User{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}
	if role == "" {
		role = s.Roles.RoleFor(email)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost())
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     strings.TrimSpace(fullName),
		Role:         role,
		PasswordHash: string(hash),
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// Login checks a password and signs the user in. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (User, string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return User{}, "", ErrInvalidCredentials
	}
	user, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, "", ErrInvalidCredentials
		}
		return User{}, "", err
	}
	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return User{}, "", ErrInvalidCredentials
	}

	user.Role = s.effectiveRole(user)
	token, err := s.sign(user)
	if err != nil {
		return User{}, "", err
	}
	return user, token, nil
}

// UpsertFromAuth persists an identity returned by an OAuth provider and
// returns it with its resolved role.
func (s *Service) UpsertFromAuth(ctx context.Context, user User) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(user.ID) == "" || strings.TrimSpace(user.Email) == "" {
		return User{}, fmt.Errorf("%w: user id and email are required", ErrInvalidInput)
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if existing, err := s.Repo.GetByID(ctx, user.ID); err == nil {
		user.Role = existing.Role
	}
	user.Role = s.effectiveRole(user)
	if err := s.Repo.Upsert(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, userID)
}

// UpdateProfile changes the editable profile fields.
func (s *Service) UpdateProfile(ctx context.Context, userID, fullName, phone string) (User, error) {
	if strings.TrimSpace(userID) == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.Repo.UpdateProfile(ctx, userID, strings.TrimSpace(fullName), strings.TrimSpace(phone))
}

// SignToken issues a token for an already loaded user.
func (s *Service) SignToken(user User) (string, error) {
	return s.sign(user)
}

// effectiveRole keeps a stored admin role and lets the allowlist promote.
func (s *Service) effectiveRole(user User) auth.Role {
	if user.Role == auth.RoleAdmin {
		return auth.RoleAdmin
	}
	return s.Roles.RoleFor(user.Email)
}

func (s *Service) sign(user User) (string, error) {
	if s.Tokens == nil {
		return "", errors.New("token issuer not configured")
	}
	return s.Tokens.Sign(user.Session())
}

func (s *Service) cost() int {
	if s.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return s.Cost
}

func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	return strings.ToLower(addr.Address), nil
}
