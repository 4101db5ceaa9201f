package service

import (
	"alcyxob/program-ledger/internal/domain"
	"alcyxob/program-ledger/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// --- Error Definitions ---
var (
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPasswordHashing    = errors.New("could not secure password")
	ErrTokenSigning       = errors.New("could not sign access token")
	ErrInvalidRole        = errors.New("role must be coach or client")
)

// TokenIssuer is the "iss" claim of every token this service signs.
const TokenIssuer = "program-ledger"

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// --- Service Interface ---

// AuthService creates coach and client accounts and signs their access tokens.
type AuthService interface {
	Register(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*Session, error)
}

// --- Service Implementation ---

type authService struct {
	userRepo repository.UserRepository
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
}

// NewAuthService panics on an empty secret: every token would be forgeable.
func NewAuthService(userRepo repository.UserRepository, jwtSecret string, tokenTTL time.Duration) AuthService {
	if jwtSecret == "" {
		panic("auth: JWT secret cannot be empty")
	}
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &authService{
		userRepo: userRepo,
		secret:   []byte(jwtSecret),
		tokenTTL: tokenTTL,
		now:      time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", ErrValidationFailed)
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	switch _, err := s.userRepo.GetByEmail(ctx, email); {
	case err == nil:
		return nil, ErrEmailTaken
	case !errors.Is(err, repository.ErrNotFound):
		return nil, storageErr(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPasswordHashing, err)
	}

	user := &domain.User{Name: name, Email: email, PasswordHash: string(hash), Role: role}
	id, err := s.userRepo.Create(ctx, user)
	if err != nil {
		// Lost a race with a concurrent sign-up for the same email.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, storageErr(err)
	}
	user.ID = id
	return user.Public(), nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, storageErr(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	expiresAt := s.now().Add(s.tokenTTL)
	token, err := s.signToken(user, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenSigning, err)
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: user.Public()}, nil
}

// jwtClaims is the token payload; api.AuthMiddleware reads the same fields.
type jwtClaims struct {
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

func (s *authService) signToken(user *domain.User, expiresAt time.Time) (string, error) {
	claims := &jwtClaims{
		UserID: user.ID.Hex(),
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(s.now()),
			Issuer:    TokenIssuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
