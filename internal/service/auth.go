// Package service: AuthService handles registration, login and JWT access
// tokens for dashboard owners.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/boddenberg/runway-bfa/internal/domain"
	"github.com/boddenberg/runway-bfa/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var authTracer = otel.Tracer("service/auth")

const (
	maxFailedAttempts = 5
	lockDuration      = 30 * time.Minute
	bcryptCost        = 12
	minPasswordLength = 8
	tokenIssuer       = "runway-bfa"
	tokenTypeAccess   = "access"
)

// AuthService orchestrates authentication flows.
type AuthService struct {
	store     port.UserStore
	jwtSecret []byte
	accessTTL time.Duration
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.Mutex
	failures map[string]*loginFailures // keyed by lowercased email
}

type loginFailures struct {
	attempts    int
	lockedUntil time.Time
}

// NewAuthService creates a new auth service.
func NewAuthService(store port.UserStore, jwtSecret string, accessTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		store:     store,
		jwtSecret: []byte(jwtSecret),
		accessTTL: accessTTL,
		logger:    logger,
		now:       time.Now,
		failures:  make(map[string]*loginFailures),
	}
}

// ============================================================
// Register: POST /v1/auth/register
// ============================================================

func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.LoginResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Register")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, &domain.ErrValidation{Field: "email", Message: "invalid email address"}
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "name is required"}
	}
	if len(req.Password) < minPasswordLength {
		return nil, &domain.ErrValidation{
			Field:   "password",
			Message: fmt.Sprintf("password must have at least %d characters", minPasswordLength),
		}
	}

	existing, err := s.store.GetUserByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, &domain.ErrConflict{Message: "email already registered"}
	}
	var nf *domain.ErrNotFound
	if err != nil && !errors.As(err, &nf) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, &domain.User{
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return s.issue(user)
}

// ============================================================
// Login: POST /v1/auth/login
// ============================================================

func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	span.SetAttributes(attribute.String("user.email", email))

	if remaining, locked := s.lockedFor(email); locked {
		s.logger.Warn("login: account temporarily locked",
			zap.String("email", email),
			zap.Float64("remaining_minutes", remaining.Minutes()),
		)
		return nil, &domain.ErrUnauthorized{
			Message: fmt.Sprintf("account temporarily locked, try again in %.0f minutes", remaining.Minutes()),
		}
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	var nf *domain.ErrNotFound
	if errors.As(err, &nf) {
		return nil, s.failLogin(email)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, s.failLogin(email)
	}

	s.mu.Lock()
	delete(s.failures, email)
	s.mu.Unlock()

	s.logger.Info("user logged in", zap.String("user_id", user.ID))
	return s.issue(user)
}

// lockedFor reports whether email is locked out and for how long.
func (s *AuthService) lockedFor(email string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.failures[email]
	if !ok || f.lockedUntil.IsZero() {
		return 0, false
	}
	now := s.now()
	if !f.lockedUntil.After(now) {
		delete(s.failures, email)
		return 0, false
	}
	return f.lockedUntil.Sub(now), true
}

// failLogin records a failed attempt and returns the error to report.
// Unknown emails count too so responses do not reveal which emails exist.
func (s *AuthService) failLogin(email string) error {
	s.mu.Lock()
	f, ok := s.failures[email]
	if !ok {
		f = &loginFailures{}
		s.failures[email] = f
	}
	f.attempts++
	attempts := f.attempts
	if attempts >= maxFailedAttempts {
		f.lockedUntil = s.now().Add(lockDuration)
	}
	s.mu.Unlock()

	remaining := maxFailedAttempts - attempts
	if remaining <= 0 {
		s.logger.Warn("login: account locked after max attempts",
			zap.String("email", email),
			zap.Int("attempts", attempts),
			zap.Duration("lock_duration", lockDuration),
		)
		return &domain.ErrUnauthorized{
			Message: fmt.Sprintf("account locked for %d minutes after %d attempts", int(lockDuration.Minutes()), maxFailedAttempts),
		}
	}

	s.logger.Warn("login: failed password attempt",
		zap.String("email", email),
		zap.Int("attempts", attempts),
		zap.Int("max", maxFailedAttempts),
	)
	return &domain.ErrUnauthorized{
		Message: fmt.Sprintf("invalid credentials, %d attempt(s) left", remaining),
	}
}

func (s *AuthService) issue(user *domain.User) (*domain.LoginResponse, error) {
	token, err := s.signAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	return &domain.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int(s.accessTTL.Seconds()),
		UserID:      user.ID,
		Name:        user.Name,
	}, nil
}

// ============================================================
// ValidateToken: used by middleware
// ============================================================

// JWTClaims represents the custom claims in access tokens. The user ID is
// the registered subject.
type JWTClaims struct {
	Email string `json:"email"`
	Type  string `json:"type"`
	jwt.RegisteredClaims
}

// UserID returns the token subject.
func (c *JWTClaims) UserID() string {
	return c.Subject
}

func (s *AuthService) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid or expired token"}
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "invalid token"}
	}
	if claims.Type != tokenTypeAccess {
		return nil, &domain.ErrUnauthorized{Message: "invalid token type"}
	}
	if claims.Subject == "" {
		return nil, &domain.ErrUnauthorized{Message: "token has no subject"}
	}
	return claims, nil
}

func (s *AuthService) signAccessToken(userID, email string) (string, error) {
	now := s.now()
	claims := JWTClaims{
		Email: email,
		Type:  tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			Issuer:    tokenIssuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
