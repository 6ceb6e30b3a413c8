package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/punchamoorthee/cardfees/internal/domain"
	"github.com/punchamoorthee/cardfees/internal/mailer"
	"github.com/punchamoorthee/cardfees/internal/store"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLen = 8
	tokenIssuer    = "cardfees"
)

// AuthConfig tunes token lifetimes and hashing cost.
type AuthConfig struct {
	JWTSecret  string
	BaseURL    string
	SessionTTL time.Duration
	ResetTTL   time.Duration
	BcryptCost int
}

// Claims are carried in session tokens.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// AuthService handles registration, email verification, login and password reset.
type AuthService struct {
	users UserStore
	mail  Mailer
	cfg   AuthConfig
	now   func() time.Time
}

func NewAuthService(users UserStore, m Mailer, cfg AuthConfig) *AuthService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{users: users, mail: m, cfg: cfg, now: time.Now}
}

// Register creates an unverified account and emails a verification link.
// A failed email does not fail the registration.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, invalid("name is required")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(password) < minPasswordLen {
		return nil, invalid("password must be at least %d characters", minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &domain.User{
		ID:                uuid.New(),
		Name:              name,
		Email:             email,
		PasswordHash:      string(hash),
		VerificationToken: uuid.NewString(),
		CreatedAt:         s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %s", ErrEmailTaken, email)
		}
		return nil, storeErr(err, "user "+email)
	}
	signupsTotal.Inc()

	subject, body := mailer.VerificationEmail(s.cfg.BaseURL, u.Name, u.VerificationToken)
	s.notify(ctx, u.Email, subject, body)
	return u, nil
}

// VerifyEmail confirms the address that received token.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return invalid("token is required")
	}
	if err := s.users.VerifyEmail(ctx, token); err != nil {
		return storeErr(err, "verification token")
	}
	return nil
}

// Login checks credentials and returns a signed session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	u, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, storeErr(err, "user")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !u.EmailVerified {
		return "", nil, ErrEmailNotVerified
	}

	token, err := s.issueToken(u)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// ForgotPassword emails a reset token if the account exists. Unknown
// addresses are not reported so accounts cannot be enumerated.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return storeErr(err, "user")
	}

	token := uuid.NewString()
	if err := s.users.SetResetToken(ctx, u.ID, token, s.now().Add(s.cfg.ResetTTL)); err != nil {
		return storeErr(err, "user "+u.ID.String())
	}

	subject, body := mailer.ResetEmail(s.cfg.BaseURL, u.Name, token)
	s.notify(ctx, u.Email, subject, body)
	return nil
}

// ResetPassword sets a new password for the holder of a valid reset token.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if token == "" {
		return invalid("token is required")
	}
	if len(password) < minPasswordLen {
		return invalid("password must be at least %d characters", minPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.ResetPassword(ctx, token, string(hash), s.now()); err != nil {
		return storeErr(err, "reset token")
	}
	return nil
}

// Profile loads the account behind a session.
func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed subject", ErrAuthentication)
	}
	u, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "user "+userID)
	}
	return u, nil
}

// ParseToken validates a session token and returns its claims.
func (s *AuthService) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthentication, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", ErrAuthentication)
	}
	return claims, nil
}

func (s *AuthService) issueToken(u *domain.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: u.ID.String(),
		Email:  u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.SessionTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *AuthService) notify(ctx context.Context, to, subject, body string) {
	if err := s.mail.Send(ctx, to, subject, body); err != nil {
		log.Printf("mail %q to %s not delivered: %v", subject, to, err)
	}
}

func validateEmail(email string) error {
	if email == "" {
		return invalid("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid("email %q is not a valid address", email)
	}
	return nil
}
