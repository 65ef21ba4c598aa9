package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"nodemonitor/pkg/config"
	"nodemonitor/pkg/interfaces"
	"nodemonitor/pkg/logger"
	"nodemonitor/pkg/store/mysql/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthResult is an issued access token
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

// AuthService handles registration, login and token verification
type AuthService struct {
	users    interfaces.UserRepository
	prefs    interfaces.PreferencesRepository
	attempts interfaces.LoginAttemptStore
	tx       interfaces.Transactor
	cfg      config.AuthConfig
	secret   []byte
	now      func() time.Time
}

// NewAuthService creates an auth service. An empty JWT secret is replaced
// with a random one, which invalidates tokens on restart.
func NewAuthService(
	users interfaces.UserRepository,
	prefs interfaces.PreferencesRepository,
	attempts interfaces.LoginAttemptStore,
	tx interfaces.Transactor,
	cfg config.AuthConfig,
) *AuthService {
	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		buf := make([]byte, 32)
		_, _ = rand.Read(buf)
		secret = []byte(hex.EncodeToString(buf))
		logger.Warnf("auth.jwt_secret not configured, using a random secret")
	}
	return &AuthService{
		users:    users,
		prefs:    prefs,
		attempts: attempts,
		tx:       tx,
		cfg:      cfg,
		secret:   secret,
		now:      time.Now,
	}
}

// Register creates an account with default notification preferences
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	email = NormalizeEmail(email)
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         SanitizeName(name),
		CreatedAt:    s.now().UTC(),
		UpdatedAt:    s.now().UTC(),
	}

	err = s.tx.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.users.Create(txCtx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		if err := s.prefs.Upsert(txCtx, model.DefaultPreferences(user.ID)); err != nil {
			return fmt.Errorf("failed to create preferences: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "user registered, user_id: %s", user.ID)
	return s.issue(user)
}

// Login verifies credentials. After MaxFailedLogins failures inside
// LockoutWindow further attempts fail with ErrAccountLocked.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = NormalizeEmail(email)
	now := s.now()

	failures, err := s.attempts.CountFailures(ctx, email, now.Add(-s.cfg.LockoutWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to check login attempts: %w", err)
	}
	if failures >= int64(s.cfg.MaxFailedLogins) {
		logger.WarnCtx(ctx, "login rejected for locked account %s", email)
		return nil, ErrAccountLocked
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		if err := s.attempts.RecordFailure(ctx, email, now, s.cfg.LockoutWindow); err != nil {
			logger.WarnCtx(ctx, "failed to record login failure: %v", err)
		}
		return nil, ErrInvalidCredentials
	}

	if err := s.attempts.Reset(ctx, email); err != nil {
		logger.WarnCtx(ctx, "failed to reset login attempts: %v", err)
	}
	return s.issue(user)
}

// Me returns the user behind a verified token
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// ParseToken verifies a token and returns its user ID
func (s *AuthService) ParseToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.TokenTTL)
	claims := jwt.RegisteredClaims{
		Subject:   user.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		ID:        uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &AuthResult{Token: signed, ExpiresAt: expiresAt, User: user}, nil
}

// IsAuthError reports whether err should be surfaced as 401
func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrUserNotFound)
}
