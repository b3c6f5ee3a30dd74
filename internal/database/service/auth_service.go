package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/config"
	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/database/models"
	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/database/repository"
)

// AuthService defines the interface for authentication business logic
type AuthService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
}

// Session is a freshly issued session token
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Claims carried by a session token. Validity depends only on the
// signature and expiry; there is no revocation list.
type Claims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// AuthOption customizes an AuthService
type AuthOption func(*authService)

// WithAuthClock replaces the wall clock used for issuing and verifying tokens
func WithAuthClock(now func() time.Time) AuthOption {
	return func(s *authService) {
		s.now = now
	}
}

type authService struct {
	userRepo   repository.UserRepository
	jwtSecret  []byte
	tokenTTL   time.Duration
	bcryptCost int
	dummyHash  []byte
	now        func() time.Time
	logger     *slog.Logger
}

// NewAuthService creates a new authentication service instance.
// cfg must already have passed Validate.
func NewAuthService(
	userRepo repository.UserRepository,
	cfg *config.Config,
	logger *slog.Logger,
	opts ...AuthOption,
) AuthService {
	s := &authService{
		userRepo:   userRepo,
		jwtSecret:  []byte(cfg.JWTSecret),
		tokenTTL:   cfg.TokenTTL(),
		bcryptCost: int(cfg.BcryptCost),
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Compared against when the email is unknown so both failure paths do the same work
	dummy, err := bcrypt.GenerateFromPassword([]byte("gadget-inventory-dummy"), s.bcryptCost)
	if err != nil {
		logger.Warn("⚠️ [AuthService] Failed to prepare dummy hash", "error", err)
	}
	s.dummyHash = dummy

	return s
}

func (s *authService) Register(ctx context.Context, email, password string) (*models.User, error) {
	s.logger.Info("📝 [AuthService] Registration attempt", "email", email)

	existingUser, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		s.logger.Error("❌ [AuthService] Database error", "error", err)
		return nil, err
	}

	if existingUser != nil {
		s.logger.Warn("⚠️ [AuthService] Email already registered", "email", email)
		return nil, ErrEmailAlreadyExists
	}

	// bcrypt only accepts 72 bytes, whatever the character count
	if len(password) > maxPasswordBytes {
		s.logger.Warn("⚠️ [AuthService] Password too long", "email", email, "bytes", len(password))
		return nil, ErrPasswordTooLong
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		s.logger.Error("❌ [AuthService] Failed to hash password", "error", err)
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hashedPassword),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent signup for the same email
		if errors.Is(err, repository.ErrDuplicateEmail) {
			s.logger.Warn("⚠️ [AuthService] Email already registered", "email", email)
			return nil, ErrEmailAlreadyExists
		}
		s.logger.Error("❌ [AuthService] Failed to create user", "error", err)
		return nil, err
	}

	s.logger.Info("✅ [AuthService] User registered successfully", "user_id", user.ID)
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	s.logger.Info("🔐 [AuthService] Login attempt", "email", email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			s.logger.Warn("⚠️ [AuthService] User not found", "email", email)
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("❌ [AuthService] Database error", "error", err)
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.logger.Warn("⚠️ [AuthService] Invalid password", "email", email)
		return nil, ErrInvalidCredentials
	}

	session, err := s.issueToken(user)
	if err != nil {
		s.logger.Error("❌ [AuthService] Failed to sign token", "error", err)
		return nil, err
	}

	s.logger.Info("✅ [AuthService] User logged in successfully", "user_id", user.ID)
	return session, nil
}

func (s *authService) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.UserID == "" || claims.Email == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// issueToken signs an HS256 token carrying the user's id and email
func (s *authService) issueToken(user *models.User) (*Session, error) {
	now := s.now()

	// exp is encoded in whole seconds; round up so the token lives at least tokenTTL
	expiresAt := now.Add(s.tokenTTL)
	if whole := expiresAt.Truncate(time.Second); !whole.Equal(expiresAt) {
		expiresAt = whole.Add(time.Second)
	}

	claims := Claims{
		UserID: user.ID.String(),
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}

	return &Session{Token: signed, ExpiresAt: expiresAt}, nil
}

const maxPasswordBytes = 72

// Service errors
var (
	ErrPasswordTooLong    = errors.New("password exceeds 72 bytes")
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)
