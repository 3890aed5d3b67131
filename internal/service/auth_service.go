package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"backoffice/internal/domain"
	"backoffice/internal/mail"
	"backoffice/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 10

	// EmailTokenExpiration bounds verification and password reset links
	EmailTokenExpiration = time.Hour
)

// AuthService defines the account and session operations
type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*domain.User, error)
	VerifyEmail(ctx context.Context, token string) error
	Login(ctx context.Context, email, password string) (accessToken, refreshToken string, user *domain.User, err error)
	Logout(ctx context.Context, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (newAccessToken string, err error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
	UpdateSettings(ctx context.Context, userID uuid.UUID, in SettingsInput) (*domain.User, error)
	Profile(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims represents the JWT claims; SessionID ties the token to its idle timeout
type Claims struct {
	UserID    uuid.UUID `json:"user_id"`
	Role      string    `json:"role"`
	StoreID   string    `json:"store_id,omitempty"`
	SessionID string    `json:"sid"`
	jwt.RegisteredClaims
}

// SettingsInput holds the profile changes a user requests; nil fields are kept
type SettingsInput struct {
	Name        *string
	Email       *string
	Password    *string
	NewPassword *string
}

// AuthConfig carries token lifetimes and the base URL used in mailed links
type AuthConfig struct {
	JWTSecret     string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	BaseURL       string
}

// AuthRepositories groups the stores the auth service reads and writes
type AuthRepositories struct {
	Users         repository.UserRepository
	Roles         repository.RoleRepository
	RefreshTokens repository.RefreshTokenRepository
	Verification  repository.EmailTokenRepository
	PasswordReset repository.EmailTokenRepository
}

type authService struct {
	repos    AuthRepositories
	sessions Sessions
	mailer   mail.Sender
	cfg      AuthConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthService creates a new instance of AuthService
func NewAuthService(repos AuthRepositories, sessions Sessions, mailer mail.Sender, cfg AuthConfig, logger *zap.Logger) AuthService {
	return &authService{
		repos:    repos,
		sessions: sessions,
		mailer:   mailer,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Register creates a storefront account and mails a verification link
func (s *authService) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	email = normalizeEmail(email)

	existingUser, err := s.repos.Users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, repository.ErrUserAlreadyExists
	}

	role, err := s.repos.Roles.FindByName(ctx, domain.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve default role: %w", err)
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.New(),
		RoleID:       role.ID,
		RoleName:     role.Name,
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hashedPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repos.Users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.sendVerification(ctx, email)
	return user, nil
}

// VerifyEmail consumes a verification token and marks its address verified
func (s *authService) VerifyEmail(ctx context.Context, token string) error {
	existing, err := s.consumableToken(ctx, s.repos.Verification, token)
	if err != nil {
		return err
	}

	if err := s.repos.Users.MarkEmailVerified(ctx, existing.Email, s.now()); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrEmailNotFound
		}
		return fmt.Errorf("failed to verify email: %w", err)
	}

	if err := s.repos.Verification.Delete(ctx, existing.ID); err != nil {
		return fmt.Errorf("failed to delete verification token: %w", err)
	}
	return nil
}

// Login authenticates a verified user, starts a session and returns JWT tokens
func (s *authService) Login(ctx context.Context, email, password string) (accessToken, refreshToken string, user *domain.User, err error) {
	user, err = s.repos.Users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", "", nil, ErrInvalidCredentials
		}
		return "", "", nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := verifyPassword(user.PasswordHash, password); err != nil {
		return "", "", nil, ErrInvalidCredentials
	}

	if !user.IsVerified() {
		s.sendVerification(ctx, user.Email)
		return "", "", nil, ErrEmailNotVerified
	}

	stored, err := s.generateRefreshToken(ctx, user)
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	sessionID := stored.ID.String()
	if err := s.sessions.Start(ctx, sessionID, user.ID.String()); err != nil {
		return "", "", nil, err
	}

	accessToken, err = s.generateAccessToken(user, sessionID)
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return accessToken, stored.Token, user, nil
}

// Logout revokes the refresh token and ends its session
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	stored, err := s.repos.RefreshTokens.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) || errors.Is(err, repository.ErrRefreshTokenRevoked) {
			// Token doesn't exist, consider it already logged out
			return nil
		}
		return fmt.Errorf("failed to find refresh token: %w", err)
	}

	if err := s.repos.RefreshTokens.Revoke(ctx, refreshToken); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return s.sessions.End(ctx, stored.ID.String())
}

// Refresh mints a new access token while the refresh token and its session are alive
func (s *authService) Refresh(ctx context.Context, refreshTokenString string) (newAccessToken string, err error) {
	stored, err := s.repos.RefreshTokens.FindByToken(ctx, refreshTokenString)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) || errors.Is(err, repository.ErrRefreshTokenRevoked) {
			return "", ErrInvalidToken
		}
		return "", fmt.Errorf("failed to find refresh token: %w", err)
	}

	if s.now().After(stored.ExpiresAt) {
		return "", ErrTokenExpired
	}

	sessionID := stored.ID.String()
	alive, err := s.sessions.Touch(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if !alive {
		if err := s.repos.RefreshTokens.Revoke(ctx, refreshTokenString); err != nil {
			s.logger.Warn("Failed to revoke idle refresh token", zap.Error(err))
		}
		return "", ErrSessionExpired
	}

	user, err := s.repos.Users.FindByID(ctx, stored.UserID)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}

	newAccessToken, err = s.generateAccessToken(user, sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return newAccessToken, nil
}

// RequestPasswordReset mails a reset link to a registered address
func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	if _, err := s.repos.Users.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrEmailNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	token, err := s.issueEmailToken(ctx, s.repos.PasswordReset, email)
	if err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}

	if err := s.mailer.Send(ctx, mail.PasswordResetEmail(s.cfg.BaseURL, email, token.Token)); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}
	return nil
}

// ResetPassword sets a new password using a reset token and revokes existing sessions
func (s *authService) ResetPassword(ctx context.Context, token, password string) error {
	existing, err := s.consumableToken(ctx, s.repos.PasswordReset, token)
	if err != nil {
		return err
	}

	user, err := s.repos.Users.FindByEmail(ctx, existing.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrEmailNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repos.Users.UpdatePassword(ctx, user.ID, hashedPassword); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if err := s.repos.PasswordReset.Delete(ctx, existing.ID); err != nil {
		return fmt.Errorf("failed to delete reset token: %w", err)
	}
	revoked, err := s.repos.RefreshTokens.RevokeAllForUser(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	// sessions are keyed by refresh token id
	for _, id := range revoked {
		if err := s.sessions.End(ctx, id.String()); err != nil {
			return fmt.Errorf("failed to end session: %w", err)
		}
	}
	return nil
}

// UpdateSettings changes name, email or password. A new email must be free and
// is unverified until its confirmation link is opened.
func (s *authService) UpdateSettings(ctx context.Context, userID uuid.UUID, in SettingsInput) (*domain.User, error) {
	user, err := s.repos.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be blank", ErrInvalidInput)
		}
		user.Name = name
	}

	emailChanged := false
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email != user.Email {
			other, err := s.repos.Users.FindByEmail(ctx, email)
			if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
			if other != nil && other.ID != user.ID {
				return nil, ErrEmailInUse
			}
			user.Email = email
			user.EmailVerified = nil
			emailChanged = true
		}
	}

	if in.NewPassword != nil {
		if in.Password == nil || verifyPassword(user.PasswordHash, *in.Password) != nil {
			return nil, ErrInvalidCredentials
		}
		hashedPassword, err := HashPassword(*in.NewPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hashedPassword
	}

	user.UpdatedAt = s.now()
	if err := s.repos.Users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil, ErrEmailInUse
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if emailChanged {
		s.sendVerification(ctx, user.Email)
	}
	return user, nil
}

// Profile retrieves a user by ID
func (s *authService) Profile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.repos.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	return ParseAccessToken(s.cfg.JWTSecret, tokenString)
}

// ParseAccessToken verifies an HMAC signed access token against secret
func ParseAccessToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashPassword hashes a password using bcrypt with cost factor 10
func HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func verifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// consumableToken loads an email token that exists and has not expired
func (s *authService) consumableToken(ctx context.Context, repo repository.EmailTokenRepository, token string) (*domain.EmailToken, error) {
	existing, err := repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrEmailTokenNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to find token: %w", err)
	}
	if existing.Expired(s.now()) {
		return nil, ErrTokenExpired
	}
	return existing, nil
}

// issueEmailToken replaces any outstanding token of email with a fresh one
func (s *authService) issueEmailToken(ctx context.Context, repo repository.EmailTokenRepository, email string) (*domain.EmailToken, error) {
	if err := repo.DeleteByEmail(ctx, email); err != nil {
		return nil, err
	}

	token := &domain.EmailToken{
		ID:        uuid.New(),
		Email:     email,
		Token:     uuid.New().String(),
		ExpiresAt: s.now().Add(EmailTokenExpiration),
	}
	if err := repo.Create(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// sendVerification issues and mails a verification link; failures are logged only
func (s *authService) sendVerification(ctx context.Context, email string) {
	token, err := s.issueEmailToken(ctx, s.repos.Verification, email)
	if err != nil {
		s.logger.Error("Failed to create verification token", zap.String("email", email), zap.Error(err))
		return
	}
	if err := s.mailer.Send(ctx, mail.VerificationEmail(s.cfg.BaseURL, email, token.Token)); err != nil {
		s.logger.Error("Failed to send verification email", zap.String("email", email), zap.Error(err))
	}
}

// generateAccessToken generates a JWT access token carrying identity, store and session claims
func (s *authService) generateAccessToken(user *domain.User, sessionID string) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID:    user.ID,
		Role:      user.RoleName,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if user.StoreID != nil {
		claims.StoreID = user.StoreID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// generateRefreshToken generates a refresh token and stores it in the database
func (s *authService) generateRefreshToken(ctx context.Context, user *domain.User) (*domain.RefreshToken, error) {
	now := s.now()
	refreshToken := &domain.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     uuid.New().String(),
		ExpiresAt: now.Add(s.cfg.RefreshExpiry),
		CreatedAt: now,
	}

	if err := s.repos.RefreshTokens.Create(ctx, refreshToken); err != nil {
		return nil, err
	}
	return refreshToken, nil
}
