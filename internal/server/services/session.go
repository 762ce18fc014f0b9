// Package services contains server-side business logic. This file implements
// SessionService, which handles signup, login, refresh-token rotation, and
// logout against the account store.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/avolkovs/linkup/internal/common"
	"github.com/avolkovs/linkup/internal/logging"
	"github.com/avolkovs/linkup/internal/server/auth"
	"github.com/avolkovs/linkup/internal/server/config"
	"github.com/avolkovs/linkup/internal/server/models"
	"github.com/avolkovs/linkup/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// SessionService models each account's session as two states: logged out
// (no stored refresh token) and logged in (exactly one stored refresh
// token). Every successful signup, login, or refresh replaces the stored
// token, so at most one refresh token is redeemable per account at any
// instant.
type SessionService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	logger                       logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	bcryptCost                   int
}

// NewSessionService constructs a SessionService using repositories and
// server config.
func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger, cfg *config.Config) *SessionService {
	return &SessionService{
		db:                           db,
		repomanager:                  m,
		logger:                       logger.With("module", "sessions"),
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		bcryptCost:                   cfg.BcryptCost,
	}
}

// NormalizeEmail lowercases and trims an email so uniqueness is
// case-insensitive, matching how addresses are stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// SignUp registers a new account and immediately starts its first session.
func (s *SessionService) SignUp(ctx context.Context, displayName, email, password string) (*TokenPair, *models.User, error) {
	email = NormalizeEmail(email)

	if strings.TrimSpace(displayName) == "" || !validEmail(email) {
		return nil, nil, common.ErrInvalidInput
	}

	repo := s.repomanager.Users(s.db)

	if _, err := repo.GetByEmail(ctx, email); err == nil {
		return nil, nil, common.ErrEmailTaken
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, nil, fmt.Errorf("checking email: %w", err)
	}

	passwordHash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, nil, err
	}

	user, err := repo.Create(ctx, &models.User{
		DisplayName:  displayName,
		Email:        email,
		PasswordHash: passwordHash,
		Bio:          models.DefaultBio,
		AvatarURL:    models.DefaultAvatarURL,
	})
	if err != nil {
		if errors.Is(err, common.ErrEmailTaken) {
			return nil, nil, common.ErrEmailTaken
		}
		return nil, nil, fmt.Errorf("creating account: %w", err)
	}

	pair, err := s.startSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info(ctx, "account registered", "user_id", user.ID)
	return pair, user, nil
}

// Login verifies the credentials and starts a fresh session, overwriting
// any refresh token from a previous one. A second device logging in
// invalidates the first device's refresh token.
func (s *SessionService) Login(ctx context.Context, email, password string) (*TokenPair, *models.User, error) {
	email = NormalizeEmail(email)

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// Indistinguishable from a wrong password on purpose.
			return nil, nil, common.ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("fetching account: %w", err)
	}

	ok, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil {
		return nil, nil, fmt.Errorf("verifying password for account %s: %w", user.ID, err)
	}
	if !ok {
		return nil, nil, common.ErrInvalidCredentials
	}

	pair, err := s.startSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info(ctx, "login", "user_id", user.ID)
	return pair, user, nil
}

// Refresh redeems a refresh token for a new TokenPair, rotating the stored
// token. A token can be redeemed at most once: after a successful refresh
// the presented token is permanently dead, and presenting a stale one is
// rejected exactly like a forged one.
func (s *SessionService) Refresh(ctx context.Context, userID, refreshToken string) (*TokenPair, error) {
	claims, err := auth.ParseToken(refreshToken, s.jwtSecret)
	if err != nil {
		// Expired and tampered tokens are distinguished in logs only;
		// the caller sees one error for all rejection causes.
		s.logger.Warn(ctx, "refresh rejected", "user_id", userID, "reason", err.Error())
		return nil, common.ErrUnauthorized
	}
	if claims.UserID != userID {
		s.logger.Warn(ctx, "refresh rejected", "user_id", userID, "reason", "subject mismatch")
		return nil, common.ErrUnauthorized
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("fetching account: %w", err)
	}
	if user.RefreshToken == nil {
		s.logger.Warn(ctx, "refresh rejected", "user_id", userID, "reason", "no active session")
		return nil, common.ErrUnauthorized
	}

	pair, err := s.generateTokenPair(user)
	if err != nil {
		return nil, err
	}

	ok, err := repo.ReplaceRefreshToken(ctx, userID, refreshToken, pair.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("rotating refresh token: %w", err)
	}
	if !ok {
		s.logger.Warn(ctx, "refresh rejected", "user_id", userID, "reason", "token already rotated")
		return nil, common.ErrUnauthorized
	}

	return pair, nil
}

// Logout revokes the account's session. Logging out an already-logged-out
// account succeeds silently.
func (s *SessionService) Logout(ctx context.Context, userID string) error {
	repo := s.repomanager.Users(s.db)

	if err := repo.SetRefreshToken(ctx, userID, nil); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		return fmt.Errorf("revoking refresh token: %w", err)
	}

	s.logger.Info(ctx, "logout", "user_id", userID)
	return nil
}

// VerifyAccessToken checks an access token and returns its claims. Used by
// the transport middleware.
func (s *SessionService) VerifyAccessToken(tokenString string) (*auth.Claims, error) {
	return auth.ParseToken(tokenString, s.jwtSecret)
}

// --- helpers below ---

func (s *SessionService) generateTokenPair(user *models.User) (*TokenPair, error) {
	access, err := auth.GenerateToken(user.ID, user.Email, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("issuing access token: %w", err)
	}
	refresh, err := auth.GenerateToken(user.ID, user.Email, s.jwtSecret, s.refreshTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("issuing refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *SessionService) startSession(ctx context.Context, user *models.User) (*TokenPair, error) {
	pair, err := s.generateTokenPair(user)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)
	if err := repo.SetRefreshToken(ctx, user.ID, &pair.RefreshToken); err != nil {
		return nil, fmt.Errorf("storing refresh token: %w", err)
	}

	return pair, nil
}
