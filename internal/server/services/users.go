package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/avolkovs/linkup/internal/common"
	"github.com/avolkovs/linkup/internal/dbx"
	"github.com/avolkovs/linkup/internal/logging"
	"github.com/avolkovs/linkup/internal/server/models"
	"github.com/avolkovs/linkup/internal/server/repositories/repomanager"
	"github.com/avolkovs/linkup/internal/server/repositories/users"
)

// UserService provides profile reads/updates and the follow graph. It never
// exposes secret account fields: every result is a Profile projection.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "users"),
	}
}

func (s *UserService) ListUsers(ctx context.Context) ([]*models.Profile, error) {
	all, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}

	profiles := make([]*models.Profile, 0, len(all))
	for _, u := range all {
		profiles = append(profiles, u.Profile())
	}
	return profiles, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.Profile, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("fetching account: %w", err)
	}
	return user.Profile(), nil
}

// UpdateProfile applies a partial update to the caller's own profile.
func (s *UserService) UpdateProfile(ctx context.Context, id string, upd users.ProfileUpdate) (*models.Profile, error) {
	if upd.DisplayName != nil && strings.TrimSpace(*upd.DisplayName) == "" {
		return nil, common.ErrInvalidInput
	}

	user, err := s.repomanager.Users(s.db).UpdateProfile(ctx, id, upd)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	s.logger.Info(ctx, "profile updated", "user_id", id)
	return user.Profile(), nil
}

// Follow makes userID a follower of targetID. Following yourself is
// rejected. Both sides are checked inside one transaction with the edge
// insert so a concurrent account deletion cannot leave a dangling edge.
func (s *UserService) Follow(ctx context.Context, userID, targetID string) error {
	if userID == targetID {
		return common.ErrInvalidInput
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		if _, err := repo.GetByID(ctx, userID); err != nil {
			return err
		}
		if _, err := repo.GetByID(ctx, targetID); err != nil {
			return err
		}

		return repo.Follow(ctx, targetID, userID)
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrAlreadyFollowing) {
			return err
		}
		return fmt.Errorf("following account: %w", err)
	}

	s.logger.Info(ctx, "follow", "user_id", userID, "target_id", targetID)
	return nil
}

// Unfollow removes userID from targetID's followers.
func (s *UserService) Unfollow(ctx context.Context, userID, targetID string) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		if _, err := repo.GetByID(ctx, userID); err != nil {
			return err
		}
		if _, err := repo.GetByID(ctx, targetID); err != nil {
			return err
		}

		return repo.Unfollow(ctx, targetID, userID)
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrNotFollowing) {
			return err
		}
		return fmt.Errorf("unfollowing account: %w", err)
	}

	s.logger.Info(ctx, "unfollow", "user_id", userID, "target_id", targetID)
	return nil
}
