// Package users declares the credential-store contract for persisted
// accounts, including the single-slot refresh-token operations the session
// flows depend on.
package users

import (
	"context"

	"github.com/avolkovs/linkup/internal/server/models"
)

// ProfileUpdate is a partial update of the mutable profile fields.
// Nil fields are left unchanged.
type ProfileUpdate struct {
	DisplayName *string
	Bio         *string
	AvatarURL   *string
}

// Repository defines operations on persisted accounts.
//
// Error contract: lookups return common.ErrNotFound for absent accounts;
// Create returns common.ErrEmailTaken when the email uniqueness invariant
// would be violated. Anything else is a storage failure and propagates
// unmodified.
type Repository interface {
	// Create inserts a new account and returns it with the store-assigned
	// id and timestamps.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)

	UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*models.User, error)

	// SetRefreshToken overwrites the account's refresh-token slot.
	// A nil token revokes the session.
	SetRefreshToken(ctx context.Context, id string, token *string) error

	// ReplaceRefreshToken atomically swaps the slot from current to next.
	// It reports false when the slot no longer holds current, which is how
	// concurrent refreshes lose the rotation race.
	ReplaceRefreshToken(ctx context.Context, id, current, next string) (bool, error)

	// Follow records that followerID follows userID. Duplicate edges
	// yield common.ErrAlreadyFollowing.
	Follow(ctx context.Context, userID, followerID string) error

	// Unfollow removes the edge; a missing edge yields common.ErrNotFollowing.
	Unfollow(ctx context.Context, userID, followerID string) error
}
