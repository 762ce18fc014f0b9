// Package posts declares the repository contract for published posts.
package posts

import (
	"context"

	"github.com/avolkovs/linkup/internal/server/models"
)

// Repository defines operations for storing and listing posts.
type Repository interface {
	// Create persists a new post and returns it with the store-assigned id
	// and timestamp. An unknown author yields common.ErrNotFound.
	Create(ctx context.Context, post *models.Post) (*models.Post, error)

	// ListByAuthor returns the author's posts, newest first.
	ListByAuthor(ctx context.Context, authorID string) ([]*models.Post, error)
}
