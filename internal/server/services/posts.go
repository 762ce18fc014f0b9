package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/avolkovs/linkup/internal/common"
	"github.com/avolkovs/linkup/internal/logging"
	"github.com/avolkovs/linkup/internal/server/models"
	"github.com/avolkovs/linkup/internal/server/repositories/repomanager"
)

// PostService publishes and lists posts on behalf of authenticated accounts.
type PostService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewPostService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *PostService {
	return &PostService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "posts"),
	}
}

func (s *PostService) CreatePost(ctx context.Context, authorID, title, content string) (*models.Post, error) {
	if strings.TrimSpace(content) == "" {
		return nil, common.ErrInvalidInput
	}

	post, err := s.repomanager.Posts(s.db).Create(ctx, &models.Post{
		AuthorID: authorID,
		Title:    title,
		Content:  content,
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.logger.Info(ctx, "post created", "post_id", post.ID, "author_id", authorID)
	return post, nil
}

func (s *PostService) ListPostsByAuthor(ctx context.Context, authorID string) ([]*models.Post, error) {
	posts, err := s.repomanager.Posts(s.db).ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return posts, nil
}
