package users

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avolkovs/linkup/internal/common"
	"github.com/avolkovs/linkup/internal/server/models"
)

// InMemoryRepository is a mutex-guarded Repository used in tests. It
// honors the same error contract and the same compare-and-swap semantics
// as the Postgres implementation.
type InMemoryRepository struct {
	mu    sync.Mutex
	users map[string]*models.User
	// edges[userID] holds the set of follower ids.
	edges map[string]map[string]struct{}
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		users: make(map[string]*models.User),
		edges: make(map[string]map[string]struct{}),
	}
}

func (r *InMemoryRepository) clone(u *models.User) *models.User {
	c := *u
	if u.RefreshToken != nil {
		token := *u.RefreshToken
		c.RefreshToken = &token
	}
	c.Followers = len(r.edges[u.ID])
	c.Following = 0
	for _, followers := range r.edges {
		if _, ok := followers[u.ID]; ok {
			c.Following++
		}
	}
	return &c
}

func (r *InMemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email {
			return nil, common.ErrEmailTaken
		}
	}

	now := time.Now()
	stored := *user
	stored.ID = uuid.NewString()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.users[stored.ID] = &stored

	return r.clone(&stored), nil
}

func (r *InMemoryRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return r.clone(u), nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return r.clone(u), nil
}

func (r *InMemoryRepository) List(ctx context.Context) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		result = append(result, r.clone(u))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r *InMemoryRepository) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	if upd.DisplayName != nil {
		u.DisplayName = *upd.DisplayName
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}
	if upd.AvatarURL != nil {
		u.AvatarURL = *upd.AvatarURL
	}
	u.UpdatedAt = time.Now()

	return r.clone(u), nil
}

func (r *InMemoryRepository) SetRefreshToken(ctx context.Context, id string, token *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return common.ErrNotFound
	}
	if token != nil {
		value := *token
		u.RefreshToken = &value
	} else {
		u.RefreshToken = nil
	}
	u.UpdatedAt = time.Now()
	return nil
}

func (r *InMemoryRepository) ReplaceRefreshToken(ctx context.Context, id, current, next string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return false, nil
	}
	if u.RefreshToken == nil || *u.RefreshToken != current {
		return false, nil
	}
	u.RefreshToken = &next
	u.UpdatedAt = time.Now()
	return true, nil
}

func (r *InMemoryRepository) Follow(ctx context.Context, userID, followerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[userID]; !ok {
		return common.ErrNotFound
	}
	if _, ok := r.users[followerID]; !ok {
		return common.ErrNotFound
	}

	followers, ok := r.edges[userID]
	if !ok {
		followers = make(map[string]struct{})
		r.edges[userID] = followers
	}
	if _, ok := followers[followerID]; ok {
		return common.ErrAlreadyFollowing
	}
	followers[followerID] = struct{}{}
	return nil
}

func (r *InMemoryRepository) Unfollow(ctx context.Context, userID, followerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	followers := r.edges[userID]
	if _, ok := followers[followerID]; !ok {
		return common.ErrNotFollowing
	}
	delete(followers, followerID)
	return nil
}
