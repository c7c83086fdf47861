package repo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Skotchmaster/blog/internal/models"
)

// MemoryRepo keeps users and posts in process memory. A single lock covers
// both collections, so the uniqueness check and the insert are atomic.
type MemoryRepo struct {
	mu  sync.RWMutex
	now func() time.Time

	users      []models.User
	posts      []models.Post
	nextUserID uint
	nextPostID uint
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{now: Now}
}

func (r *MemoryRepo) WithClock(now func() time.Time) *MemoryRepo {
	r.now = now
	return r
}

func (r *MemoryRepo) Ping(context.Context) error { return nil }
func (r *MemoryRepo) Close() error               { return nil }

func (r *MemoryRepo) FindByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.users {
		if r.users[i].Username == username {
			u := r.users[i]
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.userIndex(func(u *models.User) bool { return u.Username == username }) >= 0, nil
}

func (r *MemoryRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.userIndex(func(u *models.User) bool { return u.Email == email }) >= 0, nil
}

func (r *MemoryRepo) CreateUser(_ context.Context, username, email, passwordHash string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.userIndex(func(u *models.User) bool { return u.Username == username }) >= 0 {
		return nil, fmt.Errorf("%w: username %q", ErrDuplicate, username)
	}
	if r.userIndex(func(u *models.User) bool { return u.Email == email }) >= 0 {
		return nil, fmt.Errorf("%w: email %q", ErrDuplicate, email)
	}

	r.nextUserID++
	u := models.User{
		ID:           r.nextUserID,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    r.now(),
	}
	r.users = append(r.users, u)
	return &u, nil
}

func (r *MemoryRepo) ListPosts(context.Context) ([]models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Post, len(r.posts))
	copy(out, r.posts)
	return out, nil
}

func (r *MemoryRepo) GetPost(_ context.Context, id uint) (*models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.postIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	p := r.posts[i]
	return &p, nil
}

func (r *MemoryRepo) CreatePost(_ context.Context, title, content string, authorID uint) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.userIndex(func(u *models.User) bool { return u.ID == authorID }) < 0 {
		return nil, ErrUnknownAuthor
	}

	now := r.now()
	r.nextPostID++
	p := models.Post{
		ID:        r.nextPostID,
		Title:     title,
		Content:   content,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.posts = append(r.posts, p)
	return &p, nil
}

func (r *MemoryRepo) UpdatePost(_ context.Context, id uint, title, content string) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.postIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	p := &r.posts[i]
	p.Title = title
	p.Content = content
	p.UpdatedAt = nextUpdate(p.UpdatedAt, r.now())

	out := *p
	return &out, nil
}

func (r *MemoryRepo) DeletePost(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.postIndex(id)
	if i < 0 {
		return ErrNotFound
	}
	r.posts = append(r.posts[:i], r.posts[i+1:]...)
	return nil
}

func (r *MemoryRepo) userIndex(match func(*models.User) bool) int {
	for i := range r.users {
		if match(&r.users[i]) {
			return i
		}
	}
	return -1
}

func (r *MemoryRepo) postIndex(id uint) int {
	for i := range r.posts {
		if r.posts[i].ID == id {
			return i
		}
	}
	return -1
}
