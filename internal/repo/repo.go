package repo

import (
	"context"
	"errors"
	"time"

	"github.com/Skotchmaster/blog/internal/models"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicate     = errors.New("duplicate unique field")
	ErrUnknownAuthor = errors.New("author does not exist")
)

// UserRepo is the credential store. CreateUser is the authoritative
// uniqueness guard for username and email.
type UserRepo interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error)
}

type PostRepo interface {
	ListPosts(ctx context.Context) ([]models.Post, error)
	GetPost(ctx context.Context, id uint) (*models.Post, error)
	CreatePost(ctx context.Context, title, content string, authorID uint) (*models.Post, error)
	UpdatePost(ctx context.Context, id uint, title, content string) (*models.Post, error)
	DeletePost(ctx context.Context, id uint) error
}

type Store interface {
	UserRepo
	PostRepo
	Ping(ctx context.Context) error
	Close() error
}

// Now is the default store clock. Microsecond precision matches what
// PostgreSQL keeps, so values survive a round trip unchanged.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// nextUpdate keeps updated_at strictly increasing even when the clock
// has not advanced since the previous write.
func nextUpdate(prev, now time.Time) time.Time {
	if !now.After(prev) {
		return prev.Add(time.Microsecond)
	}
	return now
}
