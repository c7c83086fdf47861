package repo

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepClock advances by a fixed step on every call.
type stepClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), step: time.Second}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(c.step)
	return c.t
}

// frozenClock never advances.
func frozenClock() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

type storeFactory func(t *testing.T, now func() time.Time) Store

func runStoreContract(t *testing.T, newStore storeFactory) {
	t.Run("CreateUser assigns increasing ids", func(t *testing.T) {
		s := newStore(t, newStepClock().Now)
		ctx := context.Background()

		a, err := s.CreateUser(ctx, "alice", "alice@example.com", "h1")
		require.NoError(t, err)
		b, err := s.CreateUser(ctx, "bob", "bob@example.com", "h2")
		require.NoError(t, err)

		assert.NotZero(t, a.ID)
		assert.Greater(t, b.ID, a.ID)
		assert.True(t, a.IsActive)
		assert.Equal(t, "h1", a.PasswordHash)
	})

	t.Run("CreateUser rejects duplicate username and email", func(t *testing.T) {
		s := newStore(t, newStepClock().Now)
		ctx := context.Background()

		_, err := s.CreateUser(ctx, "alice", "alice@example.com", "h")
		require.NoError(t, err)

		_, err = s.CreateUser(ctx, "alice", "other@example.com", "h")
		assert.ErrorIs(t, err, ErrDuplicate)

		_, err = s.CreateUser(ctx, "alice2", "alice@example.com", "h")
		assert.ErrorIs(t, err, ErrDuplicate)

		u, err := s.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", u.Email)

		ok, err := s.ExistsByUsername(ctx, "alice2")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("concurrent duplicate registrations leave one user", func(t *testing.T) {
		s := newStore(t, newStepClock().Now)
		ctx := context.Background()

		const n = 8
		var wg sync.WaitGroup
		var created atomic.Int32
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := s.CreateUser(ctx, "racer", fmt.Sprintf("racer%d@example.com", i), "h")
				if err == nil {
					created.Add(1)
					return
				}
				assert.ErrorIs(t, err, ErrDuplicate)
			}(i)
		}
		wg.Wait()

		assert.Equal(t, int32(1), created.Load())
	})

	t.Run("lookups", func(t *testing.T) {
		s := newStore(t, newStepClock().Now)
		ctx := context.Background()

		_, err := s.FindByUsername(ctx, "ghost")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = s.CreateUser(ctx, "carol", "carol@example.com", "h")
		require.NoError(t, err)

		ok, err := s.ExistsByUsername(ctx, "carol")
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = s.ExistsByEmail(ctx, "carol@example.com")
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = s.ExistsByEmail(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("post lifecycle", func(t *testing.T) {
		s := newStore(t, newStepClock().Now)
		ctx := context.Background()

		u, err := s.CreateUser(ctx, "dave", "dave@example.com", "h")
		require.NoError(t, err)

		p, err := s.CreatePost(ctx, "T", "C", u.ID)
		require.NoError(t, err)
		assert.NotZero(t, p.ID)
		assert.Equal(t, u.ID, p.AuthorID)
		assert.True(t, p.CreatedAt.Equal(p.UpdatedAt))

		got, err := s.GetPost(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "T", got.Title)
		assert.Equal(t, "C", got.Content)
		assert.True(t, got.CreatedAt.Equal(p.CreatedAt))

		updated, err := s.UpdatePost(ctx, p.ID, "T2", "C2")
		require.NoError(t, err)
		assert.Equal(t, "T2", updated.Title)
		assert.True(t, updated.UpdatedAt.After(p.UpdatedAt))
		assert.True(t, updated.CreatedAt.Equal(p.CreatedAt))

		got, err = s.GetPost(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "C2", got.Content)
		assert.True(t, got.UpdatedAt.Equal(updated.UpdatedAt))

		require.NoError(t, s.DeletePost(ctx, p.ID))
		_, err = s.GetPost(ctx, p.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.DeletePost(ctx, p.ID), ErrNotFound)
	})

	t.Run("updated_at strictly increases with a frozen clock", func(t *testing.T) {
		s := newStore(t, frozenClock)
		ctx := context.Background()

		u, err := s.CreateUser(ctx, "erin", "erin@example.com", "h")
		require.NoError(t, err)
		p, err := s.CreatePost(ctx, "T", "C", u.ID)
		require.NoError(t, err)

		first, err := s.UpdatePost(ctx, p.ID, "T", "C1")
		require.NoError(t, err)
		second, err := s.UpdatePost(ctx, p.ID, "T", "C2")
		require.NoError(t, err)

		assert.True(t, first.UpdatedAt.After(p.UpdatedAt))
		assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	})

	t.Run("list keeps insertion order", func(t *testing.T) {
		s := newStore(t, newStepClock().Now)
		ctx := context.Background()

		posts, err := s.ListPosts(ctx)
		require.NoError(t, err)
		assert.Empty(t, posts)

		u, err := s.CreateUser(ctx, "frank", "frank@example.com", "h")
		require.NoError(t, err)
		for _, title := range []string{"one", "two", "three"} {
			_, err := s.CreatePost(ctx, title, "", u.ID)
			require.NoError(t, err)
		}

		posts, err = s.ListPosts(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 3)
		assert.Equal(t, "one", posts[0].Title)
		assert.Equal(t, "two", posts[1].Title)
		assert.Equal(t, "three", posts[2].Title)
	})

	t.Run("missing ids and authors", func(t *testing.T) {
		s := newStore(t, newStepClock().Now)
		ctx := context.Background()

		_, err := s.GetPost(ctx, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.UpdatePost(ctx, 9999, "t", "c")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = s.CreatePost(ctx, "orphan", "", 4242)
		assert.ErrorIs(t, err, ErrUnknownAuthor)

		posts, err := s.ListPosts(ctx)
		require.NoError(t, err)
		assert.Empty(t, posts)
	})

	t.Run("ping", func(t *testing.T) {
		s := newStore(t, newStepClock().Now)
		require.NoError(t, s.Ping(context.Background()))
	})
}
