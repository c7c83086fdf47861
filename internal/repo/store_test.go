package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/blog/internal/models"
)

func InitTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.User{}, &models.Post{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func TestMemoryRepo_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T, now func() time.Time) Store {
		return NewMemoryRepo().WithClock(now)
	})
}

func TestGormRepo_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T, now func() time.Time) Store {
		return NewGormRepo(InitTestDB(t)).WithClock(now)
	})
}

func TestMemoryRepo_ReturnsCopies(t *testing.T) {
	t.Parallel()

	r := NewMemoryRepo()
	ctx := context.Background()
	u, err := r.CreateUser(ctx, "alice", "alice@example.com", "h")
	require.NoError(t, err)
	p, err := r.CreatePost(ctx, "T", "C", u.ID)
	require.NoError(t, err)

	p.Title = "mutated"
	posts, err := r.ListPosts(ctx)
	require.NoError(t, err)
	posts[0].Content = "mutated"

	got, err := r.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "T", got.Title)
	assert.Equal(t, "C", got.Content)
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, isUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.True(t, isUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: users.username (2067)")))
	assert.False(t, isUniqueViolation(errors.New("connection refused")))
}

func TestNextUpdate(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, base.Add(time.Second), nextUpdate(base, base.Add(time.Second)))
	assert.Equal(t, base.Add(time.Microsecond), nextUpdate(base, base))
	assert.Equal(t, base.Add(time.Microsecond), nextUpdate(base, base.Add(-time.Hour)))
}
