package repo

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/Skotchmaster/blog/internal/models"
)

type CacheObserver interface {
	CacheHit(kind string)
	CacheMiss(kind string)
}

// CachedPosts serves GetPost from an in-process cache. Writes that go
// through it keep the cache coherent; listing always hits the store.
//
// Every write bumps a per-post generation. A read that missed only fills
// the cache if the generation is unchanged since before its store read.
type CachedPosts struct {
	PostRepo
	cache    *cache.Cache
	observer CacheObserver

	mu  sync.Mutex
	gen map[uint]uint64
}

func NewCachedPosts(next PostRepo, ttl time.Duration, observer CacheObserver) *CachedPosts {
	return &CachedPosts{
		PostRepo: next,
		cache:    cache.New(ttl, 2*ttl),
		observer: observer,
		gen:      make(map[uint]uint64),
	}
}

func postKey(id uint) string { return "post:" + strconv.FormatUint(uint64(id), 10) }

func (c *CachedPosts) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	key := postKey(id)
	if v, ok := c.cache.Get(key); ok {
		c.hit()
		p := v.(models.Post)
		return &p, nil
	}
	c.miss()

	c.mu.Lock()
	seen := c.gen[id]
	c.mu.Unlock()

	p, err := c.PostRepo.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.gen[id] == seen {
		c.cache.Set(key, *p, cache.DefaultExpiration)
	}
	c.mu.Unlock()
	return p, nil
}

func (c *CachedPosts) UpdatePost(ctx context.Context, id uint, title, content string) (*models.Post, error) {
	p, err := c.PostRepo.UpdatePost(ctx, id, title, content)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen[id]++
	if err != nil {
		c.cache.Delete(postKey(id))
		return nil, err
	}
	c.cache.Set(postKey(id), *p, cache.DefaultExpiration)
	return p, nil
}

func (c *CachedPosts) DeletePost(ctx context.Context, id uint) error {
	err := c.PostRepo.DeletePost(ctx, id)
	if err == nil || errors.Is(err, ErrNotFound) {
		c.mu.Lock()
		c.gen[id]++
		c.cache.Delete(postKey(id))
		c.mu.Unlock()
	}
	return err
}

func (c *CachedPosts) hit() {
	if c.observer != nil {
		c.observer.CacheHit("post")
	}
}

func (c *CachedPosts) miss() {
	if c.observer != nil {
		c.observer.CacheMiss("post")
	}
}
