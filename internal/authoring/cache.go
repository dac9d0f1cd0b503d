package authoring

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache remembers complete drafts so a watch loop does not pay for pages
// whose structure and metadata did not change. size <= 0 disables it.
// Truncated drafts and errors are never cached.
func Cache(size int) Middleware {
	return func(next Author) Author {
		if size <= 0 {
			return next
		}
		c, err := lru.New[string, Draft](size)
		if err != nil {
			return next
		}
		return &cached{next: next, cache: c}
	}
}

type cached struct {
	next  Author
	cache *lru.Cache[string, Draft]
}

func (c *cached) Name() string { return c.next.Name() }

func (c *cached) Write(ctx context.Context, req Request) (Draft, error) {
	key := CacheKey(req)
	if d, ok := c.cache.Get(key); ok {
		return d, nil
	}
	d, err := c.next.Write(ctx, req)
	if err == nil && !d.Truncated && d.Body != "" {
		c.cache.Add(key, d)
	}
	return d, err
}

// CacheKey hashes everything a draft may depend on. GeneratedAt is
// excluded since it changes on every run.
func CacheKey(req Request) string {
	type keyed struct {
		Slug        string
		Title       string
		Ancestors   []string
		Subsections []string
		Metadata    any
	}
	k := keyed{Slug: req.Slug, Title: req.Title, Ancestors: req.Ancestors, Subsections: req.Subsections}
	if req.Metadata != nil {
		m := *req.Metadata
		m.GeneratedAt = time.Time{}
		k.Metadata = m
	}
	data, _ := json.Marshal(k)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
