package ai

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache memoises successful extractions per normalised description.
type Cache struct {
	next    Extractor
	entries *lru.Cache[string, *Extraction]
}

// WithCache wraps next with an LRU of the given size. Fallback results are never stored.
func WithCache(next Extractor, size int) (*Cache, error) {
	entries, err := lru.New[string, *Extraction](size)
	if err != nil {
		return nil, fmt.Errorf("create extraction cache: %w", err)
	}
	return &Cache{next: next, entries: entries}, nil
}

func (c *Cache) Extract(ctx context.Context, description string) (*Extraction, error) {
	key := cacheKey(description)
	if cached, ok := c.entries.Get(key); ok {
		return cached.Clone(), nil
	}

	result, err := c.next.Extract(ctx, description)
	if err != nil {
		return nil, err
	}
	if !result.Fallback {
		c.entries.Add(key, result.Clone())
	}
	return result, nil
}

// Len reports how many descriptions are cached.
func (c *Cache) Len() int { return c.entries.Len() }

func cacheKey(description string) string {
	return strings.ToLower(strings.Join(strings.Fields(description), " "))
}
