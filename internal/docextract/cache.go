package docextract

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Source is anything that can document files by extension.
type Source interface {
	Supports(ext string) bool
	Extract(name, ext string, content []byte) string
}

// Cache memoizes another Source by extension and content hash. It is safe for
// concurrent use.
type Cache struct {
	next  Source
	cache *lru.Cache[string, string]
}

// NewCache wraps next with an LRU cache holding up to size results.
func NewCache(next Source, size int) (*Cache, error) {
	c, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &Cache{next: next, cache: c}, nil
}

// Supports delegates to the wrapped source.
func (c *Cache) Supports(ext string) bool {
	return c.next.Supports(ext)
}

// Extract returns the cached result for identical content, extracting on a miss.
func (c *Cache) Extract(name, ext string, content []byte) string {
	sum := sha256.Sum256(content)
	key := strings.ToLower(ext) + ":" + hex.EncodeToString(sum[:])
	if doc, ok := c.cache.Get(key); ok {
		return doc
	}
	doc := c.next.Extract(name, ext, content)
	c.cache.Add(key, doc)
	return doc
}

// Len returns the number of cached results.
func (c *Cache) Len() int {
	return c.cache.Len()
}
