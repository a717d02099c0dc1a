package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"studyrag/internal/domain"
)

// QueryCache is a bounded, expiring cache of retrieval results. Keys carry
// the index generation, so entries from before a rebuild are never served.
type QueryCache struct {
	lru *expirable.LRU[string, domain.RetrievalResult]
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		lru: expirable.NewLRU[string, domain.RetrievalResult](maxSize, nil, ttl),
	}
}

// Key derives the cache key for a query against index generation gen.
func Key(gen uint64, query string, topK int, minSimilarity float64) string {
	var buf [24]byte
	binary.BigEndian.PutUint64(buf[0:8], gen)
	binary.BigEndian.PutUint64(buf[8:16], uint64(int64(topK)))
	binary.BigEndian.PutUint64(buf[16:24], math.Float64bits(minSimilarity))

	h := sha256.New()
	h.Write(buf[:])
	h.Write([]byte(query))
	return hex.EncodeToString(h.Sum(nil)[:16])
}

func (c *QueryCache) Get(key string) (domain.RetrievalResult, bool) {
	res, ok := c.lru.Get(key)
	if !ok {
		return domain.RetrievalResult{}, false
	}
	return clone(res), true
}

func (c *QueryCache) Add(key string, result domain.RetrievalResult) {
	c.lru.Add(key, clone(result))
}

// Purge drops every entry.
func (c *QueryCache) Purge() {
	c.lru.Purge()
}

func (c *QueryCache) Len() int {
	return c.lru.Len()
}

// Callers may mutate what they get back.
func clone(r domain.RetrievalResult) domain.RetrievalResult {
	out := r
	out.Sources = append([]domain.Source{}, r.Sources...)
	out.Similarities = append([]float64{}, r.Similarities...)
	return out
}
