package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache memoizes successful responses keyed on (stage, prompt). Prompts embed
// the serialized stage input, so identical inputs to the same stage share an
// entry. Errors are never cached. size <= 0 disables the cache.
func Cache(size int, ttl time.Duration) Middleware {
	return func(next LLMClient) LLMClient {
		if size <= 0 {
			return next
		}
		return &caching{next: next, lru: expirable.NewLRU[string, string](size, nil, ttl)}
	}
}

type caching struct {
	next LLMClient
	lru  *expirable.LRU[string, string]
}

func (c *caching) Name() string { return c.next.Name() }
func (c *caching) Close() error { return c.next.Close() }
func (c *caching) Generate(ctx context.Context, prompt string) (string, error) {
	key := cacheKey(StageFrom(ctx), prompt)
	if out, ok := c.lru.Get(key); ok {
		return out, nil
	}
	out, err := c.next.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	c.lru.Add(key, out)
	return out, nil
}

func cacheKey(stage, prompt string) string {
	h := sha256.New()
	h.Write([]byte(stage))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return hex.EncodeToString(h.Sum(nil))
}
