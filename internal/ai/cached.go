package ai

import (
	"context"
	"encoding/json"

	"google.golang.org/genai"

	"finstress/internal/cache"
)

// CachedStructurer memoizes successful Structure calls. Identical prompts and
// schemas return the stored JSON without calling the model again. Errors are
// never cached.
type CachedStructurer struct {
	next  Structurer
	cache cache.Cache[[]byte]
}

func NewCachedStructurer(next Structurer, c cache.Cache[[]byte]) *CachedStructurer {
	return &CachedStructurer{next: next, cache: c}
}

func (c *CachedStructurer) Structure(ctx context.Context, p Prompt, schema *genai.Schema) ([]byte, error) {
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return c.next.Structure(ctx, p, schema)
	}
	key := cache.Key([]byte(p.System), []byte(p.User), schemaJSON)

	if hit, ok := c.cache.Get(key); ok {
		return append([]byte(nil), hit...), nil
	}
	out, err := c.next.Structure(ctx, p, schema)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, append([]byte(nil), out...))
	return out, nil
}
