package generative

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache memoizes successful results by prompt. Prompts are built
// deterministically, so identical survey context reuses earlier output.
func Cache(size int, ttl time.Duration) Middleware {
	return func(next Client) Client {
		return &cached{
			next:   next,
			images: expirable.NewLRU[string, ImageResult](size, nil, ttl),
			texts:  expirable.NewLRU[string, TextResult](size, nil, ttl),
		}
	}
}

type cached struct {
	next   Client
	images *expirable.LRU[string, ImageResult]
	texts  *expirable.LRU[string, TextResult]
}

func (c *cached) Name() string { return c.next.Name() }
func (c *cached) Close() error { return c.next.Close() }

func (c *cached) GenerateImage(ctx context.Context, prompt string) (*ImageResult, error) {
	if hit, ok := c.images.Get(prompt); ok {
		return &ImageResult{URLs: append([]string(nil), hit.URLs...)}, nil
	}
	res, err := c.next.GenerateImage(ctx, prompt)
	if err != nil {
		return nil, err
	}
	if res != nil && len(res.URLs) > 0 {
		c.images.Add(prompt, ImageResult{URLs: append([]string(nil), res.URLs...)})
	}
	return res, nil
}

func (c *cached) GenerateText(ctx context.Context, prompt string) (*TextResult, error) {
	if hit, ok := c.texts.Get(prompt); ok {
		return &TextResult{Content: hit.Content}, nil
	}
	res, err := c.next.GenerateText(ctx, prompt)
	if err != nil {
		return nil, err
	}
	if res != nil && res.Content != "" {
		c.texts.Add(prompt, *res)
	}
	return res, nil
}
