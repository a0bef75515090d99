package generative

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"surveyforge/internal/logger"
)

// Middleware decorates a Client with a cross-cutting concern
type Middleware func(Client) Client

// Wrap applies middlewares in left-to-right order: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner Client, mws ...Middleware) Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// RateLimit throttles all calls through one token bucket. rps <= 0 disables it.
func RateLimit(rps float64, burst int) Middleware {
	return func(next Client) Client {
		return &rateLimited{next: next, rl: newRPSLimiter(rps, burst)}
	}
}

type rateLimited struct {
	next Client
	rl   *rpsLimiter
}

func (c *rateLimited) Name() string { return c.next.Name() }

func (c *rateLimited) Close() error {
	c.rl.Stop()
	return c.next.Close()
}

func (c *rateLimited) GenerateImage(ctx context.Context, prompt string) (*ImageResult, error) {
	if err := c.rl.Acquire(ctx); err != nil {
		return nil, err
	}
	return c.next.GenerateImage(ctx, prompt)
}

func (c *rateLimited) GenerateText(ctx context.Context, prompt string) (*TextResult, error) {
	if err := c.rl.Acquire(ctx); err != nil {
		return nil, err
	}
	return c.next.GenerateText(ctx, prompt)
}

// Logging records size, latency and errors of every call
func Logging() Middleware {
	return func(next Client) Client {
		return &logging{next: next, log: logger.For("generative")}
	}
}

type logging struct {
	next Client
	log  zerolog.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }

func (l *logging) GenerateImage(ctx context.Context, prompt string) (*ImageResult, error) {
	start := time.Now()
	res, err := l.next.GenerateImage(ctx, prompt)
	l.done("image", len(prompt), start, err)
	return res, err
}

func (l *logging) GenerateText(ctx context.Context, prompt string) (*TextResult, error) {
	start := time.Now()
	res, err := l.next.GenerateText(ctx, prompt)
	l.done("text", len(prompt), start, err)
	return res, err
}

func (l *logging) done(kind string, promptLen int, start time.Time, err error) {
	ev := l.log.Debug()
	if err != nil {
		ev = l.log.Warn().Err(err)
	}
	ev.Str("backend", l.next.Name()).
		Str("kind", kind).
		Int("promptBytes", promptLen).
		Dur("took", time.Since(start)).
		Msg("generation call finished")
}
