package generative

import (
	"context"
	"sync"
)

// FakeClient is a programmable Client for tests. Nil funcs fall back to the mock.
type FakeClient struct {
	ImageFunc func(ctx context.Context, prompt string) (*ImageResult, error)
	TextFunc  func(ctx context.Context, prompt string) (*TextResult, error)

	mu           sync.Mutex
	imagePrompts []string
	textPrompts  []string
}

func (f *FakeClient) Name() string { return "fake" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) GenerateImage(ctx context.Context, prompt string) (*ImageResult, error) {
	f.mu.Lock()
	f.imagePrompts = append(f.imagePrompts, prompt)
	f.mu.Unlock()
	if f.ImageFunc != nil {
		return f.ImageFunc(ctx, prompt)
	}
	return NewMockClient().GenerateImage(ctx, prompt)
}

func (f *FakeClient) GenerateText(ctx context.Context, prompt string) (*TextResult, error) {
	f.mu.Lock()
	f.textPrompts = append(f.textPrompts, prompt)
	f.mu.Unlock()
	if f.TextFunc != nil {
		return f.TextFunc(ctx, prompt)
	}
	return NewMockClient().GenerateText(ctx, prompt)
}

// ImageCalls returns the prompts GenerateImage was called with
func (f *FakeClient) ImageCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.imagePrompts...)
}

// TextCalls returns the prompts GenerateText was called with
func (f *FakeClient) TextCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.textPrompts...)
}
