package generative

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"surveyforge/internal/prompt"
)

var (
	mockAdjectives = []string{"Bold", "Cosmic", "Gentle", "Radiant", "Quiet", "Curious", "Lucky", "Brave"}
	mockNouns      = []string{"Falcon", "Voyager", "Otter", "Comet", "Willow", "Fox", "Lantern", "Harbor"}
)

// MockClient returns deterministic content without calling any service.
// It stands in when no API key is configured.
type MockClient struct{}

func NewMockClient() *MockClient { return &MockClient{} }

func (m *MockClient) Name() string { return "mock" }
func (m *MockClient) Close() error { return nil }

func (m *MockClient) GenerateImage(ctx context.Context, p string) (*ImageResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &ImageResult{URLs: []string{
		fmt.Sprintf("https://api.dicebear.com/9.x/bottts/png?seed=%08x", seed(p)),
	}}, nil
}

func (m *MockClient) GenerateText(ctx context.Context, p string) (*TextResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h := seed(p)
	if strings.HasPrefix(p, prompt.AvatarNameInstruction) {
		name := mockAdjectives[h%uint32(len(mockAdjectives))] + " " + mockNouns[(h/7)%uint32(len(mockNouns))]
		return &TextResult{Content: name}, nil
	}
	return &TextResult{Content: "Thanks for sharing your answers! Mock result - enable a generative provider for personalized content."}, nil
}

func seed(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}
