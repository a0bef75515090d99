// Package result composes a survey's result experience: it decodes the authored
// components, generates content for the ones that need it and renders every
// component into a view model in a stable order.
package result

import (
	"context"
	"fmt"
	"sort"

	"github.com/bytedance/sonic"

	"surveyforge/internal/generative"
	"surveyforge/internal/model"
)

// GenerationKind describes how a component's content is produced
type GenerationKind string

const (
	KindNone        GenerationKind = "none"
	KindSingleCall  GenerationKind = "single-call"
	KindChainedCall GenerationKind = "chained-call"
)

// Capabilities are the external generative services a recipe may call
type Capabilities struct {
	Images generative.ImageGenerator
	Text   generative.TextGenerator
}

// Context is the respondent's question/answer context
type Context struct {
	Questions []model.Question
	Answers   model.AnswerSet
}

// Recipe produces a component's payload. Errors become Failed states.
type Recipe func(ctx context.Context, caps Capabilities, cfg model.ComponentConfig, qc Context) (model.Payload, error)

// ViewFunc fills vm for a ready (or static) component from its config and
// payload. payload is nil for components that never generate.
type ViewFunc func(cfg model.ComponentConfig, payload model.Payload, vm *model.ViewModel) error

// Variant is the registry entry for one component type
type Variant struct {
	Type          model.ComponentType
	Kind          GenerationKind
	Description   string
	DefaultConfig func() model.ComponentConfig
	Decoder       func(data []byte) (model.ComponentConfig, error)
	Generate      Recipe
	View          ViewFunc

	// FailureMessage is shown when an upstream error carries no message
	FailureMessage string
}

// RequiresGeneration reports whether the variant calls the generative service
func (v *Variant) RequiresGeneration() bool {
	return v.Kind != KindNone && v.Generate != nil
}

// Decode converts an authored config map into the variant's typed config.
// Blank fields stay blank; the renderer applies defaults.
func (v *Variant) Decode(raw map[string]interface{}) (model.ComponentConfig, error) {
	if raw == nil {
		raw = map[string]interface{}{}
	}
	data, err := sonic.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", v.Type, err)
	}
	cfg, err := v.Decoder(data)
	if err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", v.Type, err)
	}
	return cfg, nil
}

func decodeAs[T model.ComponentConfig](data []byte) (model.ComponentConfig, error) {
	var cfg T
	if err := sonic.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Registry maps component types to their variant
type Registry struct {
	variants map[model.ComponentType]*Variant
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{variants: make(map[model.ComponentType]*Variant)}
}

// Register adds a variant; registering a type twice is a programming error
func (r *Registry) Register(v *Variant) {
	if _, dup := r.variants[v.Type]; dup {
		panic(fmt.Sprintf("result: variant %q registered twice", v.Type))
	}
	if v.Kind == "" {
		v.Kind = KindNone
	}
	if v.FailureMessage == "" {
		v.FailureMessage = "Failed to generate content"
	}
	r.variants[v.Type] = v
}

// Lookup returns the variant for t
func (r *Registry) Lookup(t model.ComponentType) (*Variant, bool) {
	v, ok := r.variants[t]
	return v, ok
}

// RequiresGeneration reports whether components of type t need generation
func (r *Registry) RequiresGeneration(t model.ComponentType) bool {
	v, ok := r.variants[t]
	return ok && v.RequiresGeneration()
}

// DefaultConfig returns the default config for t
func (r *Registry) DefaultConfig(t model.ComponentType) (model.ComponentConfig, bool) {
	v, ok := r.variants[t]
	if !ok {
		return nil, false
	}
	return v.DefaultConfig(), true
}

// VariantInfo describes a variant for the authoring UI
type VariantInfo struct {
	Type               model.ComponentType   `json:"type"`
	Description        string                `json:"description"`
	RequiresGeneration bool                  `json:"requiresGeneration"`
	GenerationKind     GenerationKind        `json:"generationKind"`
	DefaultConfig      model.ComponentConfig `json:"defaultConfig"`
}

// Variants lists all registered variants sorted by type
func (r *Registry) Variants() []VariantInfo {
	out := make([]VariantInfo, 0, len(r.variants))
	for _, v := range r.variants {
		out = append(out, VariantInfo{
			Type:               v.Type,
			Description:        v.Description,
			RequiresGeneration: v.RequiresGeneration(),
			GenerationKind:     v.Kind,
			DefaultConfig:      v.DefaultConfig(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// DefaultRegistry returns a registry with every built-in variant
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(avatarVariant())
	r.Register(customAIVariant())
	r.Register(messageVariant())
	r.Register(discountVariant())
	r.Register(ctaVariant())
	return r
}
