package model

// ComponentType is the variant tag of a result component
type ComponentType string

const (
	ComponentAIAvatar      ComponentType = "ai-avatar"
	ComponentAICustom      ComponentType = "ai-custom"
	ComponentCustomMessage ComponentType = "custom-message"
	ComponentDiscountCode  ComponentType = "discount-code"
	ComponentCTAButton     ComponentType = "cta-button"
)

// ResultComponent is one block of a survey's result experience, as authored.
// Config is decoded into a typed ComponentConfig by the result registry.
type ResultComponent struct {
	ID     string                 `json:"id" bson:"id"`
	Type   ComponentType          `json:"type" bson:"type"`
	Order  int                    `json:"order" bson:"order"`
	Config map[string]interface{} `json:"config,omitempty" bson:"config,omitempty"`
}

// ComponentConfig is the closed set of per-variant configurations
type ComponentConfig interface {
	ComponentType() ComponentType
}

// AvatarConfig configures an ai-avatar component
type AvatarConfig struct {
	Title          string `json:"title"`
	AIInstructions string `json:"aiInstructions"`
}

// CustomAIConfig configures an ai-custom component
type CustomAIConfig struct {
	Title    string   `json:"title"`
	Prompt   string   `json:"prompt"`
	Sections []string `json:"sections,omitempty"`
}

// MessageConfig configures a custom-message component
type MessageConfig struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// DiscountConfig configures a discount-code component
type DiscountConfig struct {
	Title   string `json:"title"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CTAConfig configures a cta-button component
type CTAConfig struct {
	Title string `json:"title"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

func (AvatarConfig) ComponentType() ComponentType   { return ComponentAIAvatar }
func (CustomAIConfig) ComponentType() ComponentType { return ComponentAICustom }
func (MessageConfig) ComponentType() ComponentType  { return ComponentCustomMessage }
func (DiscountConfig) ComponentType() ComponentType { return ComponentDiscountCode }
func (CTAConfig) ComponentType() ComponentType      { return ComponentCTAButton }

// GenerationStatus is the lifecycle of one component's generation
type GenerationStatus string

const (
	StatusIdle       GenerationStatus = "idle"
	StatusGenerating GenerationStatus = "generating"
	StatusReady      GenerationStatus = "ready"
	StatusFailed     GenerationStatus = "failed"
)

// rank orders statuses so transitions can only move forward
func (s GenerationStatus) rank() int {
	switch s {
	case StatusIdle:
		return 0
	case StatusGenerating:
		return 1
	case StatusReady, StatusFailed:
		return 2
	}
	return -1
}

// CanTransitionTo reports whether s -> next is a forward transition
func (s GenerationStatus) CanTransitionTo(next GenerationStatus) bool {
	return next.rank() > s.rank() && s.rank() >= 0
}

// IsTerminal reports whether no further transitions are possible
func (s GenerationStatus) IsTerminal() bool {
	return s == StatusReady || s == StatusFailed
}

// Payload is the variant-specific result of a successful generation
type Payload interface {
	PayloadType() ComponentType
}

// AvatarPayload is produced by the ai-avatar recipe
type AvatarPayload struct {
	ImageURL   string `json:"imageUrl"`
	AvatarName string `json:"avatarName"`
	Prompt     string `json:"prompt"`
}

// CustomAIPayload is produced by the ai-custom recipe
type CustomAIPayload struct {
	Content  string   `json:"content"`
	Title    string   `json:"title"`
	Sections []string `json:"sections,omitempty"`
}

func (AvatarPayload) PayloadType() ComponentType   { return ComponentAIAvatar }
func (CustomAIPayload) PayloadType() ComponentType { return ComponentAICustom }

// GenerationState is the per-component generation state
type GenerationState struct {
	Status  GenerationStatus `json:"status"`
	Payload Payload          `json:"payload,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// Idle returns the initial state
func Idle() GenerationState { return GenerationState{Status: StatusIdle} }

// Generating returns the in-flight state
func Generating() GenerationState { return GenerationState{Status: StatusGenerating} }

// Ready returns a successful terminal state
func Ready(p Payload) GenerationState { return GenerationState{Status: StatusReady, Payload: p} }

// Failed returns a failed terminal state
func Failed(msg string) GenerationState { return GenerationState{Status: StatusFailed, Error: msg} }
