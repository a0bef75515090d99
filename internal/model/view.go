package model

import "time"

// ViewKind tells the presentation layer what to show for a component
type ViewKind string

const (
	ViewLoading ViewKind = "loading"
	ViewError   ViewKind = "error"
	ViewReady   ViewKind = "ready"
)

// ViewModel is the presentational data for one component. Exactly one of the
// variant fields is set when Kind is ready.
type ViewModel struct {
	ComponentID string        `json:"componentId"`
	Type        ComponentType `json:"type"`
	Order       int           `json:"order"`
	Kind        ViewKind      `json:"kind"`
	Message     string        `json:"message,omitempty"` // error text

	Avatar   *AvatarView   `json:"avatar,omitempty"`
	Text     *TextView     `json:"text,omitempty"`
	Notice   *NoticeView   `json:"notice,omitempty"`
	Discount *DiscountView `json:"discount,omitempty"`
	CTA      *CTAView      `json:"cta,omitempty"`
}

type AvatarView struct {
	Title      string `json:"title"`
	ImageURL   string `json:"imageUrl"`
	AvatarName string `json:"avatarName"`
}

type TextView struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Sections []string `json:"sections,omitempty"`
}

type NoticeView struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

type DiscountView struct {
	Title   string `json:"title"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CTAView struct {
	Title string `json:"title,omitempty"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

// ResultSnapshot is the ordered, rendered state of one result session
type ResultSnapshot struct {
	SessionID  string      `json:"sessionId"`
	SurveyID   string      `json:"surveyId"`
	ResponseID string      `json:"responseId"`
	Done       bool        `json:"done"`
	Components []ViewModel `json:"components"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// ComponentUpdate is pushed to live subscribers when one component changes
type ComponentUpdate struct {
	SessionID string    `json:"sessionId"`
	Component ViewModel `json:"component"`
	Done      bool      `json:"done"`
}
