package model

import "time"

// ResultExperience is the post-completion screen configured for a survey
type ResultExperience struct {
	Enabled    bool              `json:"enabled" bson:"enabled"`
	Components []ResultComponent `json:"components" bson:"components"`
}

// Survey is a persistent template created by a host
type Survey struct {
	ID               string           `json:"id" bson:"_id,omitempty"`
	HostID           string           `json:"hostId" bson:"hostId"`
	Title            string           `json:"title" bson:"title"`
	Description      string           `json:"description,omitempty" bson:"description,omitempty"`
	Questions        []Question       `json:"questions" bson:"questions"`
	ResultExperience ResultExperience `json:"resultExperience" bson:"resultExperience"`
	CreatedAt        time.Time        `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt" bson:"updatedAt"`
}

// PublicSurvey is what a respondent sees before answering
type PublicSurvey struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Questions   []Question `json:"questions"`
}

// Public strips host-only fields
func (s *Survey) Public() *PublicSurvey {
	return &PublicSurvey{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Questions:   s.Questions,
	}
}
