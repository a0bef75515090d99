package model

// QuestionType defines the type of question
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple-choice" // Pick one option
	QuestionTypeText           QuestionType = "text"            // Free text
	QuestionTypeRating         QuestionType = "rating"          // Numeric scale, answered as a string-encoded number
)

// QuestionOption is one selectable option of a multiple-choice question
type QuestionOption struct {
	Text  string `json:"text" bson:"text"`
	Value string `json:"value" bson:"value"`
}

// Question is immutable once a respondent's session begins
type Question struct {
	ID      string           `json:"id" bson:"id"`
	Title   string           `json:"title" bson:"title"`
	Type    QuestionType     `json:"type" bson:"type"`
	Options []QuestionOption `json:"options,omitempty" bson:"options,omitempty"` // multiple-choice only
}

// IsValid reports whether t is a known question type
func (t QuestionType) IsValid() bool {
	switch t {
	case QuestionTypeMultipleChoice, QuestionTypeText, QuestionTypeRating:
		return true
	}
	return false
}

// OptionText returns the display text for a stored choice value.
// Unknown values are returned unchanged.
func (q *Question) OptionText(value string) string {
	for _, opt := range q.Options {
		if opt.Value == value {
			if opt.Text != "" {
				return opt.Text
			}
			break
		}
	}
	return value
}
