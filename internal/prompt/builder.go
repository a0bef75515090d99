// Package prompt turns survey context into prompts for the generative service.
// Every function here is pure: identical inputs produce identical output.
package prompt

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"

	"surveyforge/internal/model"
)

const (
	// NoAnswer stands in for unanswered questions
	NoAnswer = "No answer"

	// DefaultAvatarName is used when the name step fails or returns nothing usable
	DefaultAvatarName = "Your Avatar"

	// AvatarNameInstruction opens every avatar-name prompt
	AvatarNameInstruction = "Give a short, creative 2-3 word name for an avatar created from the description below."

	maxAvatarNameWords = 5
	maxAvatarNameLen   = 40
)

// BuildImagePrompt prefixes instructions to "{title}: {answer}" pairs joined by ". "
func BuildImagePrompt(instructions string, questions []model.Question, answers model.AnswerSet) string {
	instructions = strings.TrimSpace(instructions)
	if len(questions) == 0 {
		return instructions
	}

	pairs := make([]string, 0, len(questions))
	for i := range questions {
		pairs = append(pairs, fmt.Sprintf("%s: %s", title(questions, i), answerAt(questions, answers, i)))
	}
	return instructions + "\n\nSurvey answers: " + strings.Join(pairs, ". ")
}

// BuildTextPrompt prefixes a custom prompt to "Q: ...\nA: ..." blocks separated by blank lines
func BuildTextPrompt(customPrompt string, questions []model.Question, answers model.AnswerSet) string {
	customPrompt = strings.TrimSpace(customPrompt)
	if len(questions) == 0 {
		return customPrompt
	}

	blocks := make([]string, 0, len(questions))
	for i := range questions {
		blocks = append(blocks, fmt.Sprintf("Q: %s\nA: %s", title(questions, i), answerAt(questions, answers, i)))
	}
	return customPrompt + "\n\n" + strings.Join(blocks, "\n\n")
}

// BuildAvatarNamePrompt asks for a short display name for an avatar built from imagePrompt
func BuildAvatarNamePrompt(imagePrompt string) string {
	return fmt.Sprintf("%s\nRespond with ONLY the name, no quotes or punctuation.\n\nAvatar description:\n%s",
		AvatarNameInstruction, strings.TrimSpace(imagePrompt))
}

// ParseAvatarName extracts a display name from model output. ok is false when
// nothing usable was returned.
func ParseAvatarName(content string) (string, bool) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", false
	}

	// Some models answer in JSON even when asked not to
	if strings.HasPrefix(content, "{") {
		var obj struct {
			Name       string `json:"name"`
			AvatarName string `json:"avatarName"`
		}
		if err := sonic.UnmarshalString(content, &obj); err != nil {
			return "", false
		}
		content = obj.Name
		if content == "" {
			content = obj.AvatarName
		}
	}

	line := strings.TrimSpace(strings.SplitN(content, "\n", 2)[0])
	line = strings.TrimPrefix(line, "Name:")
	line = strings.Trim(line, " \t\"'`*_.#")
	words := strings.Fields(line)
	if len(words) == 0 || len(words) > maxAvatarNameWords {
		return "", false
	}
	name := strings.Join(words, " ")
	if len(name) > maxAvatarNameLen {
		return "", false
	}
	return name, true
}

func title(questions []model.Question, i int) string {
	if t := strings.TrimSpace(questions[i].Title); t != "" {
		return t
	}
	return fmt.Sprintf("Question %d", i+1)
}

func answerAt(questions []model.Question, answers model.AnswerSet, i int) string {
	v, ok := answers.Get(i)
	if !ok {
		return NoAnswer
	}
	if questions[i].Type == model.QuestionTypeMultipleChoice {
		return questions[i].OptionText(v)
	}
	return v
}
