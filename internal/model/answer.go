package model

import (
	"fmt"
	"strconv"
	"strings"
)

// AnswerSet maps a 0-based question position to the respondent's answer.
// Keys are not guaranteed to be contiguous; a missing key means unanswered.
type AnswerSet map[int]string

// Get returns the trimmed answer at position i. Blank answers count as missing.
func (a AnswerSet) Get(i int) (string, bool) {
	if a == nil {
		return "", false
	}
	v, ok := a[i]
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	return v, true
}

// NormalizeAnswers converts loosely typed submitted answers (as decoded from JSON)
// into an AnswerSet. Numbers are string-encoded; nil values are dropped.
func NormalizeAnswers(raw map[string]interface{}) (AnswerSet, error) {
	out := make(AnswerSet, len(raw))
	for k, v := range raw {
		idx, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("invalid answer key %q: must be a question position", k)
		}
		switch val := v.(type) {
		case nil:
			continue
		case string:
			out[idx] = val
		case float64:
			out[idx] = strconv.FormatFloat(val, 'f', -1, 64)
		case int:
			out[idx] = strconv.Itoa(val)
		case bool:
			out[idx] = strconv.FormatBool(val)
		default:
			return nil, fmt.Errorf("unsupported answer value for question %d", idx)
		}
	}
	return out, nil
}
