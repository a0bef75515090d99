package model

import "time"

// Response is a respondent's completed submission
type Response struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	SurveyID    string    `json:"surveyId" bson:"surveyId"`
	Answers     AnswerSet `json:"answers" bson:"answers"`
	SessionID   string    `json:"sessionId,omitempty" bson:"sessionId,omitempty"`
	SubmittedAt time.Time `json:"submittedAt" bson:"submittedAt"`
}

// SubmitResponseRequest is the body of POST /v1/surveys/{surveyId}/responses
type SubmitResponseRequest struct {
	Answers map[string]interface{} `json:"answers"`
}

// SubmitResponseResult is returned after a response is stored
type SubmitResponseResult struct {
	ResponseID string `json:"responseId"`
	SessionID  string `json:"sessionId,omitempty"`
	Token      string `json:"token,omitempty"`
}
