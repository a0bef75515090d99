package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"surveyforge/internal/logger"
	"surveyforge/internal/model"
	"surveyforge/internal/repository"
)

var ErrInvalidAnswers = errors.New("invalid answers")

// ResponseService stores submissions and opens their result sessions
type ResponseService struct {
	responses repository.ResponseRepository
	surveys   *SurveyService
	results   *ResultService
	auth      *AuthService
	log       zerolog.Logger
}

// NewResponseService creates a new response service
func NewResponseService(responses repository.ResponseRepository, surveys *SurveyService, results *ResultService, auth *AuthService) *ResponseService {
	return &ResponseService{
		responses: responses,
		surveys:   surveys,
		results:   results,
		auth:      auth,
		log:       logger.For("response_service"),
	}
}

// Submit stores a respondent's final answers. When the survey has a result
// experience, a result session is started and a token scoped to it returned.
func (s *ResponseService) Submit(ctx context.Context, surveyID string, req *model.SubmitResponseRequest) (*model.SubmitResponseResult, error) {
	survey, err := s.surveys.Get(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	answers, err := model.NormalizeAnswers(req.Answers)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnswers, err)
	}
	for idx := range answers {
		if idx >= len(survey.Questions) {
			return nil, fmt.Errorf("%w: no question at position %d", ErrInvalidAnswers, idx)
		}
	}

	response := &model.Response{SurveyID: survey.ID, Answers: answers}
	if err := s.responses.Create(ctx, response); err != nil {
		return nil, fmt.Errorf("store response: %w", err)
	}
	out := &model.SubmitResponseResult{ResponseID: response.ID}

	if !survey.ResultExperience.Enabled || len(survey.ResultExperience.Components) == 0 {
		return out, nil
	}

	sessionID, err := s.results.Start(survey, response)
	if err != nil {
		return nil, fmt.Errorf("start result session: %w", err)
	}
	token, err := s.auth.GenerateRespondentToken(sessionID, response.ID)
	if err != nil {
		_ = s.results.Close(ctx, sessionID)
		return nil, fmt.Errorf("issue result token: %w", err)
	}
	if err := s.responses.SetSession(ctx, response.ID, sessionID); err != nil {
		s.log.Warn().Err(err).Str("responseId", response.ID).Msg("failed to link response to result session")
	}

	out.SessionID = sessionID
	out.Token = token
	return out, nil
}

// List returns a survey's responses for its host
func (s *ResponseService) List(ctx context.Context, hostID, surveyID string) ([]*model.Response, error) {
	if _, err := s.surveys.GetOwned(ctx, hostID, surveyID); err != nil {
		return nil, err
	}
	return s.responses.ListBySurvey(ctx, surveyID)
}
