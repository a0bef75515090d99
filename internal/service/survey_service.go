package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"surveyforge/internal/model"
	"surveyforge/internal/repository"
	"surveyforge/internal/result"
)

var (
	ErrSurveyNotFound           = errors.New("survey not found")
	ErrNotSurveyOwner           = errors.New("survey belongs to another host")
	ErrInvalidSurvey            = errors.New("invalid survey")
	ErrNoQuestions              = errors.New("survey has no questions")
	ErrResultExperienceDisabled = errors.New("result experience is disabled for this survey")
)

// ResultContext is everything a result session needs from a survey
type ResultContext struct {
	SurveyID   string
	Questions  []model.Question
	Components []model.ResultComponent
}

// SurveyService handles survey CRUD and is the engine's survey data provider
type SurveyService struct {
	surveyRepo repository.SurveyRepo
	registry   *result.Registry
}

// NewSurveyService creates a new survey service
func NewSurveyService(surveyRepo repository.SurveyRepo, registry *result.Registry) *SurveyService {
	return &SurveyService{
		surveyRepo: surveyRepo,
		registry:   registry,
	}
}

// Create validates and stores a new survey owned by hostID
func (s *SurveyService) Create(ctx context.Context, hostID string, survey *model.Survey) (*model.Survey, error) {
	survey.ID = ""
	survey.HostID = hostID
	if err := s.validate(survey); err != nil {
		return nil, err
	}
	if _, err := s.surveyRepo.Create(ctx, survey); err != nil {
		return nil, fmt.Errorf("create survey: %w", err)
	}
	return survey, nil
}

// Get retrieves a survey by ID
func (s *SurveyService) Get(ctx context.Context, id string) (*model.Survey, error) {
	survey, err := s.surveyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get survey: %w", err)
	}
	if survey == nil {
		return nil, ErrSurveyNotFound
	}
	return survey, nil
}

// GetOwned retrieves a survey and checks it belongs to hostID
func (s *SurveyService) GetOwned(ctx context.Context, hostID, id string) (*model.Survey, error) {
	survey, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if survey.HostID != hostID {
		return nil, ErrNotSurveyOwner
	}
	return survey, nil
}

// ListByHost retrieves all surveys for a host
func (s *SurveyService) ListByHost(ctx context.Context, hostID string) ([]*model.Survey, error) {
	return s.surveyRepo.GetByHostID(ctx, hostID)
}

// GetPublic returns the respondent-facing view of a survey
func (s *SurveyService) GetPublic(ctx context.Context, id string) (*model.PublicSurvey, error) {
	survey, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return survey.Public(), nil
}

// Update replaces an existing survey owned by hostID
func (s *SurveyService) Update(ctx context.Context, hostID, id string, survey *model.Survey) (*model.Survey, error) {
	existing, err := s.GetOwned(ctx, hostID, id)
	if err != nil {
		return nil, err
	}
	survey.ID = existing.ID
	survey.HostID = existing.HostID
	survey.CreatedAt = existing.CreatedAt
	if err := s.validate(survey); err != nil {
		return nil, err
	}
	if err := s.surveyRepo.Update(ctx, survey); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSurveyNotFound
		}
		return nil, fmt.Errorf("update survey: %w", err)
	}
	return survey, nil
}

// Delete deletes a survey owned by hostID
func (s *SurveyService) Delete(ctx context.Context, hostID, id string) error {
	if _, err := s.GetOwned(ctx, hostID, id); err != nil {
		return err
	}
	if err := s.surveyRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSurveyNotFound
		}
		return fmt.Errorf("delete survey: %w", err)
	}
	return nil
}

// GetResultContext returns the questions and result components for a survey.
// Missing data here is a caller configuration problem and is reported, never defaulted.
func (s *SurveyService) GetResultContext(ctx context.Context, id string) (*ResultContext, error) {
	survey, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return resultContextOf(survey)
}

func resultContextOf(survey *model.Survey) (*ResultContext, error) {
	if !survey.ResultExperience.Enabled {
		return nil, ErrResultExperienceDisabled
	}
	if len(survey.ResultExperience.Components) == 0 {
		return nil, result.ErrNoComponents
	}
	if len(survey.Questions) == 0 {
		return nil, ErrNoQuestions
	}
	return &ResultContext{
		SurveyID:   survey.ID,
		Questions:  survey.Questions,
		Components: survey.ResultExperience.Components,
	}, nil
}

// Components lists the component types available to authors
func (s *SurveyService) Components() []result.VariantInfo {
	return s.registry.Variants()
}

func (s *SurveyService) validate(survey *model.Survey) error {
	survey.Title = strings.TrimSpace(survey.Title)
	if survey.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidSurvey)
	}
	for i, q := range survey.Questions {
		if strings.TrimSpace(q.Title) == "" {
			return fmt.Errorf("%w: question %d has no title", ErrInvalidSurvey, i)
		}
		if !q.Type.IsValid() {
			return fmt.Errorf("%w: question %d has unknown type %q", ErrInvalidSurvey, i, q.Type)
		}
		if q.Type == model.QuestionTypeMultipleChoice && len(q.Options) == 0 {
			return fmt.Errorf("%w: question %d needs options", ErrInvalidSurvey, i)
		}
	}
	if survey.ResultExperience.Components == nil {
		survey.ResultExperience.Components = []model.ResultComponent{}
	}
	if err := result.Validate(s.registry, survey.ResultExperience.Components); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSurvey, err)
	}
	return nil
}
