package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"surveyforge/internal/config"
	"surveyforge/internal/logger"
	"surveyforge/internal/model"
	"surveyforge/internal/repository"
	"surveyforge/internal/result"
	"surveyforge/internal/service"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Environment, cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())

	surveys := service.NewSurveyService(repository.NewSurveyRepo(client.Database(cfg.MongoDB)), result.DefaultRegistry())
	hostID := service.HostIDFor(cfg.HostUsername)

	survey, err := surveys.Create(ctx, hostID, demoSurvey())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to insert survey")
	}

	log.Info().Str("surveyId", survey.ID).Str("hostId", hostID).Str("title", survey.Title).Msg("seeded demo survey")
}

func demoSurvey() *model.Survey {
	return &model.Survey{
		Title:       "Smartphone Launch Feedback",
		Description: "Tell us about your new device and get a personalized result.",
		Questions: []model.Question{
			{
				ID:    "q1",
				Title: "On a scale from 1 to 5, how satisfied are you with this smartphone overall?",
				Type:  model.QuestionTypeRating,
			},
			{
				ID:    "q2",
				Title: "Which model did you purchase?",
				Type:  model.QuestionTypeMultipleChoice,
				Options: []model.QuestionOption{
					{Text: "Standard Model", Value: "standard"},
					{Text: "Pro / Plus Model", Value: "pro"},
					{Text: "Ultra / Max Model", Value: "ultra"},
				},
			},
			{
				ID:    "q3",
				Title: "Which feature do you find the most impressive?",
				Type:  model.QuestionTypeText,
			},
			{
				ID:    "q4",
				Title: "What is one thing you would improve about this smartphone?",
				Type:  model.QuestionTypeText,
			},
		},
		ResultExperience: model.ResultExperience{
			Enabled: true,
			Components: []model.ResultComponent{
				{
					ID:    "avatar",
					Type:  model.ComponentAIAvatar,
					Order: 0,
					Config: map[string]interface{}{
						"title":          "Your Phone Persona",
						"aiInstructions": "Create a playful, futuristic character portrait that reflects how this person uses their phone.",
					},
				},
				{
					ID:    "summary",
					Type:  model.ComponentAICustom,
					Order: 1,
					Config: map[string]interface{}{
						"title":    "What Your Answers Say",
						"prompt":   "Write a short, upbeat summary of this person's smartphone habits and one tip to get more from their device.",
						"sections": []interface{}{"Your Style", "Pro Tip"},
					},
				},
				{
					ID:    "thanks",
					Type:  model.ComponentCustomMessage,
					Order: 2,
					Config: map[string]interface{}{
						"title":   "Thanks for the feedback!",
						"message": "Our product team reads every response.",
					},
				},
				{
					ID:    "reward",
					Type:  model.ComponentDiscountCode,
					Order: 3,
					Config: map[string]interface{}{
						"code":    "PHONE15",
						"message": "15% off any accessory.",
					},
				},
				{
					ID:    "shop",
					Type:  model.ComponentCTAButton,
					Order: 4,
					Config: map[string]interface{}{
						"label": "Browse Accessories",
						"url":   "/accessories",
					},
				},
			},
		},
	}
}
