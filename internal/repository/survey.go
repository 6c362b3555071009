package repository

import (
	"context"

	"surveyapi/internal/model"
)

// SurveyRepository persists surveys together with their questions and options.
type SurveyRepository interface {
	// Create inserts the survey, its questions and options in one transaction.
	Create(ctx context.Context, s *model.Survey) (*model.Survey, error)

	// FindByID returns the survey with ordered questions, options and its instance count.
	FindByID(ctx context.Context, id string) (*model.Survey, error)

	// List returns surveys of clientID, or of every client when clientID is empty.
	List(ctx context.Context, clientID string, pq PageQuery) (*PageResult[model.Survey], error)

	// Update writes title and description, sql.ErrNoRows when the survey is gone. When replaceQuestions is set the
	// previous questions are deleted and s.Questions inserted in the same transaction.
	Update(ctx context.Context, s *model.Survey, replaceQuestions bool) error

	Delete(ctx context.Context, id string) error

	// ListQuestions returns the ordered questions of a survey with their options.
	ListQuestions(ctx context.Context, surveyID string) ([]model.Question, error)
}
