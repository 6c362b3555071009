package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"surveyapi/internal/model"
	"surveyapi/internal/repository"
)

type MockSurveyRepository struct {
	mock.Mock
}

func (m *MockSurveyRepository) Create(ctx context.Context, s *model.Survey) (*model.Survey, error) {
	args := m.Called(ctx, s)
	if f, ok := args.Get(0).(func(context.Context, *model.Survey) *model.Survey); ok {
		return f(ctx, s), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Survey), args.Error(1)
}

func (m *MockSurveyRepository) FindByID(ctx context.Context, id string) (*model.Survey, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Survey), args.Error(1)
}

func (m *MockSurveyRepository) List(ctx context.Context, clientID string, pq repository.PageQuery) (*repository.PageResult[model.Survey], error) {
	args := m.Called(ctx, clientID, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Survey]), args.Error(1)
}

func (m *MockSurveyRepository) Update(ctx context.Context, s *model.Survey, replaceQuestions bool) error {
	args := m.Called(ctx, s, replaceQuestions)
	return args.Error(0)
}

func (m *MockSurveyRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSurveyRepository) ListQuestions(ctx context.Context, surveyID string) ([]model.Question, error) {
	args := m.Called(ctx, surveyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Question), args.Error(1)
}

type MockInstanceRepository struct {
	mock.Mock
}

func (m *MockInstanceRepository) Create(ctx context.Context, inst *model.SurveyInstance) (*model.SurveyInstance, error) {
	args := m.Called(ctx, inst)
	if f, ok := args.Get(0).(func(context.Context, *model.SurveyInstance) *model.SurveyInstance); ok {
		return f(ctx, inst), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SurveyInstance), args.Error(1)
}

func (m *MockInstanceRepository) FindByID(ctx context.Context, id string) (*model.SurveyInstance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SurveyInstance), args.Error(1)
}

func (m *MockInstanceRepository) List(ctx context.Context, f repository.InstanceFilter) ([]model.SurveyInstance, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SurveyInstance), args.Error(1)
}

func (m *MockInstanceRepository) ListOpen(ctx context.Context, now time.Time) ([]model.SurveyInstance, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SurveyInstance), args.Error(1)
}

func (m *MockInstanceRepository) UpdateClosureDate(ctx context.Context, id string, closure *time.Time) error {
	args := m.Called(ctx, id, closure)
	return args.Error(0)
}

func (m *MockInstanceRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
