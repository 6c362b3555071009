package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"surveyapi/internal/model"
	"surveyapi/internal/service"
)

type MockSurveyService struct {
	mock.Mock
}

func (m *MockSurveyService) List(ctx context.Context, actor *model.User, limit, offset int) (*service.SurveyListResult, error) {
	args := m.Called(ctx, actor, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SurveyListResult), args.Error(1)
}

func (m *MockSurveyService) Create(ctx context.Context, actor *model.User, in service.SurveyInput) (*model.Survey, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Survey), args.Error(1)
}

func (m *MockSurveyService) Get(ctx context.Context, actor *model.User, id string) (*model.Survey, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Survey), args.Error(1)
}

func (m *MockSurveyService) Update(ctx context.Context, actor *model.User, id string, in service.SurveyInput) (*model.Survey, error) {
	args := m.Called(ctx, actor, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Survey), args.Error(1)
}

func (m *MockSurveyService) Delete(ctx context.Context, actor *model.User, id string) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}
