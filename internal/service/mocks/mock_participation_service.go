package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"surveyapi/internal/model"
	"surveyapi/internal/service"
)

type MockParticipationService struct {
	mock.Mock
}

func (m *MockParticipationService) PublicSurvey(ctx context.Context, actor *model.User, instanceID string) (*service.PublicSurvey, error) {
	args := m.Called(ctx, actor, instanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PublicSurvey), args.Error(1)
}

func (m *MockParticipationService) Submit(ctx context.Context, actor *model.User, instanceID string, in service.SubmitInput) (*service.SubmitResult, error) {
	args := m.Called(ctx, actor, instanceID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SubmitResult), args.Error(1)
}

func (m *MockParticipationService) Results(ctx context.Context, actor *model.User, participationID string) (*service.ParticipationResults, error) {
	args := m.Called(ctx, actor, participationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ParticipationResults), args.Error(1)
}

func (m *MockParticipationService) InstanceStats(ctx context.Context, surveyID, instanceID string) (*service.InstanceStats, error) {
	args := m.Called(ctx, surveyID, instanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.InstanceStats), args.Error(1)
}
