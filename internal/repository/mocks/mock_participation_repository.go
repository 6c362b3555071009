package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"surveyapi/internal/model"
	"surveyapi/internal/repository"
)

type MockParticipationRepository struct {
	mock.Mock
}

func (m *MockParticipationRepository) FindByID(ctx context.Context, id string) (*model.Participation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Participation), args.Error(1)
}

func (m *MockParticipationRepository) FindByUserAndInstance(ctx context.Context, userID, instanceID string) (*model.Participation, error) {
	args := m.Called(ctx, userID, instanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Participation), args.Error(1)
}

func (m *MockParticipationRepository) Submit(ctx context.Context, instanceID string, userID *string, answers []model.Answer, state model.ParticipationState) (*model.Participation, error) {
	args := m.Called(ctx, instanceID, userID, answers, state)
	if f, ok := args.Get(0).(func(context.Context, string, *string, []model.Answer, model.ParticipationState) *model.Participation); ok {
		return f(ctx, instanceID, userID, answers, state), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Participation), args.Error(1)
}

func (m *MockParticipationRepository) ListByInstance(ctx context.Context, instanceID string, pq repository.PageQuery) (*repository.PageResult[model.Participation], error) {
	args := m.Called(ctx, instanceID, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Participation]), args.Error(1)
}

func (m *MockParticipationRepository) ListCompleted(ctx context.Context, instanceID string) ([]model.Participation, error) {
	args := m.Called(ctx, instanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Participation), args.Error(1)
}

func (m *MockParticipationRepository) ListAnswers(ctx context.Context, participationID string) ([]model.Answer, error) {
	args := m.Called(ctx, participationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Answer), args.Error(1)
}

func (m *MockParticipationRepository) ListCompletedAnswers(ctx context.Context, instanceID string) ([]model.Answer, error) {
	args := m.Called(ctx, instanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Answer), args.Error(1)
}

func (m *MockParticipationRepository) Delete(ctx context.Context, instanceID, participationID string) error {
	args := m.Called(ctx, instanceID, participationID)
	return args.Error(0)
}

func (m *MockParticipationRepository) Counts(ctx context.Context, instanceID string) (repository.ParticipationCounts, error) {
	args := m.Called(ctx, instanceID)
	return args.Get(0).(repository.ParticipationCounts), args.Error(1)
}

func (m *MockParticipationRepository) QuestionAnswerCounts(ctx context.Context, instanceID string) (map[string]int, error) {
	args := m.Called(ctx, instanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockParticipationRepository) OptionSelectionCounts(ctx context.Context, instanceID string) (map[string]int, error) {
	args := m.Called(ctx, instanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockParticipationRepository) SampleOpenAnswers(ctx context.Context, instanceID, questionID string, limit int) ([]string, error) {
	args := m.Called(ctx, instanceID, questionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) Upsert(ctx context.Context, r *model.Report) (*model.Report, error) {
	args := m.Called(ctx, r)
	if f, ok := args.Get(0).(func(context.Context, *model.Report) *model.Report); ok {
		return f(ctx, r), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Report), args.Error(1)
}

func (m *MockReportRepository) FindByInstance(ctx context.Context, instanceID string) (*model.Report, error) {
	args := m.Called(ctx, instanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Report), args.Error(1)
}
