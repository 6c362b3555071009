package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"surveyapi/internal/model"
	"surveyapi/internal/service"
)

type MockInstanceService struct {
	mock.Mock
}

func (m *MockInstanceService) view(args mock.Arguments) (*service.InstanceView, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.InstanceView), args.Error(1)
}

func (m *MockInstanceService) views(args mock.Arguments) ([]service.InstanceView, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.InstanceView), args.Error(1)
}

func (m *MockInstanceService) List(ctx context.Context, actor *model.User, state string) ([]service.InstanceView, error) {
	return m.views(m.Called(ctx, actor, state))
}

func (m *MockInstanceService) Create(ctx context.Context, actor *model.User, in service.CreateInstanceInput) (*service.InstanceView, error) {
	return m.view(m.Called(ctx, actor, in))
}

func (m *MockInstanceService) Get(ctx context.Context, actor *model.User, id string) (*service.InstanceView, error) {
	return m.view(m.Called(ctx, actor, id))
}

func (m *MockInstanceService) UpdateClosureDate(ctx context.Context, actor *model.User, id string, closure *time.Time) (*service.InstanceView, error) {
	return m.view(m.Called(ctx, actor, id, closure))
}

func (m *MockInstanceService) Delete(ctx context.Context, actor *model.User, id string) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func (m *MockInstanceService) Duplicate(ctx context.Context, actor *model.User, id string) (*service.InstanceView, error) {
	return m.view(m.Called(ctx, actor, id))
}

func (m *MockInstanceService) SetState(ctx context.Context, actor *model.User, id, state string, closure *time.Time) (*service.InstanceView, error) {
	return m.view(m.Called(ctx, actor, id, state, closure))
}

func (m *MockInstanceService) Close(ctx context.Context, actor *model.User, id string) (*service.InstanceView, error) {
	return m.view(m.Called(ctx, actor, id))
}

func (m *MockInstanceService) Reopen(ctx context.Context, actor *model.User, id string, closure *time.Time) (*service.InstanceView, error) {
	return m.view(m.Called(ctx, actor, id, closure))
}

func (m *MockInstanceService) Statistics(ctx context.Context, actor *model.User, id string) (*service.InstanceStatistics, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.InstanceStatistics), args.Error(1)
}

func (m *MockInstanceService) PublicURL(ctx context.Context, actor *model.User, id string) (*service.PublicURL, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PublicURL), args.Error(1)
}

func (m *MockInstanceService) ListOpen(ctx context.Context) ([]service.InstanceView, error) {
	return m.views(m.Called(ctx))
}

func (m *MockInstanceService) ListBySurvey(ctx context.Context, actor *model.User, surveyID string) ([]service.InstanceView, error) {
	return m.views(m.Called(ctx, actor, surveyID))
}
