package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"surveyapi/internal/model"
	"surveyapi/internal/service"
	"surveyapi/internal/storage"
)

type MockConfigurationService struct {
	mock.Mock
}

func (m *MockConfigurationService) Questions(ctx context.Context, actor *model.User, instanceID string) ([]model.Question, error) {
	args := m.Called(ctx, actor, instanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Question), args.Error(1)
}

func (m *MockConfigurationService) Participations(ctx context.Context, actor *model.User, instanceID string, page, pageSize int) (*service.ParticipationPage, error) {
	args := m.Called(ctx, actor, instanceID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ParticipationPage), args.Error(1)
}

func (m *MockConfigurationService) Export(ctx context.Context, actor *model.User, instanceID string) (*service.ExportData, error) {
	args := m.Called(ctx, actor, instanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExportData), args.Error(1)
}

func (m *MockConfigurationService) DeleteParticipation(ctx context.Context, actor *model.User, instanceID, participationID string) error {
	args := m.Called(ctx, actor, instanceID, participationID)
	return args.Error(0)
}

func (m *MockConfigurationService) GenerateReport(ctx context.Context, actor *model.User, instanceID string) (*service.ReportView, error) {
	args := m.Called(ctx, actor, instanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReportView), args.Error(1)
}

func (m *MockConfigurationService) GetReport(ctx context.Context, actor *model.User, instanceID string) (*service.ReportView, error) {
	args := m.Called(ctx, actor, instanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReportView), args.Error(1)
}

func (m *MockConfigurationService) DownloadReport(ctx context.Context, actor *model.User, instanceID string) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, actor, instanceID)
	if args.Get(0) == nil {
		return nil, storage.ObjectInfo{}, args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(storage.ObjectInfo), args.Error(2)
}
