package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"surveyapi/internal/model"
	"surveyapi/internal/notify"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func ptr[T any](v T) *T { return &v }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func clientUser(id string) *model.User {
	return &model.User{ID: id, Username: "client-" + id, IsActive: true, Role: &model.Role{ID: "role-client", Name: model.RoleClient}}
}

func adminUser() *model.User {
	return &model.User{ID: "admin", Username: "admin", IsActive: true, Role: &model.Role{ID: "role-admin", Name: model.RoleAdmin}}
}

func voterUser(id string) *model.User {
	return &model.User{ID: id, Username: "voter-" + id, IsActive: true, Role: &model.Role{ID: "role-voter", Name: model.RoleVoter}}
}

// instanceFixture builds an instance of survey s1 owned by ownerID, created ten days before testNow.
func instanceFixture(id, ownerID string, closure *time.Time) *model.SurveyInstance {
	return &model.SurveyInstance{
		ID:           id,
		SurveyID:     "s1",
		CreationDate: testNow.AddDate(0, 0, -10),
		ClosureDate:  closure,
		Survey: &model.Survey{
			ID:          "s1",
			ClientID:    ownerID,
			Title:       "Customer satisfaction",
			Description: "Q1 feedback",
		},
		TotalQuestions: 3,
	}
}

// surveyQuestions are the questions of survey s1: one of each type.
func surveyQuestions() []model.Question {
	return []model.Question{
		{
			ID: "q1", SurveyID: "s1", Content: "How satisfied are you?", Type: model.QuestionSingleChoice, Position: 1,
			Options: []model.Option{
				{ID: "o1", QuestionID: "q1", Content: "Very", Position: 1},
				{ID: "o2", QuestionID: "q1", Content: "Not at all", Position: 2},
			},
		},
		{
			ID: "q2", SurveyID: "s1", Content: "Which channels do you use?", Type: model.QuestionMultipleChoice, Position: 2,
			Options: []model.Option{
				{ID: "o3", QuestionID: "q2", Content: "Email", Position: 1},
				{ID: "o4", QuestionID: "q2", Content: "Phone", Position: 2},
				{ID: "o5", QuestionID: "q2", Content: "Chat", Position: 3},
			},
		},
		{ID: "q3", SurveyID: "s1", Content: "Anything else?", Type: model.QuestionOpen, Position: 3},
	}
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}
