package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"surveyapi/internal/model"
	"surveyapi/internal/repository"
	repoMocks "surveyapi/internal/repository/mocks"
)

func TestSurveyService_Create(t *testing.T) {
	ctx := context.Background()
	owner := clientUser("c1")

	tests := []struct {
		name      string
		actor     *model.User
		in        SurveyInput
		wantErr   error
		wantField string
	}{
		{
			name:    "voter cannot author",
			actor:   voterUser("v1"),
			in:      SurveyInput{Title: ptr("t")},
			wantErr: ErrForbidden,
		},
		{
			name:      "missing title",
			actor:     owner,
			in:        SurveyInput{Questions: &[]QuestionInput{{Content: "q", Type: "open"}}},
			wantField: "title",
		},
		{
			name:      "title too long",
			actor:     owner,
			in:        SurveyInput{Title: ptr(strings.Repeat("x", 101)), Questions: &[]QuestionInput{{Content: "q", Type: "open"}}},
			wantField: "title",
		},
		{
			name:      "no questions",
			actor:     owner,
			in:        SurveyInput{Title: ptr("t"), Questions: &[]QuestionInput{}},
			wantField: "questions",
		},
		{
			name:      "unknown question type",
			actor:     owner,
			in:        SurveyInput{Title: ptr("t"), Questions: &[]QuestionInput{{Content: "q", Type: "rating"}}},
			wantField: "questions[0].type",
		},
		{
			name:      "choice without options",
			actor:     owner,
			in:        SurveyInput{Title: ptr("t"), Questions: &[]QuestionInput{{Content: "q", Type: "single"}}},
			wantField: "questions[0].options",
		},
		{
			name:  "open question with options",
			actor: owner,
			in: SurveyInput{Title: ptr("t"), Questions: &[]QuestionInput{
				{Content: "q", Type: "open"},
				{Content: "q2", Type: "text", Options: []OptionInput{{Content: "a"}}},
			}},
			wantField: "questions[1].options",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(repoMocks.MockSurveyRepository)
			svc := NewSurveyService(repo)

			_, err := svc.Create(ctx, tt.actor, tt.in)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantField, verr.Field)
			}
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestSurveyService_Create_NormalisesTree(t *testing.T) {
	repo := new(repoMocks.MockSurveyRepository)
	svc := NewSurveyService(repo)
	owner := clientUser("c1")

	repo.On("Create", mock.Anything, mock.MatchedBy(func(s *model.Survey) bool {
		return s.ClientID == "c1" && s.Title == "Feedback" && len(s.Questions) == 2
	})).Return(func(_ context.Context, s *model.Survey) *model.Survey { return s }, nil)

	s, err := svc.Create(context.Background(), owner, SurveyInput{
		Title:       ptr("  Feedback "),
		Description: ptr("quarterly"),
		Questions: &[]QuestionInput{
			{Content: "Pick", Type: "multiple", Options: []OptionInput{{Content: "a"}, {Content: " b "}}},
			{Content: "Why?", Type: "textarea"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, model.QuestionMultipleChoice, s.Questions[0].Type)
	assert.Equal(t, 1, s.Questions[0].Position)
	assert.Equal(t, "b", s.Questions[0].Options[1].Content)
	assert.Equal(t, 2, s.Questions[0].Options[1].Position)
	assert.Equal(t, model.QuestionOpen, s.Questions[1].Type)
	assert.Equal(t, 2, s.Questions[1].Position)
}

func TestSurveyService_Ownership(t *testing.T) {
	ctx := context.Background()
	repo := new(repoMocks.MockSurveyRepository)
	svc := NewSurveyService(repo)
	survey := &model.Survey{ID: "s1", ClientID: "c1", Title: "t"}
	repo.On("FindByID", mock.Anything, "s1").Return(survey, nil)
	repo.On("FindByID", mock.Anything, "missing").Return(nil, sql.ErrNoRows)

	_, err := svc.Get(ctx, clientUser("c2"), "s1")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Update(ctx, clientUser("c2"), "s1", SurveyInput{Title: ptr("hijack")})
	assert.ErrorIs(t, err, ErrForbidden)

	assert.ErrorIs(t, svc.Delete(ctx, clientUser("c2"), "s1"), ErrForbidden)

	_, err = svc.Get(ctx, clientUser("c1"), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := svc.Get(ctx, adminUser(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)

	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestSurveyService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("title only keeps questions", func(t *testing.T) {
		repo := new(repoMocks.MockSurveyRepository)
		svc := NewSurveyService(repo)
		repo.On("FindByID", mock.Anything, "s1").Return(&model.Survey{ID: "s1", ClientID: "c1", Title: "old"}, nil)
		repo.On("Update", mock.Anything, mock.MatchedBy(func(s *model.Survey) bool { return s.Title == "new" }), false).Return(nil)

		_, err := svc.Update(ctx, clientUser("c1"), "s1", SurveyInput{Title: ptr("new")})

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("questions replace the set", func(t *testing.T) {
		repo := new(repoMocks.MockSurveyRepository)
		svc := NewSurveyService(repo)
		repo.On("FindByID", mock.Anything, "s1").Return(&model.Survey{ID: "s1", ClientID: "c1", Title: "old"}, nil)
		repo.On("Update", mock.Anything, mock.MatchedBy(func(s *model.Survey) bool { return len(s.Questions) == 1 }), true).Return(nil)

		_, err := svc.Update(ctx, clientUser("c1"), "s1", SurveyInput{Questions: &[]QuestionInput{{Content: "only", Type: "open"}}})

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func TestSurveyService_List(t *testing.T) {
	repo := new(repoMocks.MockSurveyRepository)
	svc := NewSurveyService(repo)
	repo.On("List", mock.Anything, "c1", repository.PageQuery{Limit: 10, Offset: 0}).
		Return(&repository.PageResult[model.Survey]{Items: []model.Survey{{ID: "s1"}}, Total: 1}, nil)
	repo.On("List", mock.Anything, "", repository.PageQuery{Limit: 5, Offset: 5}).
		Return(&repository.PageResult[model.Survey]{Items: []model.Survey{}, Total: 6}, nil)

	own, err := svc.List(context.Background(), clientUser("c1"), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, own.Total)

	all, err := svc.List(context.Background(), adminUser(), 5, 5)
	require.NoError(t, err)
	assert.Equal(t, 6, all.Total)

	_, err = svc.List(context.Background(), voterUser("v1"), 0, 0)
	assert.ErrorIs(t, err, ErrForbidden)
}
