package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"surveyapi/internal/model"
	"surveyapi/internal/repository"
	repoMocks "surveyapi/internal/repository/mocks"
)

type participationFixture struct {
	svc            *participationService
	instances      *repoMocks.MockInstanceRepository
	surveys        *repoMocks.MockSurveyRepository
	participations *repoMocks.MockParticipationRepository
}

func newParticipationFixture() *participationFixture {
	f := &participationFixture{
		instances:      new(repoMocks.MockInstanceRepository),
		surveys:        new(repoMocks.MockSurveyRepository),
		participations: new(repoMocks.MockParticipationRepository),
	}
	f.svc = NewParticipationService(f.instances, f.surveys, f.participations, discardLogger()).(*participationService)
	f.svc.now = fixedNow
	return f
}

func (f *participationFixture) openInstance() {
	f.instances.On("FindByID", mock.Anything, "i1").Return(instanceFixture("i1", "c1", ptr(testNow.Add(24*time.Hour))), nil)
	f.surveys.On("ListQuestions", mock.Anything, "s1").Return(surveyQuestions(), nil)
}

func TestParticipationService_Submit_Rejections(t *testing.T) {
	ctx := context.Background()
	answers := []AnswerInput{{QuestionID: "q3", Content: ptr("hi")}}

	tests := []struct {
		name    string
		closure *time.Time
		missing bool
		in      SubmitInput
		check   func(t *testing.T, err error)
	}{
		{
			name:    "closed instance",
			closure: ptr(testNow.Add(-time.Minute)),
			in:      SubmitInput{Answers: answers},
			check: func(t *testing.T, err error) {
				var notOpen *NotOpenError
				require.ErrorAs(t, err, &notOpen)
				assert.Equal(t, model.InstanceClosed, notOpen.State)
				assert.ErrorIs(t, err, ErrInstanceNotOpen)
			},
		},
		{
			name: "draft instance",
			in:   SubmitInput{Answers: answers},
			check: func(t *testing.T, err error) {
				var notOpen *NotOpenError
				require.ErrorAs(t, err, &notOpen)
				assert.Equal(t, model.InstanceDraft, notOpen.State)
			},
		},
		{
			name:    "unknown instance",
			missing: true,
			in:      SubmitInput{Answers: answers},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrNotFound)
			},
		},
		{
			name:    "no answers",
			closure: ptr(testNow.Add(time.Hour)),
			in:      SubmitInput{},
			check: func(t *testing.T, err error) {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, "answers", verr.Field)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newParticipationFixture()
			if tt.missing {
				f.instances.On("FindByID", mock.Anything, "i1").Return(nil, sql.ErrNoRows)
			} else {
				f.instances.On("FindByID", mock.Anything, "i1").Return(instanceFixture("i1", "c1", tt.closure), nil)
			}

			_, err := f.svc.Submit(ctx, nil, "i1", tt.in)

			tt.check(t, err)
			f.participations.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestParticipationService_Submit_Authenticated(t *testing.T) {
	f := newParticipationFixture()
	f.openInstance()
	voter := voterUser("v1")

	var stored []model.Answer
	f.participations.On("Submit", mock.Anything, "i1", ptr("v1"), mock.Anything, model.ParticipationCompleted).
		Run(func(args mock.Arguments) { stored = args.Get(3).([]model.Answer) }).
		Return(&model.Participation{ID: "p1", State: model.ParticipationCompleted}, nil)

	res, err := f.svc.Submit(context.Background(), voter, "i1", SubmitInput{Answers: []AnswerInput{
		{QuestionID: "q1", OptionID: ptr("o2")},
		{QuestionID: "q2", OptionIDs: []string{"o3", "o5", "o3", "o1"}},
		{QuestionID: "q3", Content: ptr("  thanks  ")},
		{QuestionID: "unknown", Content: ptr("ignored")},
	}})

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "p1", res.ParticipationID)
	assert.Equal(t, model.ParticipationCompleted, res.State)

	require.Len(t, stored, 3)
	assert.Equal(t, "o2", *stored[0].OptionID)
	require.Len(t, stored[0].SelectedOptions, 1)

	require.Len(t, stored[1].SelectedOptions, 2, "duplicates and foreign options are dropped")
	assert.Equal(t, "o3", stored[1].SelectedOptions[0].OptionID)
	assert.Equal(t, "o5", stored[1].SelectedOptions[1].OptionID)
	assert.Nil(t, stored[1].OptionID)

	assert.Equal(t, "thanks", *stored[2].Content)
}

func TestParticipationService_Submit_AnonymousDraft(t *testing.T) {
	f := newParticipationFixture()
	f.openInstance()
	f.participations.On("Submit", mock.Anything, "i1", (*string)(nil), mock.Anything, model.ParticipationInProgress).
		Return(&model.Participation{ID: "p2", State: model.ParticipationInProgress}, nil)

	res, err := f.svc.Submit(context.Background(), nil, "i1", SubmitInput{
		Answers:  []AnswerInput{{QuestionID: "q3", Content: ptr("later")}},
		Complete: ptr(false),
	})

	require.NoError(t, err)
	assert.Equal(t, model.ParticipationInProgress, res.State)
	f.participations.AssertExpectations(t)
}

func TestParticipationService_Submit_AlreadyCompleted(t *testing.T) {
	f := newParticipationFixture()
	f.openInstance()
	f.participations.On("Submit", mock.Anything, "i1", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, repository.ErrParticipationCompleted)

	_, err := f.svc.Submit(context.Background(), voterUser("v1"), "i1", SubmitInput{Answers: []AnswerInput{{QuestionID: "q1", OptionID: ptr("o1")}}})

	assert.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestParticipationService_Submit_RepositoryError(t *testing.T) {
	f := newParticipationFixture()
	f.openInstance()
	boom := errors.New("tx aborted")
	f.participations.On("Submit", mock.Anything, "i1", mock.Anything, mock.Anything, mock.Anything).Return(nil, boom)

	_, err := f.svc.Submit(context.Background(), nil, "i1", SubmitInput{Answers: []AnswerInput{{QuestionID: "q1", OptionID: ptr("o1")}}})

	assert.ErrorIs(t, err, boom)
}

func TestBuildAnswers(t *testing.T) {
	questions := surveyQuestions()

	t.Run("single choice falls back to option_ids", func(t *testing.T) {
		out := buildAnswers(questions, []AnswerInput{{QuestionID: "q1", OptionIDs: []string{"o9", "o1"}}}, testNow)
		require.Len(t, out, 1)
		assert.Equal(t, "o1", *out[0].OptionID)
	})

	t.Run("option of another question is skipped", func(t *testing.T) {
		out := buildAnswers(questions, []AnswerInput{{QuestionID: "q1", OptionID: ptr("o3")}}, testNow)
		assert.Empty(t, out)
	})

	t.Run("blank open answer is skipped", func(t *testing.T) {
		out := buildAnswers(questions, []AnswerInput{{QuestionID: "q3", Content: ptr("   ")}}, testNow)
		assert.Empty(t, out)
	})

	t.Run("first answer per question wins", func(t *testing.T) {
		out := buildAnswers(questions, []AnswerInput{
			{QuestionID: "q3", Content: ptr("first")},
			{QuestionID: "q3", Content: ptr("second")},
		}, testNow)
		require.Len(t, out, 1)
		assert.Equal(t, "first", *out[0].Content)
	})
}

func TestParticipationService_PublicSurvey(t *testing.T) {
	ctx := context.Background()

	t.Run("anonymous", func(t *testing.T) {
		f := newParticipationFixture()
		f.openInstance()

		out, err := f.svc.PublicSurvey(ctx, nil, "i1")

		require.NoError(t, err)
		assert.Equal(t, "Customer satisfaction", out.Instance.Title)
		assert.Len(t, out.Questions, 3)
		assert.False(t, out.UserStatus.IsAuthenticated)
		assert.True(t, out.UserStatus.CanParticipate)
	})

	t.Run("completed participant", func(t *testing.T) {
		f := newParticipationFixture()
		f.openInstance()
		f.participations.On("FindByUserAndInstance", mock.Anything, "v1", "i1").
			Return(&model.Participation{ID: "p1", State: model.ParticipationCompleted}, nil)

		out, err := f.svc.PublicSurvey(ctx, voterUser("v1"), "i1")

		require.NoError(t, err)
		assert.True(t, out.UserStatus.IsAuthenticated)
		assert.False(t, out.UserStatus.CanParticipate)
		assert.Equal(t, "p1", *out.UserStatus.ParticipationID)
	})

	t.Run("first visit", func(t *testing.T) {
		f := newParticipationFixture()
		f.openInstance()
		f.participations.On("FindByUserAndInstance", mock.Anything, "v1", "i1").Return(nil, sql.ErrNoRows)

		out, err := f.svc.PublicSurvey(ctx, voterUser("v1"), "i1")

		require.NoError(t, err)
		assert.True(t, out.UserStatus.CanParticipate)
		assert.Nil(t, out.UserStatus.ParticipationState)
	})

	t.Run("closed", func(t *testing.T) {
		f := newParticipationFixture()
		f.instances.On("FindByID", mock.Anything, "i1").Return(instanceFixture("i1", "c1", ptr(testNow)), nil)

		_, err := f.svc.PublicSurvey(ctx, nil, "i1")
		assert.ErrorIs(t, err, ErrInstanceNotOpen)
	})
}

func TestParticipationService_Results(t *testing.T) {
	ctx := context.Background()
	participation := &model.Participation{ID: "p1", UserID: ptr("v1"), InstanceID: "i1", State: model.ParticipationCompleted}

	setup := func() *participationFixture {
		f := newParticipationFixture()
		f.participations.On("FindByID", mock.Anything, "p1").Return(participation, nil)
		f.instances.On("FindByID", mock.Anything, "i1").Return(instanceFixture("i1", "c1", ptr(testNow.Add(-time.Hour))), nil)
		f.surveys.On("ListQuestions", mock.Anything, "s1").Return(surveyQuestions(), nil)
		f.participations.On("ListAnswers", mock.Anything, "p1").Return([]model.Answer{
			{QuestionID: "q1", OptionID: ptr("o1"), SelectedOptions: []model.AnswerOption{{OptionID: "o1", OptionContent: "Very"}}},
			{QuestionID: "q3", Content: ptr("fine")},
		}, nil)
		return f
	}

	for _, actor := range []*model.User{voterUser("v1"), clientUser("c1"), adminUser()} {
		t.Run("allowed "+actor.Username, func(t *testing.T) {
			res, err := setup().svc.Results(ctx, actor, "p1")

			require.NoError(t, err)
			assert.Equal(t, "Customer satisfaction", res.Survey.Title)
			assert.Equal(t, model.InstanceClosed, res.Instance.State)
			require.Len(t, res.Answers, 2)
			assert.Equal(t, "How satisfied are you?", res.Answers[0].QuestionContent)
			assert.Equal(t, 3, res.Summary.TotalQuestions)
			assert.Equal(t, 2, res.Summary.AnsweredQuestions)
			assert.Equal(t, 66.67, res.Summary.CompletionPercentage)
		})
	}

	t.Run("stranger", func(t *testing.T) {
		_, err := setup().svc.Results(ctx, clientUser("c2"), "p1")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("anonymous", func(t *testing.T) {
		_, err := setup().svc.Results(ctx, nil, "p1")
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("unknown participation", func(t *testing.T) {
		f := newParticipationFixture()
		f.participations.On("FindByID", mock.Anything, "nope").Return(nil, sql.ErrNoRows)
		_, err := f.svc.Results(ctx, adminUser(), "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestParticipationService_InstanceStats(t *testing.T) {
	f := newParticipationFixture()
	inst := instanceFixture("i1", "c1", ptr(testNow.Add(time.Hour)))
	inst.TotalParticipations = 4
	inst.CompletedParticipations = 3
	f.instances.On("FindByID", mock.Anything, "i1").Return(inst, nil)

	stats, err := f.svc.InstanceStats(context.Background(), "s1", "i1")
	require.NoError(t, err)
	assert.True(t, stats.IsActive)
	assert.Equal(t, 4, stats.TotalParticipations)
	assert.Equal(t, 3, stats.TotalQuestions)

	_, err = f.svc.InstanceStats(context.Background(), "other-survey", "i1")
	assert.ErrorIs(t, err, ErrNotFound)
}
