package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSurveyInstance_StateAt(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name    string
		closure *time.Time
		want    InstanceState
	}{
		{name: "no closure date is draft", closure: nil, want: InstanceDraft},
		{name: "future closure is open", closure: &future, want: InstanceOpen},
		{name: "past closure is closed", closure: &past, want: InstanceClosed},
		{name: "closure equal to now is closed", closure: &now, want: InstanceClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := &SurveyInstance{ClosureDate: tt.closure}
			assert.Equal(t, tt.want, inst.StateAt(now))
		})
	}
}

func TestSurveyInstance_DaysActive(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	created := now.Add(-72 * time.Hour)
	closedEarly := now.Add(-24 * time.Hour)
	closesLater := now.Add(48 * time.Hour)

	assert.Equal(t, 3, (&SurveyInstance{CreationDate: created}).DaysActive(now))
	assert.Equal(t, 2, (&SurveyInstance{CreationDate: created, ClosureDate: &closedEarly}).DaysActive(now))
	assert.Equal(t, 3, (&SurveyInstance{CreationDate: created, ClosureDate: &closesLater}).DaysActive(now))
	assert.Equal(t, 0, (&SurveyInstance{CreationDate: now.Add(time.Hour)}).DaysActive(now))
}

func TestParseQuestionType(t *testing.T) {
	cases := map[string]QuestionType{
		"single_choice":   QuestionSingleChoice,
		"single":          QuestionSingleChoice,
		"MULTIPLE":        QuestionMultipleChoice,
		"multiple_choice": QuestionMultipleChoice,
		"open":            QuestionOpen,
		"text":            QuestionOpen,
		"textarea":        QuestionOpen,
	}
	for in, want := range cases {
		got, ok := ParseQuestionType(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParseQuestionType("rating")
	assert.False(t, ok)

	assert.True(t, QuestionSingleChoice.HasOptions())
	assert.True(t, QuestionMultipleChoice.HasOptions())
	assert.False(t, QuestionOpen.HasOptions())
}

func TestParseInstanceState(t *testing.T) {
	for _, s := range []string{"draft", "open", "closed"} {
		got, ok := ParseInstanceState(s)
		assert.True(t, ok)
		assert.Equal(t, InstanceState(s), got)
	}
	_, ok := ParseInstanceState("archived")
	assert.False(t, ok)
}

func TestUserRoles(t *testing.T) {
	admin := &User{Role: &Role{Name: RoleAdmin}}
	staff := &User{IsStaff: true, Role: &Role{Name: RoleVoter}}
	client := &User{Role: &Role{Name: RoleClient}}
	voter := &User{Role: &Role{Name: RoleVoter}}
	noRole := &User{}
	var nilUser *User

	assert.True(t, admin.IsAdmin())
	assert.True(t, admin.IsClient())
	assert.True(t, staff.IsAdmin())
	assert.True(t, staff.IsClient())
	assert.False(t, client.IsAdmin())
	assert.True(t, client.IsClient())
	assert.False(t, voter.IsClient())
	assert.False(t, noRole.IsClient())
	assert.Equal(t, "", noRole.RoleName())
	assert.False(t, nilUser.IsAdmin())
	assert.False(t, nilUser.IsClient())
}

func TestAnswer_IsAnswered(t *testing.T) {
	empty := ""
	text := "great"

	assert.False(t, (&Answer{}).IsAnswered())
	assert.False(t, (&Answer{Content: &empty}).IsAnswered())
	assert.True(t, (&Answer{Content: &text}).IsAnswered())
	assert.True(t, (&Answer{SelectedOptions: []AnswerOption{{OptionID: "o1"}}}).IsAnswered())
}
