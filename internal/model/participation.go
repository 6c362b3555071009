package model

import "time"

// ParticipationState tracks whether a respondent finished an instance.
type ParticipationState string

const (
	ParticipationInProgress ParticipationState = "in_progress"
	ParticipationCompleted  ParticipationState = "completed"
)

// Participation is one respondent's attempt at an instance. UserID is nil for anonymous respondents.
type Participation struct {
	ID           string             `json:"id"`
	UserID       *string            `json:"-"`
	Username     string             `json:"-"`
	InstanceID   string             `json:"-"`
	Date         time.Time          `json:"date"`
	State        ParticipationState `json:"state"`
	TotalAnswers int                `json:"total_answers"`
}

// Answer is a respondent's response to one question.
type Answer struct {
	ID              string         `json:"id"`
	ParticipationID string         `json:"-"`
	QuestionID      string         `json:"question_id"`
	OptionID        *string        `json:"option_id,omitempty"`
	Content         *string        `json:"content"`
	Date            time.Time      `json:"date"`
	SelectedOptions []AnswerOption `json:"selected_options"`
}

// AnswerOption links an answer to one chosen option.
type AnswerOption struct {
	ID            string    `json:"-"`
	AnswerID      string    `json:"-"`
	OptionID      string    `json:"id"`
	OptionContent string    `json:"content"`
	CreatedAt     time.Time `json:"selected_at"`
}

// IsAnswered reports whether the answer carries text or at least one selected option.
func (a *Answer) IsAnswered() bool {
	return (a.Content != nil && *a.Content != "") || len(a.SelectedOptions) > 0
}
