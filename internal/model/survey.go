package model

import (
	"strings"
	"time"
)

// QuestionType is the kind of response a question accepts.
type QuestionType string

const (
	QuestionSingleChoice   QuestionType = "single_choice"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionOpen           QuestionType = "open"
)

// ParseQuestionType normalises a client supplied type, accepting the short aliases.
func ParseQuestionType(s string) (QuestionType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single_choice", "single":
		return QuestionSingleChoice, true
	case "multiple_choice", "multiple":
		return QuestionMultipleChoice, true
	case "open", "text", "textarea":
		return QuestionOpen, true
	}
	return "", false
}

// HasOptions reports whether answers to the question pick among options.
func (t QuestionType) HasOptions() bool {
	return t == QuestionSingleChoice || t == QuestionMultipleChoice
}

// Survey is a reusable question template owned by a client.
type Survey struct {
	ID             string     `json:"id"`
	ClientID       string     `json:"client_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Questions      []Question `json:"questions"`
	InstancesCount int        `json:"instances_count"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Question belongs to a survey; Position fixes display order.
type Question struct {
	ID       string       `json:"id"`
	SurveyID string       `json:"-"`
	Content  string       `json:"content"`
	Type     QuestionType `json:"type"`
	Position int          `json:"order"`
	Options  []Option     `json:"options,omitempty"`
}

// Option is a selectable choice of a single or multiple choice question.
type Option struct {
	ID         string `json:"id"`
	QuestionID string `json:"-"`
	Content    string `json:"content"`
	Position   int    `json:"order"`
}
