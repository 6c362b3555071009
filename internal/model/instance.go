package model

import "time"

// InstanceState is derived from the closure date, never stored.
type InstanceState string

const (
	InstanceDraft  InstanceState = "draft"
	InstanceOpen   InstanceState = "open"
	InstanceClosed InstanceState = "closed"
)

// ParseInstanceState validates a client supplied state.
func ParseInstanceState(s string) (InstanceState, bool) {
	switch InstanceState(s) {
	case InstanceDraft, InstanceOpen, InstanceClosed:
		return InstanceState(s), true
	}
	return "", false
}

// SurveyInstance is a time-bounded, answerable deployment of a survey.
type SurveyInstance struct {
	ID           string     `json:"id"`
	SurveyID     string     `json:"survey_id"`
	CreationDate time.Time  `json:"creation_date"`
	ClosureDate  *time.Time `json:"closure_date"`

	// Read-side aggregates filled by list/detail queries.
	Survey                  *Survey `json:"-"`
	TotalQuestions          int     `json:"-"`
	TotalParticipations     int     `json:"-"`
	CompletedParticipations int     `json:"-"`
}

// StateAt derives the lifecycle state at now: no closure date is a draft,
// a closure date not yet reached is open, anything else is closed.
func (i *SurveyInstance) StateAt(now time.Time) InstanceState {
	if i.ClosureDate == nil {
		return InstanceDraft
	}
	if !now.Before(*i.ClosureDate) {
		return InstanceClosed
	}
	return InstanceOpen
}

// DaysActive counts whole days between creation and closure, or now when the
// instance has not closed yet.
func (i *SurveyInstance) DaysActive(now time.Time) int {
	end := now
	if i.ClosureDate != nil && i.ClosureDate.Before(now) {
		end = *i.ClosureDate
	}
	d := end.Sub(i.CreationDate)
	if d < 0 {
		return 0
	}
	return int(d.Hours() / 24)
}
