package repository

import (
	"context"
	"time"

	"surveyapi/internal/model"
)

// InstanceFilter narrows instance listings. Empty fields do not filter.
type InstanceFilter struct {
	ClientID string
	SurveyID string
}

// InstanceRepository persists survey instances. Reads fill the survey summary
// (without questions) and the question/participation counters.
type InstanceRepository interface {
	Create(ctx context.Context, inst *model.SurveyInstance) (*model.SurveyInstance, error)
	FindByID(ctx context.Context, id string) (*model.SurveyInstance, error)
	List(ctx context.Context, f InstanceFilter) ([]model.SurveyInstance, error)
	// ListOpen returns instances whose closure date lies after now.
	ListOpen(ctx context.Context, now time.Time) ([]model.SurveyInstance, error)
	UpdateClosureDate(ctx context.Context, id string, closure *time.Time) error
	Delete(ctx context.Context, id string) error
}
