package repository

import (
	"context"

	"surveyapi/internal/model"
)

// ReportRepository stores the single report of an instance.
type ReportRepository interface {
	// Upsert inserts the report or replaces the existing one of the same instance.
	Upsert(ctx context.Context, r *model.Report) (*model.Report, error)
	FindByInstance(ctx context.Context, instanceID string) (*model.Report, error)
}
