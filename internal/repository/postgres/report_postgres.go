package postgres

import (
	"context"
	"database/sql"

	"surveyapi/internal/model"
	"surveyapi/internal/repository"
)

// ReportPostgres is a PostgreSQL implementation of repository.ReportRepository.
type ReportPostgres struct {
	db *sql.DB
}

// NewReportPostgres creates a new ReportPostgres repository.
func NewReportPostgres(db *sql.DB) *ReportPostgres {
	return &ReportPostgres{db: db}
}

var _ repository.ReportRepository = (*ReportPostgres)(nil)

// Upsert keeps one report per instance by overwriting on instance_id conflicts.
func (r *ReportPostgres) Upsert(ctx context.Context, rep *model.Report) (*model.Report, error) {
	const q = `
		INSERT INTO reports (id, instance_id, date, summary, storage_path)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (instance_id) DO UPDATE
		SET date = EXCLUDED.date, summary = EXCLUDED.summary, storage_path = EXCLUDED.storage_path
		RETURNING id, instance_id, date, summary, storage_path
	`
	var out model.Report
	if err := r.db.QueryRowContext(ctx, q, rep.ID, rep.InstanceID, rep.Date, rep.Summary, rep.StoragePath).
		Scan(&out.ID, &out.InstanceID, &out.Date, &out.Summary, &out.StoragePath); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ReportPostgres) FindByInstance(ctx context.Context, instanceID string) (*model.Report, error) {
	const q = `
		SELECT id, instance_id, date, summary, storage_path
		FROM reports
		WHERE instance_id = $1
	`
	var out model.Report
	if err := r.db.QueryRowContext(ctx, q, instanceID).
		Scan(&out.ID, &out.InstanceID, &out.Date, &out.Summary, &out.StoragePath); err != nil {
		return nil, err
	}
	return &out, nil
}
