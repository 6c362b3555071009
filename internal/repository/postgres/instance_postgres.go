package postgres

import (
	"context"
	"database/sql"
	"time"

	"surveyapi/internal/model"
	"surveyapi/internal/repository"
)

// InstancePostgres is a PostgreSQL implementation of repository.InstanceRepository.
type InstancePostgres struct {
	db *sql.DB
}

// NewInstancePostgres creates a new InstancePostgres repository.
func NewInstancePostgres(db *sql.DB) *InstancePostgres {
	return &InstancePostgres{db: db}
}

var _ repository.InstanceRepository = (*InstancePostgres)(nil)

const instanceSelect = `
	SELECT i.id, i.survey_id, i.creation_date, i.closure_date,
	       s.client_id, s.title, s.description, s.created_at,
	       (SELECT COUNT(*) FROM questions q WHERE q.survey_id = s.id),
	       (SELECT COUNT(*) FROM participations p WHERE p.instance_id = i.id),
	       (SELECT COUNT(*) FROM participations p WHERE p.instance_id = i.id AND p.state = 'completed')
	FROM survey_instances i
	JOIN surveys s ON s.id = i.survey_id
`

func scanInstance(s scanner) (*model.SurveyInstance, error) {
	var (
		inst   model.SurveyInstance
		survey model.Survey
	)
	if err := s.Scan(
		&inst.ID,
		&inst.SurveyID,
		&inst.CreationDate,
		&inst.ClosureDate,
		&survey.ClientID,
		&survey.Title,
		&survey.Description,
		&survey.CreatedAt,
		&inst.TotalQuestions,
		&inst.TotalParticipations,
		&inst.CompletedParticipations,
	); err != nil {
		return nil, err
	}
	survey.ID = inst.SurveyID
	inst.Survey = &survey
	return &inst, nil
}

func (r *InstancePostgres) list(ctx context.Context, q string, args ...any) ([]model.SurveyInstance, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.SurveyInstance, 0)
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *inst)
	}
	return items, rows.Err()
}

// Create inserts a new instance row and returns the stored record.
func (r *InstancePostgres) Create(ctx context.Context, inst *model.SurveyInstance) (*model.SurveyInstance, error) {
	const q = `
		INSERT INTO survey_instances (id, survey_id, creation_date, closure_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, survey_id, creation_date, closure_date
	`
	var out model.SurveyInstance
	if err := r.db.QueryRowContext(ctx, q, inst.ID, inst.SurveyID, inst.CreationDate, inst.ClosureDate).
		Scan(&out.ID, &out.SurveyID, &out.CreationDate, &out.ClosureDate); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByID fetches an instance with its survey summary and counters.
func (r *InstancePostgres) FindByID(ctx context.Context, id string) (*model.SurveyInstance, error) {
	return scanInstance(r.db.QueryRowContext(ctx, instanceSelect+` WHERE i.id = $1`, id))
}

// List returns instances newest first, filtered by survey owner and survey.
func (r *InstancePostgres) List(ctx context.Context, f repository.InstanceFilter) ([]model.SurveyInstance, error) {
	const where = `
		WHERE ($1::text = '' OR s.client_id::text = $1)
		  AND ($2::text = '' OR i.survey_id::text = $2)
		ORDER BY i.creation_date DESC, i.id DESC
	`
	return r.list(ctx, instanceSelect+where, f.ClientID, f.SurveyID)
}

// ListOpen returns instances closing after now, soonest first.
func (r *InstancePostgres) ListOpen(ctx context.Context, now time.Time) ([]model.SurveyInstance, error) {
	return r.list(ctx, instanceSelect+` WHERE i.closure_date > $1 ORDER BY i.closure_date, i.id`, now)
}

// UpdateClosureDate sets or clears the closure date.
func (r *InstancePostgres) UpdateClosureDate(ctx context.Context, id string, closure *time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE survey_instances SET closure_date = $2 WHERE id = $1`, id, closure)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// Delete removes an instance. Participations and the report cascade.
func (r *InstancePostgres) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM survey_instances WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}
