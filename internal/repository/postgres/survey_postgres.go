package postgres

import (
	"context"
	"database/sql"

	"surveyapi/internal/model"
	"surveyapi/internal/repository"
)

// SurveyPostgres is a PostgreSQL implementation of repository.SurveyRepository.
type SurveyPostgres struct {
	db *sql.DB
}

// NewSurveyPostgres creates a new SurveyPostgres repository.
func NewSurveyPostgres(db *sql.DB) *SurveyPostgres {
	return &SurveyPostgres{db: db}
}

var _ repository.SurveyRepository = (*SurveyPostgres)(nil)

const surveySelect = `
	SELECT s.id, s.client_id, s.title, s.description, s.created_at,
	       (SELECT COUNT(*) FROM survey_instances i WHERE i.survey_id = s.id)
	FROM surveys s
`

// Create inserts the survey and its question tree in a single transaction.
func (r *SurveyPostgres) Create(ctx context.Context, s *model.Survey) (*model.Survey, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const q = `
		INSERT INTO surveys (id, client_id, title, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	out := *s
	if err := tx.QueryRowContext(ctx, q, s.ID, s.ClientID, s.Title, s.Description, s.CreatedAt).
		Scan(&out.ID, &out.CreatedAt); err != nil {
		return nil, err
	}

	questions, err := insertQuestions(ctx, tx, out.ID, s.Questions)
	if err != nil {
		return nil, err
	}
	out.Questions = questions

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &out, nil
}

// insertQuestions writes questions and options, numbering positions by slice order.
func insertQuestions(ctx context.Context, tx *sql.Tx, surveyID string, in []model.Question) ([]model.Question, error) {
	const qQuestion = `
		INSERT INTO questions (survey_id, content, type, position)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	const qOption = `
		INSERT INTO options (question_id, content, position)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	out := make([]model.Question, 0, len(in))
	for i, question := range in {
		question.SurveyID = surveyID
		question.Position = i + 1
		if err := tx.QueryRowContext(ctx, qQuestion, surveyID, question.Content, string(question.Type), question.Position).
			Scan(&question.ID); err != nil {
			return nil, err
		}
		options := make([]model.Option, 0, len(question.Options))
		for j, opt := range question.Options {
			opt.QuestionID = question.ID
			opt.Position = j + 1
			if err := tx.QueryRowContext(ctx, qOption, question.ID, opt.Content, opt.Position).Scan(&opt.ID); err != nil {
				return nil, err
			}
			options = append(options, opt)
		}
		question.Options = options
		out = append(out, question)
	}
	return out, nil
}

func scanSurvey(s scanner) (*model.Survey, error) {
	var out model.Survey
	if err := s.Scan(&out.ID, &out.ClientID, &out.Title, &out.Description, &out.CreatedAt, &out.InstancesCount); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByID fetches a survey with its questions.
func (r *SurveyPostgres) FindByID(ctx context.Context, id string) (*model.Survey, error) {
	s, err := scanSurvey(r.db.QueryRowContext(ctx, surveySelect+` WHERE s.id = $1`, id))
	if err != nil {
		return nil, err
	}
	if s.Questions, err = r.ListQuestions(ctx, s.ID); err != nil {
		return nil, err
	}
	return s, nil
}

// List returns surveys newest first using LIMIT/OFFSET pagination and a total count.
func (r *SurveyPostgres) List(ctx context.Context, clientID string, pq repository.PageQuery) (*repository.PageResult[model.Survey], error) {
	const filter = ` WHERE ($1::text = '' OR s.client_id::text = $1)`

	const qCount = `SELECT COUNT(*) FROM surveys s` + filter
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, clientID).Scan(&total); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, surveySelect+filter+` ORDER BY s.created_at DESC, s.id DESC LIMIT $2 OFFSET $3`,
		clientID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]model.Survey, 0)
	for rows.Next() {
		s, err := scanSurvey(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		items = append(items, *s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range items {
		if items[i].Questions, err = r.ListQuestions(ctx, items[i].ID); err != nil {
			return nil, err
		}
	}

	return &repository.PageResult[model.Survey]{
		Items: items,
		Total: total,
	}, nil
}

// Update writes title and description and optionally swaps the whole question set.
func (r *SurveyPostgres) Update(ctx context.Context, s *model.Survey, replaceQuestions bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const q = `UPDATE surveys SET title = $2, description = $3 WHERE id = $1`
	res, err := tx.ExecContext(ctx, q, s.ID, s.Title, s.Description)
	if err != nil {
		return err
	}
	if err := expectAffected(res); err != nil {
		return err
	}

	if replaceQuestions {
		if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE survey_id = $1`, s.ID); err != nil {
			return err
		}
		if _, err := insertQuestions(ctx, tx, s.ID, s.Questions); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Delete removes a survey. Questions, instances and their participations cascade.
func (r *SurveyPostgres) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM surveys WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// ListQuestions returns questions ordered by position with their options attached.
func (r *SurveyPostgres) ListQuestions(ctx context.Context, surveyID string) ([]model.Question, error) {
	const qQuestions = `
		SELECT id, survey_id, content, type, position
		FROM questions
		WHERE survey_id = $1
		ORDER BY position, id
	`
	rows, err := r.db.QueryContext(ctx, qQuestions, surveyID)
	if err != nil {
		return nil, err
	}
	questions := make([]model.Question, 0)
	index := make(map[string]int)
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.SurveyID, &q.Content, &q.Type, &q.Position); err != nil {
			rows.Close()
			return nil, err
		}
		index[q.ID] = len(questions)
		questions = append(questions, q)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return questions, nil
	}

	const qOptions = `
		SELECT o.id, o.question_id, o.content, o.position
		FROM options o
		JOIN questions q ON q.id = o.question_id
		WHERE q.survey_id = $1
		ORDER BY o.position, o.id
	`
	rows, err = r.db.QueryContext(ctx, qOptions, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var o model.Option
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Content, &o.Position); err != nil {
			return nil, err
		}
		if i, ok := index[o.QuestionID]; ok {
			questions[i].Options = append(questions[i].Options, o)
		}
	}
	return questions, rows.Err()
}
