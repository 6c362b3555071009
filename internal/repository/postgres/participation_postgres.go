package postgres

import (
	"context"
	"database/sql"

	"surveyapi/internal/model"
	"surveyapi/internal/repository"
)

// ParticipationPostgres is a PostgreSQL implementation of repository.ParticipationRepository.
type ParticipationPostgres struct {
	db *sql.DB
}

// NewParticipationPostgres creates a new ParticipationPostgres repository.
func NewParticipationPostgres(db *sql.DB) *ParticipationPostgres {
	return &ParticipationPostgres{db: db}
}

var _ repository.ParticipationRepository = (*ParticipationPostgres)(nil)

const participationSelect = `
	SELECT p.id, p.user_id, COALESCE(u.username, ''), p.instance_id, p.date, p.state,
	       (SELECT COUNT(*) FROM answers a WHERE a.participation_id = p.id)
	FROM participations p
	LEFT JOIN users u ON u.id = p.user_id
`

func scanParticipation(s scanner) (*model.Participation, error) {
	var p model.Participation
	if err := s.Scan(&p.ID, &p.UserID, &p.Username, &p.InstanceID, &p.Date, &p.State, &p.TotalAnswers); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ParticipationPostgres) list(ctx context.Context, q string, args ...any) ([]model.Participation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Participation, 0)
	for rows.Next() {
		p, err := scanParticipation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

func (r *ParticipationPostgres) FindByID(ctx context.Context, id string) (*model.Participation, error) {
	return scanParticipation(r.db.QueryRowContext(ctx, participationSelect+` WHERE p.id = $1`, id))
}

func (r *ParticipationPostgres) FindByUserAndInstance(ctx context.Context, userID, instanceID string) (*model.Participation, error) {
	return scanParticipation(r.db.QueryRowContext(ctx,
		participationSelect+` WHERE p.user_id = $1 AND p.instance_id = $2`, userID, instanceID))
}

// Submit relies on the partial unique index: a user's second submission hits
// the conflict and locks the existing row, anonymous submissions never conflict.
func (r *ParticipationPostgres) Submit(ctx context.Context, instanceID string, userID *string, answers []model.Answer, state model.ParticipationState) (*model.Participation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const qUpsert = `
		INSERT INTO participations (instance_id, user_id, state)
		VALUES ($1, $2, 'in_progress')
		ON CONFLICT (user_id, instance_id) WHERE user_id IS NOT NULL
		DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id, user_id, instance_id, date, state
	`
	var p model.Participation
	if err := tx.QueryRowContext(ctx, qUpsert, instanceID, userID).
		Scan(&p.ID, &p.UserID, &p.InstanceID, &p.Date, &p.State); err != nil {
		return nil, err
	}
	if p.State == model.ParticipationCompleted {
		return nil, repository.ErrParticipationCompleted
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM answers WHERE participation_id = $1`, p.ID); err != nil {
		return nil, err
	}

	const qAnswer = `
		INSERT INTO answers (participation_id, question_id, option_id, content, date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	const qOption = `
		INSERT INTO answer_options (answer_id, option_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (answer_id, option_id) DO NOTHING
	`
	for _, a := range answers {
		var answerID string
		if err := tx.QueryRowContext(ctx, qAnswer, p.ID, a.QuestionID, a.OptionID, a.Content, a.Date).
			Scan(&answerID); err != nil {
			return nil, err
		}
		for _, sel := range a.SelectedOptions {
			if _, err := tx.ExecContext(ctx, qOption, answerID, sel.OptionID, a.Date); err != nil {
				return nil, err
			}
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE participations SET state = $2 WHERE id = $1`, p.ID, string(state)); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	p.State = state
	p.TotalAnswers = len(answers)
	return &p, nil
}

// ListByInstance pages participations newest first.
func (r *ParticipationPostgres) ListByInstance(ctx context.Context, instanceID string, pq repository.PageQuery) (*repository.PageResult[model.Participation], error) {
	const qCount = `SELECT COUNT(*) FROM participations WHERE instance_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, instanceID).Scan(&total); err != nil {
		return nil, err
	}

	items, err := r.list(ctx, participationSelect+`
		WHERE p.instance_id = $1
		ORDER BY p.date DESC, p.id DESC
		LIMIT $2 OFFSET $3`, instanceID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	return &repository.PageResult[model.Participation]{
		Items: items,
		Total: total,
	}, nil
}

// ListCompleted returns completed participations oldest first.
func (r *ParticipationPostgres) ListCompleted(ctx context.Context, instanceID string) ([]model.Participation, error) {
	return r.list(ctx, participationSelect+`
		WHERE p.instance_id = $1 AND p.state = 'completed'
		ORDER BY p.date, p.id`, instanceID)
}

func (r *ParticipationPostgres) ListAnswers(ctx context.Context, participationID string) ([]model.Answer, error) {
	const qAnswers = `
		SELECT a.id, a.participation_id, a.question_id, a.option_id, a.content, a.date
		FROM answers a
		JOIN questions q ON q.id = a.question_id
		WHERE a.participation_id = $1
		ORDER BY q.position, a.date
	`
	const qOptions = `
		SELECT ao.id, ao.answer_id, ao.option_id, o.content, ao.created_at
		FROM answer_options ao
		JOIN answers a ON a.id = ao.answer_id
		JOIN options o ON o.id = ao.option_id
		WHERE a.participation_id = $1
		ORDER BY o.position, o.id
	`
	return r.loadAnswers(ctx, qAnswers, qOptions, participationID)
}

func (r *ParticipationPostgres) ListCompletedAnswers(ctx context.Context, instanceID string) ([]model.Answer, error) {
	const qAnswers = `
		SELECT a.id, a.participation_id, a.question_id, a.option_id, a.content, a.date
		FROM answers a
		JOIN participations p ON p.id = a.participation_id
		JOIN questions q ON q.id = a.question_id
		WHERE p.instance_id = $1 AND p.state = 'completed'
		ORDER BY p.date, q.position
	`
	const qOptions = `
		SELECT ao.id, ao.answer_id, ao.option_id, o.content, ao.created_at
		FROM answer_options ao
		JOIN answers a ON a.id = ao.answer_id
		JOIN participations p ON p.id = a.participation_id
		JOIN options o ON o.id = ao.option_id
		WHERE p.instance_id = $1 AND p.state = 'completed'
		ORDER BY o.position, o.id
	`
	return r.loadAnswers(ctx, qAnswers, qOptions, instanceID)
}

// loadAnswers runs an answers query and an answer_options query sharing one argument
// and attaches the selected options to their answers.
func (r *ParticipationPostgres) loadAnswers(ctx context.Context, qAnswers, qOptions string, arg string) ([]model.Answer, error) {
	rows, err := r.db.QueryContext(ctx, qAnswers, arg)
	if err != nil {
		return nil, err
	}
	answers := make([]model.Answer, 0)
	index := make(map[string]int)
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.ID, &a.ParticipationID, &a.QuestionID, &a.OptionID, &a.Content, &a.Date); err != nil {
			rows.Close()
			return nil, err
		}
		index[a.ID] = len(answers)
		answers = append(answers, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(answers) == 0 {
		return answers, nil
	}

	rows, err = r.db.QueryContext(ctx, qOptions, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var ao model.AnswerOption
		if err := rows.Scan(&ao.ID, &ao.AnswerID, &ao.OptionID, &ao.OptionContent, &ao.CreatedAt); err != nil {
			return nil, err
		}
		if i, ok := index[ao.AnswerID]; ok {
			answers[i].SelectedOptions = append(answers[i].SelectedOptions, ao)
		}
	}
	return answers, rows.Err()
}

func (r *ParticipationPostgres) Delete(ctx context.Context, instanceID, participationID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM participations WHERE id = $1 AND instance_id = $2`, participationID, instanceID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *ParticipationPostgres) Counts(ctx context.Context, instanceID string) (repository.ParticipationCounts, error) {
	const q = `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE state = 'completed'),
		       COUNT(*) FILTER (WHERE state = 'in_progress')
		FROM participations
		WHERE instance_id = $1
	`
	var c repository.ParticipationCounts
	err := r.db.QueryRowContext(ctx, q, instanceID).Scan(&c.Total, &c.Completed, &c.InProgress)
	return c, err
}

func (r *ParticipationPostgres) QuestionAnswerCounts(ctx context.Context, instanceID string) (map[string]int, error) {
	const q = `
		SELECT a.question_id, COUNT(*)
		FROM answers a
		JOIN participations p ON p.id = a.participation_id
		WHERE p.instance_id = $1 AND p.state = 'completed'
		GROUP BY a.question_id
	`
	return r.countBy(ctx, q, instanceID)
}

func (r *ParticipationPostgres) OptionSelectionCounts(ctx context.Context, instanceID string) (map[string]int, error) {
	const q = `
		SELECT ao.option_id, COUNT(*)
		FROM answer_options ao
		JOIN answers a ON a.id = ao.answer_id
		JOIN participations p ON p.id = a.participation_id
		WHERE p.instance_id = $1 AND p.state = 'completed'
		GROUP BY ao.option_id
	`
	return r.countBy(ctx, q, instanceID)
}

func (r *ParticipationPostgres) countBy(ctx context.Context, q string, instanceID string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, q, instanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func (r *ParticipationPostgres) SampleOpenAnswers(ctx context.Context, instanceID, questionID string, limit int) ([]string, error) {
	const q = `
		SELECT a.content
		FROM answers a
		JOIN participations p ON p.id = a.participation_id
		WHERE p.instance_id = $1 AND p.state = 'completed'
		  AND a.question_id = $2 AND COALESCE(a.content, '') <> ''
		ORDER BY a.date DESC
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, q, instanceID, questionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0, limit)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
