package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"surveyapi/internal/model"
	"surveyapi/internal/repository"
)

// PublicInstance is the respondent-facing view of an open instance.
type PublicInstance struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	State        model.InstanceState `json:"state"`
	CreationDate time.Time           `json:"creation_date"`
	ClosureDate  *time.Time          `json:"closure_date"`
}

// UserStatus tells a respondent whether they may still answer.
type UserStatus struct {
	IsAuthenticated    bool                      `json:"is_authenticated"`
	CanParticipate     bool                      `json:"can_participate"`
	ParticipationState *model.ParticipationState `json:"participation_state"`
	ParticipationID    *string                   `json:"participation_id"`
}

type PublicSurvey struct {
	Instance   PublicInstance   `json:"instance"`
	Questions  []model.Question `json:"questions"`
	UserStatus UserStatus       `json:"user_status"`
}

// AnswerInput is one submitted answer. Single choice questions read OptionID,
// falling back to the first of OptionIDs.
type AnswerInput struct {
	QuestionID string   `json:"question_id"`
	OptionID   *string  `json:"option_id"`
	OptionIDs  []string `json:"option_ids"`
	Content    *string  `json:"content"`
}

// SubmitInput is a submission. A nil Complete counts as true.
type SubmitInput struct {
	Answers  []AnswerInput `json:"answers"`
	Complete *bool         `json:"complete"`
}

type SubmitResult struct {
	Success         bool                     `json:"success"`
	Message         string                   `json:"message"`
	ParticipationID string                   `json:"participation_id"`
	State           model.ParticipationState `json:"state"`
}

type ResultAnswer struct {
	QuestionID      string               `json:"question_id"`
	QuestionContent string               `json:"question_content"`
	QuestionType    model.QuestionType   `json:"question_type"`
	Content         *string              `json:"content"`
	SelectedOptions []model.AnswerOption `json:"selected_options"`
	Date            time.Time            `json:"date"`
}

type ResultSummary struct {
	TotalQuestions       int     `json:"total_questions"`
	AnsweredQuestions    int     `json:"answered_questions"`
	CompletionPercentage float64 `json:"completion_percentage"`
}

type ResultSurvey struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type ResultInstance struct {
	ID           string              `json:"id"`
	State        model.InstanceState `json:"state"`
	CreationDate time.Time           `json:"creation_date"`
	ClosureDate  *time.Time          `json:"closure_date"`
}

// ParticipationResults is a participation with its answers in question order.
type ParticipationResults struct {
	Participation model.Participation `json:"participation"`
	Survey        ResultSurvey        `json:"survey"`
	Instance      ResultInstance      `json:"instance"`
	Answers       []ResultAnswer      `json:"answers"`
	Summary       ResultSummary       `json:"summary"`
}

// InstanceStats is the anonymous summary of an instance.
type InstanceStats struct {
	TotalParticipations     int       `json:"total_participations"`
	CompletedParticipations int       `json:"completed_participations"`
	CreationDate            time.Time `json:"creation_date"`
	IsActive                bool      `json:"is_active"`
	TotalQuestions          int       `json:"total_questions"`
}

// ParticipationService serves respondents. actor is nil for anonymous callers.
type ParticipationService interface {
	PublicSurvey(ctx context.Context, actor *model.User, instanceID string) (*PublicSurvey, error)
	Submit(ctx context.Context, actor *model.User, instanceID string, in SubmitInput) (*SubmitResult, error)
	Results(ctx context.Context, actor *model.User, participationID string) (*ParticipationResults, error)
	InstanceStats(ctx context.Context, surveyID, instanceID string) (*InstanceStats, error)
}

type participationService struct {
	instances      repository.InstanceRepository
	surveys        repository.SurveyRepository
	participations repository.ParticipationRepository
	logger         *slog.Logger
	now            func() time.Time
}

// NewParticipationService constructs a new ParticipationService.
func NewParticipationService(
	instances repository.InstanceRepository,
	surveys repository.SurveyRepository,
	participations repository.ParticipationRepository,
	logger *slog.Logger,
) ParticipationService {
	return &participationService{
		instances:      instances,
		surveys:        surveys,
		participations: participations,
		logger:         logger.With("component", "participation"),
		now:            time.Now,
	}
}

// openInstance loads an instance that currently accepts answers.
func (s *participationService) openInstance(ctx context.Context, id string) (*model.SurveyInstance, error) {
	inst, err := s.instances.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if state := inst.StateAt(s.now()); state != model.InstanceOpen {
		return nil, &NotOpenError{State: state}
	}
	return inst, nil
}

func (s *participationService) PublicSurvey(ctx context.Context, actor *model.User, instanceID string) (*PublicSurvey, error) {
	inst, err := s.openInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	questions, err := s.surveys.ListQuestions(ctx, inst.SurveyID)
	if err != nil {
		return nil, err
	}

	out := &PublicSurvey{
		Instance: PublicInstance{
			ID:           inst.ID,
			State:        model.InstanceOpen,
			CreationDate: inst.CreationDate,
			ClosureDate:  inst.ClosureDate,
		},
		Questions:  questions,
		UserStatus: UserStatus{CanParticipate: true},
	}
	if inst.Survey != nil {
		out.Instance.Title = inst.Survey.Title
		out.Instance.Description = inst.Survey.Description
	}

	if actor != nil {
		out.UserStatus.IsAuthenticated = true
		p, err := s.participations.FindByUserAndInstance(ctx, actor.ID, inst.ID)
		if err != nil && notFound(err) != ErrNotFound {
			return nil, err
		}
		if p != nil {
			state := p.State
			id := p.ID
			out.UserStatus.ParticipationState = &state
			out.UserStatus.ParticipationID = &id
			out.UserStatus.CanParticipate = p.State != model.ParticipationCompleted
		}
	}
	return out, nil
}

func (s *participationService) Submit(ctx context.Context, actor *model.User, instanceID string, in SubmitInput) (*SubmitResult, error) {
	ctx, span := tracer.Start(ctx, "ParticipationService.Submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("instance.id", instanceID),
		attribute.Bool("participant.anonymous", actor == nil),
		attribute.Int("answers.submitted", len(in.Answers)),
	)

	inst, err := s.openInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if len(in.Answers) == 0 {
		return nil, invalid("answers", "at least one answer is required")
	}
	questions, err := s.surveys.ListQuestions(ctx, inst.SurveyID)
	if err != nil {
		return nil, err
	}

	answers := buildAnswers(questions, in.Answers, s.now().UTC())
	state := model.ParticipationCompleted
	if in.Complete != nil && !*in.Complete {
		state = model.ParticipationInProgress
	}

	var userID *string
	if actor != nil {
		id := actor.ID
		userID = &id
	}
	p, err := s.participations.Submit(ctx, inst.ID, userID, answers, state)
	if err != nil {
		if errors.Is(err, repository.ErrParticipationCompleted) {
			return nil, ErrAlreadyCompleted
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit failed")
		return nil, err
	}
	span.SetAttributes(
		attribute.String("participation.id", p.ID),
		attribute.Int("answers.stored", len(answers)),
	)
	s.logger.InfoContext(ctx, "participation_submitted",
		"instance_id", inst.ID,
		"participation_id", p.ID,
		"state", string(p.State),
		"answers", len(answers),
	)

	msg := "Answers saved successfully"
	if p.State == model.ParticipationCompleted {
		msg = "Survey completed successfully"
	}
	return &SubmitResult{
		Success:         true,
		Message:         msg,
		ParticipationID: p.ID,
		State:           p.State,
	}, nil
}

// buildAnswers keeps the answers addressed to questions of the survey. Options
// that do not belong to their question are dropped, and so is any answer left empty.
func buildAnswers(questions []model.Question, in []AnswerInput, now time.Time) []model.Answer {
	byID := make(map[string]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	out := make([]model.Answer, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, ai := range in {
		q, found := byID[ai.QuestionID]
		if !found || seen[q.ID] {
			continue
		}
		a := model.Answer{QuestionID: q.ID, Date: now}

		switch q.Type {
		case model.QuestionSingleChoice:
			chosen := ai.OptionIDs
			if ai.OptionID != nil {
				chosen = []string{*ai.OptionID}
			}
			for _, id := range chosen {
				if opt := findOption(q, id); opt != nil {
					optID := opt.ID
					a.OptionID = &optID
					a.SelectedOptions = []model.AnswerOption{{OptionID: opt.ID, OptionContent: opt.Content, CreatedAt: now}}
					break
				}
			}
		case model.QuestionMultipleChoice:
			chosen := ai.OptionIDs
			if len(chosen) == 0 && ai.OptionID != nil {
				chosen = []string{*ai.OptionID}
			}
			picked := make(map[string]bool, len(chosen))
			for _, id := range chosen {
				opt := findOption(q, id)
				if opt == nil || picked[opt.ID] {
					continue
				}
				picked[opt.ID] = true
				a.SelectedOptions = append(a.SelectedOptions, model.AnswerOption{OptionID: opt.ID, OptionContent: opt.Content, CreatedAt: now})
			}
		default:
			if ai.Content != nil {
				text := strings.TrimSpace(*ai.Content)
				a.Content = &text
			}
		}

		if !a.IsAnswered() {
			continue
		}
		seen[q.ID] = true
		out = append(out, a)
	}
	return out
}

func findOption(q *model.Question, id string) *model.Option {
	for i := range q.Options {
		if q.Options[i].ID == id {
			return &q.Options[i]
		}
	}
	return nil
}

func (s *participationService) Results(ctx context.Context, actor *model.User, participationID string) (*ParticipationResults, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	p, err := s.participations.FindByID(ctx, participationID)
	if err != nil {
		return nil, notFound(err)
	}
	inst, err := s.instances.FindByID(ctx, p.InstanceID)
	if err != nil {
		return nil, notFound(err)
	}
	own := p.UserID != nil && *p.UserID == actor.ID
	if !own && (inst.Survey == nil || !canManage(actor, inst.Survey.ClientID)) {
		return nil, ErrForbidden
	}

	questions, err := s.surveys.ListQuestions(ctx, inst.SurveyID)
	if err != nil {
		return nil, err
	}
	answers, err := s.participations.ListAnswers(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	res := &ParticipationResults{
		Participation: *p,
		Instance: ResultInstance{
			ID:           inst.ID,
			State:        inst.StateAt(s.now()),
			CreationDate: inst.CreationDate,
			ClosureDate:  inst.ClosureDate,
		},
		Answers: make([]ResultAnswer, 0, len(answers)),
	}
	if inst.Survey != nil {
		res.Survey = ResultSurvey{ID: inst.Survey.ID, Title: inst.Survey.Title, Description: inst.Survey.Description}
	}

	answered := 0
	for _, a := range answers {
		if a.IsAnswered() {
			answered++
		}
		q := byID[a.QuestionID]
		selected := a.SelectedOptions
		if selected == nil {
			selected = []model.AnswerOption{}
		}
		res.Answers = append(res.Answers, ResultAnswer{
			QuestionID:      a.QuestionID,
			QuestionContent: q.Content,
			QuestionType:    q.Type,
			Content:         a.Content,
			SelectedOptions: selected,
			Date:            a.Date,
		})
	}
	res.Summary = ResultSummary{
		TotalQuestions:       len(questions),
		AnsweredQuestions:    answered,
		CompletionPercentage: percent(answered, len(questions)),
	}
	return res, nil
}

func (s *participationService) InstanceStats(ctx context.Context, surveyID, instanceID string) (*InstanceStats, error) {
	inst, err := s.instances.FindByID(ctx, instanceID)
	if err != nil {
		return nil, notFound(err)
	}
	if inst.SurveyID != surveyID {
		return nil, ErrNotFound
	}
	return &InstanceStats{
		TotalParticipations:     inst.TotalParticipations,
		CompletedParticipations: inst.CompletedParticipations,
		CreationDate:            inst.CreationDate,
		IsActive:                inst.StateAt(s.now()) == model.InstanceOpen,
		TotalQuestions:          inst.TotalQuestions,
	}, nil
}
