package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"surveyapi/internal/config"
	"surveyapi/internal/model"
	"surveyapi/internal/repository"
)

const sampleAnswersLimit = 5

// SurveySummary is the survey embedded in instance representations.
type SurveySummary struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"client_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// InstanceView is the representation of an instance, with its state derived at read time.
type InstanceView struct {
	ID                      string              `json:"id"`
	Survey                  *SurveySummary      `json:"survey"`
	SurveyID                string              `json:"survey_id"`
	CreationDate            time.Time           `json:"creation_date"`
	ClosureDate             *time.Time          `json:"closure_date"`
	State                   model.InstanceState `json:"state"`
	TotalQuestions          int                 `json:"total_questions"`
	TotalParticipations     int                 `json:"total_participations"`
	CompletedParticipations int                 `json:"completed_participations"`
	DaysActive              int                 `json:"days_active"`
	SurveyQuestions         []model.Question    `json:"survey_questions,omitempty"`
}

func newInstanceView(inst *model.SurveyInstance, now time.Time) InstanceView {
	v := InstanceView{
		ID:                      inst.ID,
		SurveyID:                inst.SurveyID,
		CreationDate:            inst.CreationDate,
		ClosureDate:             inst.ClosureDate,
		State:                   inst.StateAt(now),
		TotalQuestions:          inst.TotalQuestions,
		TotalParticipations:     inst.TotalParticipations,
		CompletedParticipations: inst.CompletedParticipations,
		DaysActive:              inst.DaysActive(now),
	}
	if inst.Survey != nil {
		v.Survey = &SurveySummary{
			ID:          inst.Survey.ID,
			ClientID:    inst.Survey.ClientID,
			Title:       inst.Survey.Title,
			Description: inst.Survey.Description,
			CreatedAt:   inst.Survey.CreatedAt,
		}
	}
	return v
}

// CreateInstanceInput publishes a survey. A nil ClosureDate creates a draft.
type CreateInstanceInput struct {
	SurveyID    string     `json:"survey_id"`
	ClosureDate *time.Time `json:"closure_date"`
}

// PublicURL describes where respondents reach an instance.
type PublicURL struct {
	PublicURL string              `json:"public_url"`
	EmbedCode string              `json:"embed_code"`
	State     model.InstanceState `json:"state"`
	IsActive  bool                `json:"is_active"`
}

type OptionStatistics struct {
	OptionID        string  `json:"option_id"`
	OptionContent   string  `json:"option_content"`
	SelectionsCount int     `json:"selections_count"`
	Percentage      float64 `json:"percentage"`
}

type QuestionStatistics struct {
	QuestionID      string             `json:"question_id"`
	QuestionContent string             `json:"question_content"`
	QuestionType    model.QuestionType `json:"question_type"`
	AnswersCount    int                `json:"answers_count"`
	OptionsStats    []OptionStatistics `json:"options_stats"`
	SampleAnswers   []string           `json:"sample_answers,omitempty"`
}

// InstanceStatistics aggregates the completed responses of an instance.
type InstanceStatistics struct {
	TotalParticipations      int                  `json:"total_participations"`
	CompletedParticipations  int                  `json:"completed_participations"`
	InProgressParticipations int                  `json:"in_progress_participations"`
	CompletionRate           float64              `json:"completion_rate"`
	CreationDate             time.Time            `json:"creation_date"`
	ClosureDate              *time.Time           `json:"closure_date"`
	State                    model.InstanceState  `json:"state"`
	QuestionsStatistics      []QuestionStatistics `json:"questions_statistics"`
}

// InstanceService manages the lifecycle of survey instances.
// Only the owner of the underlying survey or an admin may manage an instance.
type InstanceService interface {
	// List returns the actor's instances, optionally only those in state.
	List(ctx context.Context, actor *model.User, state string) ([]InstanceView, error)
	Create(ctx context.Context, actor *model.User, in CreateInstanceInput) (*InstanceView, error)
	// Get includes the survey questions.
	Get(ctx context.Context, actor *model.User, id string) (*InstanceView, error)
	// UpdateClosureDate sets the closure date verbatim; nil turns the instance back into a draft.
	UpdateClosureDate(ctx context.Context, actor *model.User, id string, closure *time.Time) (*InstanceView, error)
	Delete(ctx context.Context, actor *model.User, id string) error
	// Duplicate creates a new instance of the same survey, open for the default window.
	Duplicate(ctx context.Context, actor *model.User, id string) (*InstanceView, error)
	SetState(ctx context.Context, actor *model.User, id, state string, closure *time.Time) (*InstanceView, error)
	Close(ctx context.Context, actor *model.User, id string) (*InstanceView, error)
	Reopen(ctx context.Context, actor *model.User, id string, closure *time.Time) (*InstanceView, error)
	Statistics(ctx context.Context, actor *model.User, id string) (*InstanceStatistics, error)
	PublicURL(ctx context.Context, actor *model.User, id string) (*PublicURL, error)
	// ListOpen is public: every instance currently accepting answers.
	ListOpen(ctx context.Context) ([]InstanceView, error)
	ListBySurvey(ctx context.Context, actor *model.User, surveyID string) ([]InstanceView, error)
}

type instanceService struct {
	instances      repository.InstanceRepository
	surveys        repository.SurveyRepository
	participations repository.ParticipationRepository
	cfg            config.SurveyConfig
	now            func() time.Time
}

// NewInstanceService constructs a new InstanceService.
func NewInstanceService(
	instances repository.InstanceRepository,
	surveys repository.SurveyRepository,
	participations repository.ParticipationRepository,
	cfg config.SurveyConfig,
) InstanceService {
	return &instanceService{
		instances:      instances,
		surveys:        surveys,
		participations: participations,
		cfg:            cfg,
		now:            time.Now,
	}
}

func (s *instanceService) List(ctx context.Context, actor *model.User, state string) ([]InstanceView, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	var want model.InstanceState
	if state != "" {
		parsed, ok := model.ParseInstanceState(state)
		if !ok {
			return nil, invalid("state", fmt.Sprintf("%q is not a valid state", state))
		}
		want = parsed
	}
	items, err := s.instances.List(ctx, repository.InstanceFilter{ClientID: ownerFilter(actor)})
	if err != nil {
		return nil, err
	}
	return s.views(items, want), nil
}

func (s *instanceService) Create(ctx context.Context, actor *model.User, in CreateInstanceInput) (*InstanceView, error) {
	if !actor.IsClient() {
		return nil, ErrForbidden
	}
	if _, err := uuid.Parse(in.SurveyID); err != nil {
		return nil, invalid("survey_id", "unknown survey")
	}
	survey, err := s.surveys.FindByID(ctx, in.SurveyID)
	if err != nil {
		if notFound(err) == ErrNotFound {
			return nil, invalid("survey_id", "unknown survey")
		}
		return nil, err
	}
	if !canManage(actor, survey.ClientID) {
		return nil, ErrForbidden
	}

	now := s.now().UTC()
	if in.ClosureDate != nil && !in.ClosureDate.After(now) {
		return nil, invalid("closure_date", "closure date must be in the future")
	}
	created, err := s.instances.Create(ctx, &model.SurveyInstance{
		ID:           uuid.NewString(),
		SurveyID:     survey.ID,
		CreationDate: now,
		ClosureDate:  in.ClosureDate,
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, created.ID)
}

func (s *instanceService) Get(ctx context.Context, actor *model.User, id string) (*InstanceView, error) {
	inst, err := loadManagedInstance(ctx, s.instances, actor, id)
	if err != nil {
		return nil, err
	}
	questions, err := s.surveys.ListQuestions(ctx, inst.SurveyID)
	if err != nil {
		return nil, err
	}
	v := newInstanceView(inst, s.now())
	v.SurveyQuestions = questions
	return &v, nil
}

func (s *instanceService) UpdateClosureDate(ctx context.Context, actor *model.User, id string, closure *time.Time) (*InstanceView, error) {
	inst, err := loadManagedInstance(ctx, s.instances, actor, id)
	if err != nil {
		return nil, err
	}
	if closure != nil && !closure.After(inst.CreationDate) {
		return nil, invalid("closure_date", "closure date must be after the creation date")
	}
	return s.setClosure(ctx, inst.ID, closure)
}

func (s *instanceService) Delete(ctx context.Context, actor *model.User, id string) error {
	if _, err := loadManagedInstance(ctx, s.instances, actor, id); err != nil {
		return err
	}
	return notFound(s.instances.Delete(ctx, id))
}

func (s *instanceService) Duplicate(ctx context.Context, actor *model.User, id string) (*InstanceView, error) {
	inst, err := loadManagedInstance(ctx, s.instances, actor, id)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	closure := s.defaultClosure(now)
	created, err := s.instances.Create(ctx, &model.SurveyInstance{
		ID:           uuid.NewString(),
		SurveyID:     inst.SurveyID,
		CreationDate: now,
		ClosureDate:  &closure,
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, created.ID)
}

func (s *instanceService) SetState(ctx context.Context, actor *model.User, id, state string, closure *time.Time) (*InstanceView, error) {
	want, ok := model.ParseInstanceState(strings.TrimSpace(state))
	if !ok {
		return nil, invalid("state", fmt.Sprintf("%q is not a valid state", state))
	}
	inst, err := loadManagedInstance(ctx, s.instances, actor, id)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()

	switch want {
	case model.InstanceDraft:
		return s.setClosure(ctx, inst.ID, nil)
	case model.InstanceClosed:
		if inst.StateAt(now) == model.InstanceClosed {
			v := newInstanceView(inst, now)
			return &v, nil
		}
		return s.setClosure(ctx, inst.ID, &now)
	default:
		target, err := s.openUntil(now, closure)
		if err != nil {
			return nil, err
		}
		return s.setClosure(ctx, inst.ID, &target)
	}
}

func (s *instanceService) Close(ctx context.Context, actor *model.User, id string) (*InstanceView, error) {
	inst, err := loadManagedInstance(ctx, s.instances, actor, id)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if inst.StateAt(now) == model.InstanceClosed {
		return nil, ErrAlreadyClosed
	}
	return s.setClosure(ctx, inst.ID, &now)
}

func (s *instanceService) Reopen(ctx context.Context, actor *model.User, id string, closure *time.Time) (*InstanceView, error) {
	inst, err := loadManagedInstance(ctx, s.instances, actor, id)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if inst.StateAt(now) != model.InstanceClosed {
		return nil, ErrNotClosed
	}
	target, err := s.openUntil(now, closure)
	if err != nil {
		return nil, err
	}
	return s.setClosure(ctx, inst.ID, &target)
}

func (s *instanceService) Statistics(ctx context.Context, actor *model.User, id string) (*InstanceStatistics, error) {
	inst, err := loadManagedInstance(ctx, s.instances, actor, id)
	if err != nil {
		return nil, err
	}
	counts, err := s.participations.Counts(ctx, inst.ID)
	if err != nil {
		return nil, err
	}
	questions, err := s.surveys.ListQuestions(ctx, inst.SurveyID)
	if err != nil {
		return nil, err
	}
	answerCounts, err := s.participations.QuestionAnswerCounts(ctx, inst.ID)
	if err != nil {
		return nil, err
	}
	optionCounts, err := s.participations.OptionSelectionCounts(ctx, inst.ID)
	if err != nil {
		return nil, err
	}

	stats := &InstanceStatistics{
		TotalParticipations:      counts.Total,
		CompletedParticipations:  counts.Completed,
		InProgressParticipations: counts.InProgress,
		CompletionRate:           percent(counts.Completed, counts.Total),
		CreationDate:             inst.CreationDate,
		ClosureDate:              inst.ClosureDate,
		State:                    inst.StateAt(s.now()),
		QuestionsStatistics:      make([]QuestionStatistics, 0, len(questions)),
	}
	for _, q := range questions {
		qs := QuestionStatistics{
			QuestionID:      q.ID,
			QuestionContent: q.Content,
			QuestionType:    q.Type,
			AnswersCount:    answerCounts[q.ID],
			OptionsStats:    make([]OptionStatistics, 0, len(q.Options)),
		}
		if q.Type.HasOptions() {
			for _, o := range q.Options {
				qs.OptionsStats = append(qs.OptionsStats, OptionStatistics{
					OptionID:        o.ID,
					OptionContent:   o.Content,
					SelectionsCount: optionCounts[o.ID],
					Percentage:      percent(optionCounts[o.ID], counts.Completed),
				})
			}
		} else {
			samples, err := s.participations.SampleOpenAnswers(ctx, inst.ID, q.ID, sampleAnswersLimit)
			if err != nil {
				return nil, err
			}
			qs.SampleAnswers = samples
		}
		stats.QuestionsStatistics = append(stats.QuestionsStatistics, qs)
	}
	return stats, nil
}

func (s *instanceService) PublicURL(ctx context.Context, actor *model.User, id string) (*PublicURL, error) {
	inst, err := loadManagedInstance(ctx, s.instances, actor, id)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/surveys/%s/public", strings.TrimRight(s.cfg.PublicBaseURL, "/"), inst.ID)
	state := inst.StateAt(s.now())
	return &PublicURL{
		PublicURL: url,
		EmbedCode: fmt.Sprintf(`<iframe src="%s" width="100%%" height="600" frameborder="0"></iframe>`, url),
		State:     state,
		IsActive:  state == model.InstanceOpen,
	}, nil
}

func (s *instanceService) ListOpen(ctx context.Context) ([]InstanceView, error) {
	now := s.now()
	items, err := s.instances.ListOpen(ctx, now)
	if err != nil {
		return nil, err
	}
	return s.views(items, model.InstanceOpen), nil
}

func (s *instanceService) ListBySurvey(ctx context.Context, actor *model.User, surveyID string) ([]InstanceView, error) {
	if !actor.IsClient() {
		return nil, ErrForbidden
	}
	survey, err := s.surveys.FindByID(ctx, surveyID)
	if err != nil {
		return nil, notFound(err)
	}
	if !canManage(actor, survey.ClientID) {
		return nil, ErrForbidden
	}
	items, err := s.instances.List(ctx, repository.InstanceFilter{SurveyID: surveyID})
	if err != nil {
		return nil, err
	}
	return s.views(items, ""), nil
}

// openUntil validates an explicit closure date or falls back to the default window.
func (s *instanceService) openUntil(now time.Time, closure *time.Time) (time.Time, error) {
	if closure == nil {
		return s.defaultClosure(now), nil
	}
	if !closure.After(now) {
		return time.Time{}, invalid("closure_date", "closure date must be in the future")
	}
	return closure.UTC(), nil
}

func (s *instanceService) defaultClosure(now time.Time) time.Time {
	days := s.cfg.DefaultOpenDays
	if days <= 0 {
		days = 30
	}
	return now.AddDate(0, 0, days)
}

func (s *instanceService) setClosure(ctx context.Context, id string, closure *time.Time) (*InstanceView, error) {
	if err := s.instances.UpdateClosureDate(ctx, id, closure); err != nil {
		return nil, notFound(err)
	}
	return s.reload(ctx, id)
}

func (s *instanceService) reload(ctx context.Context, id string) (*InstanceView, error) {
	inst, err := s.instances.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	v := newInstanceView(inst, s.now())
	return &v, nil
}

// views renders items, keeping only those in state when state is set.
func (s *instanceService) views(items []model.SurveyInstance, state model.InstanceState) []InstanceView {
	now := s.now()
	out := make([]InstanceView, 0, len(items))
	for i := range items {
		if state != "" && items[i].StateAt(now) != state {
			continue
		}
		out = append(out, newInstanceView(&items[i], now))
	}
	return out
}
