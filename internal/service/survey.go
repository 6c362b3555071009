package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"surveyapi/internal/model"
	"surveyapi/internal/repository"
)

const (
	maxTitleLength  = 100
	maxOptionLength = 255
)

// SurveyInput creates or edits a survey. On update nil fields are left
// untouched and a non-nil Questions replaces the whole question set.
type SurveyInput struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Questions   *[]QuestionInput `json:"questions"`
}

type QuestionInput struct {
	Content string        `json:"content"`
	Type    string        `json:"type"`
	Options []OptionInput `json:"options"`
}

type OptionInput struct {
	Content string `json:"content"`
}

// SurveyListResult is the service-level DTO for paginated surveys.
type SurveyListResult struct {
	Items []model.Survey `json:"data"`
	Total int            `json:"total"`
}

// SurveyService manages survey templates. Only the owning client or an admin may touch a survey.
type SurveyService interface {
	List(ctx context.Context, actor *model.User, limit, offset int) (*SurveyListResult, error)
	Create(ctx context.Context, actor *model.User, in SurveyInput) (*model.Survey, error)
	Get(ctx context.Context, actor *model.User, id string) (*model.Survey, error)
	Update(ctx context.Context, actor *model.User, id string, in SurveyInput) (*model.Survey, error)
	Delete(ctx context.Context, actor *model.User, id string) error
}

type surveyService struct {
	surveys repository.SurveyRepository
	now     func() time.Time
}

// NewSurveyService constructs a new SurveyService.
func NewSurveyService(surveys repository.SurveyRepository) SurveyService {
	return &surveyService{surveys: surveys, now: time.Now}
}

func (s *surveyService) List(ctx context.Context, actor *model.User, limit, offset int) (*SurveyListResult, error) {
	if !actor.IsClient() {
		return nil, ErrForbidden
	}
	limit, offset = pageBounds(limit, offset)
	res, err := s.surveys.List(ctx, ownerFilter(actor), repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &SurveyListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *surveyService) Create(ctx context.Context, actor *model.User, in SurveyInput) (*model.Survey, error) {
	if !actor.IsClient() {
		return nil, ErrForbidden
	}
	if in.Title == nil {
		return nil, invalid("title", "this field is required")
	}
	if in.Questions == nil {
		return nil, invalid("questions", "a survey needs at least one question")
	}

	survey := &model.Survey{
		ID:        uuid.NewString(),
		ClientID:  actor.ID,
		CreatedAt: s.now().UTC(),
	}
	if err := applySurveyInput(survey, in); err != nil {
		return nil, err
	}
	return s.surveys.Create(ctx, survey)
}

func (s *surveyService) Get(ctx context.Context, actor *model.User, id string) (*model.Survey, error) {
	return s.loadManaged(ctx, actor, id)
}

func (s *surveyService) Update(ctx context.Context, actor *model.User, id string, in SurveyInput) (*model.Survey, error) {
	survey, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := applySurveyInput(survey, in); err != nil {
		return nil, err
	}
	if err := s.surveys.Update(ctx, survey, in.Questions != nil); err != nil {
		return nil, notFound(err)
	}
	updated, err := s.surveys.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return updated, nil
}

func (s *surveyService) Delete(ctx context.Context, actor *model.User, id string) error {
	if _, err := s.loadManaged(ctx, actor, id); err != nil {
		return err
	}
	return notFound(s.surveys.Delete(ctx, id))
}

func (s *surveyService) loadManaged(ctx context.Context, actor *model.User, id string) (*model.Survey, error) {
	if !actor.IsClient() {
		return nil, ErrForbidden
	}
	survey, err := s.surveys.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if !canManage(actor, survey.ClientID) {
		return nil, ErrForbidden
	}
	return survey, nil
}

func applySurveyInput(survey *model.Survey, in SurveyInput) error {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return invalid("title", "this field may not be blank")
		}
		if utf8.RuneCountInString(title) > maxTitleLength {
			return invalid("title", fmt.Sprintf("ensure this field has no more than %d characters", maxTitleLength))
		}
		survey.Title = title
	}
	if in.Description != nil {
		survey.Description = strings.TrimSpace(*in.Description)
	}
	if in.Questions != nil {
		questions, err := buildQuestions(*in.Questions)
		if err != nil {
			return err
		}
		survey.Questions = questions
	}
	return nil
}

// buildQuestions validates the question tree; positions follow slice order.
func buildQuestions(in []QuestionInput) ([]model.Question, error) {
	if len(in) == 0 {
		return nil, invalid("questions", "a survey needs at least one question")
	}
	out := make([]model.Question, 0, len(in))
	for i, q := range in {
		field := fmt.Sprintf("questions[%d]", i)
		content := strings.TrimSpace(q.Content)
		if content == "" {
			return nil, invalid(field+".content", "this field may not be blank")
		}
		typ, ok := model.ParseQuestionType(q.Type)
		if !ok {
			return nil, invalid(field+".type", fmt.Sprintf("%q is not a valid question type", q.Type))
		}

		question := model.Question{Content: content, Type: typ, Position: i + 1}
		if !typ.HasOptions() {
			if len(q.Options) > 0 {
				return nil, invalid(field+".options", "open questions cannot have options")
			}
			out = append(out, question)
			continue
		}
		if len(q.Options) == 0 {
			return nil, invalid(field+".options", "choice questions need at least one option")
		}
		for j, o := range q.Options {
			optContent := strings.TrimSpace(o.Content)
			if optContent == "" {
				return nil, invalid(fmt.Sprintf("%s.options[%d].content", field, j), "this field may not be blank")
			}
			if utf8.RuneCountInString(optContent) > maxOptionLength {
				return nil, invalid(fmt.Sprintf("%s.options[%d].content", field, j),
					fmt.Sprintf("ensure this field has no more than %d characters", maxOptionLength))
			}
			question.Options = append(question.Options, model.Option{Content: optContent, Position: j + 1})
		}
		out = append(out, question)
	}
	return out, nil
}
