package repository

import (
	"context"

	"surveyapi/internal/model"
)

// ParticipationCounts aggregates participations of one instance by state.
type ParticipationCounts struct {
	Total      int
	Completed  int
	InProgress int
}

// ParticipationRepository persists participations, answers and the aggregates computed over them.
type ParticipationRepository interface {
	FindByID(ctx context.Context, id string) (*model.Participation, error)
	FindByUserAndInstance(ctx context.Context, userID, instanceID string) (*model.Participation, error)

	// Submit records a submission in one transaction. The participation of
	// userID in the instance is created on first use; a nil userID always creates
	// an anonymous one. Previous answers are replaced by answers and the state is
	// set. ErrParticipationCompleted is returned when the participation was already completed.
	Submit(ctx context.Context, instanceID string, userID *string, answers []model.Answer, state model.ParticipationState) (*model.Participation, error)

	// ListByInstance pages participations newest first, with their answer count.
	ListByInstance(ctx context.Context, instanceID string, pq PageQuery) (*PageResult[model.Participation], error)
	ListCompleted(ctx context.Context, instanceID string) ([]model.Participation, error)

	// ListAnswers returns the answers of a participation with selected option contents.
	ListAnswers(ctx context.Context, participationID string) ([]model.Answer, error)
	// ListCompletedAnswers returns the answers of every completed participation of an instance.
	ListCompletedAnswers(ctx context.Context, instanceID string) ([]model.Answer, error)

	// Delete removes a participation of the instance; sql.ErrNoRows when it does not exist there.
	Delete(ctx context.Context, instanceID, participationID string) error

	Counts(ctx context.Context, instanceID string) (ParticipationCounts, error)
	// QuestionAnswerCounts maps question id to number of answers in completed participations.
	QuestionAnswerCounts(ctx context.Context, instanceID string) (map[string]int, error)
	// OptionSelectionCounts maps option id to number of selections in completed participations.
	OptionSelectionCounts(ctx context.Context, instanceID string) (map[string]int, error)
	// SampleOpenAnswers returns up to limit non-empty texts answered to questionID, newest first.
	SampleOpenAnswers(ctx context.Context, instanceID, questionID string, limit int) ([]string, error)
}
