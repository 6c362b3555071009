package service

import (
	"context"
	"database/sql"
	"errors"
	"math"

	"surveyapi/internal/model"
	"surveyapi/internal/repository"
)

// canManage reports whether actor may read or change content owned by clientID.
func canManage(actor *model.User, clientID string) bool {
	if actor == nil {
		return false
	}
	return actor.IsAdmin() || actor.ID == clientID
}

// ownerFilter restricts listings to the actor's surveys unless the actor is an admin.
func ownerFilter(actor *model.User) string {
	if actor.IsAdmin() {
		return ""
	}
	return actor.ID
}

// notFound converts sql.ErrNoRows into ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// loadManagedInstance returns an instance whose survey the actor may manage.
func loadManagedInstance(ctx context.Context, repo repository.InstanceRepository, actor *model.User, id string) (*model.SurveyInstance, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	inst, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if !canManage(actor, inst.Survey.ClientID) {
		return nil, ErrForbidden
	}
	return inst, nil
}

// percent returns part/whole*100 rounded to two decimals, 0 when whole is 0.
func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*100*100) / 100
}

func pageBounds(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
