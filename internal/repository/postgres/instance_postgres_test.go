package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveyapi/internal/model"
	"surveyapi/internal/repository"
)

var instanceColumns = []string{"id", "survey_id", "creation_date", "closure_date", "client_id", "title",
	"description", "created_at", "total_questions", "total_participations", "completed_participations"}

func TestInstancePostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewInstancePostgres(db)
	closure := time.Now().Add(time.Hour)

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM survey_instances i JOIN surveys s (.+) WHERE i.id").WithArgs("inst-1").
			WillReturnRows(sqlmock.NewRows(instanceColumns).
				AddRow("inst-1", "survey-1", time.Now(), closure, "client-1", "Lunch", "desc", time.Now(), 3, 5, 4))

		inst, err := repo.FindByID(context.Background(), "inst-1")

		require.NoError(t, err)
		require.NotNil(t, inst.Survey)
		assert.Equal(t, "survey-1", inst.Survey.ID)
		assert.Equal(t, "client-1", inst.Survey.ClientID)
		assert.Equal(t, 3, inst.TotalQuestions)
		assert.Equal(t, 5, inst.TotalParticipations)
		assert.Equal(t, 4, inst.CompletedParticipations)
		assert.Equal(t, model.InstanceOpen, inst.StateAt(time.Now()))
	})

	t.Run("draft", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM survey_instances").WithArgs("inst-2").
			WillReturnRows(sqlmock.NewRows(instanceColumns).
				AddRow("inst-2", "survey-1", time.Now(), nil, "client-1", "Lunch", "", time.Now(), 0, 0, 0))

		inst, err := repo.FindByID(context.Background(), "inst-2")

		require.NoError(t, err)
		assert.Nil(t, inst.ClosureDate)
		assert.Equal(t, model.InstanceDraft, inst.StateAt(time.Now()))
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM survey_instances").WithArgs("missing").WillReturnError(sql.ErrNoRows)

		inst, err := repo.FindByID(context.Background(), "missing")

		assert.Nil(t, inst)
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstancePostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM survey_instances (.+) ORDER BY i.creation_date DESC").
		WithArgs("client-1", "").
		WillReturnRows(sqlmock.NewRows(instanceColumns).
			AddRow("inst-1", "survey-1", time.Now(), nil, "client-1", "Lunch", "", time.Now(), 1, 0, 0).
			AddRow("inst-2", "survey-1", time.Now(), nil, "client-1", "Lunch", "", time.Now(), 1, 0, 0))

	items, err := NewInstancePostgres(db).List(context.Background(), repository.InstanceFilter{ClientID: "client-1"})

	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstancePostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	closure := now.Add(24 * time.Hour)
	inst := &model.SurveyInstance{ID: "inst-1", SurveyID: "survey-1", CreationDate: now, ClosureDate: &closure}

	mock.ExpectQuery("INSERT INTO survey_instances").
		WithArgs("inst-1", "survey-1", now, closure).
		WillReturnRows(sqlmock.NewRows([]string{"id", "survey_id", "creation_date", "closure_date"}).
			AddRow("inst-1", "survey-1", now, closure))

	out, err := NewInstancePostgres(db).Create(context.Background(), inst)

	require.NoError(t, err)
	require.NotNil(t, out.ClosureDate)
	assert.True(t, closure.Equal(*out.ClosureDate))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstancePostgres_UpdateClosureDate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewInstancePostgres(db)

	mock.ExpectExec("UPDATE survey_instances SET closure_date").WithArgs("inst-1", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.UpdateClosureDate(context.Background(), "inst-1", nil))

	mock.ExpectExec("UPDATE survey_instances SET closure_date").WithArgs("missing", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	now := time.Now()
	assert.ErrorIs(t, repo.UpdateClosureDate(context.Background(), "missing", &now), sql.ErrNoRows)

	assert.NoError(t, mock.ExpectationsWereMet())
}
