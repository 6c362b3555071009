package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRolePostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRolePostgres(db)
	ctx := context.Background()

	t.Run("list", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "name", "description"}).
			AddRow("r1", "admin", "boss").
			AddRow("r2", "client", nil)
		mock.ExpectQuery("SELECT id, name, description FROM roles ORDER BY name").WillReturnRows(rows)

		roles, err := repo.List(ctx)

		require.NoError(t, err)
		require.Len(t, roles, 2)
		assert.Equal(t, "boss", *roles[0].Description)
		assert.Nil(t, roles[1].Description)
	})

	t.Run("find by name", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name, description FROM roles WHERE name").WithArgs("client").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description"}).AddRow("r2", "client", nil))

		role, err := repo.FindByName(ctx, "client")

		require.NoError(t, err)
		assert.Equal(t, "r2", role.ID)
	})

	t.Run("find by id missing", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name, description FROM roles WHERE id").WithArgs("nope").
			WillReturnError(sql.ErrNoRows)

		role, err := repo.FindByID(ctx, "nope")

		assert.Nil(t, role)
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
