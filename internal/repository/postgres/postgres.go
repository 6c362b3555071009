package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"surveyapi/internal/repository"
)

const uniqueViolation = "23505"

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// mapError turns unique violations into *repository.ConflictError and returns other errors unchanged.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &repository.ConflictError{Field: conflictField(pgErr.ConstraintName)}
	}
	return err
}

// conflictField extracts the column from Postgres' default "<table>_<column>_key" constraint names.
func conflictField(constraint string) string {
	switch constraint {
	case "users_username_key":
		return "username"
	case "users_email_key":
		return "email"
	case "roles_name_key":
		return "name"
	}
	name := strings.TrimSuffix(constraint, "_key")
	if i := strings.IndexByte(name, '_'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// nullable converts an empty id into NULL.
func nullable(id string) any {
	if id == "" {
		return nil
	}
	return id
}
