package postgres

import (
	"context"
	"database/sql"
	"time"

	"surveyapi/internal/model"
	"surveyapi/internal/repository"
)

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres repository.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

const userSelect = `
	SELECT u.id, u.username, u.email, u.password_hash, u.is_active, u.is_staff,
	       u.register_date, u.last_login, r.id, r.name, r.description
	FROM users u
	LEFT JOIN roles r ON r.id = u.role_id
`

func scanUser(s scanner) (*model.User, error) {
	var (
		u        model.User
		roleID   sql.NullString
		roleName sql.NullString
		roleDesc sql.NullString
	)
	if err := s.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.IsActive,
		&u.IsStaff,
		&u.RegisterDate,
		&u.LastLogin,
		&roleID,
		&roleName,
		&roleDesc,
	); err != nil {
		return nil, err
	}
	if roleID.Valid {
		u.Role = &model.Role{ID: roleID.String, Name: roleName.String}
		if roleDesc.Valid {
			desc := roleDesc.String
			u.Role.Description = &desc
		}
	}
	return &u, nil
}

func roleID(u *model.User) any {
	if u.Role == nil {
		return nil
	}
	return nullable(u.Role.ID)
}

// Create inserts a new user row and returns the stored record.
func (r *UserPostgres) Create(ctx context.Context, u *model.User) (*model.User, error) {
	const q = `
		INSERT INTO users (id, username, email, password_hash, role_id, is_active, is_staff, register_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, register_date
	`
	out := *u
	err := r.db.QueryRowContext(ctx, q,
		u.ID,
		u.Username,
		u.Email,
		u.PasswordHash,
		roleID(u),
		u.IsActive,
		u.IsStaff,
		u.RegisterDate,
	).Scan(&out.ID, &out.RegisterDate)
	if err != nil {
		return nil, mapError(err)
	}
	return &out, nil
}

// FindByID fetches a single user by its ID.
func (r *UserPostgres) FindByID(ctx context.Context, id string) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, userSelect+` WHERE u.id = $1`, id))
}

// FindByUsername matches the username exactly.
func (r *UserPostgres) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, userSelect+` WHERE u.username = $1`, username))
}

// FindByEmail matches the email case-insensitively.
func (r *UserPostgres) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, userSelect+` WHERE lower(u.email) = lower($1)`, email))
}

// List returns users using LIMIT/OFFSET pagination and a total count.
func (r *UserPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.User], error) {
	const qCount = `SELECT COUNT(*) FROM users`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, userSelect+` ORDER BY u.register_date DESC, u.id DESC LIMIT $1 OFFSET $2`, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.User]{
		Items: items,
		Total: total,
	}, nil
}

// Update writes the mutable columns and returns the refreshed user.
func (r *UserPostgres) Update(ctx context.Context, u *model.User) (*model.User, error) {
	const q = `
		UPDATE users
		SET username = $2, email = $3, password_hash = $4, role_id = $5, is_active = $6, is_staff = $7
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, q,
		u.ID,
		u.Username,
		u.Email,
		u.PasswordHash,
		roleID(u),
		u.IsActive,
		u.IsStaff,
	)
	if err != nil {
		return nil, mapError(err)
	}
	if err := expectAffected(res); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, u.ID)
}

// SetActive flips the is_active flag.
func (r *UserPostgres) SetActive(ctx context.Context, id string, active bool) error {
	return r.exec(ctx, `UPDATE users SET is_active = $2 WHERE id = $1`, id, active)
}

// UpdatePassword stores a new password hash.
func (r *UserPostgres) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
}

// TouchLastLogin records a successful login.
func (r *UserPostgres) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
}

// Delete removes a user by ID. Owned surveys and participations cascade.
func (r *UserPostgres) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, `DELETE FROM users WHERE id = $1`, id)
}

func (r *UserPostgres) exec(ctx context.Context, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(res)
}

// expectAffected reports sql.ErrNoRows when a statement touched nothing.
func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
