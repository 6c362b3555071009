package migration

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"surveyapi/internal/config"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_roles",
		SQL: `CREATE TABLE IF NOT EXISTS roles (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  name        VARCHAR(20) NOT NULL UNIQUE,
  description TEXT
);`,
	},
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id            UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  username      VARCHAR(150) NOT NULL UNIQUE,
  email         VARCHAR(254) NOT NULL UNIQUE,
  password_hash TEXT        NOT NULL,
  role_id       UUID        REFERENCES roles (id) ON DELETE RESTRICT,
  is_active     BOOLEAN     NOT NULL DEFAULT FALSE,
  is_staff      BOOLEAN     NOT NULL DEFAULT FALSE,
  register_date TIMESTAMPTZ NOT NULL DEFAULT now(),
  last_login    TIMESTAMPTZ
);`,
	},
	{
		Name: "create_table_surveys",
		SQL: `CREATE TABLE IF NOT EXISTS surveys (
  id          UUID         PRIMARY KEY DEFAULT uuid_generate_v4(),
  client_id   UUID         NOT NULL REFERENCES users (id) ON DELETE CASCADE,
  title       VARCHAR(100) NOT NULL,
  description TEXT         NOT NULL DEFAULT '',
  created_at  TIMESTAMPTZ  NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_questions",
		SQL: `CREATE TABLE IF NOT EXISTS questions (
  id        UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  survey_id UUID        NOT NULL REFERENCES surveys (id) ON DELETE CASCADE,
  content   TEXT        NOT NULL,
  type      VARCHAR(20) NOT NULL CHECK (type IN ('single_choice', 'multiple_choice', 'open')),
  position  INTEGER     NOT NULL DEFAULT 0
);`,
	},
	{
		Name: "create_table_options",
		SQL: `CREATE TABLE IF NOT EXISTS options (
  id          UUID         PRIMARY KEY DEFAULT uuid_generate_v4(),
  question_id UUID         NOT NULL REFERENCES questions (id) ON DELETE CASCADE,
  content     VARCHAR(255) NOT NULL,
  position    INTEGER      NOT NULL DEFAULT 0
);`,
	},
	{
		Name: "create_table_survey_instances",
		SQL: `CREATE TABLE IF NOT EXISTS survey_instances (
  id            UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  survey_id     UUID        NOT NULL REFERENCES surveys (id) ON DELETE CASCADE,
  creation_date TIMESTAMPTZ NOT NULL DEFAULT now(),
  closure_date  TIMESTAMPTZ
);`,
	},
	{
		Name: "create_table_participations",
		SQL: `CREATE TABLE IF NOT EXISTS participations (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  user_id     UUID        REFERENCES users (id) ON DELETE CASCADE,
  instance_id UUID        NOT NULL REFERENCES survey_instances (id) ON DELETE CASCADE,
  date        TIMESTAMPTZ NOT NULL DEFAULT now(),
  state       VARCHAR(20) NOT NULL DEFAULT 'in_progress' CHECK (state IN ('in_progress', 'completed'))
);`,
	},
	{
		Name: "create_index_participations_user_instance",
		SQL: `CREATE UNIQUE INDEX IF NOT EXISTS uq_participations_user_instance
  ON participations (user_id, instance_id) WHERE user_id IS NOT NULL;`,
	},
	{
		Name: "create_table_answers",
		SQL: `CREATE TABLE IF NOT EXISTS answers (
  id               UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  participation_id UUID        NOT NULL REFERENCES participations (id) ON DELETE CASCADE,
  question_id      UUID        NOT NULL REFERENCES questions (id) ON DELETE CASCADE,
  option_id        UUID        REFERENCES options (id) ON DELETE SET NULL,
  content          TEXT,
  date             TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_answer_options",
		SQL: `CREATE TABLE IF NOT EXISTS answer_options (
  id         UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  answer_id  UUID        NOT NULL REFERENCES answers (id) ON DELETE CASCADE,
  option_id  UUID        NOT NULL REFERENCES options (id) ON DELETE CASCADE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (answer_id, option_id)
);`,
	},
	{
		Name: "create_table_reports",
		SQL: `CREATE TABLE IF NOT EXISTS reports (
  id           UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  instance_id  UUID        NOT NULL UNIQUE REFERENCES survey_instances (id) ON DELETE CASCADE,
  date         TIMESTAMPTZ NOT NULL DEFAULT now(),
  summary      TEXT        NOT NULL,
  storage_path TEXT        NOT NULL
);`,
	},
	{
		Name: "create_index_surveys_client_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_surveys_client_id ON surveys (client_id);`,
	},
	{
		Name: "create_index_survey_instances_survey_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_survey_instances_survey_id ON survey_instances (survey_id);`,
	},
	{
		Name: "create_index_participations_instance_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_participations_instance_id ON participations (instance_id, date DESC);`,
	},
	{
		Name: "create_index_answers_participation_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_answers_participation_id ON answers (participation_id);`,
	},
}

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
  name       TEXT        PRIMARY KEY,
  applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// EnsureMigrated applies every step not yet recorded in schema_migrations, in order.
func EnsureMigrated(ctx context.Context, db *sql.DB, logger *slog.Logger, dbHost string) error {
	start := time.Now()
	log := logger.With("component", "database", "db_host", dbHost)

	log.Info("db_migration_check", "status", "starting")

	if _, err := db.ExecContext(ctx, createMigrationsTable); err != nil {
		log.Error("db_migration_failed",
			"status", "error",
			"error_message", fmt.Sprintf("failed to create schema_migrations: %v", err),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	applied, err := appliedSteps(ctx, db)
	if err != nil {
		log.Error("db_migration_failed",
			"status", "error",
			"error_message", err.Error(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return err
	}

	pending := 0
	for _, step := range steps {
		if applied[step.Name] {
			continue
		}
		pending++
		stepStart := time.Now()
		if err := applyStep(ctx, db, step); err != nil {
			log.Error("db_migration_failed",
				"status", "error",
				"migration_step", step.Name,
				"error_message", err.Error(),
				"duration_ms", time.Since(start).Milliseconds(),
				"step_duration_ms", time.Since(stepStart).Milliseconds(),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		log.Info("db_migration_step",
			"status", "success",
			"migration_step", step.Name,
			"step_duration_ms", time.Since(stepStart).Milliseconds(),
		)
	}

	if pending == 0 {
		log.Info("db_migration_skip",
			"status", "success",
			"msg_detail", "schema already up to date",
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}

	log.Info("db_migration_success",
		"status", "success",
		"applied_steps", pending,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func appliedSteps(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

func applyStep(ctx context.Context, db *sql.DB, step migrationStep) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, step.SQL); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, step.Name); err != nil {
		return err
	}
	return tx.Commit()
}

// SeedRoles inserts the given roles, leaving existing ones untouched.
func SeedRoles(ctx context.Context, db *sql.DB, roles []config.RoleDefinition, logger *slog.Logger) error {
	const q = `INSERT INTO roles (name, description) VALUES ($1, NULLIF($2, '')) ON CONFLICT (name) DO NOTHING`
	for _, r := range roles {
		res, err := db.ExecContext(ctx, q, r.Name, r.Description)
		if err != nil {
			return fmt.Errorf("seed role %s: %w", r.Name, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			logger.Info("role_seeded", "component", "database", "role", r.Name)
		}
	}
	return nil
}
