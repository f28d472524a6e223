package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

type Migration struct {
	Name string
	SQL  string
}

// RoleMigrations make sure every pre-existing account has a role.
// Accounts created before roles existed become plain users.
var RoleMigrations = []Migration{
	{
		Name: "users_add_role",
		SQL:  `ALTER TABLE users ADD COLUMN IF NOT EXISTS role VARCHAR(20) DEFAULT 'USER'`,
	},
	{
		Name: "users_backfill_role",
		SQL:  `UPDATE users SET role = 'USER' WHERE role IS NULL OR role = ''`,
	},
	{
		Name: "users_uppercase_role",
		SQL:  `UPDATE users SET role = UPPER(role) WHERE role <> UPPER(role)`,
	},
}

// OpenSQL opens a plain database/sql handle through lib/pq for statements gorm does not model.
func OpenSQL(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sql: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sql: %w", err)
	}
	return sqlDB, nil
}

// Migrate runs every statement inside one transaction. Statements must be idempotent.
func Migrate(ctx context.Context, sqlDB *sql.DB, migrations []Migration) error {
	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	for _, m := range migrations {
		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %s: %w", m.Name, err)
		}
	}
	return tx.Commit()
}
