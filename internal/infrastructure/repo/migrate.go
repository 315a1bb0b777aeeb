package repo

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func migrationNames() ([]string, error) {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Migrate applies the embedded migrations that are not yet recorded in schema_migrations and returns
// the names it applied.
func (r *PostgresStore) Migrate(ctx context.Context) ([]string, error) {
	if _, err := r.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		migration_name TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		return nil, fmt.Errorf("create migrations table: %w", err)
	}
	applied := map[string]bool{}
	rows, err := r.db.QueryContext(ctx, `SELECT migration_name FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("read applied migrations: %w", err)
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, err
		}
		applied[name] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	names, err := migrationNames()
	if err != nil {
		return nil, err
	}
	var done []string
	for _, name := range names {
		if applied[name] {
			continue
		}
		body, err := migrationsFS.ReadFile(name)
		if err != nil {
			return done, fmt.Errorf("read migration %s: %w", name, err)
		}
		if err := r.applyMigration(ctx, name, string(body)); err != nil {
			return done, fmt.Errorf("apply migration %s: %w", name, err)
		}
		done = append(done, name)
	}
	return done, nil
}

func (r *PostgresStore) applyMigration(ctx context.Context, name, body string) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, body); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (migration_name) VALUES ($1)`, name); err != nil {
		return err
	}
	return tx.Commit()
}
