package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migration — один файл миграции вида 001_name.sql.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// LoadMigrations читает встроенные миграции, отсортированные по версии.
func LoadMigrations() ([]Migration, error) {
	return loadMigrations(migrationsFS, "migrations")
}

func loadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения миграций: %w", err)
	}

	var out []Migration
	seen := map[int]string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		prefix, _, ok := strings.Cut(e.Name(), "_")
		if !ok {
			return nil, fmt.Errorf("миграция %s: нет номера версии", e.Name())
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("миграция %s: %w", e.Name(), err)
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("версия %d повторяется: %s и %s", version, prev, e.Name())
		}
		seen[version] = e.Name()

		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, Migration{Version: version, Name: e.Name(), SQL: string(data)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// RunMigrations применяет встроенные миграции по порядку.
// Уже применённые версии пропускаются (см. ExecMigrationSQL).
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("ошибка создания таблицы миграций: %w", err)
	}

	migrations, err := LoadMigrations()
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if err := ExecMigrationSQL(ctx, pool, m.Version, m.SQL); err != nil {
			return err
		}
		log.WithField("migration", m.Name).Debug("Миграция проверена")
	}
	log.WithField("count", len(migrations)).Info("Миграции применены")
	return nil
}

// ExecMigrationSQL выполняет одну миграцию в транзакции и записывает её версию.
// Уже применённая версия пропускается; при ошибке транзакция откатывается.
func ExecMigrationSQL(ctx context.Context, pool *pgxpool.Pool, version int, sql string) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		var applied bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version,
		).Scan(&applied); err != nil {
			return fmt.Errorf("ошибка проверки миграции: %w", err)
		}
		if applied {
			return nil
		}

		if _, err := tx.Exec(ctx, sql); err != nil {
			return fmt.Errorf("ошибка выполнения миграции %d: %w", version, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			return fmt.Errorf("ошибка записи версии миграции: %w", err)
		}
		log.WithField("version", version).Info("Миграция применена")
		return nil
	})
}
