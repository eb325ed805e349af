package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"

	_ "github.com/lib/pq" // PostgreSQL driver cho database/sql
	"github.com/pressly/goose/v3"
)

// Open mở *sql.DB qua lib/pq. goose không làm việc với pgxpool.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// Runner chạy goose trên một migrations FS (embed hoặc os.DirFS).
type Runner struct {
	db  *sql.DB
	fs  fs.FS
	dir string
}

func NewRunner(db *sql.DB, migrations fs.FS, dir string) (*Runner, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if dir == "" {
		dir = "."
	}
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	return &Runner{db: db, fs: migrations, dir: dir}, nil
}

// Run executes up|down|status|redo|reset.
func (r *Runner) Run(ctx context.Context, command string, args ...string) error {
	if err := goose.RunContext(ctx, command, r.db, r.dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// MigrateTo đi lên hoặc xuống tới đúng version.
func (r *Runner) MigrateTo(ctx context.Context, version string) error {
	target, err := strconv.ParseInt(version, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", version, err)
	}

	current, err := goose.GetDBVersionContext(ctx, r.db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current == target:
		return nil
	case current < target:
		if err := goose.UpToContext(ctx, r.db, r.dir, target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
	default:
		if err := goose.DownToContext(ctx, r.db, r.dir, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
	}
	return nil
}

// Versions liệt kê version của các file migration, không cần DB.
func Versions(migrations fs.FS, dir string) ([]int64, error) {
	if dir == "" {
		dir = "."
	}
	goose.SetBaseFS(migrations)
	found, err := goose.CollectMigrations(dir, 0, goose.MaxVersion)
	if err != nil {
		return nil, fmt.Errorf("collect migrations: %w", err)
	}
	versions := make([]int64, len(found))
	for i, m := range found {
		versions[i] = m.Version
	}
	return versions, nil
}
