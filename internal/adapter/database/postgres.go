package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/exec"

	_ "github.com/jackc/pgx/v5/stdlib"

	"dumpfleet/internal/config"
	"dumpfleet/internal/domain"
)

type Postgres struct {
	cfg *config.ServerConfig
	db  *sql.DB
}

func NewPostgres(cfg *config.ServerConfig) *Postgres {
	return &Postgres{cfg: cfg}
}

func (p *Postgres) Type() string {
	return "postgres"
}

func (p *Postgres) Connect(ctx context.Context) error {
	db, err := sql.Open("pgx", p.dsn())
	if err != nil {
		return fmt.Errorf("open postgres connection: %w", err)
	}

	// One admin session serves both preflight and enumeration.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("postgres ping failed: %w", err)
	}

	p.db = db
	return nil
}

func (p *Postgres) dsn() string {
	connStr := fmt.Sprintf("host=%s port=%d user=%s dbname=postgres sslmode=%s connect_timeout=5",
		p.cfg.Host, p.cfg.Port, p.cfg.User, p.cfg.SSLMode)
	if p.cfg.Password != "" {
		connStr += fmt.Sprintf(" password=%s", p.cfg.Password)
	}
	return connStr
}

func (p *Postgres) Close() error {
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}

func (p *Postgres) Version(ctx context.Context) (string, error) {
	var version string
	if err := p.db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return "", fmt.Errorf("query server version: %w", err)
	}
	return version, nil
}

func (p *Postgres) CheckBackupPrivilege(ctx context.Context) error {
	// pg_read_all_data only exists on PostgreSQL 14+, so the membership
	// probe is guarded against older servers.
	query := `
		SELECT r.rolsuper,
		       CASE WHEN EXISTS (SELECT 1 FROM pg_roles WHERE rolname = 'pg_read_all_data')
		            THEN pg_has_role(current_user, 'pg_read_all_data', 'member')
		            ELSE false
		       END AS read_all
		FROM pg_roles r
		WHERE r.rolname = current_user
	`

	var super, readAll sql.NullBool
	if err := p.db.QueryRowContext(ctx, query).Scan(&super, &readAll); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("current role not found in pg_roles")
		}
		return fmt.Errorf("query role privileges: %w", err)
	}

	if super.Valid && super.Bool {
		return nil
	}
	if readAll.Valid && readAll.Bool {
		return nil
	}
	return fmt.Errorf("role is neither superuser nor a member of pg_read_all_data")
}

func (p *Postgres) ListDatabases(ctx context.Context) ([]domain.DatabaseInfo, error) {
	// template0 rejects connections and pg_dump cannot touch it, so
	// datallowconn filters it out entirely.
	query := `
		SELECT datname,
		       pg_database_size(datname) AS size_bytes,
		       datistemplate OR datname = 'postgres' AS is_system
		FROM pg_database
		WHERE datallowconn
		ORDER BY datname
	`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query database catalog: %w", err)
	}
	defer rows.Close()

	var infos []domain.DatabaseInfo
	for rows.Next() {
		var info domain.DatabaseInfo
		if err := rows.Scan(&info.Name, &info.SizeBytes, &info.System); err != nil {
			return nil, fmt.Errorf("scan database row: %w", err)
		}
		infos = append(infos, info)
	}

	return infos, rows.Err()
}

func (p *Postgres) Backup(ctx context.Context, database, outputPath string) error {
	cmd := exec.CommandContext(ctx, "pg_dump",
		fmt.Sprintf("--host=%s", p.cfg.Host),
		fmt.Sprintf("--port=%d", p.cfg.Port),
		fmt.Sprintf("--username=%s", p.cfg.User),
		"--format=custom",
		"--compress=9",
		fmt.Sprintf("--file=%s", outputPath),
		database,
	)

	cmd.Env = os.Environ()
	if p.cfg.Password != "" {
		cmd.Env = append(cmd.Env, "PGPASSWORD="+p.cfg.Password)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("pg_dump failed: %w, output: %s", err, outputTail(output))
	}

	return nil
}

func (p *Postgres) BackupExt() string {
	return ".dump"
}

func (p *Postgres) BackupTool() string {
	return "pg_dump"
}
