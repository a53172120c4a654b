package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/exec"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"dumpfleet/internal/config"
	"dumpfleet/internal/domain"
)

type MySQL struct {
	cfg *config.ServerConfig
	db  *sql.DB
}

func NewMySQL(cfg *config.ServerConfig) *MySQL {
	return &MySQL{cfg: cfg}
}

func (m *MySQL) Type() string {
	return "mysql"
}

func (m *MySQL) Connect(ctx context.Context) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/?timeout=5s",
		m.cfg.User, m.cfg.Password, m.cfg.Host, m.cfg.Port)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("open mysql connection: %w", err)
	}

	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("mysql ping failed: %w", err)
	}

	m.db = db
	return nil
}

func (m *MySQL) Close() error {
	if m.db == nil {
		return nil
	}
	return m.db.Close()
}

func (m *MySQL) Version(ctx context.Context) (string, error) {
	var version string
	if err := m.db.QueryRowContext(ctx, "SELECT VERSION()").Scan(&version); err != nil {
		return "", fmt.Errorf("query server version: %w", err)
	}
	return "MySQL " + version, nil
}

func (m *MySQL) CheckBackupPrivilege(ctx context.Context) error {
	rows, err := m.db.QueryContext(ctx, "SHOW GRANTS FOR CURRENT_USER()")
	if err != nil {
		return fmt.Errorf("query user grants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var grant string
		if err := rows.Scan(&grant); err != nil {
			return fmt.Errorf("scan grant row: %w", err)
		}
		if grantsGlobalBackup(grant) {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read user grants: %w", err)
	}

	return fmt.Errorf("user needs ALL PRIVILEGES or both SELECT and LOCK TABLES on *.*")
}

// grantsGlobalBackup reports whether a single SHOW GRANTS line is enough
// to run mysqldump against every schema.
func grantsGlobalBackup(grant string) bool {
	upper := strings.ToUpper(grant)
	if !strings.Contains(upper, " ON *.* ") {
		return false
	}
	if strings.Contains(upper, "ALL PRIVILEGES") {
		return true
	}
	return strings.Contains(upper, "SELECT") && strings.Contains(upper, "LOCK TABLES")
}

func (m *MySQL) ListDatabases(ctx context.Context) ([]domain.DatabaseInfo, error) {
	query := `
		SELECT s.SCHEMA_NAME,
		       COALESCE(SUM(t.DATA_LENGTH + t.INDEX_LENGTH), 0) AS size_bytes,
		       s.SCHEMA_NAME IN ('mysql', 'information_schema', 'performance_schema', 'sys') AS is_system
		FROM information_schema.SCHEMATA s
		LEFT JOIN information_schema.TABLES t ON t.TABLE_SCHEMA = s.SCHEMA_NAME
		GROUP BY s.SCHEMA_NAME
		ORDER BY s.SCHEMA_NAME
	`

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query schema catalog: %w", err)
	}
	defer rows.Close()

	var infos []domain.DatabaseInfo
	for rows.Next() {
		var (
			info     domain.DatabaseInfo
			isSystem int64
		)
		if err := rows.Scan(&info.Name, &info.SizeBytes, &isSystem); err != nil {
			return nil, fmt.Errorf("scan schema row: %w", err)
		}
		info.System = isSystem == 1
		infos = append(infos, info)
	}

	return infos, rows.Err()
}

func (m *MySQL) Backup(ctx context.Context, database, outputPath string) error {
	args := []string{
		fmt.Sprintf("--host=%s", m.cfg.Host),
		fmt.Sprintf("--port=%d", m.cfg.Port),
		fmt.Sprintf("--user=%s", m.cfg.User),
		"--single-transaction",
		"--quick",
		"--lock-tables=false",
		"--routines",
		"--triggers",
		"--events",
		fmt.Sprintf("--result-file=%s", outputPath),
		database,
	}

	cmd := exec.CommandContext(ctx, "mysqldump", args...)
	cmd.Env = os.Environ()
	if m.cfg.Password != "" {
		cmd.Env = append(cmd.Env, "MYSQL_PWD="+m.cfg.Password)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("mysqldump failed: %w, output: %s", err, outputTail(output))
	}

	return nil
}

func (m *MySQL) BackupExt() string {
	return ".sql"
}

func (m *MySQL) BackupTool() string {
	return "mysqldump"
}
