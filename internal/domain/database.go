package domain

import "context"

type DatabaseInfo struct {
	Name      string
	SizeBytes int64
	System    bool
}

type Database interface {
	Type() string
	Connect(ctx context.Context) error
	Close() error
	Version(ctx context.Context) (string, error)
	CheckBackupPrivilege(ctx context.Context) error
	ListDatabases(ctx context.Context) ([]DatabaseInfo, error)
	Backup(ctx context.Context, database, outputPath string) error
	BackupExt() string
	BackupTool() string
}
