package database

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"dumpfleet/internal/config"
	"dumpfleet/internal/domain"
)

type MongoDB struct {
	cfg    *config.ServerConfig
	client *mongo.Client
}

func NewMongoDB(cfg *config.ServerConfig) *MongoDB {
	return &MongoDB{cfg: cfg}
}

func (m *MongoDB) Type() string {
	return "mongodb"
}

func (m *MongoDB) uri() string {
	if m.cfg.User == "" {
		return fmt.Sprintf("mongodb://%s:%d/", m.cfg.Host, m.cfg.Port)
	}
	return fmt.Sprintf("mongodb://%s:%s@%s:%d/?authSource=%s",
		m.cfg.User, m.cfg.Password, m.cfg.Host, m.cfg.Port, m.cfg.AuthDatabase)
}

func (m *MongoDB) Connect(ctx context.Context) error {
	opts := options.Client().
		ApplyURI(m.uri()).
		SetConnectTimeout(5 * time.Second).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client.Disconnect(disconnectCtx)
		return fmt.Errorf("mongodb ping failed: %w", err)
	}

	m.client = client
	return nil
}

func (m *MongoDB) Close() error {
	if m.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (m *MongoDB) Version(ctx context.Context) (string, error) {
	var info struct {
		Version string `bson:"version"`
	}
	cmd := bson.D{{Key: "buildInfo", Value: 1}}
	if err := m.client.Database("admin").RunCommand(ctx, cmd).Decode(&info); err != nil {
		return "", fmt.Errorf("query server version: %w", err)
	}
	return "MongoDB " + info.Version, nil
}

func (m *MongoDB) CheckBackupPrivilege(ctx context.Context) error {
	var status struct {
		AuthInfo struct {
			Users []struct {
				User string `bson:"user"`
				DB   string `bson:"db"`
			} `bson:"authenticatedUsers"`
			Roles []struct {
				Role string `bson:"role"`
				DB   string `bson:"db"`
			} `bson:"authenticatedUserRoles"`
		} `bson:"authInfo"`
	}

	cmd := bson.D{{Key: "connectionStatus", Value: 1}}
	if err := m.client.Database("admin").RunCommand(ctx, cmd).Decode(&status); err != nil {
		return fmt.Errorf("query connection status: %w", err)
	}

	// No authenticated users means authorization is disabled on the
	// deployment and mongodump can read everything.
	if len(status.AuthInfo.Users) == 0 {
		return nil
	}

	for _, r := range status.AuthInfo.Roles {
		switch r.Role {
		case "root", "backup", "clusterAdmin":
			return nil
		}
	}

	return fmt.Errorf("user has none of the root, backup, or clusterAdmin roles")
}

func (m *MongoDB) ListDatabases(ctx context.Context) ([]domain.DatabaseInfo, error) {
	result, err := m.client.ListDatabases(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("list databases: %w", err)
	}

	infos := make([]domain.DatabaseInfo, 0, len(result.Databases))
	for _, db := range result.Databases {
		infos = append(infos, domain.DatabaseInfo{
			Name:      db.Name,
			SizeBytes: db.SizeOnDisk,
			System:    db.Name == "admin" || db.Name == "local" || db.Name == "config",
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})

	return infos, nil
}

func (m *MongoDB) Backup(ctx context.Context, database, outputPath string) error {
	args := []string{
		fmt.Sprintf("--uri=%s", m.uri()),
		fmt.Sprintf("--db=%s", database),
		fmt.Sprintf("--archive=%s", outputPath),
		"--gzip",
	}

	cmd := exec.CommandContext(ctx, "mongodump", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("mongodump failed: %w, output: %s", err, outputTail(output))
	}

	return nil
}

func (m *MongoDB) BackupExt() string {
	return ".archive"
}

func (m *MongoDB) BackupTool() string {
	return "mongodump"
}
