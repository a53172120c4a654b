package usecase

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/disk"

	"dumpfleet/internal/domain"
)

const serverCheckTimeout = 5 * time.Second

// DiskSpace describes the destination volume at preflight time. Zero
// values mean the probe failed and no numbers are available.
type DiskSpace struct {
	FreeBytes   uint64
	TotalBytes  uint64
	UsedPercent float64
}

// PreflightInfo carries advisory facts gathered during the checks.
type PreflightInfo struct {
	ServerVersion string
	Disk          DiskSpace
}

// Preflight verifies that a backup run can start at all: the destination
// is writable, the server is reachable and the user may back it up. Any
// failed check aborts the run before a single dump starts.
type Preflight struct {
	db        domain.Database
	endpoint  string
	user      string
	backupDir string
	log       Logger
}

func NewPreflight(db domain.Database, endpoint, user, backupDir string, log Logger) *Preflight {
	return &Preflight{
		db:        db,
		endpoint:  endpoint,
		user:      user,
		backupDir: backupDir,
		log:       log,
	}
}

// Run executes every check in order. On success the database connection
// stays open so the catalog can be read over the same session; the
// caller owns closing it.
func (p *Preflight) Run(ctx context.Context) (*PreflightInfo, error) {
	info := &PreflightInfo{}

	if err := p.checkBackupDir(); err != nil {
		return nil, err
	}
	p.log.Infof("✓ Backup directory %s is writable", p.backupDir)

	if usage, err := disk.Usage(p.backupDir); err != nil {
		p.log.Warnf("Could not read free space for %s: %v", p.backupDir, err)
	} else {
		info.Disk = DiskSpace{
			FreeBytes:   usage.Free,
			TotalBytes:  usage.Total,
			UsedPercent: usage.UsedPercent,
		}
		p.log.Infof("Destination volume: %s free of %s (%.1f%% used)",
			humanize.IBytes(usage.Free), humanize.IBytes(usage.Total), usage.UsedPercent)
	}

	checkCtx, cancel := context.WithTimeout(ctx, serverCheckTimeout)
	defer cancel()

	if err := p.db.Connect(checkCtx); err != nil {
		return nil, &domain.ConnectivityError{Endpoint: p.endpoint, Err: err}
	}

	if version, err := p.db.Version(checkCtx); err != nil {
		p.log.Warnf("Connected to %s but could not read the server version: %v", p.endpoint, err)
	} else {
		info.ServerVersion = version
		p.log.Infof("✓ Connected to %s (%s)", p.endpoint, version)
	}

	if err := p.db.CheckBackupPrivilege(checkCtx); err != nil {
		return nil, &domain.PermissionError{User: p.user, Err: err}
	}
	p.log.Infof("✓ Backup privileges verified")

	if tool := p.db.BackupTool(); tool != "" {
		if _, err := exec.LookPath(tool); err != nil {
			p.log.Warnf("%s not found in PATH, every backup will fail until it is installed", tool)
		}
	}

	return info, nil
}

func (p *Preflight) checkBackupDir() error {
	fi, err := os.Stat(p.backupDir)
	switch {
	case err == nil:
		if !fi.IsDir() {
			return &domain.PathError{Path: p.backupDir, Err: fmt.Errorf("not a directory")}
		}
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(p.backupDir, 0755); mkErr != nil {
			return &domain.PathError{Path: p.backupDir, Err: mkErr}
		}
	default:
		return &domain.PathError{Path: p.backupDir, Err: err}
	}

	// An existing directory can still be read only. The probe file proves
	// dumps can actually land here.
	probe := filepath.Join(p.backupDir, ".dumpfleet_probe")
	if err := os.WriteFile(probe, []byte("probe"), 0644); err != nil {
		return &domain.PathError{Path: p.backupDir, Err: fmt.Errorf("not writable: %w", err)}
	}
	os.Remove(probe)

	return nil
}
