package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"dumpfleet/internal/domain"
)

// Task runs one backup attempt for one database. A task never returns an
// error: whatever goes wrong is captured in the outcome so a broken
// database cannot disturb the rest of the run.
type Task struct {
	db  domain.Database
	log Logger
}

func NewTask(db domain.Database, log Logger) *Task {
	return &Task{db: db, log: log}
}

func (t *Task) Execute(ctx context.Context, target domain.Target, destDir string, stamp time.Time) domain.Outcome {
	start := time.Now()
	outputPath := filepath.Join(destDir, BackupFileName(target.Name, stamp, t.db.BackupExt()))

	t.log.Infof("[%s] Starting backup", target.Name)

	if err := t.db.Backup(ctx, target.Name, outputPath); err != nil {
		t.log.Errorf("[%s] Backup failed: %v", target.Name, err)
		return domain.FailedOutcome(target.Name, outputPath, start, err.Error())
	}

	fi, err := os.Stat(outputPath)
	if err != nil {
		t.log.Errorf("[%s] Backup reported success but the file is unreadable: %v", target.Name, err)
		return domain.FailedOutcome(target.Name, outputPath, start, fmt.Sprintf("backup file unreadable: %v", err))
	}

	finished := time.Now()
	t.log.Infof("[%s] ✓ Backup completed in %s (%s)",
		target.Name, finished.Sub(start).Round(time.Millisecond), humanize.IBytes(uint64(fi.Size())))

	return domain.Outcome{
		Database:   target.Name,
		FilePath:   outputPath,
		SizeBytes:  fi.Size(),
		StartedAt:  start,
		FinishedAt: finished,
		Duration:   finished.Sub(start),
		Status:     domain.StatusSuccess,
	}
}
