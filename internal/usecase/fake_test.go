package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dumpfleet/internal/domain"
)

// fakeDB is a scriptable domain.Database for usecase tests.
type fakeDB struct {
	connectErr   error
	versionErr   error
	privilegeErr error
	listInfos    []domain.DatabaseInfo
	listErr      error
	backupFn     func(ctx context.Context, database, outputPath string) error

	connected bool
	closed    bool
}

func (f *fakeDB) Type() string { return "fake" }

func (f *fakeDB) Connect(ctx context.Context) error {
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeDB) Close() error {
	f.closed = true
	return nil
}

func (f *fakeDB) Version(ctx context.Context) (string, error) {
	if f.versionErr != nil {
		return "", f.versionErr
	}
	return "FakeDB 1.0", nil
}

func (f *fakeDB) CheckBackupPrivilege(ctx context.Context) error {
	return f.privilegeErr
}

func (f *fakeDB) ListDatabases(ctx context.Context) ([]domain.DatabaseInfo, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listInfos, nil
}

func (f *fakeDB) Backup(ctx context.Context, database, outputPath string) error {
	if f.backupFn != nil {
		return f.backupFn(ctx, database, outputPath)
	}
	return nil
}

func (f *fakeDB) BackupExt() string  { return ".dump" }
func (f *fakeDB) BackupTool() string { return "" }

// fakeRunner is a scriptable TaskRunner that records concurrency and
// admission order.
type fakeRunner struct {
	mu        sync.Mutex
	active    int
	maxActive int
	started   []string

	delay    time.Duration
	failFor  map[string]bool
	panicFor map[string]bool

	// release, when set for a target, blocks its Execute until the
	// channel is closed.
	release map[string]chan struct{}
}

func (r *fakeRunner) Execute(ctx context.Context, target domain.Target, destDir string, stamp time.Time) domain.Outcome {
	r.mu.Lock()
	r.active++
	if r.active > r.maxActive {
		r.maxActive = r.active
	}
	r.started = append(r.started, target.Name)
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.active--
		r.mu.Unlock()
	}()

	if r.panicFor[target.Name] {
		panic("simulated crash")
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	if gate, ok := r.release[target.Name]; ok {
		<-gate
	}

	start := time.Now()
	if r.failFor[target.Name] {
		return domain.FailedOutcome(target.Name, "", start, "simulated failure")
	}
	return domain.Outcome{
		Database:   target.Name,
		SizeBytes:  int64(len(target.Name)),
		StartedAt:  start,
		FinishedAt: time.Now(),
		Status:     domain.StatusSuccess,
	}
}

func (r *fakeRunner) startedNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.started))
	copy(out, r.started)
	return out
}

// recordingLogger captures formatted log lines for assertions.
type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) logf(template string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(template, args...))
}

func (l *recordingLogger) Infof(template string, args ...interface{})  { l.logf(template, args...) }
func (l *recordingLogger) Warnf(template string, args ...interface{})  { l.logf(template, args...) }
func (l *recordingLogger) Errorf(template string, args ...interface{}) { l.logf(template, args...) }

func (l *recordingLogger) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
