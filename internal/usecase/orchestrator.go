package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"dumpfleet/internal/domain"
)

// Logger is the slice of the application logger the usecases need.
type Logger interface {
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

// TaskRunner executes one backup attempt and always yields an outcome.
type TaskRunner interface {
	Execute(ctx context.Context, target domain.Target, destDir string, stamp time.Time) domain.Outcome
}

const defaultProgressInterval = 15 * time.Second

// Orchestrator fans targets out over a fixed pool of workers. At most
// maxParallel backups run at any instant, targets are admitted in the
// order they were enumerated, and Run only returns once every target
// has a terminal outcome.
type Orchestrator struct {
	runner           TaskRunner
	maxParallel      int
	progressInterval time.Duration
	log              Logger

	mu      sync.Mutex
	running map[string]time.Time
	done    int32
	total   int32
}

func NewOrchestrator(runner TaskRunner, maxParallel int, log Logger) (*Orchestrator, error) {
	if maxParallel < 1 {
		return nil, fmt.Errorf("worker pool needs at least one worker, got %d", maxParallel)
	}
	return &Orchestrator{
		runner:           runner,
		maxParallel:      maxParallel,
		progressInterval: defaultProgressInterval,
		log:              log,
		running:          make(map[string]time.Time),
	}, nil
}

// Run blocks until every target has been attempted and returns exactly
// one outcome per target, in target order.
func (o *Orchestrator) Run(ctx context.Context, targets []domain.Target, destDir string, stamp time.Time) []domain.Outcome {
	if len(targets) == 0 {
		return nil
	}

	atomic.StoreInt32(&o.total, int32(len(targets)))
	atomic.StoreInt32(&o.done, 0)

	workers := o.maxParallel
	if workers > len(targets) {
		workers = len(targets)
	}
	o.log.Infof("Dispatching %d database(s) across %d worker(s)", len(targets), workers)

	results := make([]domain.Outcome, len(targets))
	jobs := make(chan int, len(targets))
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = o.runOne(ctx, targets[idx], destDir, stamp)
				atomic.AddInt32(&o.done, 1)
			}
		}()
	}

	stopProgress := make(chan struct{})
	var progressWG sync.WaitGroup
	if o.progressInterval > 0 {
		progressWG.Add(1)
		go func() {
			defer progressWG.Done()
			o.reportProgress(stopProgress)
		}()
	}

	// The channel is drained first come first served, so queueing the
	// indexes in order is what keeps admission in enumeration order.
	for i := range targets {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	close(stopProgress)
	progressWG.Wait()

	return results
}

func (o *Orchestrator) runOne(ctx context.Context, target domain.Target, destDir string, stamp time.Time) (out domain.Outcome) {
	start := time.Now()

	o.mu.Lock()
	o.running[target.Name] = start
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		delete(o.running, target.Name)
		o.mu.Unlock()

		// A panicking task still ends as a failed outcome instead of
		// taking the whole pool down.
		if r := recover(); r != nil {
			o.log.Errorf("[%s] Backup panicked: %v", target.Name, r)
			out = domain.FailedOutcome(target.Name, "", start, fmt.Sprintf("panic: %v", r))
		}
	}()

	return o.runner.Execute(ctx, target, destDir, stamp)
}

func (o *Orchestrator) reportProgress(stop <-chan struct{}) {
	ticker := time.NewTicker(o.progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			o.logRunning()
		}
	}
}

func (o *Orchestrator) logRunning() {
	o.mu.Lock()
	entries := make([]string, 0, len(o.running))
	for name, since := range o.running {
		entries = append(entries, fmt.Sprintf("%s (%s)", name, time.Since(since).Round(time.Second)))
	}
	o.mu.Unlock()

	if len(entries) == 0 {
		return
	}
	sort.Strings(entries)

	done := atomic.LoadInt32(&o.done)
	total := atomic.LoadInt32(&o.total)
	o.log.Infof("Progress: %d/%d done, running: %s", done, total, strings.Join(entries, ", "))
}
