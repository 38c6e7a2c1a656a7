package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/forgo/shiftboard/api/internal/lock"
)

// Task is one run of a scheduled job
type Task func(ctx context.Context) error

// ProcessorConfig configures a Processor
type ProcessorConfig struct {
	Name       string
	Interval   time.Duration
	Timeout    time.Duration // per run, defaults to 2 minutes
	StartDelay time.Duration // before the first run
	Locker     lock.Locker   // nil runs without a lock
	LockTTL    time.Duration // defaults to Timeout
}

// Processor runs a task on an interval. When a Locker is set, each run takes
// the lock "lock:job:<name>" first so only one replica runs it at a time.
type Processor struct {
	cfg     ProcessorConfig
	task    Task
	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// NewProcessor creates a processor for task
func NewProcessor(cfg ProcessorConfig, task Task) *Processor {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = cfg.Timeout
	}
	return &Processor{
		cfg:  cfg,
		task: task,
	}
}

// Name returns the job name
func (p *Processor) Name() string {
	return p.cfg.Name
}

// Start begins the processor loop. A stopped processor can be started again.
func (p *Processor) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	stopCh := make(chan struct{})
	p.stopCh = stopCh
	p.wg.Add(1)
	p.mu.Unlock()

	go p.run(stopCh)
	slog.Info("job started",
		slog.String("job", p.cfg.Name),
		slog.Duration("interval", p.cfg.Interval),
	)
}

// Stop stops the loop and waits for an in-flight run to finish
func (p *Processor) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	stopCh := p.stopCh
	p.mu.Unlock()

	close(stopCh)
	p.wg.Wait()
	slog.Info("job stopped", slog.String("job", p.cfg.Name))
}

// IsRunning returns whether the processor is running
func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Processor) run(stopCh <-chan struct{}) {
	defer p.wg.Done()

	if p.cfg.StartDelay > 0 {
		select {
		case <-time.After(p.cfg.StartDelay):
		case <-stopCh:
			return
		}
	}
	p.tick(stopCh)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.tick(stopCh)
		case <-stopCh:
			return
		}
	}
}

func (p *Processor) tick(stopCh <-chan struct{}) {
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.Timeout)
	defer cancel()

	// Stop cancels an in-flight run
	go func() {
		select {
		case <-stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	err := p.RunOnce(ctx)
	switch {
	case err == nil:
	case errors.Is(err, lock.ErrLocked):
		slog.Debug("job skipped, lock held elsewhere", slog.String("job", p.cfg.Name))
	default:
		slog.Error("job run failed",
			slog.String("job", p.cfg.Name),
			slog.String("error", err.Error()),
		)
	}
}

// RunOnce runs the task once under the job lock. It returns lock.ErrLocked
// when another holder is running it.
func (p *Processor) RunOnce(ctx context.Context) error {
	if p.cfg.Locker != nil {
		release, err := p.cfg.Locker.TryLock(ctx, "lock:job:"+p.cfg.Name, p.cfg.LockTTL)
		if err != nil {
			return err
		}
		defer func() {
			// The run context may already be done
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := release(releaseCtx); err != nil {
				slog.Warn("job lock release failed",
					slog.String("job", p.cfg.Name),
					slog.String("error", err.Error()),
				)
			}
		}()
	}

	start := time.Now()
	if err := p.task(ctx); err != nil {
		return err
	}
	slog.Debug("job run finished",
		slog.String("job", p.cfg.Name),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}
