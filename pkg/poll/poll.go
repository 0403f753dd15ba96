// Package poll runs named background tasks on fixed intervals.
package poll

import (
	"context"
	"sync"
	"time"

	"github.com/calltime/slate/pkg/log"
)

// Task is one unit of periodic work. Errors are logged, never fatal; the
// next tick runs regardless.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Poller schedules tasks. Each task gets its own ticker goroutine; Stop
// cancels them all and waits for in-flight runs to finish.
type Poller struct {
	mu      sync.Mutex
	tasks   []Task
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	logger  *log.Logger
}

func New() *Poller {
	return &Poller{logger: log.ForComponent("poll")}
}

// Add registers a task. Tasks added after Start are scheduled immediately.
// An interval of 0 disables scheduling for that task.
func (p *Poller) Add(task Task) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tasks = append(p.tasks, task)
	if p.running && task.Interval > 0 {
		p.start(task)
	}
}

// Start begins scheduling all registered tasks.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}
	var ctx context.Context
	ctx, p.cancel = context.WithCancel(context.Background())
	p.ctx = ctx
	p.running = true

	for _, task := range p.tasks {
		if task.Interval > 0 {
			p.start(task)
		}
	}
}

// start must be called with the mutex held.
func (p *Poller) start(task Task) {
	ctx := p.ctx
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ticker := time.NewTicker(task.Interval)
		defer ticker.Stop()

		p.logger.Debugf("scheduling %s every %v", task.Name, task.Interval)
		for {
			select {
			case <-ticker.C:
				if err := task.Run(ctx); err != nil {
					if ctx.Err() != nil {
						return
					}
					p.logger.Warnf("task %s failed: %v", task.Name, err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop cancels all tasks and waits for running ones to return.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	cancel := p.cancel
	p.mu.Unlock()

	cancel()
	p.wg.Wait()
}
