// Package notify delivers user-facing emails off the request path.
package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/giftauth/internal/logging"
)

// Task is a unit of fire-and-forget work. Name doubles as the log tag used
// when the task fails, e.g. "REGISTER_VERIFICATION_EMAIL_ERROR".
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Dispatcher runs tasks on a single background worker. Submissions never
// block the caller: when the buffer is full the task is dropped and counted.
// A task error or panic is logged and never reaches the submitter.
type Dispatcher struct {
	logger  logging.Logger
	timeout time.Duration

	ch        chan Task
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

func NewDispatcher(logger logging.Logger, buffer int, timeout time.Duration) *Dispatcher {
	if buffer <= 0 {
		buffer = 1
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	d := &Dispatcher{
		logger:  logger,
		timeout: timeout,
		ch:      make(chan Task, buffer),
		done:    make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case t := <-d.ch:
			d.exec(t)
		case <-d.done:
			for {
				select {
				case t := <-d.ch:
					d.exec(t)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) exec(t Task) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error(ctx, "["+t.Name+"]", "panic", r)
		}
	}()

	if err := t.Run(ctx); err != nil {
		d.logger.Error(ctx, "["+t.Name+"]", "error", err.Error())
	}
}

// Go queues fn under name. It reports whether the task was accepted.
func (d *Dispatcher) Go(name string, fn func(ctx context.Context) error) bool {
	if d == nil || d.closed.Load() {
		return false
	}
	select {
	case d.ch <- Task{Name: name, Run: fn}:
		return true
	case <-d.done:
		return false
	default:
		d.dropped.Add(1)
		d.logger.Warn(context.Background(), "notify queue full, task dropped", "task", name)
		return false
	}
}

// Close stops accepting tasks and waits for the queued ones to finish.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
