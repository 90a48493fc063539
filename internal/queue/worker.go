package queue

import (
	"encoding/json"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/EklabDev/gochan/internal/interfaces"
)

// TaskFunc executes a registered task body against JSON-encoded arguments.
// It is the internal, root-package-independent shape a gochan.TaskFunc is
// adapted into at registration time.
type TaskFunc func(args []json.RawMessage) (any, error)

// SharedTaskFunc is TaskFunc's shared-channel-capable sibling: it receives a
// ChannelLookup instead of closing over a channel value directly,
// distinguishing this capability by entry point rather than by inspecting
// the function body for a particular call.
type SharedTaskFunc func(lookup ChannelLookup, args []json.RawMessage) (any, error)

// ChannelLookup resolves a registered shared channel id to the value a
// SharedTaskFunc needs (the root package supplies one that returns
// *gochan.Channel; Worker itself only stores and forwards opaque values).
type ChannelLookup func(channelID string) (any, bool)

// Job is one unit of dispatched work.
type Job struct {
	ID     string
	Fn     string
	Shared bool
	Args   []json.RawMessage
	Reply  chan JobResult
}

// JobResult is a Job's outcome.
type JobResult struct {
	Value any
	Err   error
}

// Worker runs a single execution loop pulling Jobs off its job channel. Task
// bodies are registered ahead of time by stable id rather than shipped as
// source per submission; every worker in a pool carries the same registry,
// replayed to it at construction and on replacement.
type Worker struct {
	id          int
	logger      interfaces.Logger
	observer    interfaces.Observer
	cpuAffinity int // -1 means unset

	taskMu      sync.RWMutex
	tasks       map[string]TaskFunc
	sharedTasks map[string]SharedTaskFunc

	chanMu   sync.RWMutex
	channels map[string]any

	jobs chan Job
	done chan struct{}

	crashOnce sync.Once
	crashed   chan struct{}

	// onIdle and onCrash let a Dispatcher track which workers are free to
	// take the next pending job and which have exited abnormally, without
	// Worker importing Dispatcher.
	onIdle  func(id int)
	onCrash func(id int)
}

// WorkerConfig configures a new Worker.
type WorkerConfig struct {
	ID          int
	Logger      interfaces.Logger
	Observer    interfaces.Observer
	CPUAffinity int // -1 for no affinity
	Jobs        chan Job
	OnIdle      func(id int)
	OnCrash     func(id int)
}

// NewWorker constructs a Worker bound to the given job queue. Call Start to
// begin processing.
func NewWorker(cfg WorkerConfig) *Worker {
	return &Worker{
		id:          cfg.ID,
		logger:      cfg.Logger,
		observer:    cfg.Observer,
		cpuAffinity: cfg.CPUAffinity,
		tasks:       make(map[string]TaskFunc),
		sharedTasks: make(map[string]SharedTaskFunc),
		channels:    make(map[string]any),
		jobs:        cfg.Jobs,
		done:        make(chan struct{}),
		crashed:     make(chan struct{}),
		onIdle:      cfg.OnIdle,
		onCrash:     cfg.OnCrash,
	}
}

// RegisterTask adds a plain task body to this worker's registry.
func (w *Worker) RegisterTask(id string, fn TaskFunc) {
	w.taskMu.Lock()
	w.tasks[id] = fn
	w.taskMu.Unlock()
}

// RegisterSharedTask adds a channel-lookup-capable task body.
func (w *Worker) RegisterSharedTask(id string, fn SharedTaskFunc) {
	w.taskMu.Lock()
	w.sharedTasks[id] = fn
	w.taskMu.Unlock()
}

// RegisterChannel makes a channel resolvable by id to SharedTaskFunc bodies
// run on this worker. Pool replays every prior registration to a
// replacement worker before it starts taking jobs.
func (w *Worker) RegisterChannel(id string, ch any) {
	w.chanMu.Lock()
	w.channels[id] = ch
	w.chanMu.Unlock()
}

func (w *Worker) lookup(channelID string) (any, bool) {
	w.chanMu.RLock()
	defer w.chanMu.RUnlock()
	ch, ok := w.channels[channelID]
	return ch, ok
}

// Start pins the worker to its configured CPU (if any) and runs the
// dispatch loop until Stop is called or the job channel is closed.
func (w *Worker) Start() {
	go w.loop()
}

// ID returns this worker's pool-assigned identifier.
func (w *Worker) ID() int { return w.id }

// Stop signals the worker's loop to exit after its current job.
func (w *Worker) Stop() {
	close(w.done)
}

// Crash marks the worker as failed without waiting for its current job, as
// if its process had exited unexpectedly. Used to simulate WorkerFailure
// for pool replacement testing.
func (w *Worker) Crash() {
	w.crashOnce.Do(func() { close(w.crashed) })
}

func (w *Worker) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if w.cpuAffinity >= 0 {
		if err := pinToCPU(w.cpuAffinity); err != nil {
			if w.logger != nil {
				w.logger.Printf("worker %d: failed to set CPU affinity to %d: %v", w.id, w.cpuAffinity, err)
			}
		} else if w.logger != nil {
			w.logger.Debugf("worker %d: pinned to CPU %d", w.id, w.cpuAffinity)
		}
	}

	for {
		select {
		case <-w.done:
			return
		case <-w.crashed:
			if w.onCrash != nil {
				w.onCrash(w.id)
			}
			return
		case job, ok := <-w.jobs:
			if !ok {
				return
			}
			w.run(job)
			select {
			case <-w.crashed:
				if w.onCrash != nil {
					w.onCrash(w.id)
				}
				return
			default:
			}
			if w.onIdle != nil {
				w.onIdle(w.id)
			}
		}
	}
}

func (w *Worker) run(job Job) {
	start := time.Now()
	var value any
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("worker %d: panic executing task %q: %v", w.id, job.Fn, r)
				w.Crash()
			}
		}()
		value, err = w.execute(job)
	}()
	if w.observer != nil {
		w.observer.ObserveTaskComplete(uint64(time.Since(start).Nanoseconds()), err == nil)
	}
	job.Reply <- JobResult{Value: value, Err: err}
}

func (w *Worker) execute(job Job) (any, error) {
	w.taskMu.RLock()
	defer w.taskMu.RUnlock()

	if job.Shared {
		fn, ok := w.sharedTasks[job.Fn]
		if !ok {
			return nil, fmt.Errorf("worker %d: unregistered shared task %q", w.id, job.Fn)
		}
		return fn(w.lookup, job.Args)
	}

	fn, ok := w.tasks[job.Fn]
	if !ok {
		return nil, fmt.Errorf("worker %d: unregistered task %q", w.id, job.Fn)
	}
	return fn(job.Args)
}

// pinToCPU sets the calling goroutine's OS thread affinity to a single CPU.
// Callers must have already called runtime.LockOSThread.
func pinToCPU(cpu int) error {
	var mask unix.CPUSet
	mask.Set(cpu)
	return unix.SchedSetaffinity(0, &mask)
}
