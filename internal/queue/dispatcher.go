package queue

import (
	"errors"
	"sync"

	"github.com/EklabDev/gochan/internal/interfaces"
)

// ErrShutdown is the JobResult error carried by every pending task that was
// still queued when Terminate or Kill ran.
var ErrShutdown = errors.New("queue: pool shut down")

// registration is one entry in the append-only history replayed to every
// worker created after it was recorded (a registration broadcast),
// generalized from channel registrations to cover stable task bodies too
// (task bodies are also registered ahead of time rather than shipped as
// source).
type registration interface {
	applyTo(w *Worker)
}

type taskRegistration struct {
	id string
	fn TaskFunc
}

func (r taskRegistration) applyTo(w *Worker) { w.RegisterTask(r.id, r.fn) }

type sharedTaskRegistration struct {
	id string
	fn SharedTaskFunc
}

func (r sharedTaskRegistration) applyTo(w *Worker) { w.RegisterSharedTask(r.id, r.fn) }

type channelRegistration struct {
	id    string
	value any
}

func (r channelRegistration) applyTo(w *Worker) { w.RegisterChannel(r.id, r.value) }

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	Size        int // number of workers to maintain; <=0 defaults to 1
	Logger      interfaces.Logger
	Observer    interfaces.Observer
	CPUAffinity []int // optional, round-robin across workers by index
}

// Dispatcher owns a bounded set of Workers, a pending task queue, and the
// registration history replayed to every worker it creates.
type Dispatcher struct {
	cfg DispatcherConfig

	mu          sync.Mutex
	workers     map[int]*Worker
	idle        map[int]bool
	pending     []Job
	history     []registration
	nextID      int
	terminated  bool
	workersDone sync.WaitGroup
}

// NewDispatcher constructs a Dispatcher and starts its initial worker set.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Size <= 0 {
		cfg.Size = 1
	}
	d := &Dispatcher{
		cfg:     cfg,
		workers: make(map[int]*Worker),
		idle:    make(map[int]bool),
	}
	d.mu.Lock()
	for i := 0; i < cfg.Size; i++ {
		d.spawnWorkerLocked()
	}
	d.mu.Unlock()
	return d
}

func (d *Dispatcher) affinityFor(id int) int {
	if len(d.cfg.CPUAffinity) == 0 {
		return -1
	}
	return d.cfg.CPUAffinity[id%len(d.cfg.CPUAffinity)]
}

// spawnWorkerLocked must be called with d.mu held.
func (d *Dispatcher) spawnWorkerLocked() {
	id := d.nextID
	d.nextID++

	w := NewWorker(WorkerConfig{
		ID:          id,
		Logger:      d.cfg.Logger,
		Observer:    d.cfg.Observer,
		CPUAffinity: d.affinityFor(id),
		Jobs:        make(chan Job, 1),
		OnIdle:      d.workerIdle,
		OnCrash:     d.workerCrashed,
	})
	for _, r := range d.history {
		r.applyTo(w)
	}

	d.workers[id] = w
	d.idle[id] = true
	d.workersDone.Add(1)
	go func() {
		defer d.workersDone.Done()
		w.loop()
	}()
}

func (d *Dispatcher) workerIdle(id int) {
	d.mu.Lock()
	if _, ok := d.workers[id]; ok {
		d.idle[id] = true
	}
	d.dispatchLocked()
	d.mu.Unlock()
}

func (d *Dispatcher) workerCrashed(id int) {
	d.mu.Lock()
	delete(d.workers, id)
	delete(d.idle, id)
	if d.cfg.Observer != nil {
		d.cfg.Observer.ObserveWorkerReplaced()
	}
	if !d.terminated && len(d.pending) > 0 && len(d.workers) < d.cfg.Size {
		d.spawnWorkerLocked()
	}
	d.dispatchLocked()
	d.mu.Unlock()
}

// dispatchLocked must be called with d.mu held. It pops pending tasks onto
// idle workers until one set or the other is exhausted.
func (d *Dispatcher) dispatchLocked() {
	for len(d.pending) > 0 && len(d.idle) > 0 {
		var workerID int
		for id := range d.idle {
			workerID = id
			break
		}
		delete(d.idle, workerID)

		job := d.pending[0]
		d.pending = d.pending[1:]

		d.workers[workerID].jobs <- job
	}
}

// Submit enqueues job for dispatch to the next idle worker. Submit never
// blocks: if every worker is busy, job waits on the pending queue.
func (d *Dispatcher) Submit(job Job) {
	d.mu.Lock()
	if d.terminated {
		d.mu.Unlock()
		job.Reply <- JobResult{Err: ErrShutdown}
		return
	}
	d.pending = append(d.pending, job)
	if d.cfg.Observer != nil {
		d.cfg.Observer.ObserveTaskDispatch()
		d.cfg.Observer.ObserveQueueDepth(uint32(len(d.pending)))
	}
	d.dispatchLocked()
	// A prior worker failure can leave the pool below its configured size;
	// replace it now that there is work for it.
	for len(d.pending) > 0 && len(d.workers) < d.cfg.Size {
		d.spawnWorkerLocked()
		d.dispatchLocked()
	}
	d.mu.Unlock()
}

// RegisterTask adds a plain task body to the registration history and
// broadcasts it to every current worker.
func (d *Dispatcher) RegisterTask(id string, fn TaskFunc) {
	d.register(taskRegistration{id: id, fn: fn})
}

// RegisterSharedTask adds a channel-lookup-capable task body.
func (d *Dispatcher) RegisterSharedTask(id string, fn SharedTaskFunc) {
	d.register(sharedTaskRegistration{id: id, fn: fn})
}

// RegisterChannel announces a shared channel to every current and future
// worker.
func (d *Dispatcher) RegisterChannel(id string, value any) {
	d.register(channelRegistration{id: id, value: value})
}

func (d *Dispatcher) register(r registration) {
	d.mu.Lock()
	d.history = append(d.history, r)
	for _, w := range d.workers {
		r.applyTo(w)
	}
	d.mu.Unlock()
}

// KillWorker simulates an abrupt failure of the given worker id, triggering
// replacement exactly as a genuine crash would.
func (d *Dispatcher) KillWorker(id int) {
	d.mu.Lock()
	w, ok := d.workers[id]
	d.mu.Unlock()
	if ok {
		w.Crash()
	}
}

// Terminate gracefully shuts down the pool: every already-dispatched job is
// allowed to finish, every still-pending job is rejected with ErrShutdown,
// and every worker is stopped once idle.
func (d *Dispatcher) Terminate() {
	d.mu.Lock()
	if d.terminated {
		d.mu.Unlock()
		return
	}
	d.terminated = true
	pending := d.pending
	d.pending = nil
	workers := make([]*Worker, 0, len(d.workers))
	for _, w := range d.workers {
		workers = append(workers, w)
	}
	d.mu.Unlock()

	for _, job := range pending {
		job.Reply <- JobResult{Err: ErrShutdown}
	}
	for _, w := range workers {
		w.Stop()
	}
	d.workersDone.Wait()
}

// Kill forcibly tears down the pool without waiting for in-flight jobs to
// finish. Every pending job is rejected with ErrShutdown; a job already
// running on a worker runs to completion and replies with its own result.
func (d *Dispatcher) Kill() {
	d.mu.Lock()
	if d.terminated {
		d.mu.Unlock()
		return
	}
	d.terminated = true
	pending := d.pending
	d.pending = nil
	workers := make([]*Worker, 0, len(d.workers))
	for _, w := range d.workers {
		workers = append(workers, w)
	}
	d.mu.Unlock()

	for _, job := range pending {
		job.Reply <- JobResult{Err: ErrShutdown}
	}
	for _, w := range workers {
		w.Crash()
	}
}

// Size reports the number of workers currently alive (may be transiently
// below the configured size while a replacement spawns).
func (d *Dispatcher) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.workers)
}
