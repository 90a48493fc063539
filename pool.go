package gochan

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"sync"

	"github.com/gofrs/uuid"

	"github.com/EklabDev/gochan/internal/interfaces"
	"github.com/EklabDev/gochan/internal/queue"
)

// TaskFunc is a unit of work registered with a Pool under a stable
// identifier; bodies are registered ahead of time, not shipped as
// serialised source.
type TaskFunc func(args ...any) (any, error)

// ChannelLookup resolves a registered Channel by id from inside a
// SharedTaskFunc.
type ChannelLookup func(channelID string) (*Channel, bool)

// SharedTaskFunc is a TaskFunc that also receives a ChannelLookup. It is a
// distinct Go type, not a convention detected by inspecting a function
// body.
type SharedTaskFunc func(lookup ChannelLookup, args ...any) (any, error)

// Pool owns a bounded set of workers, a pending task queue, and the
// channel registrations replayed to every worker it creates.
type Pool struct {
	dispatcher *queue.Dispatcher
	observer   interfaces.Observer

	mu       sync.RWMutex
	channels map[string]*Channel
}

// PoolConfig configures a Pool.
type PoolConfig struct {
	// Size is the number of workers. <=0 defaults to runtime.NumCPU().
	Size int

	Logger      interfaces.Logger
	Observer    interfaces.Observer
	CPUAffinity []int
}

// DefaultPoolConfig returns a PoolConfig sized to the host's CPUs.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{Size: runtime.NumCPU()}
}

// NewPool constructs a Pool and starts its initial worker set.
func NewPool(cfg PoolConfig) *Pool {
	if cfg.Size <= 0 {
		cfg.Size = runtime.NumCPU()
	}
	if cfg.Observer == nil {
		cfg.Observer = NoOpObserver{}
	}

	p := &Pool{
		observer: cfg.Observer,
		channels: make(map[string]*Channel),
	}
	p.dispatcher = queue.NewDispatcher(queue.DispatcherConfig{
		Size:        cfg.Size,
		Logger:      cfg.Logger,
		Observer:    cfg.Observer,
		CPUAffinity: cfg.CPUAffinity,
	})
	return p
}

// taskHandle adapts a queue.Job's reply channel to the public TaskHandle
// interface. Each handle owns its Job's reply channel, so a reply reaches
// only the handle that submitted it; the task id appears in error messages.
type taskHandle struct {
	id    string
	reply chan queue.JobResult
}

func (h *taskHandle) Result(ctx context.Context) (any, error) {
	select {
	case r := <-h.reply:
		if r.Err != nil {
			return nil, translateQueueError(h.id, r.Err)
		}
		return r.Value, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func translateQueueError(taskID string, err error) error {
	if err == queue.ErrShutdown {
		return newError("Submit", CodeShutdown, "", err)
	}
	return newError("Submit", CodeWorkerFailure, fmt.Sprintf("task %s: %v", taskID, err), err)
}

// RegisterTask registers fn under id on every current and future worker.
func (p *Pool) RegisterTask(id string, fn TaskFunc) {
	p.dispatcher.RegisterTask(id, func(raw []json.RawMessage) (any, error) {
		args, err := decodeArgs(raw)
		if err != nil {
			return nil, err
		}
		return fn(args...)
	})
}

// RegisterSharedTask registers fn under id with access to a ChannelLookup
// resolving channels registered on this Pool via RegisterChannel.
func (p *Pool) RegisterSharedTask(id string, fn SharedTaskFunc) {
	p.dispatcher.RegisterSharedTask(id, func(lookup queue.ChannelLookup, raw []json.RawMessage) (any, error) {
		args, err := decodeArgs(raw)
		if err != nil {
			return nil, err
		}
		return fn(p.wrapLookup(lookup), args...)
	})
}

func (p *Pool) wrapLookup(lookup queue.ChannelLookup) ChannelLookup {
	return func(channelID string) (*Channel, bool) {
		v, ok := lookup(channelID)
		if !ok {
			return nil, false
		}
		ch, ok := v.(*Channel)
		return ch, ok
	}
}

func decodeArgs(raw []json.RawMessage) ([]any, error) {
	args := make([]any, len(raw))
	for i, r := range raw {
		var v any
		if err := json.Unmarshal(r, &v); err != nil {
			return nil, newError("Submit", CodeDeserializationFailed, err.Error(), err)
		}
		args[i] = v
	}
	return args, nil
}

// RegisterChannel announces ch under id to every current and future worker,
// making it resolvable from a SharedTaskFunc's ChannelLookup.
func (p *Pool) RegisterChannel(id string, ch *Channel) {
	p.mu.Lock()
	p.channels[id] = ch
	p.mu.Unlock()
	p.dispatcher.RegisterChannel(id, ch)
}

// Submit dispatches the task registered under id with the given arguments,
// returning a handle that resolves once a worker replies.
func (p *Pool) Submit(id string, args ...any) (TaskHandle, error) {
	return p.submit(id, args, false)
}

// SubmitShared dispatches the shared task registered under id with the
// given arguments. This is the distinct entry point for shared-channel-
// capable tasks, not a flag inferred from the task body.
func (p *Pool) SubmitShared(id string, args ...any) (TaskHandle, error) {
	return p.submit(id, args, true)
}

func (p *Pool) submit(fn string, args []any, shared bool) (TaskHandle, error) {
	rawArgs, err := encodeArgs(args)
	if err != nil {
		return nil, err
	}

	taskID, err := uuid.NewV4()
	if err != nil {
		return nil, newError("Submit", CodeSerializationFailed, err.Error(), err)
	}

	h := &taskHandle{id: taskID.String(), reply: make(chan queue.JobResult, 1)}
	p.dispatcher.Submit(queue.Job{
		ID:     h.id,
		Fn:     fn,
		Shared: shared,
		Args:   rawArgs,
		Reply:  h.reply,
	})
	return h, nil
}

func encodeArgs(args []any) ([]json.RawMessage, error) {
	raw := make([]json.RawMessage, len(args))
	for i, a := range args {
		b, err := json.Marshal(a)
		if err != nil {
			return nil, newError("Submit", CodeSerializationFailed, err.Error(), err)
		}
		raw[i] = b
	}
	return raw, nil
}

// KillWorker forces the given worker to exit abnormally, for exercising
// replacement.
func (p *Pool) KillWorker(id int) {
	p.dispatcher.KillWorker(id)
}

// Size reports the number of workers currently alive.
func (p *Pool) Size() int {
	return p.dispatcher.Size()
}

// Observer returns the Observer this Pool was constructed with.
func (p *Pool) Observer() interfaces.Observer {
	return p.observer
}

// Terminate gracefully shuts the pool down: in-flight tasks finish, pending
// tasks are rejected with Shutdown, then every worker stops.
func (p *Pool) Terminate() {
	p.dispatcher.Terminate()
}

// Kill forcibly tears the pool down without waiting for in-flight tasks.
func (p *Pool) Kill() {
	p.dispatcher.Kill()
}
