package queue

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func square(args []json.RawMessage) (any, error) {
	var n int
	if err := json.Unmarshal(args[0], &n); err != nil {
		return nil, err
	}
	return n * n, nil
}

func submitAndWait(t *testing.T, d *Dispatcher, fn string, args []json.RawMessage) JobResult {
	t.Helper()
	reply := make(chan JobResult, 1)
	d.Submit(Job{ID: "x", Fn: fn, Args: args, Reply: reply})
	select {
	case res := <-reply:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("job did not complete in time")
		return JobResult{}
	}
}

func TestDispatcher_FanOut(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{Size: 4})
	d.RegisterTask("square", square)
	defer d.Terminate()

	replies := make([]chan JobResult, 10)
	for i := 0; i < 10; i++ {
		reply := make(chan JobResult, 1)
		replies[i] = reply
		d.Submit(Job{ID: string(rune('a' + i)), Fn: "square", Args: rawArgs(t, i+1), Reply: reply})
	}

	seen := map[int]bool{}
	for i, reply := range replies {
		select {
		case res := <-reply:
			if res.Err != nil {
				t.Fatalf("job %d failed: %v", i, res.Err)
			}
			seen[res.Value.(int)] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("job %d did not complete", i)
		}
	}
	for _, want := range []int{1, 4, 9, 16, 25, 36, 49, 64, 81, 100} {
		if !seen[want] {
			t.Errorf("missing expected result %d", want)
		}
	}
}

func TestDispatcher_RegistrationReplayAfterCrash(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{Size: 1})
	d.RegisterChannel("ch-1", "shared-value")
	d.RegisterSharedTask("peek", func(lookup ChannelLookup, args []json.RawMessage) (any, error) {
		v, ok := lookup("ch-1")
		if !ok {
			return nil, errors.New("channel not registered")
		}
		return v, nil
	})
	defer d.Terminate()

	d.mu.Lock()
	var victim int
	for id := range d.workers {
		victim = id
		break
	}
	d.mu.Unlock()
	d.KillWorker(victim)

	// Allow the crash's own goroutine to observe it before submitting; the
	// replacement itself is spawned lazily by Submit once there is pending
	// work.
	time.Sleep(20 * time.Millisecond)

	res := submitAndWait(t, d, "peek", nil)
	if res.Err != nil {
		t.Fatalf("replacement worker could not resolve replayed registration: %v", res.Err)
	}
	if res.Value != "shared-value" {
		t.Errorf("expected replayed channel value, got %v", res.Value)
	}
}

func TestDispatcher_TerminateRejectsPending(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{Size: 1})
	block := make(chan struct{})
	d.RegisterTask("block", func(args []json.RawMessage) (any, error) {
		<-block
		return nil, nil
	})
	d.RegisterTask("square", square)

	blockerReply := make(chan JobResult, 1)
	d.Submit(Job{ID: "blocker", Fn: "block", Reply: blockerReply})

	pendingReply := make(chan JobResult, 1)
	d.Submit(Job{ID: "pending", Fn: "square", Args: rawArgs(t, 3), Reply: pendingReply})

	terminateDone := make(chan struct{})
	go func() {
		d.Terminate()
		close(terminateDone)
	}()

	select {
	case res := <-pendingReply:
		if res.Err != ErrShutdown {
			t.Errorf("expected ErrShutdown for a still-pending job, got %v", res.Err)
		}
	case <-time.After(time.Second):
		t.Fatal("pending job should have been rejected immediately by Terminate")
	}

	close(block)
	<-blockerReply
	<-terminateDone
}

func TestDispatcher_Size(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{Size: 3})
	defer d.Terminate()
	if got := d.Size(); got != 3 {
		t.Errorf("expected 3 workers, got %d", got)
	}
}
