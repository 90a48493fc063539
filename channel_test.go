package gochan

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestChannel_Rendezvous(t *testing.T) {
	ch, err := NewChannel(ChannelConfig{Capacity: 0, SlotSize: 32})
	if err != nil {
		t.Fatalf("NewChannel: %v", err)
	}

	done := make(chan struct{})
	go func() {
		if err := ch.Send(42); err != nil {
			t.Errorf("Send: %v", err)
		}
		close(done)
	}()

	// Give the sender a moment to park before the receiver shows up.
	time.Sleep(20 * time.Millisecond)

	v, err := ch.Receive()
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if n, ok := v.(float64); !ok || n != 42 {
		t.Errorf("expected 42, got %v", v)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sender did not unblock")
	}
}

func TestChannel_BufferedRoundTrip(t *testing.T) {
	ch, err := NewChannel(ChannelConfig{Capacity: 3, SlotSize: 32})
	if err != nil {
		t.Fatalf("NewChannel: %v", err)
	}

	for _, v := range []int{1, 2, 3} {
		if err := ch.Send(v); err != nil {
			t.Fatalf("Send(%d): %v", v, err)
		}
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var got []float64
	it := ch.Iterate()
	for it.Next() {
		got = append(got, it.Value().(float64))
	}
	if it.Err() != nil {
		t.Fatalf("iteration error: %v", it.Err())
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("expected [1 2 3], got %v", got)
	}
}

func TestChannel_SendAfterCloseRejects(t *testing.T) {
	ch, err := NewChannel(ChannelConfig{Capacity: 1, SlotSize: 32})
	if err != nil {
		t.Fatalf("NewChannel: %v", err)
	}

	if err := ch.Send("a"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	v, err := ch.Receive()
	if err != nil || v != "a" {
		t.Fatalf("expected (\"a\", nil), got (%v, %v)", v, err)
	}

	_, err = ch.Receive()
	if !IsCode(err, CodeClosedAndEmpty) {
		t.Errorf("expected ClosedAndEmpty, got %v", err)
	}

	err = ch.Send("b")
	if !IsCode(err, CodeClosed) {
		t.Errorf("expected Closed, got %v", err)
	}
}

func TestChannel_PayloadTooLarge(t *testing.T) {
	ch, err := NewChannel(ChannelConfig{Capacity: 1, SlotSize: 8})
	if err != nil {
		t.Fatalf("NewChannel: %v", err)
	}
	err = ch.Send("this string does not fit in four payload bytes")
	if !IsCode(err, CodePayloadTooLarge) {
		t.Errorf("expected PayloadTooLarge, got %v", err)
	}
}

func TestChannel_CloseIsIdempotent(t *testing.T) {
	ch, _ := NewChannel(ChannelConfig{Capacity: 1, SlotSize: 32})
	if err := ch.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestChannel_FIFO(t *testing.T) {
	ch, _ := NewChannel(ChannelConfig{Capacity: 8, SlotSize: 32})

	for i := 0; i < 8; i++ {
		if err := ch.Send(i); err != nil {
			t.Fatalf("Send(%d): %v", i, err)
		}
	}

	for i := 0; i < 8; i++ {
		v, err := ch.Receive()
		if err != nil {
			t.Fatalf("Receive: %v", err)
		}
		if int(v.(float64)) != i {
			t.Errorf("expected %d, got %v", i, v)
		}
	}
}

func TestChannel_BoundedOccupancyBlocksSender(t *testing.T) {
	ch, _ := NewChannel(ChannelConfig{Capacity: 1, SlotSize: 32})
	if err := ch.Send(1); err != nil {
		t.Fatalf("Send: %v", err)
	}

	sent := make(chan struct{})
	go func() {
		if err := ch.Send(2); err != nil {
			t.Errorf("Send: %v", err)
		}
		close(sent)
	}()

	select {
	case <-sent:
		t.Fatal("second send completed before the buffer drained")
	case <-time.After(30 * time.Millisecond):
	}

	if _, err := ch.Receive(); err != nil {
		t.Fatalf("Receive: %v", err)
	}

	select {
	case <-sent:
	case <-time.After(time.Second):
		t.Fatal("second send never completed after drain")
	}
}

func TestChannel_NoLostWakeupAfterClose(t *testing.T) {
	ch, _ := NewChannel(ChannelConfig{Capacity: 0, SlotSize: 32})

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ch.Receive()
			errs <- err
		}()
	}

	time.Sleep(20 * time.Millisecond)
	if err := ch.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("a blocked receiver never woke after close")
	}
	close(errs)
	for err := range errs {
		if !IsCode(err, CodeClosedAndEmpty) {
			t.Errorf("expected ClosedAndEmpty after close, got %v", err)
		}
	}
}

func TestChannel_InvalidSlotSize(t *testing.T) {
	_, err := NewChannel(ChannelConfig{Capacity: 1, SlotSize: 2})
	var gerr *Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *Error, got %v", err)
	}
}

func TestChannel_ObserverReceivesEvents(t *testing.T) {
	obs := NewMockObserver()
	ch, _ := NewChannel(ChannelConfig{Capacity: 1, SlotSize: 32, Observer: obs})

	if err := ch.Send(1); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := ch.Receive(); err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	counts := obs.CallCounts()
	if counts["send"] != 1 || counts["receive"] != 1 || counts["close"] != 1 {
		t.Errorf("unexpected call counts: %+v", counts)
	}
}
