package gochan

import "testing"

func TestChannelIterator_YieldsUntilCloseAndDrain(t *testing.T) {
	ch, _ := NewChannel(ChannelConfig{Capacity: 3, SlotSize: 32})
	for _, v := range []string{"a", "b", "c"} {
		if err := ch.Send(v); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var got []string
	it := ch.Iterate()
	for it.Next() {
		got = append(got, it.Value().(string))
	}
	if it.Err() != nil {
		t.Fatalf("unexpected iteration error: %v", it.Err())
	}
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("expected [a b c], got %v", got)
	}
}

func TestChannelIterator_CancelLeavesChannelUsable(t *testing.T) {
	ch, _ := NewChannel(ChannelConfig{Capacity: 3, SlotSize: 32})
	for _, v := range []int{1, 2, 3} {
		if err := ch.Send(v); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	it := ch.Iterate()
	if !it.Next() {
		t.Fatal("expected at least one value")
	}
	if it.Value().(float64) != 1 {
		t.Errorf("expected 1, got %v", it.Value())
	}
	// Abandon the iterator without draining; the channel keeps its
	// remaining values for a fresh receive.

	v, err := ch.Receive()
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if v.(float64) != 2 {
		t.Errorf("expected 2, got %v", v)
	}
}

func TestChannelIterator_EmptyClosedChannelYieldsNothing(t *testing.T) {
	ch, _ := NewChannel(ChannelConfig{Capacity: 1, SlotSize: 32})
	if err := ch.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	it := ch.Iterate()
	if it.Next() {
		t.Fatal("expected no values from an empty closed channel")
	}
	if it.Err() != nil {
		t.Errorf("expected nil error, got %v", it.Err())
	}
}
