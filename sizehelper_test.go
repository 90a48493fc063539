package gochan

import "testing"

func TestSizeFor_RoundsUpToSlotUnit(t *testing.T) {
	size, err := SizeFor(JSONCodec{}, "x")
	if err != nil {
		t.Fatalf("SizeFor: %v", err)
	}
	if size != DefaultSlotSize {
		t.Errorf("expected %d, got %d", DefaultSlotSize, size)
	}
}

func TestSizeFor_LargeSampleRoundsUpAgain(t *testing.T) {
	sample := make([]int, 200)
	for i := range sample {
		sample[i] = i
	}
	size, err := SizeFor(JSONCodec{}, sample)
	if err != nil {
		t.Fatalf("SizeFor: %v", err)
	}
	if size <= DefaultSlotSize {
		t.Errorf("expected size greater than %d, got %d", DefaultSlotSize, size)
	}
	if size%DefaultSlotSize != 0 {
		t.Errorf("expected a multiple of %d, got %d", DefaultSlotSize, size)
	}
}

func TestSizeFor_UsableToCreateAChannel(t *testing.T) {
	size, err := SizeFor(JSONCodec{}, map[string]any{"id": 1, "name": "widget"})
	if err != nil {
		t.Fatalf("SizeFor: %v", err)
	}
	ch, err := NewChannel(ChannelConfig{Capacity: 1, SlotSize: size})
	if err != nil {
		t.Fatalf("NewChannel: %v", err)
	}
	if err := ch.Send(map[string]any{"id": 2, "name": "gadget"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
}

func TestSizeFor_UnencodableSampleFails(t *testing.T) {
	_, err := SizeFor(JSONCodec{}, make(chan int))
	if !IsCode(err, CodeSerializationFailed) {
		t.Errorf("expected SerializationFailed, got %v", err)
	}
}
