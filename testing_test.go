package gochan

import "testing"

func TestMockObserver_TracksCallsAndOutcomes(t *testing.T) {
	obs := NewMockObserver()

	obs.ObserveSend(10, 1000, true)
	obs.ObserveSend(10, 1000, false)
	obs.ObserveReceive(10, 1000, true)
	obs.ObserveClose()
	obs.ObserveTaskDispatch()
	obs.ObserveTaskComplete(1000, true)
	obs.ObserveWorkerReplaced()
	obs.ObserveQueueDepth(5)

	counts := obs.CallCounts()
	if counts["send"] != 2 || counts["receive"] != 1 || counts["close"] != 1 {
		t.Errorf("unexpected counts: %+v", counts)
	}
	if counts["task_dispatch"] != 1 || counts["task_complete"] != 1 || counts["worker_replaced"] != 1 {
		t.Errorf("unexpected counts: %+v", counts)
	}

	sendOK, sendFail := obs.SendOutcomes()
	if sendOK != 1 || sendFail != 1 {
		t.Errorf("expected (1, 1), got (%d, %d)", sendOK, sendFail)
	}
	if obs.LastQueueDepth() != 5 {
		t.Errorf("expected 5, got %d", obs.LastQueueDepth())
	}
}

func TestMockObserver_Reset(t *testing.T) {
	obs := NewMockObserver()
	obs.ObserveSend(1, 1, true)
	obs.Reset()

	counts := obs.CallCounts()
	for k, v := range counts {
		if v != 0 {
			t.Errorf("expected %s to reset to 0, got %d", k, v)
		}
	}
}
