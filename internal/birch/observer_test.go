package birch

import (
	"context"
	"testing"
)

// MockObserver is a test observer that records events
type MockObserver struct {
	Events []Event
}

func (m *MockObserver) OnEvent(event Event) {
	m.Events = append(m.Events, event)
}

func TestAddObserver(t *testing.T) {
	tree := New(nil, nil)
	observer := &MockObserver{}

	tree.AddObserver(observer)

	if len(tree.observers) != 1 {
		t.Errorf("Expected 1 observer, got %d", len(tree.observers))
	}
}

func TestRemoveObserver(t *testing.T) {
	tree := New(nil, nil)
	observer := &MockObserver{}

	tree.AddObserver(observer)
	tree.RemoveObserver(observer)

	if len(tree.observers) != 0 {
		t.Errorf("Expected 0 observers, got %d", len(tree.observers))
	}
}

func TestNotifyWithNoObservers(t *testing.T) {
	tree := New(nil, nil)

	// Should not panic
	tree.notify(Event{Type: EventGrowStart, RequestID: "test-request"})
}

func TestNotifyWithMultipleObservers(t *testing.T) {
	tree := New(nil, nil)
	observer1 := &MockObserver{}
	observer2 := &MockObserver{}

	tree.AddObserver(observer1)
	tree.AddObserver(observer2)

	tree.notify(Event{Type: EventGrowStart, RequestID: "test-request", Data: []string{"users"}})

	if len(observer1.Events) != 1 {
		t.Errorf("Observer1: Expected 1 event, got %d", len(observer1.Events))
	}
	if len(observer2.Events) != 1 {
		t.Errorf("Observer2: Expected 1 event, got %d", len(observer2.Events))
	}
	if observer1.Events[0].Timestamp.IsZero() {
		t.Error("Expected timestamp to be set, got zero value")
	}
}

func TestSelectLifecycleEvents(t *testing.T) {
	tree, _ := newTestTree(t)
	observer := &MockObserver{}
	tree.AddObserver(observer)
	tree.AddObserver(NewLoggingObserver())

	res, err := tree.Select(context.Background(), Request{Tables: []string{"songs s"}})
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	expected := []EventType{
		EventGrowStart, EventGrowEnd,
		EventExecStart, EventExecEnd,
		EventNestStart, EventNestEnd,
	}
	if len(observer.Events) != len(expected) {
		t.Fatalf("Expected %d events, got %d", len(expected), len(observer.Events))
	}
	for i, e := range observer.Events {
		if e.Type != expected[i] {
			t.Errorf("Event %d: expected %s, got %s", i, expected[i], e.Type)
		}
		if e.RequestID != res.RequestID {
			t.Errorf("Event %d: expected request id %s, got %s", i, res.RequestID, e.RequestID)
		}
	}

	if rows := observer.Events[3].Data; rows != 5 {
		t.Errorf("Expected exec_end to carry 5 rows, got %v", rows)
	}
}

func TestFailedSelectStopsEvents(t *testing.T) {
	tree, _ := newTestTree(t)
	observer := &MockObserver{}
	tree.AddObserver(observer)

	if _, err := tree.Select(context.Background(), Request{Tables: []string{"ghosts"}}); err == nil {
		t.Fatal("Expected error for unknown table")
	}

	if len(observer.Events) != 1 || observer.Events[0].Type != EventGrowStart {
		t.Errorf("Expected only grow_start, got %v", observer.Events)
	}
}
