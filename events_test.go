package bucketkit

import (
	"errors"
	"testing"
)

func TestObserverSubscribeUnsubscribe(t *testing.T) {
	var list observerList
	var calls int

	// Func-typed observers must survive a full subscribe/unsubscribe
	// round trip.
	unsub := list.subscribe(BucketObserverFunc(func(BucketEvent) error {
		calls++
		return nil
	}))

	if err := list.emit(BucketEvent{Type: AfterBucketAdd}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	unsub()
	if err := list.emit(BucketEvent{Type: AfterBucketAdd}); err != nil {
		t.Fatalf("emit after unsubscribe: %v", err)
	}

	if calls != 1 {
		t.Errorf("observer called %d times, want 1", calls)
	}
}

func TestObserverUnsubscribeKeepsOthers(t *testing.T) {
	var list observerList
	var got []string

	record := func(name string) BucketObserver {
		return BucketObserverFunc(func(BucketEvent) error {
			got = append(got, name)
			return nil
		})
	}

	unsubA := list.subscribe(record("a"))
	list.subscribe(record("b"))
	list.subscribe(record("c"))

	unsubA()
	unsubA() // second call is a no-op

	if err := list.emit(BucketEvent{Type: BeforeBucketAdd}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Errorf("delivered to %v, want [b c]", got)
	}
}

func TestObserverEmitStopsAtFirstError(t *testing.T) {
	var list observerList
	veto := errors.New("no")
	var reached bool

	list.subscribe(BucketObserverFunc(func(BucketEvent) error { return veto }))
	list.subscribe(BucketObserverFunc(func(BucketEvent) error {
		reached = true
		return nil
	}))

	if err := list.emit(BucketEvent{Type: BeforeBucketAdd}); !errors.Is(err, veto) {
		t.Errorf("emit error = %v, want veto", err)
	}
	if reached {
		t.Error("observer after the failing one was still invoked")
	}
}
