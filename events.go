package bucketkit

import (
	"sync"
)

// BucketEventType enumerates the bucket lifecycle notifications a provider
// emits. Before/after pairs surround add, remove (registry-only), and
// destroy (physical deletion).
type BucketEventType int

const (
	BeforeBucketAdd BucketEventType = iota
	AfterBucketAdd
	BeforeBucketRemove
	AfterBucketRemove
	BeforeBucketDestroy
	AfterBucketDestroy
)

// String returns the event name.
func (t BucketEventType) String() string {
	switch t {
	case BeforeBucketAdd:
		return "before-bucket-add"
	case AfterBucketAdd:
		return "after-bucket-add"
	case BeforeBucketRemove:
		return "before-bucket-remove"
	case AfterBucketRemove:
		return "after-bucket-remove"
	case BeforeBucketDestroy:
		return "before-bucket-destroy"
	case AfterBucketDestroy:
		return "after-bucket-destroy"
	default:
		return "unknown"
	}
}

// BucketEvent is delivered synchronously to observers. For Before* events
// a non-nil error return aborts the operation; the session uses this to
// reject a bucket whose alias is already taken elsewhere.
type BucketEvent struct {
	Type     BucketEventType
	Provider *Provider
	Bucket   *Bucket
}

// BucketObserver receives bucket lifecycle events. Observers run on the
// calling goroutine, in subscription order.
type BucketObserver interface {
	OnBucketEvent(event BucketEvent) error
}

// BucketObserverFunc adapts a function to the BucketObserver interface.
type BucketObserverFunc func(event BucketEvent) error

// OnBucketEvent implements BucketObserver.
func (f BucketObserverFunc) OnBucketEvent(event BucketEvent) error {
	return f(event)
}

// observerList is the provider-side subscriber set.
type observerList struct {
	mu      sync.RWMutex
	nextID  int
	entries []observerEntry
}

type observerEntry struct {
	id  int
	obs BucketObserver
}

// subscribe registers an observer and returns its unsubscribe function.
// Subscriptions are identified by a token issued here, never by observer
// equality: func-typed observers are not comparable.
func (l *observerList) subscribe(o BucketObserver) (unsubscribe func()) {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.entries = append(l.entries, observerEntry{id: id, obs: o})
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, e := range l.entries {
			if e.id == id {
				l.entries = append(l.entries[:i], l.entries[i+1:]...)
				return
			}
		}
	}
}

// emit delivers the event to every observer, stopping at the first error.
func (l *observerList) emit(event BucketEvent) error {
	l.mu.RLock()
	entries := make([]observerEntry, len(l.entries))
	copy(entries, l.entries)
	l.mu.RUnlock()

	for _, e := range entries {
		if err := e.obs.OnBucketEvent(event); err != nil {
			return err
		}
	}
	return nil
}
