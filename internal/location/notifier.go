package location

import "sync"

// Handler receives the new default location data after a host
// configuration change.
type Handler func(*Data)

// Notifier broadcasts default-location changes to subscribers.
// It is a plain fan-out: no buffering, no persistence, delivery
// order unspecified.
type Notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]Handler
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]Handler)}
}

// Subscribe registers a handler and returns an unsubscribe function.
// Unsubscribing is idempotent and safe during a broadcast in progress.
func (n *Notifier) Subscribe(h Handler) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	n.subs[id] = h
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

// Broadcast delivers data to every handler subscribed at the moment the
// broadcast starts. The subscriber set is snapshotted before iterating,
// so handlers may subscribe or unsubscribe without affecting this
// delivery round.
func (n *Notifier) Broadcast(data *Data) {
	n.mu.Lock()
	snapshot := make([]Handler, 0, len(n.subs))
	for _, h := range n.subs {
		snapshot = append(snapshot, h)
	}
	n.mu.Unlock()

	for _, h := range snapshot {
		h(data)
	}
}

// subscriberCount reports the current number of subscribers.
func (n *Notifier) subscriberCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}
