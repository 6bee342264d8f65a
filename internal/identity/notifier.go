package identity

import (
	"sort"
	"sync"
)

type EventKind int

const (
	SignedIn EventKind = iota + 1
	SignedOut
)

func (k EventKind) String() string {
	switch k {
	case SignedIn:
		return "signed_in"
	case SignedOut:
		return "signed_out"
	}
	return "unknown"
}

// Event reports that User signed in or out.
type Event struct {
	Kind EventKind
	User User
}

// Notifier fans user change events out to subscribers. Handlers run
// synchronously on the publishing goroutine in subscription order.
type Notifier struct {
	mu       sync.RWMutex
	next     int
	handlers map[int]func(Event)
}

func NewNotifier() *Notifier {
	return &Notifier{handlers: make(map[int]func(Event))}
}

// Subscribe registers h and returns the function that removes it. Calling
// the returned function more than once is harmless.
func (n *Notifier) Subscribe(h func(Event)) (unsubscribe func()) {
	n.mu.Lock()
	id := n.next
	n.next++
	n.handlers[id] = h
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.handlers, id)
			n.mu.Unlock()
		})
	}
}

func (n *Notifier) Publish(ev Event) {
	n.mu.RLock()
	ids := make([]int, 0, len(n.handlers))
	for id := range n.handlers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	hs := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		hs = append(hs, n.handlers[id])
	}
	n.mu.RUnlock()

	for _, h := range hs {
		h(ev)
	}
}

// Subscribers returns the number of registered handlers.
func (n *Notifier) Subscribers() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.handlers)
}
