package budget

import "sync"

// Registry keeps one Store per signed-in user.
type Registry struct {
	mu     sync.Mutex
	stores map[string]*Store
}

func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]*Store)}
}

// For returns the store of uid, creating an empty one on first use.
func (r *Registry) For(uid string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stores[uid]
	if !ok {
		s = NewStore()
		r.stores[uid] = s
	}
	return s
}

// Drop forgets the items of uid. Called on sign-out.
func (r *Registry) Drop(uid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, uid)
}

// Len returns the number of users with a store.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}
