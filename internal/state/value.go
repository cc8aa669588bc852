package state

import "sync"

// Value is an observable holder. Each subscriber receives at most one pending
// update at a time; a newer update replaces an unread one.
type Value[T any] struct {
	mu      sync.Mutex
	current T
	subs    map[int]chan T
	nextID  int
}

// NewValue returns a holder with the initial value.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{current: initial, subs: make(map[int]chan T)}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Set stores next and notifies subscribers.
func (v *Value[T]) Set(next T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.current = next
	for _, ch := range v.subs {
		offer(ch, next)
	}
}

// Update applies fn to the current value atomically and notifies subscribers.
func (v *Value[T]) Update(fn func(T) T) T {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.current = fn(v.current)
	for _, ch := range v.subs {
		offer(ch, v.current)
	}
	return v.current
}

// Subscribe returns a channel primed with the current value and a function
// that unsubscribes and closes the channel. Calling it twice is safe.
func (v *Value[T]) Subscribe() (<-chan T, func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.nextID
	v.nextID++
	ch := make(chan T, 1)
	ch <- v.current
	v.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			delete(v.subs, id)
			close(ch)
		})
	}
}

// Subscribers reports the number of live subscriptions.
func (v *Value[T]) Subscribers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.subs)
}

func offer[T any](ch chan T, next T) {
	select {
	case <-ch:
	default:
	}
	ch <- next
}
