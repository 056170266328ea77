package service

import "sync"

// observerSet fans state changes out to subscribers. Callers notify after
// releasing their own locks so observers may call back into the machine.
type observerSet[S any] struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]func(S)
}

func (o *observerSet[S]) add(fn func(S)) func() {
	if fn == nil {
		return func() {}
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fns == nil {
		o.fns = make(map[int]func(S))
	}
	id := o.nextID
	o.nextID++
	o.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.fns, id)
			o.mu.Unlock()
		})
	}
}

func (o *observerSet[S]) notify(state S) {
	o.mu.Lock()
	fns := make([]func(S), 0, len(o.fns))
	for _, fn := range o.fns {
		fns = append(fns, fn)
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}
