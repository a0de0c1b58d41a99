package naming

import "sync"

// Static returns a resolver that always yields the given addresses
func Static(addrs ...string) Resolver {
	return &staticResolver{addrs: addrs}
}

type staticResolver struct {
	addrs []string
}

func (r *staticResolver) Resolve(target string) (Watcher, error) {
	return &staticWatcher{
		addrs:  r.addrs,
		closed: make(chan struct{}),
	}, nil
}

type staticWatcher struct {
	mu   sync.Mutex
	once sync.Once

	addrs  []string
	sent   bool
	closed chan struct{}
}

func (w *staticWatcher) Next() ([]*Update, error) {
	w.mu.Lock()
	if !w.sent {
		w.sent = true
		updates := make([]*Update, len(w.addrs))
		for i, addr := range w.addrs {
			updates[i] = &Update{Op: Add, Addr: addr}
		}
		w.mu.Unlock()
		return updates, nil
	}
	w.mu.Unlock()

	// The address set never changes, so the next call blocks until the
	// watcher is closed
	<-w.closed
	return nil, ErrWatcherClosed
}

func (w *staticWatcher) Close() error {
	w.once.Do(func() {
		close(w.closed)
	})
	return nil
}
