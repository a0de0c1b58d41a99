package journey

import (
	"sync"
)

// KV is a key/value store scoped to a single journey
type KV struct {
	mu sync.RWMutex

	m map[interface{}]interface{}
}

func newKV() *KV {
	return &KV{m: map[interface{}]interface{}{}}
}

func (a *KV) store(key interface{}, v interface{}) {
	a.mu.Lock()
	a.m[key] = v
	a.mu.Unlock()
}

func (a *KV) load(key interface{}) interface{} {
	a.mu.RLock()
	v := a.m[key]
	a.mu.RUnlock()
	return v
}

func (a *KV) delete(key interface{}) {
	a.mu.Lock()
	delete(a.m, key)
	a.mu.Unlock()
}

func (a *KV) clone() *KV {
	clone := newKV()
	a.mu.RLock()
	for k, v := range a.m {
		clone.m[k] = v
	}
	a.mu.RUnlock()
	return clone
}
