package bcast

import "context"

// Store is an immutable snapshot of the context entries visible in a scope.
// All mutations return a derived store, so a snapshot captured when a unit
// of work is scheduled stays valid regardless of what runs next to it.
type Store struct {
	entries map[string]entry
}

type entry struct {
	key   *Key
	value interface{}
}

var emptyStore = &Store{}

// Get returns the value stored for the given key
func (s *Store) Get(key *Key) (interface{}, bool) {
	e, ok := s.entries[key.id]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Len returns the number of entries in the store
func (s *Store) Len() int {
	return len(s.entries)
}

func (s *Store) with(key *Key, v interface{}) *Store {
	entries := make(map[string]entry, len(s.entries)+1)
	for id, e := range s.entries {
		entries[id] = e
	}
	entries[key.id] = entry{key: key, value: v}
	return &Store{entries: entries}
}

func (s *Store) without(key *Key) *Store {
	if _, ok := s.entries[key.id]; !ok {
		return s
	}
	entries := make(map[string]entry, len(s.entries)-1)
	for id, e := range s.entries {
		if id == key.id {
			continue
		}
		entries[id] = e
	}
	return &Store{entries: entries}
}

type storeCtxKey struct{}

// FromContext returns the store visible in the current scope.
// It returns an empty store when no entry has ever been set on this call path
func FromContext(ctx context.Context) *Store {
	if s, ok := ctx.Value(storeCtxKey{}).(*Store); ok {
		return s
	}
	return emptyStore
}

// WithStore returns a context carrying the given store.
// It is meant to be used by the transport when it restores a snapshot
// received from a peer; applications should use With, Let, and LetClear
func WithStore(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, storeCtxKey{}, s)
}

// Get returns the value visible for the given key in the current scope
func Get(ctx context.Context, key *Key) (interface{}, bool) {
	return FromContext(ctx).Get(key)
}

// With returns a derived context in which key is bound to v.
// The given context is left untouched, so the binding naturally dies with
// the derived scope
func With(ctx context.Context, key *Key, v interface{}) context.Context {
	return WithStore(ctx, FromContext(ctx).with(key, v))
}

// Clear returns a derived context in which key is not visible, even if it
// was set by an outer scope or received from a peer
func Clear(ctx context.Context, key *Key) context.Context {
	return WithStore(ctx, FromContext(ctx).without(key))
}

// Let binds key to v for the duration of body. The binding is visible to
// everything body executes, including work it schedules on other
// goroutines, and is gone once Let returns, on every exit path
func Let(
	ctx context.Context,
	key *Key,
	v interface{},
	body func(ctx context.Context) error,
) error {
	return body(With(ctx, key, v))
}

// LetClear removes the visibility of key for the duration of body
func LetClear(
	ctx context.Context,
	key *Key,
	body func(ctx context.Context) error,
) error {
	return body(Clear(ctx, key))
}
