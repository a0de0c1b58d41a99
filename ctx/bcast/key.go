// Package bcast implements the broadcast context, a typed key/value store
// that travels transparently with a request across process boundaries.
//
// Entries are set for the duration of a scope and are visible to everything
// executed within that scope, including work scheduled on other goroutines.
// The store is an immutable snapshot hung off a context.Context, so two
// unrelated requests interleaved on the same worker pool can never observe
// each other's entries.
//
// Each key owns a codec pair, which allows the transport to marshal the
// store into a compact envelope sent ahead of the request payload, and to
// restore it on the receiving side before the handler runs.
package bcast

import (
	"encoding/binary"
	"fmt"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Key identifies one kind of context entry. The ID is the identifier sent
// on the wire; both ends of a connection must register the same ID to
// exchange the entry. Unknown IDs are skipped on receive.
type Key struct {
	id        string
	marshal   func(v interface{}) ([]byte, error)
	unmarshal func(data []byte) (interface{}, error)
}

// ID returns the key wire identifier
func (k *Key) ID() string {
	return k.id
}

// Marshal encodes a value of this key into bytes
func (k *Key) Marshal(v interface{}) ([]byte, error) {
	return k.marshal(v)
}

// Unmarshal decodes bytes into a value of this key
func (k *Key) Unmarshal(data []byte) (interface{}, error) {
	return k.unmarshal(data)
}

var (
	keysMu sync.RWMutex
	keys   = make(map[string]*Key)
)

// NewKey creates and registers a broadcast key.
// If a key is registered twice or if a codec is nil, it will panic.
func NewKey(
	id string,
	marshal func(v interface{}) ([]byte, error),
	unmarshal func(data []byte) (interface{}, error),
) *Key {
	keysMu.Lock()
	defer keysMu.Unlock()

	if marshal == nil || unmarshal == nil {
		panic("bcast: Registered codec is nil")
	}
	if _, dup := keys[id]; dup {
		panic(fmt.Sprintf("bcast: Duplicated key <%s>", id))
	}

	k := &Key{id: id, marshal: marshal, unmarshal: unmarshal}
	keys[id] = k
	return k
}

// NewStringKey creates and registers a key that carries a UTF-8 string
func NewStringKey(id string) *Key {
	return NewKey(id,
		func(v interface{}) ([]byte, error) {
			s, ok := v.(string)
			if !ok {
				return nil, errors.Errorf("expect string value for key %s, got %T", id, v)
			}
			return []byte(s), nil
		},
		func(data []byte) (interface{}, error) {
			return string(data), nil
		},
	)
}

// NewUintKey creates and registers a key that carries a non-negative integer
func NewUintKey(id string) *Key {
	return NewKey(id,
		func(v interface{}) ([]byte, error) {
			n, ok := v.(uint64)
			if !ok {
				return nil, errors.Errorf("expect uint64 value for key %s, got %T", id, v)
			}
			data := make([]byte, binary.MaxVarintLen64)
			return data[:binary.PutUvarint(data, n)], nil
		},
		func(data []byte) (interface{}, error) {
			n, read := binary.Uvarint(data)
			if read <= 0 {
				return nil, errors.Errorf("invalid integer value for key %s", id)
			}
			return n, nil
		},
	)
}

// LookupKey returns the key registered with the given identifier
func LookupKey(id string) (*Key, bool) {
	keysMu.RLock()
	defer keysMu.RUnlock()

	k, ok := keys[id]
	return k, ok
}

// Keys returns the list of registered key identifiers
func Keys() []string {
	keysMu.RLock()
	defer keysMu.RUnlock()

	var l []string
	for id := range keys {
		l = append(l, id)
	}

	sort.Strings(l)

	return l
}
