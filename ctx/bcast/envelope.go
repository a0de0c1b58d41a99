package bcast

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/pkg/errors"
)

// ErrEnvelope is returned when the envelope framing itself is malformed.
// Unlike a single broken entry, this is fatal: the request must fail
// before it reaches the handler
var ErrEnvelope = errors.New("bcast: malformed context envelope")

// DecodeError reports a single context entry that could not be decoded.
// The entry is dropped and the rest of the envelope is still restored
type DecodeError struct {
	ID  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("bcast: cannot decode entry <%s> (%s)", e.ID, e.Err)
}

// MarshalEnvelope encodes all entries visible in the current scope into a
// compact binary envelope, ready to be attached to an outbound request.
// It returns nil when there is nothing to propagate.
//
// Entries are encoded in lexical key order, so the envelope is
// deterministic for a given store
func MarshalEnvelope(ctx context.Context) ([]byte, error) {
	s := FromContext(ctx)
	if s.Len() == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var buf bytes.Buffer
	var scratch [binary.MaxVarintLen64]byte

	pairs := make([][2][]byte, 0, len(ids))
	for _, id := range ids {
		e := s.entries[id]
		data, err := e.key.Marshal(e.value)
		if err != nil {
			// A value that cannot be encoded does not poison the other
			// entries, it is simply left out
			continue
		}
		pairs = append(pairs, [2][]byte{[]byte(id), data})
	}

	buf.Write(scratch[:binary.PutUvarint(scratch[:], uint64(len(pairs)))])
	for _, pair := range pairs {
		for _, part := range pair {
			buf.Write(scratch[:binary.PutUvarint(scratch[:], uint64(len(part)))])
			buf.Write(part)
		}
	}
	return buf.Bytes(), nil
}

// UnmarshalEnvelope decodes an envelope into a fresh store.
//
// Unknown keys are silently skipped, so peers can introduce new entries
// without breaking older nodes. Entries that fail to decode are dropped and
// reported in the returned error list, without affecting the other entries.
// A framing error returns ErrEnvelope and no store
func UnmarshalEnvelope(data []byte) (*Store, []error, error) {
	if len(data) == 0 {
		return emptyStore, nil, nil
	}

	r := bytes.NewReader(data)
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, nil, ErrEnvelope
	}

	entries := map[string]entry{}
	var decodeErrs []error
	for i := uint64(0); i < n; i++ {
		id, err := readChunk(r)
		if err != nil {
			return nil, nil, ErrEnvelope
		}
		value, err := readChunk(r)
		if err != nil {
			return nil, nil, ErrEnvelope
		}

		key, ok := LookupKey(string(id))
		if !ok {
			continue
		}
		v, err := key.Unmarshal(value)
		if err != nil {
			decodeErrs = append(decodeErrs, &DecodeError{ID: key.id, Err: err})
			continue
		}
		entries[key.id] = entry{key: key, value: v}
	}
	if r.Len() != 0 {
		return nil, nil, ErrEnvelope
	}

	return &Store{entries: entries}, decodeErrs, nil
}

func readChunk(r *bytes.Reader) ([]byte, error) {
	size, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	if size > uint64(r.Len()) {
		return nil, ErrEnvelope
	}
	chunk := make([]byte, size)
	if _, err := io.ReadFull(r, chunk); err != nil {
		return nil, err
	}
	return chunk, nil
}
