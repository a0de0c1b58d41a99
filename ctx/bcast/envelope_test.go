package bcast_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stairlin/relay/ctx/bcast"
)

// TestEnvelope_RoundTrip ensures that a marshalled envelope restores the
// same entries on the receiving side
func TestEnvelope_RoundTrip(t *testing.T) {
	ctx := context.Background()
	ctx = bcast.With(ctx, testString, "hello context world")
	ctx = bcast.With(ctx, testUint, uint64(42))

	data, err := bcast.MarshalEnvelope(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if data == nil {
		t.Fatal("expect a non-empty envelope")
	}

	store, decodeErrs, err := bcast.UnmarshalEnvelope(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(decodeErrs) != 0 {
		t.Fatalf("expect no decode errors, but got %v", decodeErrs)
	}

	if v, _ := store.Get(testString); v != "hello context world" {
		t.Errorf("expect string entry to round-trip, but got %v", v)
	}
	if v, _ := store.Get(testUint); v != uint64(42) {
		t.Errorf("expect uint entry to round-trip, but got %v", v)
	}
}

// TestEnvelope_Empty ensures that an empty scope produces no envelope, and
// that no envelope restores an empty store
func TestEnvelope_Empty(t *testing.T) {
	data, err := bcast.MarshalEnvelope(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if data != nil {
		t.Errorf("expect no envelope for an empty scope, but got %d bytes", len(data))
	}

	store, decodeErrs, err := bcast.UnmarshalEnvelope(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(decodeErrs) != 0 || store.Len() != 0 {
		t.Error("expect an absent envelope to restore an empty store")
	}
}

// TestEnvelope_Deterministic ensures that the same scope always produces
// the same envelope
func TestEnvelope_Deterministic(t *testing.T) {
	ctx := context.Background()
	ctx = bcast.With(ctx, testUint, uint64(7))
	ctx = bcast.With(ctx, testString, "det")
	ctx = bcast.With(ctx, testOther, "other")

	a, err := bcast.MarshalEnvelope(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		b, err := bcast.MarshalEnvelope(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(a, b) {
			t.Fatal("expect envelope encoding to be deterministic")
		}
	}
}

// TestEnvelope_UnknownKey ensures that entries with an unregistered key are
// silently skipped (forward compatibility)
func TestEnvelope_UnknownKey(t *testing.T) {
	// Envelope with a single entry for a key this process does not know
	env := encodeRaw(t, [][2]string{{"test.FromTheFuture", "payload"}})

	store, decodeErrs, err := bcast.UnmarshalEnvelope(env)
	if err != nil {
		t.Fatal(err)
	}
	if len(decodeErrs) != 0 {
		t.Fatalf("expect no decode errors, but got %v", decodeErrs)
	}
	if store.Len() != 0 {
		t.Errorf("expect unknown entry to be skipped, but got %d entries", store.Len())
	}
}

// TestEnvelope_PartialDecode ensures that one malformed entry does not
// prevent the other entries from being restored
func TestEnvelope_PartialDecode(t *testing.T) {
	env := encodeRaw(t, [][2]string{
		{"test.String", "still here"},
		{"test.Uint", ""}, // uvarint cannot be empty
	})

	store, decodeErrs, err := bcast.UnmarshalEnvelope(env)
	if err != nil {
		t.Fatal(err)
	}
	if len(decodeErrs) != 1 {
		t.Fatalf("expect one decode error, but got %v", decodeErrs)
	}
	if v, _ := store.Get(testString); v != "still here" {
		t.Errorf("expect valid entry to survive, but got %v", v)
	}
	if _, ok := store.Get(testUint); ok {
		t.Error("expect malformed entry to be dropped")
	}
}

// TestEnvelope_Malformed ensures that a broken framing fails the whole
// envelope
func TestEnvelope_Malformed(t *testing.T) {
	valid := encodeRaw(t, [][2]string{{"test.String", "hello"}})

	tests := [][]byte{
		valid[:len(valid)-1],     // truncated value
		valid[:1],                // entries missing
		append(valid, 'x'),       // trailing garbage
		{0xff, 0xff, 0xff, 0xff}, // absurd count
		{0x01, 0xff, 0xff, 0xff}, // absurd key length
	}
	for i, data := range tests {
		if _, _, err := bcast.UnmarshalEnvelope(data); err != bcast.ErrEnvelope {
			t.Errorf("%d - expect ErrEnvelope, but got %v", i, err)
		}
	}
}

// encodeRaw builds an envelope from raw key/value pairs, bypassing codecs
func encodeRaw(t *testing.T, pairs [][2]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	buf.WriteByte(byte(len(pairs)))
	for _, pair := range pairs {
		for _, part := range pair {
			buf.WriteByte(byte(len(part)))
			buf.WriteString(part)
		}
	}
	return buf.Bytes()
}
