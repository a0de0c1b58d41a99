package dtab

import (
	"context"

	"github.com/pkg/errors"

	"github.com/stairlin/relay/ctx/bcast"
)

// Key carries the delegation table on the broadcast context
var Key = bcast.NewKey("relay.Dtab", marshal, unmarshal)

// FromContext returns the delegation table visible in the current scope.
// It returns an empty table when none was set
func FromContext(ctx context.Context) Dtab {
	v, ok := bcast.Get(ctx, Key)
	if !ok {
		return nil
	}
	d, _ := v.(Dtab)
	return d
}

// With returns a derived context in which the given rules are prepended to
// the inherited table. New rules win on lookup, inherited rules remain as
// fallback
func With(ctx context.Context, d Dtab) context.Context {
	base := FromContext(ctx)
	merged := make(Dtab, 0, len(d)+len(base))
	merged = append(merged, d...)
	merged = append(merged, base...)
	return bcast.With(ctx, Key, merged)
}

// Clear returns a derived context with no delegation table, even if one was
// set by an outer scope or received from a peer
func Clear(ctx context.Context) context.Context {
	return bcast.Clear(ctx, Key)
}

// Let prepends the given rules for the duration of body
func Let(
	ctx context.Context,
	d Dtab,
	body func(ctx context.Context) error,
) error {
	return body(With(ctx, d))
}

func marshal(v interface{}) ([]byte, error) {
	d, ok := v.(Dtab)
	if !ok {
		return nil, errors.Errorf("expect delegation table, got %T", v)
	}
	return []byte(d.String()), nil
}

func unmarshal(data []byte) (interface{}, error) {
	return Parse(string(data))
}
