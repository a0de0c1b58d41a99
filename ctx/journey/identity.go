package journey

import (
	gocontext "context"
	"encoding/base64"
	"strings"

	"github.com/pkg/errors"

	"github.com/stairlin/relay/ctx/bcast"
)

// Identity is the part of a journey that crosses process boundaries.
// It is enough to resume the journey on the next hop
type Identity struct {
	ID    string
	Steps string
}

// Key carries the journey identity on the broadcast context
var Key = bcast.NewKey("relay.Journey", marshalIdentity, unmarshalIdentity)

// Propagate attaches the journey identity to the broadcast context, so the
// transport sends it ahead of the next outbound request
func Propagate(parent gocontext.Context, j Ctx) gocontext.Context {
	return bcast.With(parent, Key, j.Identity())
}

// FromContext returns the journey identity received from a peer, if any
func FromContext(parent gocontext.Context) (Identity, bool) {
	v, ok := bcast.Get(parent, Key)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

const textSeparator = "."

type textEncoder struct {
	enc *base64.Encoding
}

func newTextEncoder() *textEncoder {
	return &textEncoder{
		enc: base64.StdEncoding,
	}
}

func (e *textEncoder) Encode(l ...string) []byte {
	parts := make([]string, len(l))
	for i, part := range l {
		parts[i] = e.enc.EncodeToString([]byte(part))
	}
	return []byte(strings.Join(parts, textSeparator))
}

func (e *textEncoder) Decode(b []byte) ([]string, error) {
	subs := strings.Split(string(b), textSeparator)
	parts := make([]string, len(subs))
	for i, sub := range subs {
		part, err := e.enc.DecodeString(sub)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot decode part %d", i)
		}
		parts[i] = string(part)
	}
	return parts, nil
}

func marshalIdentity(v interface{}) ([]byte, error) {
	id, ok := v.(Identity)
	if !ok {
		return nil, errors.Errorf("expect journey identity, got %T", v)
	}
	return newTextEncoder().Encode(id.ID, id.Steps), nil
}

func unmarshalIdentity(data []byte) (interface{}, error) {
	parts, err := newTextEncoder().Decode(data)
	if err != nil {
		return nil, err
	}
	if len(parts) != 2 {
		return nil, errors.Errorf("expect 2 identity parts, got %d", len(parts))
	}
	if _, err := parseSteps(parts[1]); err != nil {
		return nil, errors.Wrap(err, "invalid steps")
	}
	return Identity{ID: parts[0], Steps: parts[1]}, nil
}
