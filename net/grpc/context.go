package grpc

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/grpc/metadata"

	"github.com/stairlin/relay/crypto"
	"github.com/stairlin/relay/ctx/bcast"
	"github.com/stairlin/relay/ctx/journey"
)

// contextMD is the metadata key under which the context envelope travels.
// The -bin suffix tells gRPC that the value is binary
const contextMD = "relay-context-bin"

// EmbedContext attaches the broadcast context visible in the current scope
// to the outbound metadata.
//
// The rotor is optional. When set, the envelope is encrypted before it
// leaves the process
func EmbedContext(ctx context.Context, rotor *crypto.Rotor) (context.Context, error) {
	data, err := bcast.MarshalEnvelope(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal context envelope")
	}
	if data == nil {
		return ctx, nil
	}
	if rotor != nil {
		data, err = rotor.Encrypt(data)
		if err != nil {
			return nil, errors.Wrap(err, "failed to encrypt context envelope")
		}
	}

	md, ok := metadata.FromOutgoingContext(ctx)
	if ok {
		md = md.Copy()
	} else {
		md = metadata.MD{}
	}
	md.Set(contextMD, string(data))
	return metadata.NewOutgoingContext(ctx, md), nil
}

// ExtractContext restores the broadcast context sent by the caller, if any.
//
// A malformed envelope fails the whole request. Entries that fail to decode
// are dropped and returned as a list of errors, so the transport can report
// them without rejecting the request
func ExtractContext(
	parent context.Context, rotor *crypto.Rotor,
) (context.Context, []error, error) {
	md, ok := metadata.FromIncomingContext(parent)
	if !ok {
		return parent, nil, nil
	}
	values := md.Get(contextMD)
	if len(values) == 0 {
		return parent, nil, nil
	}

	data := []byte(values[0])
	if rotor != nil {
		var err error
		data, err = rotor.Decrypt(data)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to decrypt context envelope")
		}
	}

	store, decodeErrs, err := bcast.UnmarshalEnvelope(data)
	if err != nil {
		return nil, nil, err
	}
	return bcast.WithStore(parent, store), decodeErrs, nil
}

// propagateJourney attaches the journey identity to the broadcast context
// when the given context is a journey
func propagateJourney(ctx context.Context) context.Context {
	if j, ok := ctx.(journey.Ctx); ok {
		return journey.Propagate(ctx, j)
	}
	return ctx
}
