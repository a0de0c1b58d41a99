package journey_test

import (
	"context"
	"testing"

	"github.com/stairlin/relay/ctx/bcast"
	"github.com/stairlin/relay/ctx/journey"
	lt "github.com/stairlin/relay/testing"
)

// TestIdentity_RoundTrip ensures that a journey identity survives a trip
// through the context envelope
func TestIdentity_RoundTrip(t *testing.T) {
	tt := lt.New(t)
	app := tt.NewAppCtx("journey-test")
	j := journey.New(app)

	ctx := journey.Propagate(context.Background(), j)

	data, err := bcast.MarshalEnvelope(ctx)
	if err != nil {
		tt.Fatal(err)
	}

	store, decodeErrs, err := bcast.UnmarshalEnvelope(data)
	if err != nil {
		tt.Fatal(err)
	}
	if len(decodeErrs) != 0 {
		tt.Fatalf("expect no decode errors, but got %v", decodeErrs)
	}

	id, ok := journey.FromContext(bcast.WithStore(context.Background(), store))
	if !ok {
		tt.Fatal("expect identity to be restored")
	}
	if id.ID != j.UUID() {
		tt.Errorf("expect journey ID to round-trip, but got %s", id.ID)
	}
}

// TestContinue ensures that a journey resumed from an inbound identity
// shares the ID and branches off the remote stepper
func TestContinue(t *testing.T) {
	tt := lt.New(t)
	app := tt.NewAppCtx("journey-test")
	j := journey.New(app)

	next, err := journey.Continue(app, j.Identity())
	if err != nil {
		tt.Fatal(err)
	}
	if next.UUID() != j.UUID() {
		tt.Errorf("expect resumed journey to share the ID (%s - %s)", next.UUID(), j.UUID())
	}
	if next == j {
		tt.Error("expect resumed journey to be a new context")
	}
}

// TestContinue_BadSteps ensures that a malformed identity is rejected
func TestContinue_BadSteps(t *testing.T) {
	tt := lt.New(t)
	app := tt.NewAppCtx("journey-test")

	_, err := journey.Continue(app, journey.Identity{ID: "x", Steps: "not-steps"})
	if err == nil {
		tt.Error("expect malformed steps to be rejected")
	}
}
