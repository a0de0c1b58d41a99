// Package journey defines a context type, which carries information about
// a specific inbound request. It is created when it hits the first service
// and it is propagated accross all services.
//
// It has been named journey instead of request, because a journey can result
// of multiple sub-requests. And also because it sounds nice, isn't it?
package journey

import (
	gocontext "context"
	"strings"

	"github.com/google/uuid"

	"github.com/stairlin/relay/bg"
	"github.com/stairlin/relay/config"
	"github.com/stairlin/relay/ctx"
	"github.com/stairlin/relay/ctx/app"
	"github.com/stairlin/relay/ctx/bcast"
	"github.com/stairlin/relay/log"
	"github.com/stairlin/relay/stats"
)

// Relation qualifies how a new journey relates to the journey it was
// branched off from
type Relation uint8

const (
	// Child ties the new journey to the parent lifecycle, so cancelling the
	// parent cancels the child
	Child Relation = iota
)

// Ctx is the journey context interface
type Ctx interface {
	gocontext.Context
	ctx.Ctx

	// UUID returns the universally unique identifier assigned to this journey
	UUID() string
	// ShortID returns a partial representation of the journey ID, for the
	// sake of readability. Its uniqueness is not guaranteed
	ShortID() string
	// AppConfig returns the application configuration on which this context
	// currently runs
	AppConfig() *config.Config
	// Identity returns the wire identity of the journey
	Identity() Identity
	// BranchOff creates a new journey from this journey
	BranchOff(r Relation) Ctx
	// Store stores a value for the lifetime of the journey
	Store(key, v interface{})
	// Load returns a value previously set with Store
	Load(key interface{}) interface{}
	// Delete removes a value previously set with Store
	Delete(key interface{})
	// BG executes the given function on a background journey, which outlives
	// this journey
	BG(f func(c Ctx)) error
	// Cancel aborts the journey and releases its resources
	Cancel()
	// End marks the journey as completed and releases its resources
	End()
}

// journey holds the context of a request during its whole lifecycle
type journey struct {
	gocontext.Context

	id      string
	app     app.Ctx
	stepper *Stepper
	kv      *KV
	cancel  gocontext.CancelFunc
}

// New creates a new journey and returns it
func New(app app.Ctx) Ctx {
	return build(app, uuid.New().String(), NewStepper(), gocontext.Background())
}

// Continue resumes a journey started on another node. The local node gets
// its own step frame, so log lines can be correlated across the fleet
func Continue(app app.Ctx, id Identity) (Ctx, error) {
	steps, err := parseSteps(id.Steps)
	if err != nil {
		return nil, err
	}
	return build(app, id.ID, steps.BranchOff(), gocontext.Background()), nil
}

// Resume builds the journey of an inbound request on top of the broadcast
// context restored by the transport. It continues the journey identity
// received from the caller, or starts a new journey when there is none
func Resume(app app.Ctx, parent gocontext.Context) (Ctx, error) {
	if id, ok := FromContext(parent); ok {
		steps, err := parseSteps(id.Steps)
		if err != nil {
			return nil, err
		}
		return build(app, id.ID, steps.BranchOff(), parent), nil
	}
	return build(app, uuid.New().String(), NewStepper(), parent), nil
}

func build(app app.Ctx, id string, stepper *Stepper, parent gocontext.Context) *journey {
	var c gocontext.Context
	var cancel gocontext.CancelFunc
	if timeout := app.Config().Request.Timeout(); timeout > 0 {
		c, cancel = gocontext.WithTimeout(parent, timeout)
	} else {
		c, cancel = gocontext.WithCancel(parent)
	}

	return &journey{
		Context: c,
		id:      id,
		app:     app,
		stepper: stepper,
		kv:      newKV(),
		cancel:  cancel,
	}
}

func (c *journey) UUID() string {
	return c.id
}

func (c *journey) ShortID() string {
	return strings.Split(c.id, "-")[0]
}

func (c *journey) AppConfig() *config.Config {
	return c.app.Config()
}

func (c *journey) Identity() Identity {
	return Identity{ID: c.id, Steps: c.stepper.String()}
}

func (c *journey) Stats() stats.Stats {
	return c.app.Stats()
}

func (c *journey) BranchOff(r Relation) Ctx {
	child, cancel := gocontext.WithCancel(c.Context)
	return &journey{
		Context: child,
		id:      c.id,
		app:     c.app,
		stepper: c.stepper.BranchOff(),
		kv:      c.kv.clone(),
		cancel:  cancel,
	}
}

func (c *journey) Store(key, v interface{}) {
	c.kv.store(key, v)
}

func (c *journey) Load(key interface{}) interface{} {
	return c.kv.load(key)
}

func (c *journey) Delete(key interface{}) {
	c.kv.delete(key)
}

// BG executes the given function on a new journey, which is not tied to the
// parent lifecycle. The broadcast context visible when BG is called is
// snapshotted, so the background work sees the same entries as its parent
func (c *journey) BG(f func(c Ctx)) error {
	parent := bcast.WithStore(gocontext.Background(), bcast.FromContext(c))
	child := build(c.app, c.id, c.stepper.BranchOff(), parent)
	child.kv = c.kv.clone()
	return c.app.BG().Dispatch(bg.NewTask(func() {
		defer child.End()
		f(child)
	}))
}

func (c *journey) Cancel() {
	c.Trace("journey.cancel", "Journey cancelled")
	c.cancel()
}

func (c *journey) End() {
	c.cancel()
}

func (c *journey) Trace(tag, msg string, fields ...log.Field) {
	c.incTag(tag)
	c.app.Trace(tag, msg, c.logFields(fields)...)
}

func (c *journey) Warning(tag, msg string, fields ...log.Field) {
	c.app.Warning(tag, msg, c.logFields(fields)...)
}

func (c *journey) Error(tag, msg string, fields ...log.Field) {
	c.app.Error(tag, msg, c.logFields(fields)...)
}

func (c *journey) logFields(fields []log.Field) []log.Field {
	c.stepper.Inc()
	return append(fields,
		log.String("journey_id", c.ShortID()),
		log.String("step", c.stepper.String()),
		log.String("log_type", "J"),
	)
}

func (c *journey) incTag(tag string) {
	tags := map[string]string{
		"tag": tag,
	}
	c.app.Stats().Inc("log", tags)
}
