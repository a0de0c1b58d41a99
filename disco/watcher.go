package disco

import (
	"sort"

	"github.com/pkg/errors"
)

// ErrWatcherClosed is returned by Next after the watcher has been closed
var ErrWatcherClosed = errors.New("disco: watcher closed")

// Op is a catalogue operation
type Op uint8

const (
	// Add notifies that an instance joined the service
	Add Op = iota
	// Update notifies that an instance changed
	Update
	// Delete notifies that an instance left the service
	Delete
)

// An Event describes a single change on a service
type Event struct {
	Op       Op
	Instance *Instance
}

// A Snapshot carries the full list of instances of a service, as seen by
// the discovery backend
type Snapshot struct {
	Instances []*Instance
	Err       error
}

// A Watcher receives catalogue events for a single service
type Watcher interface {
	// Next blocks until the service changes and returns the events that
	// describe the change
	Next() ([]*Event, error)
	// Close stops watching. The subscription channel is released and any
	// blocked Next call returns ErrWatcherClosed
	Close() error
}

// NewWatcher builds a watcher on top of a snapshot subscription. Snapshots
// are diffed, so subscribers only see what changed
func NewWatcher(sub chan *Snapshot, unsub func()) Watcher {
	return &watcher{sub: sub, unsub: unsub}
}

type watcher struct {
	diff  Diff
	sub   chan *Snapshot
	unsub func()
}

func (w *watcher) Next() ([]*Event, error) {
	for {
		u, ok := <-w.sub
		if !ok {
			return nil, ErrWatcherClosed
		}
		if u.Err != nil {
			return nil, u.Err
		}
		events := w.diff.Apply(u.Instances)
		if len(events) > 0 {
			return events, nil
		}
	}
}

func (w *watcher) Close() error {
	w.unsub()
	return nil
}

// Diff tracks the last known state of a service and converts full snapshots
// into catalogue events
type Diff struct {
	instances map[string]*Instance
}

// Apply computes the events needed to go from the last known state to the
// given snapshot, and makes the snapshot the new reference state
func (d *Diff) Apply(state []*Instance) []*Event {
	if d.instances == nil {
		d.instances = map[string]*Instance{}
	}

	var events []*Event
	seen := map[string]struct{}{}
	for _, i := range state {
		seen[i.ID] = struct{}{}
		op := Add
		if _, ok := d.instances[i.ID]; ok {
			op = Update
		}
		events = append(events, &Event{Op: op, Instance: i})
		d.instances[i.ID] = i
	}

	var gone []string
	for id := range d.instances {
		if _, ok := seen[id]; !ok {
			gone = append(gone, id)
		}
	}
	sort.Strings(gone)
	for _, id := range gone {
		events = append(events, &Event{Op: Delete, Instance: d.instances[id]})
		delete(d.instances, id)
	}
	return events
}
