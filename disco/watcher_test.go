package disco_test

import (
	"reflect"
	"testing"

	"github.com/stairlin/relay/disco"
)

func TestDiff(t *testing.T) {
	// Add first node
	diff := disco.Diff{}
	a := []*disco.Instance{
		{
			ID:   "alpha",
			Name: "Instance Alpha",
			Host: "127.0.0.1",
			Port: 1001,
		},
	}
	expect := []*disco.Event{
		{
			Op:       disco.Add,
			Instance: a[0],
		},
	}

	res := diff.Apply(a)
	if !reflect.DeepEqual(expect, res) {
		t.Errorf("expect state A to be %v, but got %v", expect, res)
	}

	// Add second node
	b := []*disco.Instance{
		{
			ID:   "alpha",
			Name: "Instance Alpha",
			Host: "127.0.0.1",
			Port: 1001,
		},
		{
			ID:   "beta",
			Name: "Instance Beta",
			Host: "127.0.0.1",
			Port: 1002,
		},
	}
	expect = []*disco.Event{
		{
			Op:       disco.Update,
			Instance: b[0],
		},
		{
			Op:       disco.Add,
			Instance: b[1],
		},
	}

	res = diff.Apply(b)
	if !reflect.DeepEqual(expect, res) {
		t.Errorf("expect state B to be %v, but got %v", expect, res)
	}

	// Remove first node
	c := []*disco.Instance{
		{
			ID:   "beta",
			Name: "Instance Beta",
			Host: "127.0.0.1",
			Port: 1002,
		},
	}
	expect = []*disco.Event{
		{
			Op:       disco.Update,
			Instance: c[0],
		},
		{
			Op:       disco.Delete,
			Instance: b[0],
		},
	}

	res = diff.Apply(c)
	if !reflect.DeepEqual(expect, res) {
		t.Errorf("expect state C to be %v, but got %v", expect, res)
	}

	// Remove last node
	expect = []*disco.Event{
		{
			Op:       disco.Delete,
			Instance: c[0],
		},
	}

	res = diff.Apply(nil)
	if !reflect.DeepEqual(expect, res) {
		t.Errorf("expect state D to be %v, but got %v", expect, res)
	}
}

func TestWatcher(t *testing.T) {
	sub := make(chan *disco.Snapshot, 2)
	var unsubbed bool
	w := disco.NewWatcher(sub, func() {
		unsubbed = true
		close(sub)
	})

	sub <- &disco.Snapshot{
		Instances: []*disco.Instance{
			{ID: "alpha", Name: "api", Host: "127.0.0.1", Port: 1001},
		},
	}
	events, err := w.Next()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Op != disco.Add {
		t.Errorf("expect a single add event, but got %v", events)
	}

	// A snapshot with a changed instance yields an update event
	sub <- &disco.Snapshot{
		Instances: []*disco.Instance{
			{ID: "alpha", Name: "api", Host: "127.0.0.1", Port: 1002},
		},
	}
	events, err = w.Next()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Op != disco.Update {
		t.Errorf("expect a single update event, but got %v", events)
	}
	if events[0].Instance.Port != 1002 {
		t.Errorf("expect the new instance state, but got %v", events[0].Instance)
	}

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if !unsubbed {
		t.Error("expect Close to release the subscription")
	}
	if _, err := w.Next(); err != disco.ErrWatcherClosed {
		t.Errorf("expect ErrWatcherClosed, but got %v", err)
	}
}
