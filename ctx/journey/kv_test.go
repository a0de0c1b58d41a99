package journey_test

import (
	"testing"

	"github.com/stairlin/relay/ctx/journey"
	lt "github.com/stairlin/relay/testing"
)

// TestVerbatim ensures that data stored can be retrieved
func TestVerbatim(t *testing.T) {
	tt := lt.New(t)
	j := journey.New(tt.NewAppCtx("journey-test"))

	k := "foo"
	v := "bar"
	j.Store(k, v)

	res := j.Load(k)
	if res != v {
		t.Errorf("expect to get %s, but got %s", v, res)
	}

	j.Delete(k)

	res = j.Load(k)
	if res == v {
		t.Error("expect value to have been deleted")
	}
}

// TestBG_KV ensures that a background journey sees the values stored before
// it was scheduled
func TestBG_KV(t *testing.T) {
	tt := lt.New(t)
	j := journey.New(tt.NewAppCtx("journey-test"))

	j.Store("foo", "bar")

	res := make(chan interface{}, 1)
	j.BG(func(c journey.Ctx) {
		res <- c.Load("foo")
	})

	if v := <-res; v != "bar" {
		t.Errorf("expect background journey to see foo=bar, but got %v", v)
	}
}
