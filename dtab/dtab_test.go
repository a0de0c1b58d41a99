package dtab_test

import (
	"context"
	"testing"

	"github.com/stairlin/relay/ctx/bcast"
	"github.com/stairlin/relay/dtab"
)

// TestParse ensures that a table renders back to the string it was parsed
// from
func TestParse(t *testing.T) {
	tests := []string{
		"/foo=>/bar",
		"/foo=>/bar;/baz=>/qux",
		"/s/web=>/s/web-canary;/s=>/fallback",
	}

	for i, test := range tests {
		d, err := dtab.Parse(test)
		if err != nil {
			t.Fatalf("%d - %s", i, err)
		}
		if got := d.String(); got != test {
			t.Errorf("%d - expect table to render as %s, but got %s", i, test, got)
		}
	}
}

// TestParse_Sloppy ensures that whitespace and empty rules are tolerated
func TestParse_Sloppy(t *testing.T) {
	d, err := dtab.Parse(" /foo => /bar ; ;/baz=>/qux;")
	if err != nil {
		t.Fatal(err)
	}
	if expect := "/foo=>/bar;/baz=>/qux"; d.String() != expect {
		t.Errorf("expect table to render as %s, but got %s", expect, d.String())
	}
}

// TestParse_Invalid ensures that broken rules are rejected
func TestParse_Invalid(t *testing.T) {
	tests := []string{
		"/foo",
		"/foo=>",
		"=>/bar",
		"foo=>/bar",
		"/foo=>bar",
	}

	for i, test := range tests {
		if _, err := dtab.Parse(test); err == nil {
			t.Errorf("%d - expect rule <%s> to be rejected", i, test)
		}
	}
}

// TestLookup ensures that the first matching rule wins and that prefixes
// only match on segment boundaries
func TestLookup(t *testing.T) {
	d, err := dtab.Parse("/foo=>/bar;/foo=>/ignored;/s=>/fallback")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		in      string
		expect  string
		matched bool
	}{
		{in: "/foo", expect: "/bar", matched: true},
		{in: "/foo/a", expect: "/bar/a", matched: true},
		{in: "/foobar", expect: "/foobar", matched: false},
		{in: "/s/web", expect: "/fallback/web", matched: true},
		{in: "/nope", expect: "/nope", matched: false},
	}

	for i, test := range tests {
		got, matched := d.Lookup(test.in)
		if got != test.expect || matched != test.matched {
			t.Errorf("%d - expect Lookup(%s) to be (%s, %t), but got (%s, %t)",
				i, test.in, test.expect, test.matched, got, matched)
		}
	}
}

// TestWith ensures that new rules are prepended ahead of the inherited
// table, so they win on lookup while the old rules remain as fallback
func TestWith(t *testing.T) {
	base, _ := dtab.Parse("/foo=>/bar;/s=>/base")
	override, _ := dtab.Parse("/foo=>/canary")

	ctx := dtab.With(context.Background(), base)
	ctx = dtab.With(ctx, override)

	d := dtab.FromContext(ctx)
	if got, _ := d.Lookup("/foo"); got != "/canary" {
		t.Errorf("expect new rule to win, but got %s", got)
	}
	if got, _ := d.Lookup("/s/x"); got != "/base/x" {
		t.Errorf("expect inherited rule to remain as fallback, but got %s", got)
	}
}

// TestEnvelope ensures that the table crosses process boundaries through
// the context envelope
func TestEnvelope(t *testing.T) {
	d, err := dtab.Parse("/foo=>/bar")
	if err != nil {
		t.Fatal(err)
	}
	ctx := dtab.With(context.Background(), d)

	data, err := bcast.MarshalEnvelope(ctx)
	if err != nil {
		t.Fatal(err)
	}

	store, decodeErrs, err := bcast.UnmarshalEnvelope(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(decodeErrs) != 0 {
		t.Fatalf("expect no decode errors, but got %v", decodeErrs)
	}

	restored := dtab.FromContext(bcast.WithStore(context.Background(), store))
	if restored.String() != "/foo=>/bar" {
		t.Errorf("expect table to round-trip, but got %s", restored.String())
	}
}

// TestClear ensures that a cleared scope does not leak the table downstream
func TestClear(t *testing.T) {
	d, _ := dtab.Parse("/foo=>/bar")
	ctx := dtab.With(context.Background(), d)
	ctx = dtab.Clear(ctx)

	if got := dtab.FromContext(ctx); len(got) != 0 {
		t.Errorf("expect cleared scope to have no table, but got %s", got.String())
	}
}
