package naming_test

import (
	"context"
	"testing"

	"github.com/stairlin/relay/disco"
	"github.com/stairlin/relay/dtab"
	"github.com/stairlin/relay/net/naming"
	lt "github.com/stairlin/relay/testing"
)

// TestStatic ensures that a static resolver yields its addresses once and
// then blocks until closed
func TestStatic(t *testing.T) {
	w, err := naming.Static("10.0.0.1:8000", "10.0.0.2:8000").Resolve("")
	if err != nil {
		t.Fatal(err)
	}

	updates, err := w.Next()
	if err != nil {
		t.Fatal(err)
	}
	if len(updates) != 2 || updates[0].Op != naming.Add {
		t.Errorf("expect two add updates, but got %v", updates)
	}

	done := make(chan error, 1)
	go func() {
		_, err := w.Next()
		done <- err
	}()
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := <-done; err != naming.ErrWatcherClosed {
		t.Errorf("expect ErrWatcherClosed, but got %v", err)
	}
}

// TestDisco ensures that the disco resolver converts catalogue events into
// address updates
func TestDisco(t *testing.T) {
	tt := lt.New(t)
	appCtx := tt.NewAppCtx("naming-test")

	_, err := appCtx.Disco().Register(appCtx, &disco.Registration{
		Name: "api",
		Addr: "127.0.0.1",
		Port: 8000,
	})
	if err != nil {
		tt.Fatal(err)
	}

	w, err := naming.Disco(appCtx).Resolve("api")
	if err != nil {
		tt.Fatal(err)
	}
	defer w.Close()

	updates, err := w.Next()
	if err != nil {
		tt.Fatal(err)
	}
	if len(updates) != 1 ||
		updates[0].Op != naming.Add ||
		updates[0].Addr != "127.0.0.1:8000" {
		tt.Errorf("expect a single add for 127.0.0.1:8000, but got %v", updates)
	}
}

// TestResolvePath ensures that a logical path goes through the delegation
// table before it is resolved
func TestResolvePath(t *testing.T) {
	tt := lt.New(t)
	appCtx := tt.NewAppCtx("naming-test")

	_, err := appCtx.Disco().Register(appCtx, &disco.Registration{
		Name: "web-canary",
		Addr: "127.0.0.1",
		Port: 9000,
	})
	if err != nil {
		tt.Fatal(err)
	}

	d, err := dtab.Parse("/disco/web=>/disco/web-canary")
	if err != nil {
		tt.Fatal(err)
	}
	req := dtab.With(context.Background(), d)

	w, err := naming.ResolvePath(appCtx, req, "/disco/web")
	if err != nil {
		tt.Fatal(err)
	}
	defer w.Close()

	updates, err := w.Next()
	if err != nil {
		tt.Fatal(err)
	}
	if len(updates) != 1 || updates[0].Addr != "127.0.0.1:9000" {
		tt.Errorf("expect the rerouted address, but got %v", updates)
	}
}

// TestResolvePath_Static ensures that a rule can pin a destination to a
// fixed address
func TestResolvePath_Static(t *testing.T) {
	tt := lt.New(t)
	appCtx := tt.NewAppCtx("naming-test")

	d, err := dtab.Parse("/disco/web=>/addr/10.0.0.9:8000")
	if err != nil {
		tt.Fatal(err)
	}
	req := dtab.With(context.Background(), d)

	w, err := naming.ResolvePath(appCtx, req, "/disco/web")
	if err != nil {
		tt.Fatal(err)
	}
	defer w.Close()

	updates, err := w.Next()
	if err != nil {
		tt.Fatal(err)
	}
	if len(updates) != 1 || updates[0].Addr != "10.0.0.9:8000" {
		tt.Errorf("expect the pinned address, but got %v", updates)
	}
}

// TestResolvePath_Invalid ensures that broken paths are rejected
func TestResolvePath_Invalid(t *testing.T) {
	tt := lt.New(t)
	appCtx := tt.NewAppCtx("naming-test")

	tests := []string{
		"disco/web",
		"/disco",
		"/disco/",
		"/nope/web",
	}
	for i, test := range tests {
		if _, err := naming.ResolvePath(appCtx, context.Background(), test); err == nil {
			tt.Errorf("%d - expect path <%s> to be rejected", i, test)
		}
	}
}
