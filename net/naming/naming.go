// Package naming resolves logical destinations into network addresses.
//
// A destination is either a URI (disco://service) or a logical path
// (/disco/service). Logical paths go through the delegation table visible
// on the request context first, so a request can reroute its downstream
// hops without touching the routing of anything else.
package naming

import (
	"context"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/stairlin/relay/ctx/app"
	"github.com/stairlin/relay/dtab"
)

// ErrWatcherClosed is returned by Next after the watcher has been closed
var ErrWatcherClosed = errors.New("naming: watcher closed")

// Op is an address operation
type Op uint8

const (
	// Add means that the address joined the set
	Add Op = iota
	// Delete means that the address left the set
	Delete
)

// An Update describes a single change on the address set of a destination
type Update struct {
	Op   Op
	Addr string
}

// A Resolver turns a destination into a watcher on its address set
type Resolver interface {
	// Resolve creates a Watcher for target
	Resolve(target string) (Watcher, error)
}

// A Watcher delivers changes on the address set of a destination
type Watcher interface {
	// Next blocks until the address set changes and returns the updates
	// that describe the change
	Next() ([]*Update, error)
	// Close stops watching
	Close() error
}

// Resolve picks a resolver based on the target URI scheme
//
// e.g. disco://service-name?tag=http
func Resolve(ctx app.Ctx, target string) (Watcher, error) {
	uri, err := url.Parse(target)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot parse target <%s>", target)
	}

	switch uri.Scheme {
	case "disco":
		return buildDisco(ctx, uri)
	case "addr":
		return Static(strings.Split(uri.Host, ",")...).Resolve(uri.Host)
	}
	return nil, errors.Errorf("unknown naming scheme <%s>", uri.Scheme)
}

// ResolvePath resolves a logical path, e.g. /disco/service or
// /addr/10.0.0.1:8000.
//
// The delegation table visible on the request context is applied first.
// The rewritten path keeps the same shape, so a rule can move a
// destination from one resolver to another
func ResolvePath(
	ctx app.Ctx, req context.Context, path string,
) (Watcher, error) {
	if d := dtab.FromContext(req); len(d) > 0 {
		path, _ = d.Lookup(path)
	}

	if !strings.HasPrefix(path, "/") {
		return nil, errors.Errorf("logical path <%s> must be absolute", path)
	}
	parts := strings.SplitN(path[1:], "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return nil, errors.Errorf("logical path <%s> has no destination", path)
	}

	scheme, rest := parts[0], parts[1]
	switch scheme {
	case "disco":
		return Disco(ctx).Resolve(rest)
	case "addr":
		return Static(strings.Split(rest, ",")...).Resolve(rest)
	}
	return nil, errors.Errorf("unknown naming scheme <%s>", scheme)
}
