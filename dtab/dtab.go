// Package dtab implements delegation tables, ordered routing rules that
// rewrite a logical destination before it is resolved.
//
// A delegation table travels with the request on the broadcast context, so
// a caller can reroute the downstream hops of a single request without
// touching the routing of anything else.
package dtab

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	entrySeparator = ";"
	ruleSeparator  = "=>"
)

// A Dentry maps a path prefix to a destination prefix
type Dentry struct {
	Prefix string
	Dst    string
}

func (d Dentry) String() string {
	return d.Prefix + ruleSeparator + d.Dst
}

// A Dtab is an ordered list of delegation rules. Earlier entries take
// precedence over later ones
type Dtab []Dentry

// Parse parses a delegation table from its textual form
//
// e.g. /foo=>/bar;/baz=>/qux
func Parse(s string) (Dtab, error) {
	var d Dtab
	for _, raw := range strings.Split(s, entrySeparator) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		i := strings.Index(raw, ruleSeparator)
		if i < 0 {
			return nil, errors.Errorf("dtab: rule <%s> has no destination", raw)
		}
		e := Dentry{
			Prefix: strings.TrimSpace(raw[:i]),
			Dst:    strings.TrimSpace(raw[i+len(ruleSeparator):]),
		}
		if !strings.HasPrefix(e.Prefix, "/") || !strings.HasPrefix(e.Dst, "/") {
			return nil, errors.Errorf("dtab: rule <%s> must use absolute paths", raw)
		}
		d = append(d, e)
	}
	return d, nil
}

// String returns the textual form of the table. Parsing it back yields the
// same table
func (d Dtab) String() string {
	rules := make([]string, len(d))
	for i, e := range d {
		rules[i] = e.String()
	}
	return strings.Join(rules, entrySeparator)
}

// Lookup rewrites the given path with the first matching rule. It returns
// the path untouched when no rule matches
func (d Dtab) Lookup(path string) (string, bool) {
	for _, e := range d {
		rest, ok := matchPrefix(path, e.Prefix)
		if ok {
			return e.Dst + rest, true
		}
	}
	return path, false
}

// matchPrefix matches prefix against path on segment boundaries, so /foo
// matches /foo and /foo/x, but not /foobar
func matchPrefix(path, prefix string) (rest string, ok bool) {
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	rest = path[len(prefix):]
	if rest != "" && !strings.HasPrefix(rest, "/") {
		return "", false
	}
	return rest, true
}
