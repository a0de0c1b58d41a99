// Package adapter selects the config store from which the app configuration
// is loaded, based on the CONFIG_URI scheme.
package adapter

import (
	"fmt"
	"net/url"
	"sort"
	"sync"

	"github.com/stairlin/relay/config"
	"github.com/stairlin/relay/config/adapter/etcd"
	"github.com/stairlin/relay/config/adapter/file"
)

func init() {
	Register(file.Name, file.New)
	Register(etcd.Name, etcd.New)
}

// Adapter returns a new store initialised with the given config URI
type Adapter func(uri *url.URL) (config.Store, error)

var (
	adaptersMu sync.RWMutex
	adapters   = make(map[string]Adapter)
)

// Adapters returns the list of registered adapters
func Adapters() []string {
	adaptersMu.RLock()
	defer adaptersMu.RUnlock()

	var l []string
	for a := range adapters {
		l = append(l, a)
	}

	sort.Strings(l)

	return l
}

// Register makes a config store adapter available by the provided name.
// If an adapter is registered twice or if an adapter is nil, it will panic.
func Register(name string, adapter Adapter) {
	adaptersMu.Lock()
	defer adaptersMu.Unlock()

	if adapter == nil {
		panic("config: Registered adapter is nil")
	}
	if _, dup := adapters[name]; dup {
		panic("config: Duplicated adapter")
	}

	adapters[name] = adapter
}

// NewStore returns the config store for the given URI
//
// An empty scheme defaults to the file store
// e.g. file:///etc/relay/config.toml
//      etcd://10.0.0.7:2379/config/api
func NewStore(uri string) (config.Store, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("cannot parse config URI <%s> (%s)", uri, err)
	}

	scheme := u.Scheme
	if scheme == "" {
		scheme = file.Name
	}

	adaptersMu.RLock()
	defer adaptersMu.RUnlock()

	if f, ok := adapters[scheme]; ok {
		return f(u)
	}
	return nil, fmt.Errorf("config store not found <%s>", scheme)
}
