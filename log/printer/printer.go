// Package printer selects the log printer from the app configuration
package printer

import (
	"fmt"
	"sort"
	"sync"

	"github.com/stairlin/relay/config"
	"github.com/stairlin/relay/log"
	"github.com/stairlin/relay/log/printer/file"
	"github.com/stairlin/relay/log/printer/stdout"
)

func init() {
	Register(stdout.Name, stdout.New)
	Register(file.Name, file.New)
}

// Adapter returns a new printer initialised with the given config
type Adapter func(config config.Tree) (log.Printer, error)

var (
	printersMu sync.RWMutex
	printers   = make(map[string]Adapter)
)

// Printers returns the list of registered printers
func Printers() []string {
	printersMu.RLock()
	defer printersMu.RUnlock()

	var l []string
	for a := range printers {
		l = append(l, a)
	}

	sort.Strings(l)

	return l
}

// Register makes a log printer available by the provided name.
// If a printer is registered twice or if a printer is nil, it will panic.
func Register(name string, printer Adapter) {
	printersMu.Lock()
	defer printersMu.Unlock()

	if printer == nil {
		panic("logs: Registered printer is nil")
	}
	if _, dup := printers[name]; dup {
		panic("logs: Duplicated printer")
	}

	printers[name] = printer
}

// New returns the printer selected by the given config.
// It falls back to stdout when no printer is selected.
func New(c *config.Log) (log.Printer, error) {
	tree, err := config.TreeFromMap(c.Printer.Config)
	if err != nil {
		return nil, err
	}

	printersMu.RLock()
	defer printersMu.RUnlock()

	if c.Printer.Adapter == "" {
		return stdout.New(tree)
	}
	if f, ok := printers[c.Printer.Adapter]; ok {
		return f(tree)
	}
	return nil, fmt.Errorf("log printer not found <%s>", c.Printer.Adapter)
}
