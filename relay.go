// Package relay is the backbone of a relay service. It boots the
// application context, loads the configuration, wires service discovery,
// and supervises the registered servers.
package relay

import (
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"
	"sync"
	"syscall"

	"github.com/pkg/errors"
	"github.com/stairlin/relay/config"
	ca "github.com/stairlin/relay/config/adapter"
	"github.com/stairlin/relay/ctx/app"
	"github.com/stairlin/relay/disco"
	da "github.com/stairlin/relay/disco/adapter"
	"github.com/stairlin/relay/log"
	"github.com/stairlin/relay/log/logger"
	"github.com/stairlin/relay/net"
	sa "github.com/stairlin/relay/stats/adapter"
)

// App is the core structure of a relay service
type App struct {
	mu    sync.Mutex
	ready *sync.Cond

	service string
	ctx     app.Ctx
	config  *config.Config
	disco   disco.Agent
	servers *net.Reg
	drain   bool
	done    chan bool
}

// New creates an App from the config store pointed to by the CONFIG_URI
// environment variable
func New(service string, appConfig interface{}) (*App, error) {
	store, err := ca.NewStore(os.Getenv("CONFIG_URI"))
	if err != nil {
		return nil, fmt.Errorf("config store error: %s", err)
	}

	c := &config.Config{App: appConfig}
	if err := store.Load(c); err != nil {
		return nil, fmt.Errorf("cannot load config: %s", err)
	}

	// Convert potential environment variables
	c.Node = config.ValueOf(c.Node)
	c.Version = config.ValueOf(c.Version)

	return NewWithConfig(service, c)
}

// NewWithConfig creates an App with the given config
func NewWithConfig(service string, c *config.Config) (*App, error) {
	l, err := logger.New(service, &c.Log)
	if err != nil {
		return nil, fmt.Errorf("logger error: %s", err)
	}

	s, err := sa.New(&c.Stats)
	if err != nil {
		return nil, fmt.Errorf("stats error: %s", err)
	}
	s.SetLogger(l)

	sd, err := da.New(&c.Disco)
	if err != nil {
		return nil, fmt.Errorf("disco error: %s", err)
	}

	ctx := app.NewCtx(service, c, l, s, sd)

	lock := &sync.Mutex{}
	lock.Lock()
	ready := sync.NewCond(lock)

	app := &App{
		service: service,
		ready:   ready,
		ctx:     ctx,
		config:  c,
		disco:   sd,
		servers: net.NewReg(ctx),
		done:    make(chan bool, 1),
	}

	// Start background services
	ctx.BG().Dispatch(s)
	ctx.BG().Dispatch(&heartbeat{
		app:  app,
		stop: make(chan bool, 1),
	})

	// Trap OS signals
	go trapSignals(app)

	return app, nil
}

// Config returns the app config
func (a *App) Config() *config.Config {
	return a.config
}

// Serve starts all registered servers and blocks until the app drains
func (a *App) Serve() error {
	defer func() {
		if recover := recover(); recover != nil {
			a.Ctx().Error("relay.serve.panic", "App panic",
				log.Object("err", recover),
				log.String("stack", string(debug.Stack())),
			)

			// Attempt to clean resources before propagating the panic
			// further up
			if !a.drain {
				a.Drain()
			}

			panic(recover)
		}
	}()

	a.ctx.Trace("relay.serve", "Start serving...")

	if err := a.servers.Serve(); err != nil {
		a.ctx.Error("relay.serve.error", "Error with server.Serve",
			log.Error(err),
		)
		return err
	}

	// Notify all callees that the app is up and running
	a.ready.Broadcast()

	<-a.done // Hang on
	return nil
}

// Ready holds the callee until the app is fully operational
func (a *App) Ready() {
	a.ready.Wait()
}

// Drain notifies all servers to enter draining mode. They no longer accept
// new requests, but they can finish all in-flight requests
func (a *App) Drain() {
	a.ctx.Trace("relay.drain", "Start draining...")

	// Check whether we are already stopping
	a.mu.Lock()
	if a.drain {
		a.mu.Unlock()
		return
	}
	a.drain = true
	a.mu.Unlock()

	a.servers.Drain() // Block all new requests and drain in-flight requests
	a.disco.Leave(a.ctx)
	a.ctx.Drain()

	a.done <- true // Release Serve()
}

// Ctx returns the application context
func (a *App) Ctx() app.Ctx {
	return a.ctx
}

// RegisterServer adds the given server to the list of managed servers
func (a *App) RegisterServer(addr string, s net.Server) {
	a.servers.Add(addr, s)
}

// ServiceRegistration contains the info to register a service
type ServiceRegistration struct {
	Name   string
	Host   string
	Port   uint16
	Server net.Server
	Tags   []string
}

// RegisterService adds the server to the list of managed servers and
// registers it to service discovery
func (a *App) RegisterService(r *ServiceRegistration) error {
	a.servers.Add(
		net.JoinHostPort(r.Host, strconv.Itoa(int(r.Port))),
		r.Server,
	)

	dr := disco.Registration{
		Name: r.Name,
		Addr: r.Host,
		Port: r.Port,
		Tags: append(r.Tags, a.service, a.config.Version),
	}
	if _, err := a.disco.Register(a.Ctx(), &dr); err != nil {
		return errors.Wrap(err, "error registering service")
	}
	return nil
}

// Disco returns the active service discovery agent.
//
// When service discovery is disabled, it returns a local agent that acts
// like a regular service discovery agent, except that it only registers
// local services.
func (a *App) Disco() disco.Agent {
	return a.disco
}

func trapSignals(app *App) {
	ch := make(chan os.Signal, 10)
	signals := []os.Signal{
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGABRT,
		syscall.SIGTERM,
		syscall.SIGUSR1,
		syscall.SIGUSR2,
	}
	signal.Notify(ch, signals...)

	for {
		sig := <-ch
		app.Ctx().Trace("relay.signal", "Signal trapped",
			log.String("sig", sig.String()),
		)

		switch sig {
		case syscall.SIGINT, syscall.SIGTERM:
			app.Drain()
			signal.Stop(ch)
			return
		default:
			signal.Stop(ch)
			return
		}
	}
}
