package adapter

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stairlin/relay/ctx"
	"github.com/stairlin/relay/disco"
)

var errServiceNotFound = errors.New("service does not exist")

// localAgent is a local-only service discovery agent
// This agent is used when service discovery is disabled
type localAgent struct {
	mu sync.RWMutex

	registry map[string]*disco.Instance
	// subs contains all snapshot subscriptions, keyed by service name
	subs map[chan *disco.Snapshot]string
}

func newLocalAgent() disco.Agent {
	return &localAgent{
		registry: map[string]*disco.Instance{},
		subs:     map[chan *disco.Snapshot]string{},
	}
}

func (a *localAgent) Register(
	ctx ctx.Ctx, r *disco.Registration,
) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := uuid.New().String()
	a.registry[id] = &disco.Instance{
		Local: true,
		ID:    id,
		Name:  r.Name,
		Host:  r.Addr,
		Port:  r.Port,
		Tags:  r.Tags,
	}
	a.notify(r.Name)
	return id, nil
}

func (a *localAgent) Deregister(ctx ctx.Ctx, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	instance, ok := a.registry[id]
	if !ok {
		return nil
	}
	delete(a.registry, id)
	a.notify(instance.Name)
	return nil
}

func (a *localAgent) Services(
	ctx ctx.Ctx, tags ...string,
) (map[string]disco.Service, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	services := map[string]disco.Service{}
	for _, i := range a.registry {
		s, ok := services[i.Name]
		if !ok {
			s = a.buildService(i.Name)
			services[i.Name] = s
		}
		svc := s.(*service)
		svc.instances = append(svc.instances, i)
	}
	return services, nil
}

func (a *localAgent) Service(
	ctx ctx.Ctx, name string, tags ...string,
) (disco.Service, error) {
	services, err := a.Services(ctx, tags...)
	if err != nil {
		return nil, err
	}
	s, ok := services[name]
	if !ok {
		return nil, errServiceNotFound
	}
	return s, nil
}

func (a *localAgent) Leave(ctx ctx.Ctx) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.registry = map[string]*disco.Instance{}
	for sub := range a.subs {
		close(sub)
	}
	a.subs = map[chan *disco.Snapshot]string{}
}

func (a *localAgent) buildService(name string) *service {
	return &service{
		name: name,
		sub: func() (chan *disco.Snapshot, func()) {
			return a.sub(name)
		},
	}
}

func (a *localAgent) sub(name string) (chan *disco.Snapshot, func()) {
	a.mu.Lock()
	defer a.mu.Unlock()

	sub := make(chan *disco.Snapshot, 1)
	// Seed the subscription with the current state, so watchers do not
	// have to wait for the next change
	sub <- &disco.Snapshot{Instances: a.instancesOf(name)}
	a.subs[sub] = name
	unsub := func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if _, ok := a.subs[sub]; !ok {
			return
		}
		delete(a.subs, sub)
		close(sub)
	}
	return sub, unsub
}

// notify pushes a fresh snapshot to all subscribers of the given service.
// The caller must hold the lock
func (a *localAgent) notify(name string) {
	u := &disco.Snapshot{Instances: a.instancesOf(name)}
	for sub, service := range a.subs {
		if service != name {
			continue
		}
		select {
		case sub <- u:
		default:
		}
	}
}

func (a *localAgent) instancesOf(name string) []*disco.Instance {
	var instances []*disco.Instance
	for _, i := range a.registry {
		if i.Name == name {
			instances = append(instances, i)
		}
	}
	return instances
}

// service implements disco.Service
type service struct {
	name      string
	instances []*disco.Instance
	sub       func() (sub chan *disco.Snapshot, unsub func())
}

func (s *service) Name() string {
	return s.name
}

func (s *service) Watch() disco.Watcher {
	return disco.NewWatcher(s.sub())
}

func (s *service) Instances() []*disco.Instance {
	return s.instances
}
