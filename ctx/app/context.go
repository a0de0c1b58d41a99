// Package app defines an application context, which carries information
// about the application environment.
//
// It can be information such as configuration, logger, stats, service
// discovery, ...
package app

import (
	"github.com/stairlin/relay/bg"
	"github.com/stairlin/relay/config"
	"github.com/stairlin/relay/ctx"
	"github.com/stairlin/relay/disco"
	"github.com/stairlin/relay/log"
	"github.com/stairlin/relay/stats"
)

// Ctx is the app context interface
type Ctx interface {
	ctx.Ctx

	Name() string
	L() log.Logger
	Config() *config.Config
	Disco() disco.Agent
	BG() *bg.Reg
	// Drain stops all background jobs
	Drain()
}

// context holds the application context
type context struct {
	service   string
	appConfig *config.Config
	bgReg     *bg.Reg

	l       log.Logger
	lFields []log.Field
	stats   stats.Stats
	disco   disco.Agent
}

// NewCtx creates a new app context
func NewCtx(
	service string,
	c *config.Config,
	l log.Logger,
	s stats.Stats,
	sd disco.Agent,
) Ctx {
	lf := []log.Field{
		log.String("node", c.Node),
		log.String("version", c.Version),
		log.String("log_type", "A"),
	}

	return &context{
		service:   service,
		appConfig: c,
		bgReg:     bg.NewReg(service, l, s),
		l:         l.AddCalldepth(1),
		lFields:   lf,
		stats:     s,
		disco:     sd,
	}
}

func (c *context) Name() string {
	return c.service
}

func (c *context) L() log.Logger {
	return c.l
}

func (c *context) Stats() stats.Stats {
	return c.stats
}

func (c *context) Config() *config.Config {
	return c.appConfig
}

func (c *context) Disco() disco.Agent {
	return c.disco
}

func (c *context) BG() *bg.Reg {
	return c.bgReg
}

func (c *context) Drain() {
	c.bgReg.Drain()
}

func (c *context) Trace(tag, msg string, fields ...log.Field) {
	c.l.Trace(tag, msg, append(fields, c.lFields...)...)
	c.incLogLevelCount(log.LevelTrace)
}

func (c *context) Warning(tag, msg string, fields ...log.Field) {
	c.l.Warning(tag, msg, append(fields, c.lFields...)...)
	c.incLogLevelCount(log.LevelWarning)
}

func (c *context) Error(tag, msg string, fields ...log.Field) {
	c.l.Error(tag, msg, append(fields, c.lFields...)...)
	c.incLogLevelCount(log.LevelError)
}

func (c *context) incLogLevelCount(lvl log.Level) {
	tags := map[string]string{
		"level":   lvl.String(),
		"service": c.service,
		"node":    c.appConfig.Node,
		"version": c.appConfig.Version,
	}

	c.stats.Histogram("log.level", 1, tags)
}
