// Package statsd ships measures to a statsd daemon over UDP
package statsd

import (
	"fmt"
	"strings"
	"time"

	statsd "gopkg.in/alexcesaro/statsd.v2"

	"github.com/stairlin/relay/config"
	"github.com/stairlin/relay/log"
	"github.com/stairlin/relay/stats"
)

// Name contains the adapter registered name
const Name = "statsd"

var tagsFormats = map[string]statsd.TagFormat{
	"influxdb": statsd.InfluxDB,
	"datadog":  statsd.Datadog,
}

func New(c map[string]string) (stats.Stats, error) {
	var opts []statsd.Option

	// Address
	if _, ok := c["port"]; ok {
		addr := config.ValueOf(c["addr"])
		port := config.ValueOf(c["port"])

		opt := statsd.Address(fmt.Sprintf("%s:%s", addr, port))
		opts = append(opts, opt)
	}

	// Prefix
	if prefix, ok := c["prefix"]; ok {
		opts = append(opts, statsd.Prefix(prefix))
	}

	// Tags format
	if c["tags_format"] != "" {
		f, ok := tagsFormats[c["tags_format"]]
		if !ok {
			return nil, fmt.Errorf("unknown statsd tags format <%s>", c["tags_format"])
		}
		opts = append(opts, statsd.TagsFormat(f))
	}

	// Custom tags (key:value pairs separated by commas)
	if tags, ok := c["tags"]; ok {
		var kv []string
		for _, tag := range strings.Split(tags, ",") {
			parts := strings.SplitN(tag, ":", 2)
			if len(parts) != 2 {
				return nil, fmt.Errorf("invalid statsd tag <%s>", tag)
			}
			kv = append(kv, parts[0], config.ValueOf(parts[1]))
		}
		opts = append(opts, statsd.Tags(kv...))
	}

	client, err := statsd.New(opts...)
	if err != nil {
		// If nothing is listening on the target port, an error is returned and
		// the returned client does nothing but is still usable. So we can
		// just log the error and go on.
		return nil, err
	}

	return &Client{
		C: client,
	}, nil
}

type Client struct {
	C      *statsd.Client
	logger log.Logger
}

func (c *Client) Start() {
	c.logger.Trace("stats.statsd.start", "Start statsd client")
}

func (c *Client) Stop() {
	c.C.Close()
}

func (c *Client) SetLogger(l log.Logger) {
	c.logger = l
}

func (c *Client) Count(key string, n interface{}, meta ...map[string]string) {
	c.C.Count(key, n)
}

func (c *Client) Inc(key string, meta ...map[string]string) {
	c.C.Count(key, 1)
}

func (c *Client) Dec(key string, meta ...map[string]string) {
	c.C.Count(key, -1)
}

func (c *Client) Gauge(key string, n interface{}, meta ...map[string]string) {
	c.C.Gauge(key, n)
}

func (c *Client) Timing(key string, t time.Duration, meta ...map[string]string) {
	d := t.Nanoseconds() / 1000000
	c.C.Timing(key, d)
}

func (c *Client) Histogram(key string, n interface{}, meta ...map[string]string) {
	c.C.Histogram(key, n)
}
