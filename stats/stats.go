// Package stats defines the metrics surface exposed to the rest of the
// framework. Adapters ship the collected measures to a metrics backend.
package stats

import (
	"time"

	"github.com/stairlin/relay/log"
)

// Stats is an interface for app statistics
type Stats interface {
	// Start connects the adapter and starts its flush loop when it has one.
	// It is dispatched as a background job during the app boot sequence
	Start()
	Stop()
	SetLogger(l log.Logger)

	Count(key string, n interface{}, meta ...map[string]string)
	Inc(key string, meta ...map[string]string)
	Dec(key string, meta ...map[string]string)
	Gauge(key string, n interface{}, meta ...map[string]string)
	Timing(key string, t time.Duration, meta ...map[string]string)
	Histogram(key string, n interface{}, meta ...map[string]string)
}

// Metric is a measure at a given time
type Metric struct {
	Key    string
	Values map[string]interface{}
	T      time.Time
	Meta   map[string]string
}

// NewMetric builds a metric with a single value
func NewMetric(key string, v interface{}, meta []map[string]string) *Metric {
	return &Metric{
		Key:    key,
		Values: map[string]interface{}{"value": v},
		T:      time.Now(),
		Meta:   flattenMeta(meta),
	}
}

func flattenMeta(meta []map[string]string) map[string]string {
	m := map[string]string{}
	for _, tags := range meta {
		for k, v := range tags {
			m[k] = v
		}
	}
	return m
}
