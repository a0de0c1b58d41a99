// Package influxdb ships measures to an InfluxDB database using the line
// protocol over HTTP
package influxdb

import (
	"fmt"
	"strings"
	"sync"
	"time"

	influx "github.com/influxdata/influxdb1-client/v2"

	"github.com/stairlin/relay/config"
	"github.com/stairlin/relay/log"
	"github.com/stairlin/relay/stats"
)

// Name contains the adapter registered name
const Name = "influxdb"

const flushPeriod = 5 * time.Second

func New(c map[string]string) (stats.Stats, error) {
	url := config.ValueOf(c["url"])
	client, err := influx.NewHTTPClient(influx.HTTPConfig{
		Addr:     url,
		Username: config.ValueOf(c["username"]),
		Password: config.ValueOf(c["password"]),
	})
	if err != nil {
		return nil, fmt.Errorf("influxdb client err (%s)", err)
	}

	dbConfig := influx.BatchPointsConfig{
		Database:  c["database"],
		Precision: c["precision"],
	}

	return &InfluxDB{
		url:    url,
		client: client,
		config: dbConfig,
		done:   make(chan bool, 1),
	}, nil
}

// InfluxDB is a stats module that sends data to... *drumroll*... InfluxDB!
type InfluxDB struct {
	mu      sync.Mutex
	metrics []*stats.Metric
	url     string
	client  influx.Client
	config  influx.BatchPointsConfig
	logger  log.Logger
	done    chan bool
}

func (s *InfluxDB) SetLogger(l log.Logger) {
	s.logger = l
}

func (s *InfluxDB) Start() {
	s.logger.Trace("stats.influxdb.start", "Connecting...",
		log.String("url", s.url),
	)

	tick := time.NewTicker(flushPeriod)
	defer tick.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-tick.C:
			s.flush()
		}
	}
}

func (s *InfluxDB) Stop() {
	s.done <- true
	s.flush()
	s.client.Close()
}

func (s *InfluxDB) Count(key string, n interface{}, meta ...map[string]string) {
	s.add(stats.NewMetric(key, n, meta))
}

func (s *InfluxDB) Inc(key string, meta ...map[string]string) {
	s.Count(key, 1, meta...)
}

func (s *InfluxDB) Dec(key string, meta ...map[string]string) {
	s.Count(key, -1, meta...)
}

func (s *InfluxDB) Gauge(key string, n interface{}, meta ...map[string]string) {
	s.add(stats.NewMetric(key, n, meta))
}

func (s *InfluxDB) Timing(key string, t time.Duration, meta ...map[string]string) {
	s.add(stats.NewMetric(key, t.Nanoseconds()/1000000, meta))
}

func (s *InfluxDB) Histogram(key string, n interface{}, meta ...map[string]string) {
	s.add(stats.NewMetric(key, n, meta))
}

func (s *InfluxDB) add(metric *stats.Metric) {
	s.mu.Lock()
	s.metrics = append(s.metrics, metric)
	s.mu.Unlock()
}

func (s *InfluxDB) flush() {
	batch, err := s.buildBatch()
	if err != nil {
		s.logger.Error("stats.influxdb.batch", "Cannot build batch",
			log.Error(err),
		)
		return
	}

	if len(batch.Points()) == 0 {
		return // don't send an empty batch
	}

	if err := s.client.Write(batch); err != nil {
		if strings.Contains(err.Error(), "database not found") {
			s.logger.Warning("stats.influxdb.db", "Database does not exist",
				log.String("database", s.config.Database),
			)
			s.createDB()
			return
		}
		s.logger.Error("stats.influxdb.write", "Cannot write batch",
			log.Error(err),
		)
	}
}

func (s *InfluxDB) buildBatch() (influx.BatchPoints, error) {
	batch, err := influx.NewBatchPoints(s.config)
	if err != nil {
		return nil, err
	}

	// Flush metrics
	s.mu.Lock()
	metrics := s.metrics
	s.metrics = nil
	s.mu.Unlock()

	// Build points
	for _, metric := range metrics {
		p, err := influx.NewPoint(
			metric.Key,
			metric.Meta,
			metric.Values,
			metric.T,
		)
		if err != nil {
			s.logger.Error("stats.influxdb.point", "Cannot build point",
				log.Error(err),
			)
			continue
		}

		batch.AddPoint(p)
	}

	return batch, nil
}

func (s *InfluxDB) createDB() {
	q := influx.NewQuery(
		fmt.Sprintf("CREATE DATABASE %s", s.config.Database),
		"",
		"",
	)
	if response, err := s.client.Query(q); err == nil && response.Error() != nil {
		s.logger.Error("stats.influxdb.createdb", "Cannot create database",
			log.String("database", s.config.Database),
			log.Error(response.Error()),
		)
	}
}
