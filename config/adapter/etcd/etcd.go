// Package etcd reads configuration from an etcd cluster
package etcd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/pkg/errors"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/stairlin/relay/config"
)

// Name contains the adapter registered name
const Name = "etcd"

const requestTimeout = 3 * time.Second

// New returns a new etcd config store.
// The config is expected to be a JSON document stored under the URI path.
//
// e.g. etcd://10.0.0.7:2379/config/api
func New(uri *url.URL) (config.Store, error) {
	cfg := clientv3.Config{
		Endpoints:   []string{uri.Host},
		DialTimeout: 5 * time.Second,
		Username:    uri.User.Username(),
	}
	if pwd, ok := uri.User.Password(); ok {
		cfg.Password = pwd
	}

	etcd, err := clientv3.New(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "cannot initialise etcd client")
	}

	return &Store{etcd: etcd, key: uri.Path}, nil
}

// Store reads config from etcd
type Store struct {
	etcd *clientv3.Client
	key  string
}

// Load config for the given environment
func (s *Store) Load(c interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	res, err := s.etcd.Get(ctx, s.key)
	if err != nil {
		return errors.Wrap(err, "cannot load config from etcd")
	}
	if len(res.Kvs) == 0 {
		return fmt.Errorf("config key does not exist <%s>", s.key)
	}

	if err := json.Unmarshal(res.Kvs[0].Value, c); err != nil {
		return errors.Wrap(err, "cannot parse config from etcd")
	}
	return nil
}
