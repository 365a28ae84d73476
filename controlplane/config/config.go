// Package config carries the runtime tunables shared by every endpoint
// process: receive deadline, heart period, worker pool size, queue
// bounds, and the replica sync interval.
package config

import (
	"time"

	"github.com/revolution-robotics/control-plane/controlplane/queue"
)

// EndpointOverride tunes a single endpoint beyond the process-wide
// defaults. QueueOptions applies MaxMessageCount and MaxMessageSize, and
// zero values there fall back to the global values. Priority is stored
// but not applied: nothing in this module reads it.
type EndpointOverride struct {
	Priority        int `json:"priority,omitempty"`
	MaxMessageCount int `json:"max_message_count,omitempty"`
	MaxMessageSize  int `json:"max_message_size,omitempty"`
}

// RuntimeConfig is the JSON-tagged configuration struct threaded into
// every Application at construction.
type RuntimeConfig struct {
	ReceiveDeadline   time.Duration `json:"receive_deadline"`
	HeartPeriod       time.Duration `json:"heart_period"`
	WorkerPoolSize    int           `json:"worker_pool_size"`
	QueueMaxCount     int           `json:"queue_max_count"`
	QueueMaxSize      int           `json:"queue_max_size"`
	ReplicaSyncPeriod time.Duration `json:"replica_sync_period"`

	EndpointOverrides map[string]EndpointOverride `json:"endpoint_overrides,omitempty"`
}

// DefaultRuntimeConfig returns the stock tuning: queue bounds of 8
// messages / 1024 bytes, a 500ms replica sync period, and a short receive
// deadline so shutdown is observed within one tick.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		ReceiveDeadline:   100 * time.Millisecond,
		HeartPeriod:       1 * time.Second,
		WorkerPoolSize:    0, // 0 = hardware concurrency
		QueueMaxCount:     queue.DefaultMaxMessageCount,
		QueueMaxSize:      queue.DefaultMaxMessageSize,
		ReplicaSyncPeriod: 500 * time.Millisecond,
	}
}

// Option mutates a RuntimeConfig at construction time.
type Option func(*RuntimeConfig)

// WithReceiveDeadline overrides the receive-loop's timed-receive deadline.
func WithReceiveDeadline(d time.Duration) Option {
	return func(c *RuntimeConfig) { c.ReceiveDeadline = d }
}

// WithHeartPeriod overrides the heart's tick period.
func WithHeartPeriod(d time.Duration) Option {
	return func(c *RuntimeConfig) { c.HeartPeriod = d }
}

// WithWorkerPoolSize overrides the worker pool's fixed size.
func WithWorkerPoolSize(n int) Option {
	return func(c *RuntimeConfig) { c.WorkerPoolSize = n }
}

// WithReplicaSyncPeriod overrides the replica's full-state dump interval.
func WithReplicaSyncPeriod(d time.Duration) Option {
	return func(c *RuntimeConfig) { c.ReplicaSyncPeriod = d }
}

// WithEndpointOverride sets a per-endpoint tuning override.
func WithEndpointOverride(endpoint string, override EndpointOverride) Option {
	return func(c *RuntimeConfig) {
		if c.EndpointOverrides == nil {
			c.EndpointOverrides = make(map[string]EndpointOverride)
		}
		c.EndpointOverrides[endpoint] = override
	}
}

// New builds a RuntimeConfig from the defaults plus any options.
func New(opts ...Option) RuntimeConfig {
	c := DefaultRuntimeConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// QueueOptions derives queue.Options for endpoint, applying any
// per-endpoint override.
func (c RuntimeConfig) QueueOptions(endpoint string) queue.Options {
	opts := queue.Options{MaxMessageCount: c.QueueMaxCount, MaxMessageSize: c.QueueMaxSize}
	if o, ok := c.EndpointOverrides[endpoint]; ok {
		if o.MaxMessageCount > 0 {
			opts.MaxMessageCount = o.MaxMessageCount
		}
		if o.MaxMessageSize > 0 {
			opts.MaxMessageSize = o.MaxMessageSize
		}
	}
	return opts
}
