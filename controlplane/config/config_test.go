package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/revolution-robotics/control-plane/controlplane/queue"
)

func TestDefaultsMatchQueueBounds(t *testing.T) {
	cfg := DefaultRuntimeConfig()
	assert.Equal(t, queue.DefaultMaxMessageCount, cfg.QueueMaxCount)
	assert.Equal(t, queue.DefaultMaxMessageSize, cfg.QueueMaxSize)
	assert.Equal(t, 500*time.Millisecond, cfg.ReplicaSyncPeriod)
}

func TestOptionsOverrideDefaults(t *testing.T) {
	cfg := New(
		WithReceiveDeadline(25*time.Millisecond),
		WithHeartPeriod(time.Second),
		WithWorkerPoolSize(3),
	)
	assert.Equal(t, 25*time.Millisecond, cfg.ReceiveDeadline)
	assert.Equal(t, time.Second, cfg.HeartPeriod)
	assert.Equal(t, 3, cfg.WorkerPoolSize)
}

func TestQueueOptionsAppliesEndpointOverride(t *testing.T) {
	cfg := New(WithEndpointOverride("motor", EndpointOverride{
		MaxMessageCount: 32,
	}))

	motor := cfg.QueueOptions("motor")
	assert.Equal(t, 32, motor.MaxMessageCount)
	assert.Equal(t, cfg.QueueMaxSize, motor.MaxMessageSize, "unset override fields keep the global value")

	other := cfg.QueueOptions("voltage")
	assert.Equal(t, cfg.QueueMaxCount, other.MaxMessageCount)
}
