package heart

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestHeartSurvivesWhenBeaten(t *testing.T) {
	var aborted atomic.Bool
	var ticks atomic.Int32

	h := New(20*time.Millisecond, func() { ticks.Add(1) }, func() { aborted.Store(true) }, nil)
	defer h.Stop()

	for i := 0; i < 5; i++ {
		h.Beat()
		time.Sleep(20 * time.Millisecond)
	}

	assert.False(t, aborted.Load(), "heart must not abort while beat() is called every period")
	assert.Greater(t, ticks.Load(), int32(0))
}

func TestHeartAbortsOnMissedBeat(t *testing.T) {
	var aborted atomic.Bool
	done := make(chan struct{})

	h := New(30*time.Millisecond, nil, func() {
		aborted.Store(true)
		close(done)
	}, nil)
	defer h.Stop()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("heart did not abort within expected window")
	}

	require.True(t, aborted.Load())
}
