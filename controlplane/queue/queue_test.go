package queue

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTempBase(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	old := BaseDir
	BaseDir = dir
	t.Cleanup(func() { BaseDir = old })
}

func TestSendReceiveOrdersByPriorityThenAge(t *testing.T) {
	withTempBase(t)

	require.NoError(t, Send("alpha", []byte("low"), 0, DefaultOptions()))
	require.NoError(t, Send("alpha", []byte("high"), 5, DefaultOptions()))
	require.NoError(t, Send("alpha", []byte("low2"), 0, DefaultOptions()))

	q, err := Open("alpha", 0, 0, DefaultOptions())
	require.NoError(t, err)
	defer q.Close()

	first, err := q.Receive()
	require.NoError(t, err)
	assert.Equal(t, "high", string(first))

	second, err := q.Receive()
	require.NoError(t, err)
	assert.Equal(t, "low", string(second))

	third, err := q.Receive()
	require.NoError(t, err)
	assert.Equal(t, "low2", string(third))
}

func TestSendFailsWhenFull(t *testing.T) {
	withTempBase(t)
	opts := Options{MaxMessageCount: 2, MaxMessageSize: DefaultMaxMessageSize}

	require.NoError(t, Send("bravo", []byte("a"), 0, opts))
	require.NoError(t, Send("bravo", []byte("b"), 0, opts))
	err := Send("bravo", []byte("c"), 0, opts)
	assert.ErrorIs(t, err, ErrFull)
}

func TestSendFailsWhenTooLarge(t *testing.T) {
	withTempBase(t)
	opts := Options{MaxMessageCount: 8, MaxMessageSize: 4}
	err := Send("charlie", []byte("too long"), 0, opts)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestTimedReceiveTimesOut(t *testing.T) {
	withTempBase(t)
	q, err := Open("delta", 0, 0, DefaultOptions())
	require.NoError(t, err)
	defer q.Close()

	_, ok, err := q.TimedReceive(time.Now().Add(20 * time.Millisecond))
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestLazyQueueCreationBySender(t *testing.T) {
	withTempBase(t)
	// No Open call precedes Send: the recipient need not exist yet.
	require.NoError(t, Send("echo", []byte("ping"), 0, DefaultOptions()))

	q, err := Open("echo", 0, 0, DefaultOptions())
	require.NoError(t, err)
	defer q.Close()

	data, err := q.Receive()
	require.NoError(t, err)
	assert.Equal(t, "ping", string(data))
}

func TestUnlinkRemovesSpool(t *testing.T) {
	withTempBase(t)
	require.NoError(t, Send("foxtrot", []byte("x"), 0, DefaultOptions()))
	require.NoError(t, Unlink("foxtrot"))

	_, err := os.Stat(queueDir("foxtrot"))
	assert.True(t, os.IsNotExist(err))
}

func TestTryReceiveNonBlocking(t *testing.T) {
	withTempBase(t)
	q, err := Open("golf", 0, 0, DefaultOptions())
	require.NoError(t, err)
	defer q.Close()

	_, ok, err := q.TryReceive()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, q.Send([]byte("hi"), 0))
	data, ok, err := q.TryReceive()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hi", string(data))
}
