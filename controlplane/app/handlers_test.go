package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revolution-robotics/control-plane/controlplane/message"
)

func TestResetClearsStateThenAppliesPairs(t *testing.T) {
	withTempQueues(t)
	a := newTestApp(t, "reset-app")
	a.state.Write("old", "1")
	a.state.Write("stale", "2")

	_, err := handleReset(a, message.Message{Sender: "x", Data: []string{"fresh", "3"}})
	require.NoError(t, err)

	_, ok := a.Get("old")
	assert.False(t, ok)
	_, ok = a.Get("stale")
	assert.False(t, ok)
	v, ok := a.Get("fresh")
	require.True(t, ok)
	assert.Equal(t, "3", v)
}

func TestSyncRepliesWithSortedFullSnapshot(t *testing.T) {
	withTempQueues(t)
	a := newTestApp(t, "sync-app")
	a.state.Write("b", "2")
	a.state.Write("a", "1")
	a.state.Write("c", "3")

	data, err := handleSync(a, message.Message{Sender: "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "1", "b", "2", "c", "3"}, data)
}

func TestGetWithoutArgumentsReturnsAllKeys(t *testing.T) {
	withTempQueues(t)
	a := newTestApp(t, "get-all-app")
	a.state.Write("y", "2")
	a.state.Write("x", "1")

	data, err := handleGet(a, message.Message{Sender: "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "1", "y", "2"}, data)
}

func TestStatusRepliesEmpty(t *testing.T) {
	withTempQueues(t)
	a := newTestApp(t, "status-app")

	data, err := handleStatus(a, message.Message{Sender: "x"})
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestMainRunsUntilExit(t *testing.T) {
	withTempQueues(t)

	a, err := New("main-app", nil, testConfig())
	require.NoError(t, err)
	a.SetAbortFunc(func() {})

	mainDone := make(chan error, 1)
	go func() { mainDone <- a.Main() }()

	require.Eventually(t, func() bool {
		return a.State() == Running
	}, time.Second, 5*time.Millisecond)

	_, err = a.messenger.Send("main-app", "exit", nil, 0)
	require.NoError(t, err)

	select {
	case err := <-mainDone:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Main did not return after exit")
	}
	assert.Equal(t, Terminated, a.State())
}

func TestCommunicateTimeoutWhenPeerNeverReplies(t *testing.T) {
	withTempQueues(t)

	a := newTestApp(t, "lonely-app")
	done := runInBackground(t, a)

	// "ghost" exists only as a lazily created queue; nothing drains it.
	_, err := a.CommunicateTimeout("ghost", "get", nil, 0, 100*time.Millisecond)
	assert.ErrorIs(t, err, ErrCommunicateTimeout)

	a.RequestStop()
	<-done
}

func TestUnknownHeaderGetsNoReply(t *testing.T) {
	withTempQueues(t)

	server := newTestApp(t, "server-unknown")
	serverDone := runInBackground(t, server)

	client := newTestApp(t, "client-unknown")
	clientDone := runInBackground(t, client)

	_, err := client.CommunicateTimeout("server-unknown", "no_such_verb", nil, 0, 150*time.Millisecond)
	assert.ErrorIs(t, err, ErrCommunicateTimeout)

	client.RequestStop()
	server.RequestStop()
	<-clientDone
	<-serverDone
}
