package app

import (
	"sync"
	"time"

	"github.com/revolution-robotics/control-plane/controlplane/message"
)

// responseTable correlates in-flight requests with their eventual
// response message. Lock ordering: the response mutex is the outermost
// lock acquired by any path that also touches the state, watcher, or
// handler locks.
type responseTable struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending map[uint64]*message.Message // nil value = not yet resolved
}

func newResponseTable() *responseTable {
	t := &responseTable{pending: make(map[uint64]*message.Message)}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// register inserts identity into the table before the request is sent.
func (t *responseTable) register(identity uint64) {
	t.mu.Lock()
	t.pending[identity] = nil
	t.mu.Unlock()
}

// forget removes identity without waiting, used to clean up on send
// failure.
func (t *responseTable) forget(identity uint64) {
	t.mu.Lock()
	delete(t.pending, identity)
	t.mu.Unlock()
}

// resolve is called by the receive path when a `response` message with a
// matching identity arrives. Broadcasting (not single-notify) is
// required: multiple callers may be waiting on distinct identities on one
// shared condition variable.
func (t *responseTable) resolve(msg message.Message) (matched bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.pending[msg.Identity]; !ok {
		return false
	}
	m := msg
	t.pending[msg.Identity] = &m
	t.cond.Broadcast()
	return true
}

// wait blocks until identity's entry is resolved, then removes and
// returns it. No timeout; callers with no deadline may block forever if
// the peer never replies.
func (t *responseTable) wait(identity uint64) message.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	for t.pending[identity] == nil {
		t.cond.Wait()
	}
	m := *t.pending[identity]
	delete(t.pending, identity)
	return m
}

// waitTimeout blocks until identity's entry is resolved or deadline
// elapses. A timer goroutine broadcasts the condition variable at
// deadline so a genuinely-never-answered wait still returns.
func (t *responseTable) waitTimeout(identity uint64, deadline time.Time) (message.Message, bool) {
	timer := time.AfterFunc(time.Until(deadline), func() {
		t.mu.Lock()
		t.cond.Broadcast()
		t.mu.Unlock()
	})
	defer timer.Stop()

	t.mu.Lock()
	defer t.mu.Unlock()
	for t.pending[identity] == nil {
		if !time.Now().Before(deadline) {
			delete(t.pending, identity)
			return message.Message{}, false
		}
		t.cond.Wait()
	}
	m := *t.pending[identity]
	delete(t.pending, identity)
	return m, true
}
