// Package queue implements the host-local, named, bounded, priority-ordered
// message transport. Queues are backed by a spool directory rather than a
// live socket connection: a sender must be able to lazily create its
// recipient's queue without depending on the recipient process being up,
// which rules out a connection-oriented transport (a Unix socket requires
// an active listener to dial). A file-backed spool also keeps queued
// messages across process exits, the same durability a POSIX mqueue has.
package queue

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

const (
	// DefaultMaxMessageCount is the default bound on queued messages.
	DefaultMaxMessageCount = 8
	// DefaultMaxMessageSize is the default bound on a single frame's size.
	DefaultMaxMessageSize = 1024

	dirMode  = 0o750
	fileMode = 0o640

	pollInterval = 5 * time.Millisecond
)

// ErrFull is returned by Send when the queue has reached its message-count
// bound.
var ErrFull = errors.New("queue: full")

// ErrTooLarge is returned by Send when a frame exceeds the queue's
// message-size bound.
var ErrTooLarge = errors.New("queue: message exceeds max size")

// ErrClosed is returned by operations on a closed descriptor.
var ErrClosed = errors.New("queue: closed")

// ErrTimeout is returned by TimedReceive when the deadline elapses with no
// message available. Always distinguishable from I/O failure.
var ErrTimeout = errors.New("queue: timeout")

// Options tunes the bounds of a newly opened queue.
type Options struct {
	MaxMessageCount int
	MaxMessageSize  int
}

// DefaultOptions returns the default bounds: 8 messages, 1024 bytes.
func DefaultOptions() Options {
	return Options{MaxMessageCount: DefaultMaxMessageCount, MaxMessageSize: DefaultMaxMessageSize}
}

var seq uint64

func nextSeq() uint64 { return atomic.AddUint64(&seq, 1) }

// Queue is a descriptor over a named, host-local spool directory.
type Queue struct {
	name string
	dir  string
	opts Options

	mu     sync.Mutex
	cond   *sync.Cond
	closed bool
}

// BaseDir is the root directory under which every named queue's spool
// directory is created. Overridable so tests and the resetter utility can
// point at an isolated location.
var BaseDir = filepath.Join(os.TempDir(), "revolution-queues")

func queueDir(name string) string {
	return filepath.Join(BaseDir, name)
}

// Open returns a descriptor for the named queue, creating its spool
// directory if absent. Flags is accepted for interface parity with
// mq_open but is currently unused: every Open is effectively O_CREAT.
func Open(name string, flags int, mode os.FileMode, opts Options) (*Queue, error) {
	if opts.MaxMessageCount <= 0 {
		opts.MaxMessageCount = DefaultMaxMessageCount
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = DefaultMaxMessageSize
	}
	dir := queueDir(name)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, fmt.Errorf("queue: open %q: %w", name, err)
	}
	if err := unix.Access(dir, unix.W_OK); err != nil {
		return nil, fmt.Errorf("queue: open %q: spool not writable: %w", name, err)
	}
	q := &Queue{name: name, dir: dir, opts: opts}
	q.cond = sync.NewCond(&q.mu)
	return q, nil
}

// Name returns the queue's endpoint name.
func (q *Queue) Name() string { return q.name }

func (q *Queue) entries() ([]string, error) {
	ents, err := os.ReadDir(q.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".msg") {
			names = append(names, e.Name())
		}
	}
	// Filenames encode (inverted priority, sequence) so that a lexical sort
	// yields highest-priority-first, oldest-first-within-priority order —
	// the same ordering container/heap's priorityQueue.Less enforces
	// in-memory, expressed here as a sortable filename instead.
	sort.Strings(names)
	return names, nil
}

func frameName(priority int, sequence uint64) string {
	// Invert priority so that higher priority (which must be delivered
	// earlier) sorts lexically first.
	inverted := 1<<31 - priority
	return fmt.Sprintf("%010d-%020d.msg", inverted, sequence)
}

// Send writes bytes to the named queue, creating its spool directory
// lazily if it does not yet exist — callers need not have Opened first and
// need not depend on any receiver process being alive.
func Send(name string, data []byte, priority int, opts Options) error {
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = DefaultMaxMessageSize
	}
	if opts.MaxMessageCount <= 0 {
		opts.MaxMessageCount = DefaultMaxMessageCount
	}
	if len(data) > opts.MaxMessageSize {
		return ErrTooLarge
	}
	dir := queueDir(name)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("queue: send %q: %w", name, err)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("queue: send %q: %w", name, err)
	}
	count := 0
	for _, e := range ents {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".msg") {
			count++
		}
	}
	if count >= opts.MaxMessageCount {
		return ErrFull
	}

	fname := frameName(priority, nextSeq())
	tmp := filepath.Join(dir, "."+fname+".tmp")
	final := filepath.Join(dir, fname)
	if err := os.WriteFile(tmp, data, fileMode); err != nil {
		return fmt.Errorf("queue: send %q: %w", name, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("queue: send %q: %w", name, err)
	}
	return nil
}

// Send writes to this queue's own name, for callers holding a descriptor.
func (q *Queue) Send(data []byte, priority int) error {
	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if err := Send(q.name, data, priority, q.opts); err != nil {
		return err
	}
	q.mu.Lock()
	q.cond.Broadcast()
	q.mu.Unlock()
	return nil
}

func (q *Queue) popOldest() ([]byte, bool, error) {
	names, err := q.entries()
	if err != nil {
		return nil, false, err
	}
	if len(names) == 0 {
		return nil, false, nil
	}
	path := filepath.Join(q.dir, names[0])
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Raced with another receiver; caller should retry.
			return nil, false, nil
		}
		return nil, false, err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, false, err
	}
	return data, true, nil
}

// Receive blocks until one message is available, returning the oldest
// message at the highest priority.
func (q *Queue) Receive() ([]byte, error) {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return nil, ErrClosed
		}
		q.mu.Unlock()

		data, ok, err := q.popOldest()
		if err != nil {
			return nil, fmt.Errorf("queue: receive %q: %w", q.name, err)
		}
		if ok {
			return data, nil
		}
		q.waitOrPoll(pollInterval)
	}
}

// TimedReceive blocks until one message is available or deadline elapses,
// in which case it returns (nil, false, ErrTimeout). A non-timeout failure
// is distinguished by a non-nil error.
func (q *Queue) TimedReceive(deadline time.Time) ([]byte, bool, error) {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return nil, false, ErrClosed
		}
		q.mu.Unlock()

		data, ok, err := q.popOldest()
		if err != nil {
			return nil, false, fmt.Errorf("queue: timed_receive %q: %w", q.name, err)
		}
		if ok {
			return data, true, nil
		}
		if time.Now().After(deadline) {
			return nil, false, ErrTimeout
		}
		remaining := time.Until(deadline)
		wait := pollInterval
		if remaining < wait {
			wait = remaining
		}
		if wait <= 0 {
			return nil, false, ErrTimeout
		}
		q.waitOrPoll(wait)
	}
}

// TryReceive returns immediately: (data, true, nil) if a message was
// available, (nil, false, nil) if the queue was empty.
func (q *Queue) TryReceive() ([]byte, bool, error) {
	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return nil, false, ErrClosed
	}
	data, ok, err := q.popOldest()
	if err != nil {
		return nil, false, fmt.Errorf("queue: try_receive %q: %w", q.name, err)
	}
	return data, ok, nil
}

// waitOrPoll blocks for about d (never more than d plus one poll
// interval), waking early if Send broadcasts the
// queue's condition variable (the common case of an in-process sender
// sharing this *Queue value). A timer always bounds the wait so
// cross-process writers, which cannot reach this Cond, are still observed
// within one poll interval.
func (q *Queue) waitOrPoll(d time.Duration) {
	done := make(chan struct{})
	timer := time.AfterFunc(d, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	defer timer.Stop()

	go func() {
		q.mu.Lock()
		q.cond.Wait()
		q.mu.Unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(d + pollInterval):
	}
}

// Unlink removes the queue from the host namespace. The side effect
// persists across process exit. The spool directory is deleted together
// with every message still in it, so handles already open find the queue
// empty; they do not drain the messages that were pending at unlink.
func Unlink(name string) error {
	if err := os.RemoveAll(queueDir(name)); err != nil {
		return fmt.Errorf("queue: unlink %q: %w", name, err)
	}
	return nil
}

// PendingCount returns the number of messages currently spooled for this
// queue.
func (q *Queue) PendingCount() (int, error) {
	names, err := q.entries()
	if err != nil {
		return 0, err
	}
	return len(names), nil
}

// Close releases this process's handle. It does not remove the spool
// directory; use Unlink for that.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	q.cond.Broadcast()
	return nil
}
