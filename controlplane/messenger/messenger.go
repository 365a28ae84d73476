// Package messenger couples controlplane/message with controlplane/queue:
// endpoint-addressed send/receive with configuration.
package messenger

import (
	"fmt"
	"time"

	"github.com/revolution-robotics/control-plane/controlplane/message"
	"github.com/revolution-robotics/control-plane/controlplane/queue"
)

// Messenger is bound to one owning endpoint and knows how to address
// messages to any other endpoint by name.
type Messenger struct {
	endpoint string
	own      *queue.Queue
	opts     queue.Options
}

// Open opens (creating if absent) the named endpoint's own receive queue
// and returns a bound Messenger.
func Open(endpoint string, opts queue.Options) (*Messenger, error) {
	q, err := queue.Open(endpoint, 0, 0, opts)
	if err != nil {
		return nil, fmt.Errorf("messenger: open %q: %w", endpoint, err)
	}
	return &Messenger{endpoint: endpoint, own: q, opts: opts}, nil
}

// Endpoint returns the bound endpoint name.
func (m *Messenger) Endpoint() string { return m.endpoint }

// Send addresses a message to recipient and hands it to the transport.
// The destination queue is created lazily if the recipient process has
// never opened it.
func (m *Messenger) Send(recipient, header string, data []string, priority int) (message.Message, error) {
	msg := message.New(m.endpoint, recipient, header, data, priority)
	frame, err := msg.Serialize()
	if err != nil {
		return message.Message{}, fmt.Errorf("messenger: serialize: %w", err)
	}
	if err := queue.Send(recipient, frame, priority, m.opts); err != nil {
		return message.Message{}, fmt.Errorf("messenger: send to %q: %w", recipient, err)
	}
	return msg, nil
}

// SendMessage transmits an already-constructed message as-is, without
// assigning a fresh identity. Used by callers (Application.Communicate)
// that must register a response-table entry under msg.Identity before
// the request reaches the wire.
func (m *Messenger) SendMessage(msg message.Message) error {
	frame, err := msg.Serialize()
	if err != nil {
		return fmt.Errorf("messenger: serialize: %w", err)
	}
	if err := queue.Send(msg.Recipient, frame, msg.Priority, m.opts); err != nil {
		return fmt.Errorf("messenger: send to %q: %w", msg.Recipient, err)
	}
	return nil
}

// Reply sends data back to original's sender, tagged with the response
// header and original's identity so the caller can correlate it with its
// in-flight request.
func (m *Messenger) Reply(original message.Message, header string, data []string) (message.Message, error) {
	msg := message.Message{
		Sender:    m.endpoint,
		Recipient: original.Sender,
		Header:    header,
		Data:      append([]string(nil), data...),
		Priority:  original.Priority,
		Identity:  original.Identity,
	}
	frame, err := msg.Serialize()
	if err != nil {
		return message.Message{}, fmt.Errorf("messenger: serialize reply: %w", err)
	}
	if err := queue.Send(original.Sender, frame, original.Priority, m.opts); err != nil {
		return message.Message{}, fmt.Errorf("messenger: reply to %q: %w", original.Sender, err)
	}
	return msg, nil
}

// Receive blocks until one message addressed to this endpoint is
// available.
func (m *Messenger) Receive() (message.Message, error) {
	frame, err := m.own.Receive()
	if err != nil {
		return message.Message{}, err
	}
	return message.Deserialize(frame)
}

// TimedReceive blocks until deadline for one message; returns
// (msg, true, nil) on success, (zero, false, queue.ErrTimeout) on timeout.
func (m *Messenger) TimedReceive(deadline time.Time) (message.Message, bool, error) {
	frame, ok, err := m.own.TimedReceive(deadline)
	if err != nil || !ok {
		return message.Message{}, false, err
	}
	msg, err := message.Deserialize(frame)
	if err != nil {
		return message.Message{}, false, err
	}
	return msg, true, nil
}

// PendingCount returns the number of messages currently spooled for this
// endpoint's own queue.
func (m *Messenger) PendingCount() (int, error) {
	return m.own.PendingCount()
}

// Close releases the owning endpoint's queue handle.
func (m *Messenger) Close() error {
	return m.own.Close()
}
