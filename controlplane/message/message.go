// Package message implements the framed value type shared by every
// endpoint: deterministic NUL-delimited serialization and a process-wide
// monotonic identity counter used to correlate requests with replies.
package message

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
)

// delimiter is the sole framing byte. Data entries must never contain it.
const delimiter = "\x00"

// ErrParse indicates a malformed frame: fewer than five tokens, or a
// non-numeric priority/identity tail.
var ErrParse = errors.New("message: parse error")

// ErrContainsDelimiter indicates a data entry (or name) contains the NUL
// framing byte and cannot be serialized.
var ErrContainsDelimiter = errors.New("message: field contains NUL delimiter")

// identityCounter is the process-wide monotonic source for Message.Identity.
// A single atomic 64-bit counter: initial value 0, never reset.
var identityCounter uint64

// NextIdentity returns a strictly increasing identity value, unique within
// this process.
func NextIdentity() uint64 {
	return atomic.AddUint64(&identityCounter, 1)
}

// Message is the immutable frame exchanged between endpoints.
type Message struct {
	Sender    string
	Recipient string
	Header    string
	Data      []string
	Priority  int
	Identity  uint64
}

// New constructs a Message and stamps it with a fresh process-local
// identity. Priority is informational within the frame; queue delivery
// order is governed by the priority passed to the transport, not this
// field.
func New(sender, recipient, header string, data []string, priority int) Message {
	return Message{
		Sender:    sender,
		Recipient: recipient,
		Header:    header,
		Data:      append([]string(nil), data...),
		Priority:  priority,
		Identity:  NextIdentity(),
	}
}

// Equal reports whether two messages carry identical field values.
func (m Message) Equal(other Message) bool {
	if m.Sender != other.Sender || m.Recipient != other.Recipient ||
		m.Header != other.Header || m.Priority != other.Priority ||
		m.Identity != other.Identity || len(m.Data) != len(other.Data) {
		return false
	}
	for i := range m.Data {
		if m.Data[i] != other.Data[i] {
			return false
		}
	}
	return true
}

// Serialize concatenates fields with NUL separators in the order: sender,
// recipient, header, data[0]...data[n-1], decimal priority, decimal
// identity, trailing NUL.
func (m Message) Serialize() ([]byte, error) {
	fields := make([]string, 0, 5+len(m.Data))
	fields = append(fields, m.Sender, m.Recipient, m.Header)
	fields = append(fields, m.Data...)
	fields = append(fields, strconv.Itoa(m.Priority), strconv.FormatUint(m.Identity, 10))

	for _, f := range fields {
		if strings.Contains(f, delimiter) {
			return nil, ErrContainsDelimiter
		}
	}

	return []byte(strings.Join(fields, delimiter) + delimiter), nil
}

// Deserialize splits a frame on NUL. The last two tokens are numeric
// (priority, identity); the first three are fixed positions (sender,
// recipient, header); the remainder forms Data.
func Deserialize(frame []byte) (Message, error) {
	s := string(frame)
	s = strings.TrimSuffix(s, delimiter)
	tokens := strings.Split(s, delimiter)

	if len(tokens) < 5 {
		return Message{}, fmt.Errorf("%w: expected at least 5 tokens, got %d", ErrParse, len(tokens))
	}

	identity, err := strconv.ParseUint(tokens[len(tokens)-1], 10, 64)
	if err != nil {
		return Message{}, fmt.Errorf("%w: non-numeric identity %q: %v", ErrParse, tokens[len(tokens)-1], err)
	}
	priority, err := strconv.Atoi(tokens[len(tokens)-2])
	if err != nil {
		return Message{}, fmt.Errorf("%w: non-numeric priority %q: %v", ErrParse, tokens[len(tokens)-2], err)
	}

	data := tokens[3 : len(tokens)-2]

	return Message{
		Sender:    tokens[0],
		Recipient: tokens[1],
		Header:    tokens[2],
		Data:      append([]string(nil), data...),
		Priority:  priority,
		Identity:  identity,
	}, nil
}
