package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	m := Message{
		Sender:    "a",
		Recipient: "b",
		Header:    "set",
		Data:      []string{"k", "v"},
		Priority:  0,
		Identity:  3,
	}

	frame, err := m.Serialize()
	require.NoError(t, err)

	got, err := Deserialize(frame)
	require.NoError(t, err)
	assert.True(t, m.Equal(got), "round trip must preserve the message: got %+v", got)
}

func TestSerializeFieldOrder(t *testing.T) {
	m := Message{Sender: "a", Recipient: "b", Header: "set", Data: []string{"k", "v"}, Priority: 0, Identity: 3}
	frame, err := m.Serialize()
	require.NoError(t, err)
	assert.Equal(t, "a\x00b\x00set\x00k\x00v\x000\x003\x00", string(frame))
}

func TestSerializeEmptyData(t *testing.T) {
	m := New("a", "b", "status", nil, 0)
	frame, err := m.Serialize()
	require.NoError(t, err)

	got, err := Deserialize(frame)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Sender)
	assert.Equal(t, "status", got.Header)
	assert.Empty(t, got.Data)
}

func TestSerializeRejectsEmbeddedDelimiter(t *testing.T) {
	m := Message{Sender: "a", Recipient: "b", Header: "set", Data: []string{"k\x00ey", "v"}}
	_, err := m.Serialize()
	require.ErrorIs(t, err, ErrContainsDelimiter)
}

func TestDeserializeRejectsShortFrames(t *testing.T) {
	_, err := Deserialize([]byte("a\x00b\x00set\x00"))
	require.ErrorIs(t, err, ErrParse)
}

func TestDeserializeRejectsNonNumericTail(t *testing.T) {
	_, err := Deserialize([]byte("a\x00b\x00set\x00k\x00v\x00zero\x00three\x00"))
	require.ErrorIs(t, err, ErrParse)
}

func TestIdentityMonotonicity(t *testing.T) {
	m1 := New("a", "b", "status", nil, 0)
	m2 := New("a", "b", "status", nil, 0)
	m3 := New("a", "b", "status", nil, 0)
	assert.Less(t, m1.Identity, m2.Identity)
	assert.Less(t, m2.Identity, m3.Identity)
}
