package stream_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aiscatcherd/aiscatcherd/pkg/stream"
)

func TestConnection_SendRoutesByGroupMask(t *testing.T) {
	c := stream.NewConnection[string](0xFFFF)

	var gotA, gotB []string
	recvA := &stream.FuncReceiver[string]{Groups: 0b0001, Fn: func(data string, tag stream.Tag) {
		gotA = append(gotA, data)
	}}
	recvB := &stream.FuncReceiver[string]{Groups: 0b0010, Fn: func(data string, tag stream.Tag) {
		gotB = append(gotB, data)
	}}
	c.Connect(recvA)
	c.Connect(recvB)

	c.Send("only-a", stream.Tag{Group: 0b0001})
	c.Send("only-b", stream.Tag{Group: 0b0010})
	c.Send("both", stream.Tag{Group: 0b0011})
	c.Send("neither", stream.Tag{Group: 0b0100})

	assert.Equal(t, []string{"only-a", "both"}, gotA)
	assert.Equal(t, []string{"only-b", "both"}, gotB)
}

func TestConnection_CanConnect(t *testing.T) {
	c := stream.NewConnection[int](0b0011)
	assert.True(t, c.CanConnect(0b0001))
	assert.True(t, c.CanConnect(0b0010))
	assert.False(t, c.CanConnect(0b1100))
}
