package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSetsOnlyData(t *testing.T) {
	m := New("hello")

	assert.Equal(t, &Message{Data: "hello"}, m)
}

func TestGetDataNilSafe(t *testing.T) {
	var m *Message
	assert.Equal(t, "", m.GetData())
	assert.Equal(t, "x", New("x").GetData())
}
