package utilities

import (
	"testing"

	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID_Increasing(t *testing.T) {
	prev := NewID()
	for i := 0; i < 100; i++ {
		id := NewID()
		assert.Greater(t, id, prev)
		prev = id
	}
}

func TestSetSnowflakeNode_OutOfRange(t *testing.T) {
	assert.Error(t, SetSnowflakeNode(4096))
	require.NoError(t, SetSnowflakeNode(1))
}

func TestNewKSUID_Parses(t *testing.T) {
	s := NewKSUID()
	_, err := ksuid.Parse(s)
	assert.NoError(t, err)
	assert.NotEqual(t, s, NewKSUID())
}
