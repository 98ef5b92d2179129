package jobqueue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManagerSingleton(t *testing.T) {
	m1 := GetManager()
	m2 := GetManager()
	assert.Same(t, m1, m2)
}

func TestManagerStartStop(t *testing.T) {
	m := GetManager()
	assert.False(t, m.IsRunning())

	m.Start()
	assert.True(t, m.IsRunning())

	// Starting twice is a no-op
	m.Start()
	assert.True(t, m.IsRunning())

	m.Stop()
	assert.False(t, m.IsRunning())

	// Stopping twice is a no-op
	m.Stop()
	assert.False(t, m.IsRunning())
}
