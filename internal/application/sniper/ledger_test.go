package sniper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLedger_Remaining(t *testing.T) {
	l := NewExposureLedger(50, 200)

	assert.Equal(t, 0.0, l.Open())
	assert.Equal(t, 200.0, l.Remaining())
	assert.Equal(t, 50.0, l.MaxPositionSize())

	l.mu.Lock()
	l.open = 150
	l.mu.Unlock()

	assert.Equal(t, 50.0, l.Remaining())
}

func TestLedger_ReleaseClampsAtZero(t *testing.T) {
	l := NewExposureLedger(50, 200)

	l.mu.Lock()
	l.open = 10
	l.release(25)
	l.mu.Unlock()

	assert.Equal(t, 0.0, l.Open())
}
