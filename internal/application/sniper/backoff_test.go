package sniper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff_Sequence(t *testing.T) {
	b := &Backoff{Base: time.Second, Factor: 2.0, Max: 30 * time.Second}

	expected := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second, // 32 recortado al techo
		30 * time.Second,
	}
	for i, want := range expected {
		assert.Equal(t, want, b.Next(), "paso %d", i)
	}
}

func TestBackoff_Reset(t *testing.T) {
	b := DefaultBackoff()

	b.Next()
	b.Next()
	b.Reset()

	assert.Equal(t, time.Second, b.Next(), "tras Reset vuelve al base")
}
