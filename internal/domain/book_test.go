package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var t0 = time.Unix(1770034500, 0)

func TestBookState_NotTriggerableBeforeWarm(t *testing.T) {
	b := NewBookState(0)

	// Snapshot inicial con el artefacto clásico: ambos lados ~0.99
	b.ApplySnapshot(SideUp, Quote{Price: 0.99, Size: 100}, t0)
	b.ApplySnapshot(SideDown, Quote{Price: 0.99, Size: 100}, t0)

	assert.False(t, b.WarmedUp())
	assert.False(t, b.Triggerable(), "sin warm-up nunca dispara, con cualquier precio")
}

func TestBookState_FirstDeltaMarksWarm(t *testing.T) {
	b := NewBookState(0)
	b.ApplySnapshot(SideUp, Quote{Price: 0.99}, t0)
	b.ApplySnapshot(SideDown, Quote{Price: 0.99}, t0)

	b.ApplyChange(SideUp, Quote{Price: 0.97, Size: 50}, t0.Add(time.Second))
	b.ApplyChange(SideDown, Quote{Price: 0.05, Size: 80}, t0.Add(time.Second))

	assert.True(t, b.WarmedUp())
	assert.True(t, b.Triggerable())
	assert.Equal(t, 4, b.Updates())
}

func TestBookState_DeltaBeforeSnapshotDoesNotWarm(t *testing.T) {
	b := NewBookState(0)
	b.ApplyChange(SideUp, Quote{Price: 0.90}, t0)

	assert.False(t, b.WarmedUp(), "un delta sin snapshot previo no marca warm")
}

func TestBookState_StaleSumBlocks(t *testing.T) {
	b := warmBook(0.99, 0.99)
	// sum = 1.98: artefacto "recién conectado"
	assert.False(t, b.Triggerable())
}

func TestBookState_ThinBookIsNotStale(t *testing.T) {
	// sum = 0.24: ilíquido pero real — debe disparar
	b := warmBook(0.14, 0.10)
	assert.True(t, b.Triggerable())
}

func TestBookState_SumAtBound(t *testing.T) {
	b := warmBook(0.97, 0.18)
	assert.InDelta(t, 1.15, b.PriceSum(), 1e-9)
	assert.True(t, b.Triggerable(), "el límite es inclusivo")
}

func TestBookState_MissingSideBlocks(t *testing.T) {
	b := NewBookState(0)
	b.ApplySnapshot(SideUp, Quote{Price: 0.50}, t0)
	b.ApplySnapshot(SideDown, Quote{Price: 0.50}, t0)
	b.ApplyChange(SideUp, Quote{Price: 0.97}, t0)
	b.set(SideDown, Quote{}) // lado sin datos

	assert.False(t, b.Triggerable())
}

func TestBookState_ResetClearsWarm(t *testing.T) {
	b := warmBook(0.80, 0.15)
	assert.True(t, b.Triggerable())

	b.Reset()
	assert.False(t, b.WarmedUp())
	assert.False(t, b.Triggerable())
	// El contador de updates es monótono, no se resetea
	assert.Equal(t, 4, b.Updates())
}

func TestBookState_CustomMaxSum(t *testing.T) {
	b := NewBookState(1.50)
	b.ApplySnapshot(SideUp, Quote{Price: 0.99}, t0)
	b.ApplySnapshot(SideDown, Quote{Price: 0.99}, t0)
	b.ApplyChange(SideUp, Quote{Price: 0.80}, t0)
	b.ApplyChange(SideDown, Quote{Price: 0.60}, t0)

	assert.True(t, b.Triggerable(), "1.40 <= 1.50 con límite configurado")
}

// warmBook construye un book warm con los precios dados.
func warmBook(up, down float64) *BookState {
	b := NewBookState(0)
	b.ApplySnapshot(SideUp, Quote{Price: 0.99}, t0)
	b.ApplySnapshot(SideDown, Quote{Price: 0.99}, t0)
	b.ApplyChange(SideUp, Quote{Price: up, Size: 100}, t0.Add(time.Second))
	b.ApplyChange(SideDown, Quote{Price: down, Size: 100}, t0.Add(time.Second))
	return b
}
