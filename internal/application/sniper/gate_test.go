package sniper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/alejandrodnm/polysniper/internal/domain"
	"github.com/alejandrodnm/polysniper/internal/ports"
)

func gateWindow() domain.Window {
	return domain.Window{
		Asset:    "btc",
		Interval: 15 * time.Minute,
		Start:    time.Unix(1770034500, 0).UTC(),
	}
}

func TestGate_BufferPass(t *testing.T) {
	// spot 0.52% por encima del strike, umbral 0.10% → pasa para UP
	ref := &fakeRef{spot: 97500, klineOpen: 97000, history: historyWithMove(97400, 0.0)}
	g := passGate(ref)

	v := g.Evaluate(context.Background(), gateWindow(), domain.SideUp)

	assert.False(t, v.Blocked())
	assert.False(t, v.Unchecked())
}

func TestGate_BufferBlocksCloseToStrike(t *testing.T) {
	// spot a 0.01% del strike, umbral 0.10% → demasiado cerca
	ref := &fakeRef{spot: 97010, klineOpen: 97000, history: historyWithMove(97000, 0.0)}
	g := passGate(ref)

	v := g.Evaluate(context.Background(), gateWindow(), domain.SideUp)

	assert.Equal(t, domain.CheckBlock, v.Buffer)
	assert.Contains(t, v.Detail, "buffer")
}

func TestGate_BufferBlocksWrongSide(t *testing.T) {
	// apostando DOWN con el spot POR ENCIMA del strike: margen negativo
	ref := &fakeRef{spot: 97500, klineOpen: 97000, history: historyWithMove(97500, 0.0)}
	g := passGate(ref)

	v := g.Evaluate(context.Background(), gateWindow(), domain.SideDown)

	assert.Equal(t, domain.CheckBlock, v.Buffer)
}

func TestGate_BufferDirectionalForDown(t *testing.T) {
	// spot bien por debajo del strike → DOWN pasa
	ref := &fakeRef{spot: 96500, klineOpen: 97000, history: historyWithMove(96500, 0.0)}
	g := passGate(ref)

	v := g.Evaluate(context.Background(), gateWindow(), domain.SideDown)

	assert.False(t, v.Blocked())
}

func TestGate_MomentumBlocksConvergence(t *testing.T) {
	// umbral 0.3%, movimiento -0.5% en 3m: el spot cae hacia el strike del UP
	ref := &fakeRef{spot: 97500, klineOpen: 97000, history: historyWithMove(97900, -0.5)}
	g := passGate(ref)

	v := g.Evaluate(context.Background(), gateWindow(), domain.SideUp)

	assert.Equal(t, domain.CheckBlock, v.Momentum)
	assert.Equal(t, domain.CheckPass, v.Buffer)
	assert.Contains(t, v.Detail, "momentum")
}

func TestGate_MomentumAwayFromStrikePasses(t *testing.T) {
	// subida fuerte alejándose del strike no molesta al UP
	ref := &fakeRef{spot: 97500, klineOpen: 97000, history: historyWithMove(97000, 0.8)}
	g := passGate(ref)

	v := g.Evaluate(context.Background(), gateWindow(), domain.SideUp)

	assert.False(t, v.Blocked())
}

func TestGate_FailOpenOnUnavailable(t *testing.T) {
	ref := &fakeRef{spotErr: ports.ErrUnavailable, historyErr: ports.ErrUnavailable,
		klineErr: ports.ErrUnavailable}
	g := passGate(ref)

	v := g.Evaluate(context.Background(), gateWindow(), domain.SideUp)

	assert.False(t, v.Blocked(), "unavailable nunca bloquea")
	assert.True(t, v.Unchecked())
	assert.Equal(t, domain.CheckUnavailable, v.Buffer)
	assert.Equal(t, domain.CheckUnavailable, v.Momentum)
}

func TestGate_DisabledChecksSkip(t *testing.T) {
	// deshabilitado por config ≠ fail-open: ni se consulta la referencia
	ref := &fakeRef{spotErr: ports.ErrUnavailable, historyErr: ports.ErrUnavailable}
	g := NewSafetyGate(ref, GateConfig{
		BinanceSymbol:   "BTCUSDT",
		BufferPct:       0.10,
		MomentumPct:     0.30,
		Lookback:        3 * time.Minute,
		DisableBuffer:   true,
		DisableMomentum: true,
	})

	v := g.Evaluate(context.Background(), gateWindow(), domain.SideUp)

	assert.False(t, v.Blocked())
	assert.False(t, v.Unchecked())
	assert.Zero(t, ref.historyCalls)
}

func TestGate_StrikeCachedPerWindow(t *testing.T) {
	ref := healthyRef()
	g := passGate(ref)
	w := gateWindow()

	g.Evaluate(context.Background(), w, domain.SideUp)
	g.Evaluate(context.Background(), w, domain.SideUp)
	g.Evaluate(context.Background(), w, domain.SideUp)

	ref.mu.Lock()
	defer ref.mu.Unlock()
	assert.Equal(t, 1, ref.klineCalls, "el strike se consulta una vez por intervalo")
}
