package sniper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/polysniper/internal/domain"
	"github.com/alejandrodnm/polysniper/internal/ports"
)

// GateConfig parametriza el safety gate de un asset.
// Los porcentajes van en puntos de por ciento: 0.10 significa 0.10%.
type GateConfig struct {
	BinanceSymbol   string        // símbolo del subyacente, p.ej. "BTCUSDT"
	BufferPct       float64       // margen mínimo del spot sobre el strike
	MomentumPct     float64       // convergencia máxima tolerada hacia el strike
	Lookback        time.Duration // ventana del check de momentum
	DisableBuffer   bool
	DisableMomentum bool
}

// GateVerdict es el resultado combinado de los dos checks.
type GateVerdict struct {
	Buffer   domain.CheckResult
	Momentum domain.CheckResult
	Detail   string // motivo del primer Block, o nota de fail-open
}

// Blocked devuelve true si algún check bloqueó el trade.
func (v GateVerdict) Blocked() bool {
	return v.Buffer == domain.CheckBlock || v.Momentum == domain.CheckBlock
}

// Unchecked devuelve true si algún check no pudo ejecutarse (fail-open).
func (v GateVerdict) Unchecked() bool {
	return v.Buffer == domain.CheckUnavailable || v.Momentum == domain.CheckUnavailable
}

// SafetyGate decide, justo antes de disparar, si el precio del subyacente
// contradice la apuesta. Fail-open: ante datos no disponibles deja pasar,
// pero lo marca — perder el dato no puede costar el trade, ocultarlo sí
// costaría la confianza en la sesión.
type SafetyGate struct {
	ref ports.ReferencePrices
	cfg GateConfig

	// el strike es fijo por intervalo; una consulta por slug
	mu      sync.Mutex
	strikes map[string]float64
}

// NewSafetyGate crea el gate de un asset.
func NewSafetyGate(ref ports.ReferencePrices, cfg GateConfig) *SafetyGate {
	return &SafetyGate{
		ref:     ref,
		cfg:     cfg,
		strikes: make(map[string]float64),
	}
}

// Evaluate ejecuta los dos checks para un disparo inminente en el lado dado.
// El orden importa: buffer primero, momentum solo si el buffer no bloqueó.
func (g *SafetyGate) Evaluate(ctx context.Context, w domain.Window, side domain.Side) GateVerdict {
	v := GateVerdict{Buffer: domain.CheckPass, Momentum: domain.CheckPass}

	if !g.cfg.DisableBuffer {
		v.Buffer, v.Detail = g.checkBuffer(ctx, w, side)
		if v.Buffer == domain.CheckBlock {
			return v
		}
	}

	if !g.cfg.DisableMomentum {
		var detail string
		v.Momentum, detail = g.checkMomentum(ctx, side)
		if detail != "" {
			v.Detail = detail
		}
	}

	if v.Unchecked() {
		slog.Warn("safety gate incomplete, failing open",
			"asset", w.Asset, "buffer", v.Buffer.String(), "momentum", v.Momentum.String())
		if v.Detail == "" {
			v.Detail = "gate unchecked: reference data unavailable"
		}
	}
	return v
}

// checkBuffer exige que el spot esté del lado correcto del strike con margen.
// Un margen negativo (spot al otro lado) bloquea siempre.
func (g *SafetyGate) checkBuffer(ctx context.Context, w domain.Window, side domain.Side) (domain.CheckResult, string) {
	strike, err := g.strike(ctx, w)
	if err != nil {
		return domain.CheckUnavailable, ""
	}

	spot, err := g.ref.SpotPrice(ctx, g.cfg.BinanceSymbol)
	if err != nil {
		return domain.CheckUnavailable, ""
	}

	margin := (spot - strike) / strike * 100
	if side == domain.SideDown {
		margin = -margin
	}

	if margin < g.cfg.BufferPct {
		return domain.CheckBlock, fmt.Sprintf(
			"buffer %.3f%% below %.3f%% (spot %.2f vs strike %.2f, side %s)",
			margin, g.cfg.BufferPct, spot, strike, side)
	}
	return domain.CheckPass, ""
}

// checkMomentum bloquea si el subyacente converge hacia el strike más rápido
// que el umbral: un precio de 0.92 en el book no vale nada si el spot está
// cayendo a por él.
func (g *SafetyGate) checkMomentum(ctx context.Context, side domain.Side) (domain.CheckResult, string) {
	points, err := g.ref.RecentHistory(ctx, g.cfg.BinanceSymbol, g.cfg.Lookback)
	if err != nil || len(points) < 2 {
		return domain.CheckUnavailable, ""
	}

	first := points[0].Price
	last := points[len(points)-1].Price
	move := (last - first) / first * 100

	// para UP el peligro es caída; para DOWN, subida
	toward := -move
	if side == domain.SideDown {
		toward = move
	}

	if toward >= g.cfg.MomentumPct {
		return domain.CheckBlock, fmt.Sprintf(
			"momentum %.2f%% over %s toward strike (side %s)",
			toward, g.cfg.Lookback, side)
	}
	return domain.CheckPass, ""
}

// strike devuelve la apertura de la vela del intervalo, cacheada por slug.
func (g *SafetyGate) strike(ctx context.Context, w domain.Window) (float64, error) {
	slug := w.Slug()

	g.mu.Lock()
	if s, ok := g.strikes[slug]; ok {
		g.mu.Unlock()
		return s, nil
	}
	g.mu.Unlock()

	s, err := g.ref.KlineOpen(ctx, g.cfg.BinanceSymbol, w.Start, w.Interval)
	if err != nil {
		return 0, err
	}

	g.mu.Lock()
	g.strikes[slug] = s
	// los slugs viejos no vuelven; purga simple para sesiones largas
	if len(g.strikes) > 64 {
		for k := range g.strikes {
			if k != slug {
				delete(g.strikes, k)
			}
		}
	}
	g.mu.Unlock()
	return s, nil
}
