package sniper

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/polysniper/internal/domain"
	"github.com/alejandrodnm/polysniper/internal/ports"
)

const (
	// tolerancia sobre el target: un ask a target+ε sigue valiendo el disparo
	defaultEpsilon = 0.005
	// el CLOB rechaza órdenes por debajo de $1
	minOrderUSDC = 1.0
)

// Executor convierte un trigger en una orden FOK, pasando por el safety gate
// y el ledger de exposición. Devuelve siempre un TradeOutcome: cada intento
// queda clasificado, también los que no llegan al CLOB.
type Executor struct {
	ledger *ExposureLedger
	gate   *SafetyGate
	placer ports.OrderPlacer

	sizeUSDC float64 // presupuesto por orden
	epsilon  float64
}

// NewExecutor crea el executor de un asset. gate puede compartirse entre
// intervalos del mismo asset; ledger es único por proceso.
func NewExecutor(ledger *ExposureLedger, gate *SafetyGate, placer ports.OrderPlacer, sizeUSDC float64) *Executor {
	return &Executor{
		ledger:   ledger,
		gate:     gate,
		placer:   placer,
		sizeUSDC: sizeUSDC,
		epsilon:  defaultEpsilon,
	}
}

// AttemptParams es un trigger listo para ejecutar.
type AttemptParams struct {
	Market domain.Market
	Side   domain.Side
	Target float64
	Quote  domain.Quote // mejor ask y tamaño visible
}

// Attempt ejecuta un intento completo. El gate y la reserva de exposición
// corren bajo el mutex del ledger: dos monitores disparando a la vez no
// pueden superar los topes entre los dos, y el gate ve el spot del instante
// del disparo, no de uno anterior.
func (e *Executor) Attempt(ctx context.Context, p AttemptParams) domain.TradeOutcome {
	out := domain.TradeOutcome{
		ID:          uuid.NewString(),
		Market:      p.Market,
		Side:        p.Side,
		TargetPrice: p.Target,
		At:          time.Now().UTC(),
	}

	// re-verifica el cruce: el book pudo moverse entre el trigger y aquí
	price := p.Quote.Price
	if price <= 0 || price >= 1 || price < p.Target-e.epsilon {
		out.Kind = domain.OutcomeOrderFailed
		out.GateDetail = fmt.Sprintf("quote %.3f no longer crosses target %.3f", price, p.Target)
		return out
	}

	e.ledger.mu.Lock()

	// los checks locales van antes que el gate: un rechazo de tamaño o
	// exposición no debe gastar consultas al servicio de referencia
	if e.sizeUSDC > e.ledger.maxPositionSize {
		e.ledger.mu.Unlock()
		out.Kind = domain.OutcomeRejectedSize
		out.GateDetail = fmt.Sprintf("order size %.2f exceeds max position %.2f",
			e.sizeUSDC, e.ledger.maxPositionSize)
		return out
	}

	// la orden entra entera o no entra: no se recorta al margen restante
	if e.ledger.open+e.sizeUSDC > e.ledger.maxTotalExposure {
		e.ledger.mu.Unlock()
		out.Kind = domain.OutcomeRejectedExposure
		out.GateDetail = fmt.Sprintf("open exposure %.2f + order %.2f exceeds cap %.2f",
			e.ledger.open, e.sizeUSDC, e.ledger.maxTotalExposure)
		return out
	}

	verdict := e.gate.Evaluate(ctx, p.Market.Window, p.Side)
	if verdict.Blocked() {
		e.ledger.mu.Unlock()
		if verdict.Buffer == domain.CheckBlock {
			out.Kind = domain.OutcomeBlockedBuffer
		} else {
			out.Kind = domain.OutcomeBlockedMomentum
		}
		out.GateDetail = verdict.Detail
		return out
	}
	out.Unchecked = verdict.Unchecked()
	if out.Unchecked {
		out.GateDetail = verdict.Detail
	}

	// el tamaño real: presupuesto y liquidez visible
	shares := e.sizeUSDC / price
	if p.Quote.Size > 0 && shares > p.Quote.Size {
		shares = p.Quote.Size
	}
	shares = math.Floor(shares*100) / 100

	// el CLOB rechaza órdenes por debajo de $1: se sube el share count
	if shares*price < minOrderUSDC {
		shares = math.Ceil(minOrderUSDC/price*100) / 100
	}
	cost := shares * price

	// reserva antes de soltar el mutex; se devuelve si el FOK no ejecuta
	e.ledger.open += cost
	e.ledger.mu.Unlock()

	out.Price = price
	out.Shares = shares
	out.Cost = cost

	placed, err := e.placer.PlaceFillOrKill(ctx, domain.FOKOrder{
		TokenID: p.Market.Token(p.Side),
		Price:   price,
		Shares:  shares,
	})
	if err != nil {
		e.refund(cost)
		out.Kind = domain.OutcomeOrderFailed
		out.GateDetail = err.Error()
		slog.Error("order placement failed",
			"asset", p.Market.Window.Asset, "side", string(p.Side), "err", err)
		return out
	}

	if !placed.Filled {
		// kill benigno: el book se movió entre el quote y la orden
		e.refund(cost)
		out.Kind = domain.OutcomeOrderFailed
		out.OrderID = placed.OrderID
		out.GateDetail = fmt.Sprintf("fok killed (status %s)", placed.Status)
		return out
	}

	out.Kind = domain.OutcomeFilled
	out.OrderID = placed.OrderID
	return out
}

func (e *Executor) refund(cost float64) {
	e.ledger.mu.Lock()
	e.ledger.release(cost)
	e.ledger.mu.Unlock()
}
