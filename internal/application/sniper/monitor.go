package sniper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/polysniper/internal/domain"
	"github.com/alejandrodnm/polysniper/internal/ports"
)

// MonitorConfig parametriza un monitor de (asset, intervalo).
type MonitorConfig struct {
	Asset       string
	Interval    time.Duration
	Tiers       domain.TierTable
	MaxPriceSum float64
	Epsilon     float64 // tolerancia al comparar ask contra target

	// descubrimiento en el rollover: el mercado nuevo puede tardar en existir
	DiscoveryRetryDelay time.Duration
	DiscoveryMaxRetries int
}

func (c *MonitorConfig) setDefaults() {
	if c.Epsilon <= 0 {
		c.Epsilon = defaultEpsilon
	}
	if c.DiscoveryRetryDelay <= 0 {
		c.DiscoveryRetryDelay = 2 * time.Second
	}
	if c.DiscoveryMaxRetries <= 0 {
		c.DiscoveryMaxRetries = 30
	}
}

// Monitor vigila los mercados updown de un (asset, intervalo): una conexión
// de streaming, un BookState propio, y el executor compartido. Corre en su
// propia goroutine; todo lo que comparte con el resto del proceso pasa por el
// ledger (dentro del executor) o por el canal de eventos.
type Monitor struct {
	cfg      MonitorConfig
	resolver ports.MarketResolver
	streamer ports.BookStreamer
	executor *Executor
	events   chan<- domain.MonitorEvent
	backoff  *Backoff
	now      func() time.Time
}

// NewMonitor crea un monitor. El canal de eventos lo consume el orchestrator.
func NewMonitor(cfg MonitorConfig, resolver ports.MarketResolver, streamer ports.BookStreamer,
	executor *Executor, events chan<- domain.MonitorEvent) *Monitor {
	cfg.setDefaults()
	return &Monitor{
		cfg:      cfg,
		resolver: resolver,
		streamer: streamer,
		executor: executor,
		events:   events,
		backoff:  DefaultBackoff(),
		now:      time.Now,
	}
}

// errores internos de control de flujo del monitor
var (
	errWindowExpired = errors.New("window expired")
	errStreamDown    = errors.New("stream down")
)

// Run ejecuta el monitor hasta que el contexto se cancele. Nunca devuelve
// error por fallos de mercado o transporte: esos se recuperan localmente.
func (m *Monitor) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		w := domain.CurrentWindow(m.cfg.Asset, m.cfg.Interval, m.now())
		m.emitState(ctx, w.Slug(), domain.StateConnecting)

		market, err := m.resolveMarket(ctx, w)
		switch {
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, errWindowExpired):
			continue
		case err != nil:
			// descubrimiento agotado: alerta y espera al siguiente intervalo
			m.emitError(ctx, w.Slug(), err)
			m.sleepUntil(ctx, w.End())
			continue
		}

		err = m.runWindow(ctx, market)
		switch {
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, errStreamDown):
			wait := m.backoff.Next()
			m.emitState(ctx, w.Slug(), domain.StateBackoff)
			slog.Warn("stream down, backing off",
				"asset", m.cfg.Asset, "slug", w.Slug(), "wait", wait)
			m.sleep(ctx, wait)
		default:
			// rollover limpio
		}
	}
}

// resolveMarket busca el mercado del intervalo con reintentos a delay fijo.
// Un 404 en el rollover es normal: el mercado nuevo tarda unos segundos.
func (m *Monitor) resolveMarket(ctx context.Context, w domain.Window) (domain.Market, error) {
	var lastErr error
	for attempt := 0; attempt < m.cfg.DiscoveryMaxRetries; attempt++ {
		if w.RolledOver(m.now()) {
			return domain.Market{}, errWindowExpired
		}

		market, err := m.resolver.ResolveBySlug(ctx, w)
		if err == nil {
			if market.Valid() {
				return market, nil
			}
			err = fmt.Errorf("market %s: %w", w.Slug(), ports.ErrMarketNotFound)
		}
		lastErr = err

		if !errors.Is(err, ports.ErrMarketNotFound) {
			slog.Warn("market discovery failed",
				"asset", m.cfg.Asset, "slug", w.Slug(), "attempt", attempt+1, "err", err)
		}

		if !m.sleep(ctx, m.cfg.DiscoveryRetryDelay) {
			return domain.Market{}, ctx.Err()
		}
	}
	return domain.Market{}, fmt.Errorf("discovery exhausted after %d attempts: %w",
		m.cfg.DiscoveryMaxRetries, lastErr)
}

// runWindow es el loop de un intervalo: suscripción, warm-up, triggers,
// rollover. Devuelve nil en rollover limpio y errStreamDown si la conexión
// cayó. La suscripción SIEMPRE queda cerrada antes de volver: la del
// siguiente intervalo no puede solaparse con esta.
func (m *Monitor) runWindow(ctx context.Context, market domain.Market) error {
	w := market.Window

	sub, err := m.streamer.Subscribe(ctx, []string{market.UpToken, market.DownToken})
	if err != nil {
		return fmt.Errorf("%w: %v", errStreamDown, err)
	}
	defer sub.Close()

	m.backoff.Reset()

	book := domain.NewBookState(m.cfg.MaxPriceSum)
	state := domain.StateWarming
	m.emitState(ctx, w.Slug(), state)

	// latch por cruce: un intento por cruce, re-arma al caer bajo el target
	latched := false
	filled := false

	// el cruce se evalúa en cada update Y en cada tick: con el book quieto,
	// el target sigue bajando al cruzar un tier y el ask parado puede pasar
	// a valer el disparo sin que llegue ningún delta
	evaluate := func() {
		if filled || state != domain.StateArmed || !book.Triggerable() {
			return
		}

		remaining := w.SecondsRemaining(m.now())
		target, ok := m.cfg.Tiers.Target(remaining)
		if !ok {
			return // demasiado pronto en el intervalo
		}

		side, quote := leadingSide(book)
		if quote.Price < target-m.cfg.Epsilon {
			latched = false // por debajo del target: el cruce re-arma
			return
		}
		if latched {
			return // mismo cruce, ya intentado
		}
		latched = true

		m.emitState(ctx, w.Slug(), domain.StateTriggered)
		outcome := m.executor.Attempt(ctx, AttemptParams{
			Market: market,
			Side:   side,
			Target: target,
			Quote:  quote,
		})
		m.emitOutcome(ctx, w.Slug(), outcome)

		if outcome.Kind.Accepted() {
			filled = true // este intervalo ya no opera más
		}

		state = domain.StateArmed
		m.emitState(ctx, w.Slug(), state)
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			if w.RolledOver(m.now()) {
				m.emitState(ctx, w.Slug(), domain.StateRollingOver)
				sub.Close()
				return nil
			}
			if state == domain.StateArmed {
				m.emitQuote(ctx, w, book)
			}
			evaluate()

		case u, ok := <-sub.Updates():
			if !ok {
				if err := sub.Err(); err != nil {
					return fmt.Errorf("%w: %v", errStreamDown, err)
				}
				return errStreamDown
			}

			side := market.SideOf(u.TokenID)
			if side == "" {
				continue
			}
			if u.Snapshot {
				book.ApplySnapshot(side, u.Best, u.Timestamp)
			} else {
				book.ApplyChange(side, u.Best, u.Timestamp)
			}

			if state == domain.StateWarming && book.WarmedUp() {
				state = domain.StateArmed
				m.emitState(ctx, w.Slug(), state)
			}

			evaluate()
		}
	}
}

// leadingSide devuelve el lado favorito: el de mejor (mayor) ask.
func leadingSide(book *domain.BookState) (domain.Side, domain.Quote) {
	up := book.BestAsk(domain.SideUp)
	down := book.BestAsk(domain.SideDown)
	if up.Price >= down.Price {
		return domain.SideUp, up
	}
	return domain.SideDown, down
}

func (m *Monitor) emit(ctx context.Context, ev domain.MonitorEvent) {
	select {
	case m.events <- ev:
	case <-ctx.Done():
	}
}

func (m *Monitor) emitState(ctx context.Context, slug string, s domain.MonitorState) {
	m.emit(ctx, domain.MonitorEvent{
		Kind:  domain.EventStateChange,
		Asset: m.cfg.Asset,
		Slug:  slug,
		State: s,
		At:    m.now(),
	})
}

func (m *Monitor) emitQuote(ctx context.Context, w domain.Window, book *domain.BookState) {
	remaining := w.SecondsRemaining(m.now())
	target, _ := m.cfg.Tiers.Target(remaining)
	m.emit(ctx, domain.MonitorEvent{
		Kind:   domain.EventQuote,
		Asset:  m.cfg.Asset,
		Slug:   w.Slug(),
		Up:     book.BestAsk(domain.SideUp),
		Down:   book.BestAsk(domain.SideDown),
		Target: target,
		Remain: remaining,
		At:     m.now(),
	})
}

func (m *Monitor) emitOutcome(ctx context.Context, slug string, o domain.TradeOutcome) {
	m.emit(ctx, domain.MonitorEvent{
		Kind:    domain.EventOutcome,
		Asset:   m.cfg.Asset,
		Slug:    slug,
		Outcome: &o,
		At:      m.now(),
	})
}

func (m *Monitor) emitError(ctx context.Context, slug string, err error) {
	m.emit(ctx, domain.MonitorEvent{
		Kind:  domain.EventError,
		Asset: m.cfg.Asset,
		Slug:  slug,
		Err:   err,
		At:    m.now(),
	})
}

// sleep espera respetando el contexto; false si el contexto se canceló.
func (m *Monitor) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}

func (m *Monitor) sleepUntil(ctx context.Context, t time.Time) {
	d := t.Sub(m.now())
	if d <= 0 {
		return
	}
	m.sleep(ctx, d)
}
