package sniper

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alejandrodnm/polysniper/internal/domain"
	"github.com/alejandrodnm/polysniper/internal/ports"
)

// OrchestratorConfig parametriza la supervisión de monitores.
type OrchestratorConfig struct {
	// arranque escalonado para no reventar Gamma con N lookups simultáneos
	Stagger time.Duration
	// cuánto se espera a los monitores en el shutdown antes de abandonarlos
	ShutdownGrace time.Duration
}

func (c *OrchestratorConfig) setDefaults() {
	if c.Stagger <= 0 {
		c.Stagger = 500 * time.Millisecond
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = 10 * time.Second
	}
}

// Orchestrator supervisa un monitor por (asset, intervalo) y canaliza sus
// eventos hacia el notifier y el storage. Es el único consumidor del canal
// de eventos.
type Orchestrator struct {
	cfg      OrchestratorConfig
	notifier ports.Notifier
	storage  ports.TradeStorage
	events   chan domain.MonitorEvent
	monitors []*Monitor
}

// NewOrchestrator crea el orchestrator. storage puede ser nil (sin persistencia).
func NewOrchestrator(cfg OrchestratorConfig, notifier ports.Notifier, storage ports.TradeStorage) *Orchestrator {
	cfg.setDefaults()
	return &Orchestrator{
		cfg:      cfg,
		notifier: notifier,
		storage:  storage,
		events:   make(chan domain.MonitorEvent, 256),
	}
}

// Events devuelve el canal de entrada para los monitores.
func (o *Orchestrator) Events() chan<- domain.MonitorEvent {
	return o.events
}

// Add registra un monitor. Llamar antes de Run.
func (o *Orchestrator) Add(m *Monitor) {
	o.monitors = append(o.monitors, m)
}

// Run arranca todos los monitores y bloquea hasta que el contexto se cancele.
// En el shutdown espera a los monitores con un timeout acotado: un monitor
// que no cierra a tiempo se abandona, no se mata — un FOK en vuelo resuelve
// solo y no puede quedar a medias.
func (o *Orchestrator) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for i, mon := range o.monitors {
		delay := time.Duration(i) * o.cfg.Stagger
		g.Go(func() error {
			select {
			case <-time.After(delay):
			case <-gctx.Done():
				return nil
			}
			return mon.Run(gctx)
		})
	}

	stop := make(chan struct{})
	consumerDone := make(chan struct{})
	go o.consume(stop, consumerDone)

	waitDone := make(chan error, 1)
	go func() { waitDone <- g.Wait() }()

	var err error
	select {
	case err = <-waitDone:
	case <-ctx.Done():
		select {
		case err = <-waitDone:
		case <-time.After(o.cfg.ShutdownGrace):
			slog.Warn("shutdown grace expired, abandoning monitors",
				"grace", o.cfg.ShutdownGrace)
		}
	}

	close(stop)
	<-consumerDone
	return err
}

// consume drena el canal de eventos hasta que se le pida parar; al parar,
// vacía lo pendiente antes de salir para no perder outcomes del shutdown.
func (o *Orchestrator) consume(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case ev := <-o.events:
			o.dispatch(ev)
		case <-stop:
			for {
				select {
				case ev := <-o.events:
					o.dispatch(ev)
				default:
					return
				}
			}
		}
	}
}

// dispatch entrega un evento a los observadores. Ninguno puede frenar el
// trading: errores aquí se loguean y se sigue.
func (o *Orchestrator) dispatch(ev domain.MonitorEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := o.notifier.Publish(ctx, ev); err != nil {
		slog.Warn("notifier failed", "asset", ev.Asset, "err", err)
	}

	if o.storage != nil && ev.Kind == domain.EventOutcome && ev.Outcome != nil {
		if err := o.storage.SaveOutcome(ctx, *ev.Outcome); err != nil {
			slog.Error("trade log write failed", "id", ev.Outcome.ID, "err", err)
		}
	}
}
