package ports

import (
	"context"

	"github.com/alejandrodnm/polysniper/internal/domain"
)

// Notifier consume los eventos de los monitores: cambios de estado, quotes,
// bloqueos del gate y outcomes. Fire-and-forget: un fallo aquí nunca debe
// afectar a la lógica de trading.
type Notifier interface {
	Publish(ctx context.Context, ev domain.MonitorEvent) error
}
