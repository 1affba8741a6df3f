package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/polysniper/internal/domain"
)

// SessionStats agrega los resultados persistidos de la sesión.
type SessionStats struct {
	Attempts     int
	Fills        int
	GateBlocks   int
	Rejections   int
	OrderFails   int
	Unchecked    int // fills ejecutados con algún check del gate fail-open
	TotalCost    float64
	FirstAttempt time.Time
	LastAttempt  time.Time
}

// TradeStorage persiste el log de intentos de ejecución.
type TradeStorage interface {
	// SaveOutcome persiste un intento. Se llama una vez por TradeOutcome.
	SaveOutcome(ctx context.Context, o domain.TradeOutcome) error

	// GetOutcomes devuelve los intentos registrados en el rango dado,
	// más recientes primero.
	GetOutcomes(ctx context.Context, from, to time.Time) ([]domain.TradeOutcome, error)

	// GetStats agrega las métricas de todos los intentos persistidos.
	GetStats(ctx context.Context) (SessionStats, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
