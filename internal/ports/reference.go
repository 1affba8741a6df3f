package ports

import (
	"context"
	"errors"
	"time"

	"github.com/alejandrodnm/polysniper/internal/domain"
)

// ErrUnavailable indica que el servicio de referencia no pudo responder
// (timeout, error de red, datos vacíos). Los checks del safety gate lo mapean
// a Unavailable → fail-open.
var ErrUnavailable = errors.New("reference price unavailable")

// ReferencePrices consulta precios spot e histórico reciente del asset
// subyacente (no del mercado de predicción).
type ReferencePrices interface {
	// SpotPrice devuelve el último precio del símbolo (p.ej. "BTCUSDT").
	SpotPrice(ctx context.Context, symbol string) (float64, error)

	// RecentHistory devuelve muestras de precio del lookback dado, en orden
	// cronológico. Slice vacío o error → ErrUnavailable en el caller.
	RecentHistory(ctx context.Context, symbol string, lookback time.Duration) ([]domain.PricePoint, error)

	// KlineOpen devuelve la apertura de la vela que contiene `at`. Es el
	// strike de referencia del intervalo: el precio contra el que el mercado
	// updown resuelve.
	KlineOpen(ctx context.Context, symbol string, at time.Time, interval time.Duration) (float64, error)
}
