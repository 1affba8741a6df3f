package ports

import (
	"context"
	"errors"

	"github.com/alejandrodnm/polysniper/internal/domain"
)

// ErrMarketNotFound indica que el slug todavía no existe en Gamma.
// Ocurre de forma normal en el rollover: el mercado del nuevo intervalo puede
// tardar unos segundos en crearse. El monitor reintenta, nunca crashea.
var ErrMarketNotFound = errors.New("market not found")

// MarketResolver descubre un mercado updown por su slug canónico.
type MarketResolver interface {
	// ResolveBySlug devuelve el mercado para el Window dado.
	// Devuelve ErrMarketNotFound si Gamma no conoce (aún) el slug.
	ResolveBySlug(ctx context.Context, w domain.Window) (domain.Market, error)
}
