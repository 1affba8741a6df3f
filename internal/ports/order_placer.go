package ports

import (
	"context"

	"github.com/alejandrodnm/polysniper/internal/domain"
)

// OrderPlacer firma y envía órdenes fill-or-kill al CLOB.
type OrderPlacer interface {
	// PlaceFillOrKill envía un FOK de compra. Un FOK cancelado NO es error:
	// devuelve PlacedOrder{Filled: false}. El error se reserva para fallos
	// de transporte o rechazos del exchange.
	PlaceFillOrKill(ctx context.Context, order domain.FOKOrder) (domain.PlacedOrder, error)
}
