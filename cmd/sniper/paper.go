package main

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/alejandrodnm/polysniper/internal/domain"
)

// paperPlacer simula el CLOB en dry-run: todo FOK se llena al precio pedido.
// Mantiene el notional acumulado solo para loguearlo.
type paperPlacer struct {
	mu    sync.Mutex
	spent float64
}

func newPaperPlacer() *paperPlacer {
	return &paperPlacer{}
}

func (p *paperPlacer) PlaceFillOrKill(ctx context.Context, order domain.FOKOrder) (domain.PlacedOrder, error) {
	p.mu.Lock()
	p.spent += order.Cost()
	spent := p.spent
	p.mu.Unlock()

	id := "paper-" + uuid.NewString()
	slog.Info("paper fill",
		"order_id", id,
		"token", order.TokenID,
		"price", order.Price,
		"shares", order.Shares,
		"cost", order.Cost(),
		"session_spent", spent,
	)
	return domain.PlacedOrder{OrderID: id, Filled: true, Status: "matched"}, nil
}
