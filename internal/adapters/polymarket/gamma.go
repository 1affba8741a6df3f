package polymarket

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/polysniper/internal/domain"
	"github.com/alejandrodnm/polysniper/internal/ports"
)

const (
	gammaEventsPath  = "/events"
	gammaMarketsPath = "/markets"
)

// ResolveBySlug implementa ports.MarketResolver contra Gamma.
// Los mercados updown se publican como eventos; probamos /events primero y
// caemos a /markets por si el slug apunta directo al mercado.
func (c *Client) ResolveBySlug(ctx context.Context, w domain.Window) (domain.Market, error) {
	slug := w.Slug()

	var events []gammaEvent
	url := fmt.Sprintf("%s%s?slug=%s&limit=1", c.gammaBase, gammaEventsPath, slug)
	if err := c.get(ctx, c.gammaLimiter, url, &events); err != nil {
		return domain.Market{}, fmt.Errorf("gamma.ResolveBySlug: events %q: %w", slug, err)
	}

	for _, ev := range events {
		for _, gm := range ev.Markets {
			if gm.Closed {
				continue
			}
			m, err := mapGammaMarket(w, gm)
			if err != nil {
				slog.Debug("skipping unmappable market", "slug", slug, "err", err)
				continue
			}
			return m, nil
		}
	}

	// Fallback: slug directo de mercado
	var markets []gammaMarket
	url = fmt.Sprintf("%s%s?slug=%s&limit=1", c.gammaBase, gammaMarketsPath, slug)
	if err := c.get(ctx, c.gammaLimiter, url, &markets); err != nil {
		return domain.Market{}, fmt.Errorf("gamma.ResolveBySlug: markets %q: %w", slug, err)
	}

	for _, gm := range markets {
		if gm.Closed {
			continue
		}
		m, err := mapGammaMarket(w, gm)
		if err != nil {
			continue
		}
		return m, nil
	}

	// El mercado del intervalo recién abierto puede tardar en crearse
	return domain.Market{}, fmt.Errorf("gamma.ResolveBySlug %q: %w", slug, ports.ErrMarketNotFound)
}
