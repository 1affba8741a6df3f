package binance

// Cliente REST de Binance para el precio spot del subyacente. Solo dos
// endpoints públicos: ticker/price e klines. Todo fallo se normaliza a
// ports.ErrUnavailable: el safety gate es fail-open y no debe distinguir
// causas.

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/polysniper/internal/domain"
	"github.com/alejandrodnm/polysniper/internal/ports"
)

const (
	defaultBaseURL = "https://api.binance.com"

	// Límite público: 6000 weight/min. El sniper hace un puñado de
	// requests por intento; 20/s con burst corto sobra.
	ratePerSec = 20

	// El gate corre en el hot path del trigger; mejor un Unavailable
	// rápido que un trade perdido esperando a Binance.
	requestTimeout = 5 * time.Second
)

// Client implementa ports.ReferencePrices contra la API pública de Binance.
type Client struct {
	http    *http.Client
	baseURL string
	limiter *rate.Limiter
}

// NewClient crea un Client. baseURL vacío usa el endpoint de producción.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http:    &http.Client{Timeout: requestTimeout},
		baseURL: baseURL,
		limiter: rate.NewLimiter(ratePerSec, 5),
	}
}

type tickerResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// SpotPrice devuelve el último precio del símbolo (p.ej. "BTCUSDT").
func (c *Client) SpotPrice(ctx context.Context, symbol string) (float64, error) {
	url := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", c.baseURL, symbol)

	var out tickerResponse
	if err := c.get(ctx, url, &out); err != nil {
		return 0, fmt.Errorf("binance.SpotPrice %s: %w", symbol, err)
	}

	price, err := strconv.ParseFloat(out.Price, 64)
	if err != nil || price <= 0 {
		return 0, fmt.Errorf("binance.SpotPrice %s: bad price %q: %w", symbol, out.Price, ports.ErrUnavailable)
	}
	return price, nil
}

// RecentHistory devuelve los cierres de las velas de 1m del lookback dado,
// en orden cronológico.
func (c *Client) RecentHistory(ctx context.Context, symbol string, lookback time.Duration) ([]domain.PricePoint, error) {
	limit := int(lookback.Minutes()) + 1
	if limit < 2 {
		limit = 2
	}
	url := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=1m&limit=%d", c.baseURL, symbol, limit)

	// Cada kline es un array posicional:
	// [openTime, open, high, low, close, volume, closeTime, ...]
	var klines [][]json.RawMessage
	if err := c.get(ctx, url, &klines); err != nil {
		return nil, fmt.Errorf("binance.RecentHistory %s: %w", symbol, err)
	}
	if len(klines) == 0 {
		return nil, fmt.Errorf("binance.RecentHistory %s: empty: %w", symbol, ports.ErrUnavailable)
	}

	points := make([]domain.PricePoint, 0, len(klines))
	for _, k := range klines {
		if len(k) < 5 {
			continue
		}
		var openMs int64
		var closeStr string
		if err := json.Unmarshal(k[0], &openMs); err != nil {
			continue
		}
		if err := json.Unmarshal(k[4], &closeStr); err != nil {
			continue
		}
		price, err := strconv.ParseFloat(closeStr, 64)
		if err != nil || price <= 0 {
			continue
		}
		points = append(points, domain.PricePoint{
			At:    time.UnixMilli(openMs).UTC(),
			Price: price,
		})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("binance.RecentHistory %s: no parseable klines: %w", symbol, ports.ErrUnavailable)
	}
	return points, nil
}

// KlineOpen devuelve el precio de apertura de la vela que contiene el
// instante dado. Se usa como strike de referencia del intervalo.
func (c *Client) KlineOpen(ctx context.Context, symbol string, at time.Time, interval time.Duration) (float64, error) {
	startMs := at.UnixMilli()
	url := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=%dm&startTime=%d&limit=1",
		c.baseURL, symbol, int(interval.Minutes()), startMs)

	var klines [][]json.RawMessage
	if err := c.get(ctx, url, &klines); err != nil {
		return 0, fmt.Errorf("binance.KlineOpen %s: %w", symbol, err)
	}
	if len(klines) == 0 || len(klines[0]) < 2 {
		return 0, fmt.Errorf("binance.KlineOpen %s: empty: %w", symbol, ports.ErrUnavailable)
	}

	var openStr string
	if err := json.Unmarshal(klines[0][1], &openStr); err != nil {
		return 0, fmt.Errorf("binance.KlineOpen %s: parse: %w", symbol, ports.ErrUnavailable)
	}
	price, err := strconv.ParseFloat(openStr, 64)
	if err != nil || price <= 0 {
		return 0, fmt.Errorf("binance.KlineOpen %s: bad open %q: %w", symbol, openStr, ports.ErrUnavailable)
	}
	return price, nil
}

// get hace un GET con rate limiting; sin retries, la frescura importa más que
// la completitud.
func (c *Client) get(ctx context.Context, url string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%v: %w", err, ports.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("status %d: %s: %w", resp.StatusCode, body, ports.ErrUnavailable)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %v: %w", err, ports.ErrUnavailable)
	}
	return nil
}
