package sniper

import (
	"context"
	"sync"
	"time"

	"github.com/alejandrodnm/polysniper/internal/domain"
	"github.com/alejandrodnm/polysniper/internal/ports"
)

// fakeRef implementa ports.ReferencePrices con respuestas fijas.
type fakeRef struct {
	mu sync.Mutex

	spot    float64
	spotErr error

	history    []domain.PricePoint
	historyErr error

	klineOpen    float64
	klineErr     error
	klineCalls   int
	historyCalls int
}

func (f *fakeRef) SpotPrice(ctx context.Context, symbol string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.spotErr != nil {
		return 0, f.spotErr
	}
	return f.spot, nil
}

func (f *fakeRef) RecentHistory(ctx context.Context, symbol string, lookback time.Duration) ([]domain.PricePoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyCalls++
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history, nil
}

func (f *fakeRef) KlineOpen(ctx context.Context, symbol string, at time.Time, interval time.Duration) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.klineCalls++
	if f.klineErr != nil {
		return 0, f.klineErr
	}
	return f.klineOpen, nil
}

// history construye una serie de dos puntos con el movimiento pedido en %.
func historyWithMove(base float64, movePct float64) []domain.PricePoint {
	now := time.Now()
	return []domain.PricePoint{
		{At: now.Add(-3 * time.Minute), Price: base},
		{At: now, Price: base * (1 + movePct/100)},
	}
}

// healthyRef devuelve un fakeRef que pasa ambos checks para el lado UP:
// spot cómodamente por encima del strike y momentum plano.
func healthyRef() *fakeRef {
	return &fakeRef{
		spot:      97500,
		klineOpen: 97000,
		history:   historyWithMove(97400, 0.01),
	}
}

// fakePlacer implementa ports.OrderPlacer registrando las órdenes recibidas.
type fakePlacer struct {
	mu     sync.Mutex
	orders []domain.FOKOrder
	filled bool
	err    error
}

func (f *fakePlacer) PlaceFillOrKill(ctx context.Context, order domain.FOKOrder) (domain.PlacedOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.PlacedOrder{}, f.err
	}
	f.orders = append(f.orders, order)
	return domain.PlacedOrder{OrderID: "0xorder", Filled: f.filled, Status: "matched"}, nil
}

func (f *fakePlacer) placed() []domain.FOKOrder {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.FOKOrder, len(f.orders))
	copy(out, f.orders)
	return out
}

// fakeResolver implementa ports.MarketResolver. Devuelve notFound los
// primeros `misses` intentos y el mercado después.
type fakeResolver struct {
	mu     sync.Mutex
	market domain.Market
	misses int
	calls  int
}

func (f *fakeResolver) ResolveBySlug(ctx context.Context, w domain.Window) (domain.Market, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.misses {
		return domain.Market{}, ports.ErrMarketNotFound
	}
	m := f.market
	m.Window = w
	return m, nil
}

// fakeSub implementa ports.Subscription sobre un canal que alimenta el test.
type fakeSub struct {
	updates chan domain.BookUpdate
	err     error

	mu       sync.Mutex
	closed   bool
	closedAt time.Time
	once     sync.Once
}

func newFakeSub() *fakeSub {
	return &fakeSub{updates: make(chan domain.BookUpdate, 32)}
}

func (s *fakeSub) Updates() <-chan domain.BookUpdate { return s.updates }

func (s *fakeSub) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	return s.err
}

func (s *fakeSub) Close() error {
	s.mu.Lock()
	s.closed = true
	s.closedAt = time.Now()
	s.mu.Unlock()
	s.once.Do(func() { close(s.updates) })
	return nil
}

func (s *fakeSub) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// fakeStreamer entrega fakeSubs en orden y registra cada Subscribe.
type fakeStreamer struct {
	mu         sync.Mutex
	subs       []*fakeSub
	subscribed [][]string
	subTimes   []time.Time
}

func (f *fakeStreamer) Subscribe(ctx context.Context, tokenIDs []string) (ports.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribed = append(f.subscribed, tokenIDs)
	f.subTimes = append(f.subTimes, time.Now())
	sub := newFakeSub()
	f.subs = append(f.subs, sub)
	return sub, nil
}

func (f *fakeStreamer) sub(i int) *fakeSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i >= len(f.subs) {
		return nil
	}
	return f.subs[i]
}

func (f *fakeStreamer) subscribeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func testMarket() domain.Market {
	return domain.Market{
		Window: domain.Window{
			Asset:    "btc",
			Interval: 15 * time.Minute,
			Start:    time.Unix(1770034500, 0).UTC(),
		},
		Question:  "Bitcoin Up or Down",
		UpToken:   "token_up",
		DownToken: "token_down",
	}
}

func passGate(ref ports.ReferencePrices) *SafetyGate {
	return NewSafetyGate(ref, GateConfig{
		BinanceSymbol: "BTCUSDT",
		BufferPct:     0.10,
		MomentumPct:   0.30,
		Lookback:      3 * time.Minute,
	})
}
