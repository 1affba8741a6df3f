package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alejandrodnm/polysniper/internal/domain"
	"github.com/alejandrodnm/polysniper/internal/ports"
)

const (
	wsMarketPath = "/ws/market"

	// El servidor corta conexiones inactivas; PING de texto cada 10s.
	wsPingInterval = 10 * time.Second
	wsReadTimeout  = 30 * time.Second
	wsWriteTimeout = 5 * time.Second
)

// Streamer abre suscripciones websocket al canal de mercado del CLOB.
// Implementa ports.BookStreamer. No reconecta: ante una caída cierra el canal
// y deja que el monitor decida (backoff y re-suscripción limpia).
type Streamer struct {
	wsBase string
}

// NewStreamer crea un Streamer. wsBase vacío usa el endpoint de producción.
func NewStreamer(wsBase string) *Streamer {
	if wsBase == "" {
		wsBase = defaultWSBase
	}
	return &Streamer{wsBase: wsBase}
}

// Subscribe conecta, se suscribe a los tokens dados y arranca las goroutines
// de lectura y keepalive.
func (s *Streamer) Subscribe(ctx context.Context, tokenIDs []string) (ports.Subscription, error) {
	url := s.wsBase + wsMarketPath
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("polymarket.Subscribe: dial %s: %w", url, err)
	}

	sub := &subscription{
		conn:    conn,
		updates: make(chan domain.BookUpdate, 64),
		done:    make(chan struct{}),
	}

	msg := wsSubscribe{AssetsIDs: tokenIDs, Type: "market"}
	if err := sub.writeJSON(msg); err != nil {
		conn.Close()
		return nil, fmt.Errorf("polymarket.Subscribe: send subscribe: %w", err)
	}

	go sub.readLoop()
	go sub.pingLoop()

	return sub, nil
}

// subscription es una conexión viva al feed. La goroutine de lectura es la
// única que escribe en updates y en err.
type subscription struct {
	conn    *websocket.Conn
	updates chan domain.BookUpdate

	writeMu sync.Mutex // pingLoop y Close escriben concurrentemente

	mu     sync.Mutex
	err    error
	closed bool

	done      chan struct{}
	closeOnce sync.Once
}

func (s *subscription) Updates() <-chan domain.BookUpdate { return s.updates }

// Err devuelve la causa de la caída, o nil si el cierre fue por Close.
func (s *subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	return s.err
}

// Close cierra la conexión. Idempotente; el canal de updates se cierra cuando
// la goroutine de lectura termina.
func (s *subscription) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.closeOnce.Do(func() {
		close(s.done)
		s.writeMu.Lock()
		s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(wsWriteTimeout))
		s.writeMu.Unlock()
		s.conn.Close()
	})
	return nil
}

func (s *subscription) writeJSON(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return s.conn.WriteJSON(v)
}

// pingLoop mantiene viva la conexión con PINGs de texto, que es lo que el
// servidor del CLOB espera (responde "PONG" como mensaje de texto).
func (s *subscription) pingLoop() {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.writeMu.Lock()
			s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			err := s.conn.WriteMessage(websocket.TextMessage, []byte("PING"))
			s.writeMu.Unlock()
			if err != nil {
				slog.Debug("ws ping failed", "err", err)
				return
			}
		}
	}
}

// readLoop lee hasta que la conexión cae o se llama a Close, y entonces
// cierra el canal de updates.
func (s *subscription) readLoop() {
	defer close(s.updates)

	for {
		s.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			if !s.closed {
				s.err = fmt.Errorf("ws read: %w", err)
			}
			s.mu.Unlock()
			return
		}

		if string(data) == "PONG" {
			continue
		}

		msgs, err := parseWSPayload(data)
		if err != nil {
			slog.Warn("unparseable ws message", "err", err)
			continue
		}

		for _, m := range msgs {
			for _, u := range toBookUpdates(m) {
				select {
				case s.updates <- u:
				case <-s.done:
					return
				}
			}
		}
	}
}

// parseWSPayload acepta los dos formatos del feed: array de eventos u objeto
// suelto.
func parseWSPayload(data []byte) ([]wsMessage, error) {
	for len(data) > 0 && (data[0] == ' ' || data[0] == '\t' || data[0] == '\n' || data[0] == '\r') {
		data = data[1:]
	}
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '[' {
		var msgs []wsMessage
		if err := json.Unmarshal(data, &msgs); err != nil {
			return nil, fmt.Errorf("parse ws array: %w", err)
		}
		return msgs, nil
	}

	var msg wsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("parse ws object: %w", err)
	}
	return []wsMessage{msg}, nil
}

// toBookUpdates normaliza un evento del feed al mejor ask por token.
// Eventos "book" producen un update con Snapshot=true; "price_change" emite
// el best_ask que el propio feed adjunta a cada cambio.
func toBookUpdates(m wsMessage) []domain.BookUpdate {
	ts := parseWSTimestamp(m.Timestamp)

	switch m.EventType {
	case "book":
		best, ok := lowestAsk(m.Asks)
		if !ok {
			return nil
		}
		return []domain.BookUpdate{{
			TokenID:   m.AssetID,
			Best:      best,
			Snapshot:  true,
			Timestamp: ts,
		}}

	case "price_change":
		var out []domain.BookUpdate
		for _, ch := range m.Changes {
			if ch.BestAsk == "" {
				continue
			}
			price := parseNum(ch.BestAsk)
			if price <= 0 {
				continue
			}
			out = append(out, domain.BookUpdate{
				TokenID:   m.AssetID,
				Best:      domain.Quote{Price: price, Size: parseNum(ch.Size)},
				Timestamp: ts,
			})
		}
		return out
	}

	// tick_size_change, last_trade_price: irrelevantes para el sniper
	return nil
}

// lowestAsk devuelve el ask más barato con tamaño, si existe.
func lowestAsk(levels []wsBookLevel) (domain.Quote, bool) {
	best := domain.Quote{}
	found := false
	for _, lv := range levels {
		price := parseNum(lv.Price)
		size := parseNum(lv.Size)
		if price <= 0 || size <= 0 {
			continue
		}
		if !found || price < best.Price {
			best = domain.Quote{Price: price, Size: size}
			found = true
		}
	}
	return best, found
}

// parseWSTimestamp interpreta el timestamp en milisegundos del feed; si falta
// o no parsea, usa la hora local.
func parseWSTimestamp(s string) time.Time {
	if s == "" {
		return time.Now()
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Now()
	}
	return time.UnixMilli(ms)
}
