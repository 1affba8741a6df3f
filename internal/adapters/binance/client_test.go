package binance_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polysniper/internal/adapters/binance"
	"github.com/alejandrodnm/polysniper/internal/ports"
)

func TestSpotPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/ticker/price", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"symbol":"BTCUSDT","price":"97123.45000000"}`))
	}))
	defer srv.Close()

	client := binance.NewClient(srv.URL)
	price, err := client.SpotPrice(context.Background(), "BTCUSDT")

	require.NoError(t, err)
	assert.InDelta(t, 97123.45, price, 1e-6)
}

func TestSpotPrice_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := binance.NewClient(srv.URL)
	_, err := client.SpotPrice(context.Background(), "BTCUSDT")

	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrUnavailable)
}

func TestSpotPrice_BadPayloadIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"BTCUSDT","price":"not-a-number"}`))
	}))
	defer srv.Close()

	client := binance.NewClient(srv.URL)
	_, err := client.SpotPrice(context.Background(), "BTCUSDT")
	assert.ErrorIs(t, err, ports.ErrUnavailable)
}

func TestRecentHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		assert.Equal(t, "1m", r.URL.Query().Get("interval"))
		assert.Equal(t, "4", r.URL.Query().Get("limit"))
		// [openTime, open, high, low, close, volume, closeTime, ...]
		w.Write([]byte(`[
			[1770034200000,"97000.0","97100.0","96900.0","97050.0","12.3",1770034259999],
			[1770034260000,"97050.0","97200.0","97000.0","97150.0","8.1",1770034319999],
			[1770034320000,"97150.0","97300.0","97100.0","97250.0","9.4",1770034379999]
		]`))
	}))
	defer srv.Close()

	client := binance.NewClient(srv.URL)
	points, err := client.RecentHistory(context.Background(), "BTCUSDT", 3*time.Minute)

	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.InDelta(t, 97050.0, points[0].Price, 1e-6)
	assert.InDelta(t, 97250.0, points[2].Price, 1e-6)
	assert.True(t, points[0].At.Before(points[2].At), "orden cronológico")
	assert.Equal(t, time.UnixMilli(1770034200000).UTC(), points[0].At)
}

func TestRecentHistory_EmptyIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := binance.NewClient(srv.URL)
	_, err := client.RecentHistory(context.Background(), "BTCUSDT", 3*time.Minute)
	assert.ErrorIs(t, err, ports.ErrUnavailable)
}

func TestKlineOpen(t *testing.T) {
	windowStart := time.Unix(1770034500, 0).UTC()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "15m", r.URL.Query().Get("interval"))
		assert.Equal(t, "1770034500000", r.URL.Query().Get("startTime"))
		w.Write([]byte(`[[1770034500000,"97100.5","97300.0","97000.0","97250.0","20.0",1770035399999]]`))
	}))
	defer srv.Close()

	client := binance.NewClient(srv.URL)
	open, err := client.KlineOpen(context.Background(), "BTCUSDT", windowStart, 15*time.Minute)

	require.NoError(t, err)
	assert.InDelta(t, 97100.5, open, 1e-6)
}
