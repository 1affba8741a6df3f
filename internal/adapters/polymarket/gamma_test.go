package polymarket_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polysniper/internal/adapters/polymarket"
	"github.com/alejandrodnm/polysniper/internal/domain"
	"github.com/alejandrodnm/polysniper/internal/ports"
)

func testWindow() domain.Window {
	return domain.Window{
		Asset:    "btc",
		Interval: 15 * time.Minute,
		Start:    time.Unix(1770034500, 0).UTC(),
	}
}

func TestResolveBySlug_Event(t *testing.T) {
	data, err := os.ReadFile("../../../testdata/fixtures/gamma_updown_event.json")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/events", r.URL.Path)
		assert.Equal(t, "btc-updown-15m-1770034500", r.URL.Query().Get("slug"))
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}))
	defer srv.Close()

	client := polymarket.NewClient("", srv.URL)
	m, err := client.ResolveBySlug(context.Background(), testWindow())

	require.NoError(t, err)
	assert.Equal(t, "token_up_001", m.UpToken)
	assert.Equal(t, "token_down_001", m.DownToken)
	assert.Equal(t, "Bitcoin Up or Down - Feb 2, 12:15 PM ET", m.Question)
	assert.True(t, m.Valid())
	assert.Equal(t, domain.SideUp, m.SideOf("token_up_001"))
}

func TestResolveBySlug_MarketsFallback(t *testing.T) {
	// Sin eventos, el slug se resuelve directo contra /markets.
	// Outcomes invertidos: el índice UP tiene que detectarse, no asumirse.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/events":
			json.NewEncoder(w).Encode([]any{})
		case "/markets":
			json.NewEncoder(w).Encode([]map[string]any{{
				"conditionId":  "0xcond002",
				"question":     "Ethereum Up or Down",
				"outcomes":     `["Down", "Up"]`,
				"clobTokenIds": `["token_down_002", "token_up_002"]`,
				"closed":       false,
			}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := polymarket.NewClient("", srv.URL)
	m, err := client.ResolveBySlug(context.Background(), testWindow())

	require.NoError(t, err)
	assert.Equal(t, "token_up_002", m.UpToken)
	assert.Equal(t, "token_down_002", m.DownToken)
}

func TestResolveBySlug_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]any{})
	}))
	defer srv.Close()

	client := polymarket.NewClient("", srv.URL)
	_, err := client.ResolveBySlug(context.Background(), testWindow())

	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrMarketNotFound)
}

func TestResolveBySlug_ClosedMarketSkipped(t *testing.T) {
	// Un mercado cerrado en el evento no sirve; sin alternativa → not found.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/events":
			json.NewEncoder(w).Encode([]map[string]any{{
				"slug": "btc-updown-15m-1770034500",
				"markets": []map[string]any{{
					"conditionId":  "0xcond003",
					"question":     "Bitcoin Up or Down",
					"outcomes":     `["Up", "Down"]`,
					"clobTokenIds": `["token_up_003", "token_down_003"]`,
					"closed":       true,
				}},
			}})
		default:
			json.NewEncoder(w).Encode([]any{})
		}
	}))
	defer srv.Close()

	client := polymarket.NewClient("", srv.URL)
	_, err := client.ResolveBySlug(context.Background(), testWindow())
	assert.ErrorIs(t, err, ports.ErrMarketNotFound)
}

func TestResolveBySlug_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := polymarket.NewClient("", srv.URL)
	_, err := client.ResolveBySlug(context.Background(), testWindow())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrMarketNotFound)
}
