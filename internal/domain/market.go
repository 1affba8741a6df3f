package domain

import (
	"fmt"
	"time"
)

// Side es uno de los dos resultados de un mercado updown.
type Side string

const (
	SideUp   Side = "UP"
	SideDown Side = "DOWN"
)

// Opposite devuelve el lado contrario.
func (s Side) Opposite() Side {
	if s == SideUp {
		return SideDown
	}
	return SideUp
}

// Window es un intervalo de resolución alineado al epoch Unix.
// Todos los métodos reciben `now` explícito — sin reloj interno, testeable.
type Window struct {
	Asset    string        // símbolo corto: "btc", "eth", "sol", "xrp"
	Interval time.Duration // duración del intervalo (5m, 15m)
	Start    time.Time     // inicio del intervalo, UTC
}

// CurrentWindow calcula el intervalo activo para un asset en el instante dado:
// floor(unix / intervalSecs) × intervalSecs.
func CurrentWindow(asset string, interval time.Duration, now time.Time) Window {
	secs := int64(interval.Seconds())
	start := (now.Unix() / secs) * secs
	return Window{
		Asset:    asset,
		Interval: interval,
		Start:    time.Unix(start, 0).UTC(),
	}
}

// Slug devuelve el identificador canónico del mercado:
// {asset}-updown-{interval}-{windowStartUnix}, p.ej. "btc-updown-15m-1770034500".
func (w Window) Slug() string {
	return fmt.Sprintf("%s-updown-%dm-%d", w.Asset, int(w.Interval.Minutes()), w.Start.Unix())
}

// End devuelve el instante de resolución del intervalo.
func (w Window) End() time.Time {
	return w.Start.Add(w.Interval)
}

// SecondsRemaining devuelve los segundos hasta la resolución. Nunca negativo.
func (w Window) SecondsRemaining(now time.Time) int {
	s := int(w.End().Sub(now).Seconds())
	if s < 0 {
		return 0
	}
	return s
}

// RolledOver devuelve true si el intervalo ya terminó y hay que rotar al siguiente.
func (w Window) RolledOver(now time.Time) bool {
	return !now.Before(w.End())
}

// Next devuelve el intervalo inmediatamente posterior.
func (w Window) Next() Window {
	return Window{Asset: w.Asset, Interval: w.Interval, Start: w.End()}
}

// Market es un mercado updown resuelto vía Gamma: el Window más los token IDs
// de ambos lados. Inmutable una vez resuelto; cada rollover produce uno nuevo.
type Market struct {
	Window    Window
	Question  string
	UpToken   string
	DownToken string
	Closed    bool
}

// Token devuelve el token ID del lado dado.
func (m Market) Token(side Side) string {
	if side == SideUp {
		return m.UpToken
	}
	return m.DownToken
}

// SideOf devuelve el lado al que pertenece un token ID, o "" si no es del mercado.
func (m Market) SideOf(tokenID string) Side {
	switch tokenID {
	case m.UpToken:
		return SideUp
	case m.DownToken:
		return SideDown
	}
	return ""
}

// Valid devuelve true si el mercado tiene ambos tokens y está abierto.
func (m Market) Valid() bool {
	return m.UpToken != "" && m.DownToken != "" && !m.Closed
}
