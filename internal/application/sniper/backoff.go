package sniper

import "time"

// Backoff es un backoff exponencial con techo, sin jitter: los monitores ya
// arrancan escalonados y no hay efecto manada que romper.
type Backoff struct {
	Base   time.Duration
	Factor float64
	Max    time.Duration

	current time.Duration
}

// DefaultBackoff devuelve el backoff de reconexión de los monitores.
func DefaultBackoff() *Backoff {
	return &Backoff{Base: time.Second, Factor: 2.0, Max: 30 * time.Second}
}

// Next devuelve la espera del siguiente intento y avanza el estado.
func (b *Backoff) Next() time.Duration {
	if b.current == 0 {
		b.current = b.Base
		return b.current
	}
	next := time.Duration(float64(b.current) * b.Factor)
	if next > b.Max {
		next = b.Max
	}
	b.current = next
	return b.current
}

// Reset vuelve al estado inicial. Se llama tras una conexión sana.
func (b *Backoff) Reset() {
	b.current = 0
}
