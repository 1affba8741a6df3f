package domain

import "time"

// DefaultMaxPriceSum es el límite empírico para detectar el snapshot stale
// del feed: ambos lados en ~0.99 (suma ~1.98) justo tras conectar. Una suma
// baja NO es stale — los books ilíquidos legítimamente suman bastante menos
// que 1.0. Configurable por si el artefacto del feed cambia.
const DefaultMaxPriceSum = 1.15

// Quote es el mejor ask conocido de un lado del mercado.
type Quote struct {
	Price float64
	Size  float64
}

// BookState es el snapshot mutable del libro para un mercado, propiedad
// exclusiva de un monitor (sin mutación cross-goroutine).
//
// Warm-up: el primer mensaje tras suscribirse siempre es un snapshot completo
// y stale; se registra pero no habilita el trigger. Solo el primer delta
// posterior marca el estado como "warm".
type BookState struct {
	up          Quote
	down        Quote
	maxPriceSum float64
	warmedUp    bool
	snapshotted bool
	updates     int
	lastUpdate  time.Time
}

// NewBookState crea un BookState vacío. maxPriceSum <= 0 usa DefaultMaxPriceSum.
func NewBookState(maxPriceSum float64) *BookState {
	if maxPriceSum <= 0 {
		maxPriceSum = DefaultMaxPriceSum
	}
	return &BookState{maxPriceSum: maxPriceSum}
}

// ApplySnapshot registra el book completo inicial. No marca warm: el primer
// snapshot post-suscripción se descarta a efectos de trading.
func (b *BookState) ApplySnapshot(side Side, best Quote, at time.Time) {
	b.set(side, best)
	b.snapshotted = true
	b.updates++
	b.lastUpdate = at
}

// ApplyChange aplica un delta de precio. El primer delta tras el snapshot
// inicial transiciona warmedUp a true, exactamente una vez.
func (b *BookState) ApplyChange(side Side, best Quote, at time.Time) {
	b.set(side, best)
	if b.snapshotted {
		b.warmedUp = true
	}
	b.updates++
	b.lastUpdate = at
}

// Reset limpia el estado warm para una reconexión: lo recibido antes del
// próximo snapshot vuelve a ser sospechoso.
func (b *BookState) Reset() {
	b.warmedUp = false
	b.snapshotted = false
	b.up = Quote{}
	b.down = Quote{}
}

func (b *BookState) set(side Side, q Quote) {
	if side == SideUp {
		b.up = q
	} else {
		b.down = q
	}
}

// BestAsk devuelve la última quote conocida del lado dado.
// Price == 0 significa "sin datos todavía" — no disparable.
func (b *BookState) BestAsk(side Side) Quote {
	if side == SideUp {
		return b.up
	}
	return b.down
}

// PriceSum devuelve up + down, el discriminador de staleness.
func (b *BookState) PriceSum() float64 {
	return b.up.Price + b.down.Price
}

// WarmedUp indica si ya llegó el primer delta post-snapshot.
func (b *BookState) WarmedUp() bool { return b.warmedUp }

// Updates devuelve el contador monótono de updates aplicados.
func (b *BookState) Updates() int { return b.updates }

// LastUpdate devuelve el timestamp del último update aplicado.
func (b *BookState) LastUpdate() time.Time { return b.lastUpdate }

// Triggerable devuelve true si los precios pueden usarse para disparar:
// warm, ambos lados con datos, y suma dentro del límite de staleness.
func (b *BookState) Triggerable() bool {
	if !b.warmedUp {
		return false
	}
	if b.up.Price <= 0 || b.down.Price <= 0 {
		return false
	}
	return b.PriceSum() <= b.maxPriceSum
}
