package sniper

import "sync"

// ExposureLedger contabiliza la exposición abierta de todo el proceso.
// El mutex cubre check-then-increment completo: dos monitores disparando a la
// vez nunca pueden superar el techo entre los dos.
type ExposureLedger struct {
	mu sync.Mutex

	maxPositionSize  float64 // tope por orden, en USDC
	maxTotalExposure float64 // tope acumulado de la sesión, en USDC
	open             float64
}

// NewExposureLedger crea el ledger con los topes dados.
func NewExposureLedger(maxPositionSize, maxTotalExposure float64) *ExposureLedger {
	return &ExposureLedger{
		maxPositionSize:  maxPositionSize,
		maxTotalExposure: maxTotalExposure,
	}
}

// Open devuelve la exposición abierta actual.
func (l *ExposureLedger) Open() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.open
}

// Remaining devuelve el margen que queda hasta el techo total.
func (l *ExposureLedger) Remaining() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	r := l.maxTotalExposure - l.open
	if r < 0 {
		return 0
	}
	return r
}

// MaxPositionSize devuelve el tope por orden.
func (l *ExposureLedger) MaxPositionSize() float64 { return l.maxPositionSize }

// release devuelve `cost` al margen. Se usa cuando un FOK reservado no llegó
// a ejecutarse. El caller DEBE tener l.mu tomado.
func (l *ExposureLedger) release(cost float64) {
	l.open -= cost
	if l.open < 0 {
		l.open = 0
	}
}
