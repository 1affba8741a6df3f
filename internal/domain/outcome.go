package domain

import "time"

// OutcomeKind clasifica el resultado de un intento de ejecución.
// Cada early-exit del executor produce un kind distinto.
type OutcomeKind string

const (
	OutcomeFilled           OutcomeKind = "FILLED"
	OutcomeRejectedSize     OutcomeKind = "REJECTED_SIZE"     // size > max_position_size
	OutcomeRejectedExposure OutcomeKind = "REJECTED_EXPOSURE" // rompería max_total_exposure
	OutcomeBlockedBuffer    OutcomeKind = "BLOCKED_BUFFER"    // gate: spot demasiado cerca del strike
	OutcomeBlockedMomentum  OutcomeKind = "BLOCKED_MOMENTUM"  // gate: convergencia rápida hacia el strike
	OutcomeOrderFailed      OutcomeKind = "ORDER_FAILED"      // el CLOB rechazó o canceló el FOK
)

// Accepted devuelve true solo para fills confirmados.
func (k OutcomeKind) Accepted() bool { return k == OutcomeFilled }

// GateBlocked devuelve true si el safety gate frenó el trade.
func (k OutcomeKind) GateBlocked() bool {
	return k == OutcomeBlockedBuffer || k == OutcomeBlockedMomentum
}

// TradeOutcome es el resultado inmutable de un intento de ejecución.
// Se crea una vez por intento y se entrega al notifier/storage externos.
type TradeOutcome struct {
	ID          string // UUID local
	Kind        OutcomeKind
	Market      Market
	Side        Side
	TargetPrice float64
	Price       float64 // precio realmente enviado al CLOB (0 si no se llegó a enviar)
	Shares      float64
	Cost        float64 // shares × price, en USDC
	OrderID     string  // hash del CLOB si hubo orden
	GateDetail  string  // motivo del gate, o nota "unchecked" si fue fail-open
	Unchecked   bool    // true si algún check del gate quedó en Unavailable
	At          time.Time
}

// CheckResult es el resultado trivaluado de un check del safety gate.
// Unavailable se mapea a Pass en el call site (fail-open), pero se loguea y
// cuenta aparte: "la red de seguridad tiene un agujero" debe ser visible.
type CheckResult int

const (
	CheckPass CheckResult = iota
	CheckBlock
	CheckUnavailable
)

func (r CheckResult) String() string {
	switch r {
	case CheckPass:
		return "pass"
	case CheckBlock:
		return "block"
	case CheckUnavailable:
		return "unavailable"
	}
	return "unknown"
}

// MonitorState son los estados de la máquina de un monitor.
type MonitorState string

const (
	StateConnecting  MonitorState = "CONNECTING"
	StateWarming     MonitorState = "WARMING"
	StateArmed       MonitorState = "ARMED"
	StateTriggered   MonitorState = "TRIGGERED"
	StateRollingOver MonitorState = "ROLLING_OVER"
	StateBackoff     MonitorState = "BACKOFF"
)

// MonitorEventKind clasifica los eventos que un monitor publica en su canal
// de salida. Los observadores (notifier, dashboard) se suscriben al canal en
// vez de leer estado compartido.
type MonitorEventKind string

const (
	EventStateChange MonitorEventKind = "STATE"
	EventQuote       MonitorEventKind = "QUOTE"
	EventOutcome     MonitorEventKind = "OUTCOME"
	EventError       MonitorEventKind = "ERROR"
)

// MonitorEvent es un evento del canal de salida de un monitor.
type MonitorEvent struct {
	Kind    MonitorEventKind
	Asset   string
	Slug    string
	State   MonitorState
	Up      Quote
	Down    Quote
	Target  float64
	Remain  int
	Outcome *TradeOutcome
	Err     error
	At      time.Time
}

// BookUpdate es un evento normalizado del stream de mercado: el mejor ask de
// un token en un instante. Snapshot == true para el book completo inicial.
type BookUpdate struct {
	TokenID   string
	Best      Quote
	Snapshot  bool
	Timestamp time.Time
}

// PricePoint es una muestra (timestamp, precio) del servicio de referencia.
type PricePoint struct {
	At    time.Time
	Price float64
}
