package domain

// FOKOrder es una orden fill-or-kill de compra: o se llena entera de inmediato
// o se cancela entera. Nunca hay fill parcial, así que el ledger no necesita
// contabilidad de exposición parcial.
type FOKOrder struct {
	TokenID string
	Price   float64 // precio límite por share, en USDC
	Shares  float64
	NegRisk bool
}

// Cost devuelve el notional de la orden en USDC.
func (o FOKOrder) Cost() float64 { return o.Price * o.Shares }

// PlacedOrder es la respuesta del CLOB a un FOK.
// Filled == false significa que la orden se canceló entera (kill).
type PlacedOrder struct {
	OrderID string
	Filled  bool
	Status  string
}
