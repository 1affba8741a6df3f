package domain

import "fmt"

// Tier es un escalón de precio objetivo: aplica mientras queden como máximo
// MaxSecondsRemaining segundos para la resolución.
type Tier struct {
	MaxSecondsRemaining int
	TargetPrice         float64
}

// TierTable es la política de precio objetivo de un asset: pares
// (maxSecondsRemaining, targetPrice) estrictamente crecientes en ambos campos.
// Más allá del último tier no se opera — los tiers solo cubren la ventana
// final antes de expirar.
type TierTable []Tier

// DefaultTierTable son los escalones del sniper original: más agresivo
// (precio más bajo) cuanto menos tiempo queda.
func DefaultTierTable() TierTable {
	return TierTable{
		{MaxSecondsRemaining: 30, TargetPrice: 0.85},
		{MaxSecondsRemaining: 60, TargetPrice: 0.92},
		{MaxSecondsRemaining: 900, TargetPrice: 0.96},
	}
}

// Target devuelve el precio objetivo para los segundos restantes dados:
// el primer tier (en orden ascendente) cuyo límite cubre secondsRemaining.
// ok == false significa "demasiado pronto, no operar".
// Pura y determinista — sin estado ni efectos.
func (t TierTable) Target(secondsRemaining int) (price float64, ok bool) {
	for _, tier := range t {
		if secondsRemaining <= tier.MaxSecondsRemaining {
			return tier.TargetPrice, true
		}
	}
	return 0, false
}

// Validate comprueba la monotonía estricta de la tabla. Una tabla que viola
// la monotonía produciría precios menos agresivos al acercarse la expiración.
func (t TierTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("tier table vacía")
	}
	for i, tier := range t {
		if tier.MaxSecondsRemaining <= 0 {
			return fmt.Errorf("tier %d: max_seconds debe ser > 0", i)
		}
		if tier.TargetPrice <= 0 || tier.TargetPrice >= 1 {
			return fmt.Errorf("tier %d: target_price %.4f fuera de (0, 1)", i, tier.TargetPrice)
		}
		if i > 0 {
			prev := t[i-1]
			if tier.MaxSecondsRemaining <= prev.MaxSecondsRemaining {
				return fmt.Errorf("tier %d: max_seconds no estrictamente creciente", i)
			}
			if tier.TargetPrice <= prev.TargetPrice {
				return fmt.Errorf("tier %d: target_price no estrictamente creciente", i)
			}
		}
	}
	return nil
}
