package entity

import "time"

// QuantityLevel es el par (on_hand, reserved) de un (producto, bin).
// Invariante en todo commit: 0 <= Reserved <= OnHand.
// La ausencia de fila equivale a cero.
type QuantityLevel struct {
	OrganizationID string
	ProductID      string
	BinID          string
	OnHand         int64
	Reserved       int64
	UpdatedAt      time.Time
}

// Available devuelve las unidades disponibles para reservar (on_hand - reserved).
func (l *QuantityLevel) Available() int64 {
	return l.OnHand - l.Reserved
}
