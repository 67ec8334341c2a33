package dto

import "time"

// CreateBinRequest entrada para crear un bin.
type CreateBinRequest struct {
	Code     string `json:"code" validate:"required,min=1,max=50"`
	Location string `json:"location" validate:"max=200"`
}

// BinResponse salida de un bin.
type BinResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
