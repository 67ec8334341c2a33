package entity

import (
	"strings"
	"time"
)

// Bin es la unidad física mínima de almacenamiento de un producto.
type Bin struct {
	ID             string
	OrganizationID string
	Code           string // único por organización, mayúsculas sin espacios
	Location       string
	CreatedAt      time.Time
}

// NormalizeBinCode deja el código en mayúsculas y sin espacios alrededor.
func NormalizeBinCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
