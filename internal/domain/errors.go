package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto de serialización")
	ErrTimeout            = errors.New("plazo excedido antes del commit")
	ErrInsufficientStock  = errors.New("stock insuficiente")
	ErrInvariantViolation = errors.New("violación de invariante de stock")
	ErrSerialUnavailable  = errors.New("serial no disponible")
)

// Códigos de DomainError usados por los adaptadores de flujo.
const (
	CodePartMismatch         = "part-mismatch"
	CodeCompletedSaleLocked  = "completed-sale-locked"
	CodeCanceledSaleLocked   = "canceled-sale-locked"
	CodeBinMissingForProduct = "bin-missing-for-product"
	CodeSameBinTransfer      = "same-bin-transfer"
	CodeNoLevelsForAdjust    = "no-levels-for-adjust"
	CodeSerialsRequired      = "serials-required"
	CodeReceiptExceedsOrder  = "receipt-exceeds-ordered"
	CodeProductArchived      = "product-archived"
)

// DomainError restricción de nivel adaptador con código estable para el cliente HTTP.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewDomainError construye un DomainError con código y mensaje formateado.
func NewDomainError(code, format string, args ...any) *DomainError {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsDomainError devuelve el DomainError envuelto en err, o nil si no lo es.
func AsDomainError(err error) *DomainError {
	var de *DomainError
	if errors.As(err, &de) {
		return de
	}
	return nil
}
