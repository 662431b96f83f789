package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Errores de dominio (clases). Usar errors.Is contra estas variables.
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrLockTimeout       = errors.New("lock wait timeout")
	ErrConflict          = errors.New("conflict with current state")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")

	// ErrInvalidInput se conserva por compatibilidad con los handlers HTTP.
	ErrInvalidInput = ErrInvalidArgument
)

// Error es un error de dominio con contexto: campo afectado y cantidades solicitada/disponible.
// Kind es una de las variables Err* de este paquete.
type Error struct {
	Kind      error
	Field     string
	Message   string
	Requested *decimal.Decimal
	Available *decimal.Decimal
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Requested != nil && e.Available != nil {
		fmt.Fprintf(&b, " (requested %s, available %s)", e.Requested.StringFixed(4), e.Available.StringFixed(4))
	}
	return b.String()
}

// Unwrap permite errors.Is(err, domain.ErrInsufficientStock) y similares.
func (e *Error) Unwrap() error { return e.Kind }

// InvalidArgument construye un error de validación que cita el campo.
func InvalidArgument(field, message string) *Error {
	return &Error{Kind: ErrInvalidArgument, Field: field, Message: message}
}

// NotFound construye un error de búsqueda fallida.
func NotFound(resource, id string) *Error {
	return &Error{Kind: ErrNotFound, Field: "id", Message: fmt.Sprintf("%s %s not found", resource, id)}
}

// InsufficientStock construye el error de deducción no satisfecha.
func InsufficientStock(requested, available decimal.Decimal) *Error {
	return &Error{
		Kind:      ErrInsufficientStock,
		Field:     "quantity",
		Message:   "insufficient stock",
		Requested: &requested,
		Available: &available,
	}
}

// NegativeStock es la violación de la guarda de stock negativo/sobre-reserva.
// Se clasifica como argumento inválido.
func NegativeStock(requested, available decimal.Decimal) *Error {
	return &Error{
		Kind:      ErrInvalidArgument,
		Field:     "quantity",
		Message:   "insufficient stock",
		Requested: &requested,
		Available: &available,
	}
}

// OverRelease es la liberación de más de lo reservado: el saldo y sus reservas divergieron.
func OverRelease(requested, reserved decimal.Decimal) *Error {
	return &Error{
		Kind:      ErrConflict,
		Field:     "quantity_reserved",
		Message:   "release exceeds reserved quantity",
		Requested: &requested,
		Available: &reserved,
	}
}

// FieldOf devuelve el campo citado por el error, si lo hay.
func FieldOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Field
	}
	return ""
}
