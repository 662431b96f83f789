package dto

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/valueobject"
)

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Total    int `json:"total"`
	Page     int `json:"page"`
	PerPage  int `json:"per_page"`
	LastPage int `json:"last_page"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	Requested string `json:"requested,omitempty"`
	Available string `json:"available,omitempty"`
}

const dateLayout = "2006-01-02"

// parseQuantity convierte el número JSON a Quantity citando el campo en el error.
func parseQuantity(field string, n json.Number) (valueobject.Quantity, error) {
	q, err := valueobject.NewQuantity(string(n))
	if err != nil {
		return q, domain.InvalidArgument(field, field+" must be numeric")
	}
	return q, nil
}

func parseOptionalQuantity(field string, n *json.Number) (*valueobject.Quantity, error) {
	if n == nil || *n == "" {
		return nil, nil
	}
	q, err := parseQuantity(field, *n)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// parseDate acepta YYYY-MM-DD; vacío = nil.
func parseDate(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, domain.InvalidArgument(field, field+" must use the YYYY-MM-DD format")
	}
	return &t, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
