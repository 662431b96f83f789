package inventory

import (
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Strategy estrategia de deducción de lotes.
type Strategy string

const (
	StrategyFIFO   Strategy = "fifo"
	StrategyLIFO   Strategy = "lifo"
	StrategyFEFO   Strategy = "fefo"
	StrategyManual Strategy = "manual"
)

// ParseStrategy normaliza el texto recibido. Vacío se devuelve vacío (lo resuelve la política de cumplimiento).
func ParseStrategy(s string) (Strategy, error) {
	st := Strategy(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case "", StrategyFIFO, StrategyLIFO, StrategyFEFO, StrategyManual:
		return st, nil
	}
	return "", domain.InvalidArgument("strategy", "unknown deduction strategy: "+s)
}

func fifoLess(a, b *entity.Batch) bool {
	if !a.MovementDate.Equal(b.MovementDate) {
		return a.MovementDate.Before(b.MovementDate)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// expiryLess ordena por vencimiento ascendente; sin vencimiento al final.
// ok=false si ambos empatan.
func expiryLess(a, b *time.Time) (less, ok bool) {
	switch {
	case a == nil && b == nil:
		return false, false
	case a == nil:
		return false, true
	case b == nil:
		return true, true
	case a.Equal(*b):
		return false, false
	}
	return a.Before(*b), true
}

// SortBatches ordena los candidatos según la estrategia. Manual usa el orden FIFO.
func SortBatches(st Strategy, batches []*entity.Batch) {
	switch st {
	case StrategyLIFO:
		sort.SliceStable(batches, func(i, j int) bool { return fifoLess(batches[j], batches[i]) })
	case StrategyFEFO:
		sort.SliceStable(batches, func(i, j int) bool {
			if less, ok := expiryLess(batches[i].ExpiryDate, batches[j].ExpiryDate); ok {
				return less
			}
			return fifoLess(batches[i], batches[j])
		})
	default:
		sort.SliceStable(batches, func(i, j int) bool { return fifoLess(batches[i], batches[j]) })
	}
}

// SortStockItemsFEFO ordena saldos por expiry_date ASC, sin vencimiento al final.
func SortStockItemsFEFO(items []*entity.StockItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if less, ok := expiryLess(items[i].ExpiryDate, items[j].ExpiryDate); ok {
			return less
		}
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}
