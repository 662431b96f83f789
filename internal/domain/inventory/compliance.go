package inventory

import (
	"strings"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

// CompliancePolicy indica qué tenants operan en modo de cumplimiento farmacéutico.
type CompliancePolicy struct {
	tenants map[string]struct{}
}

// NewCompliancePolicy construye la política a partir de la lista de tenants farmacéuticos.
func NewCompliancePolicy(tenants []string) *CompliancePolicy {
	p := &CompliancePolicy{tenants: make(map[string]struct{}, len(tenants))}
	for _, t := range tenants {
		if t = strings.TrimSpace(t); t != "" {
			p.tenants[t] = struct{}{}
		}
	}
	return p
}

// IsPharmaceuticalCompliant true si el tenant hereda el modo de cumplimiento.
func (p *CompliancePolicy) IsPharmaceuticalCompliant(tenantID, _ string) bool {
	if p == nil {
		return false
	}
	_, ok := p.tenants[tenantID]
	return ok
}

// CheckBatchFields exige lote y vencimiento cuando el movimiento es farmacéutico.
// Se ejecuta antes de tocar el almacenamiento.
func CheckBatchFields(compliant bool, batchNumber string, expiry *time.Time) error {
	if !compliant {
		return nil
	}
	if strings.TrimSpace(batchNumber) == "" {
		return domain.InvalidArgument("batch_number", "batch_number is required for pharmaceutical compliant transactions")
	}
	if expiry == nil || expiry.IsZero() {
		return domain.InvalidArgument("expiry_date", "expiry_date is required for pharmaceutical compliant transactions")
	}
	return nil
}

// ResolveStrategy aplica la política de estrategia: en modo farmacéutico FEFO es obligatoria
// y cualquier otra explícita se rechaza; fuera de él el valor por defecto es FIFO.
func ResolveStrategy(compliant bool, requested Strategy) (Strategy, error) {
	if compliant {
		if requested != "" && requested != StrategyFEFO {
			return "", domain.InvalidArgument("strategy", "FEFO is the mandatory deduction strategy for pharmaceutical compliant stock")
		}
		return StrategyFEFO, nil
	}
	if requested == "" {
		return StrategyFIFO, nil
	}
	return requested, nil
}

// CheckManual exige batch_number para la estrategia manual, antes de cualquier búsqueda.
func CheckManual(st Strategy, batchNumber string) error {
	if st == StrategyManual && strings.TrimSpace(batchNumber) == "" {
		return domain.InvalidArgument("batch_number", "batch_number is required when using the manual deduction strategy")
	}
	return nil
}
