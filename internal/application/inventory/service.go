package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/domain/valueobject"
	"github.com/jhoicas/stock-ledger/pkg/logger"
	"github.com/shopspring/decimal"
)

// Service orquesta el libro de stock: guarda de cumplimiento, unidad de trabajo con bloqueo
// de filas, resolvedor de deducción, saldos y asientos.
type Service struct {
	tx         TxRunner
	reader     Repos
	compliance ComplianceSettings
	idem       IdempotencyStore
	publisher  LedgerPublisher
	log        *logger.Logger
	now        func() time.Time
	newID      func() string
	currency   string
	perPage    int
}

// Option configura el servicio.
type Option func(*Service)

func WithCompliance(c ComplianceSettings) Option { return func(s *Service) { s.compliance = c } }
func WithIdempotency(i IdempotencyStore) Option  { return func(s *Service) { s.idem = i } }
func WithPublisher(p LedgerPublisher) Option     { return func(s *Service) { s.publisher = p } }
func WithClock(now func() time.Time) Option      { return func(s *Service) { s.now = now } }
func WithIDGenerator(f func() string) Option     { return func(s *Service) { s.newID = f } }

// WithCurrency moneda de valorización (no hay conversión entre monedas).
func WithCurrency(code string) Option { return func(s *Service) { s.currency = code } }

// WithDefaultPerPage tamaño de página por defecto de los listados.
func WithDefaultPerPage(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.perPage = n
		}
	}
}

// NewService construye el servicio. reader se usa para lecturas sin bloqueo.
func NewService(tx TxRunner, reader Repos, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		tx:         tx,
		reader:     reader,
		compliance: noCompliance{},
		idem:       noIdempotency{},
		publisher:  noPublisher{},
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
		currency:   "USD",
		perPage:    15,
	}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if c, err := valueobject.NormalizeCurrency(s.currency); err == nil {
		s.currency = c
	} else {
		s.currency = "USD"
	}
	return s
}

const maxPerPage = 100

func (s *Service) isCompliant(tenantID, productID string, flag bool) bool {
	return flag || s.compliance.IsPharmaceuticalCompliant(tenantID, productID)
}

// claim reserva la clave de idempotencia (si vino) y devuelve la función que la libera si la operación falla.
func (s *Service) claim(ctx context.Context, tenantID, key string) (func(error), error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return func(error) {}, nil
	}
	full := tenantID + ":" + key
	ok, err := s.idem.Claim(ctx, full)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &domain.Error{Kind: domain.ErrConflict, Field: "idempotency_key", Message: "duplicate idempotency key: " + key}
	}
	return func(opErr error) {
		if opErr == nil {
			return
		}
		if err := s.idem.Release(context.WithoutCancel(ctx), full); err != nil {
			s.log.Warn().Err(err).Str("key", full).Msg("idempotency: no se pudo liberar la clave")
		}
	}, nil
}

// publish entrega asientos confirmados; un fallo solo se registra, el libro ya es la fuente de verdad.
func (s *Service) publish(ctx context.Context, entries ...*entity.LedgerEntry) {
	if len(entries) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, entries); err != nil {
		s.log.Warn().Err(err).Int("entries", len(entries)).Msg("ledger: fallo al publicar asientos")
	}
}

func requireIDs(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return domain.InvalidArgument(pairs[i], pairs[i]+" is required")
		}
	}
	return nil
}

func requirePositive(q valueobject.Quantity) error {
	if !q.IsPositive() {
		return domain.InvalidArgument("quantity", "quantity must be greater than zero")
	}
	return nil
}

// money construye un importe en la moneda del servicio (ya normalizada en NewService).
func (s *Service) money(amount decimal.Decimal) valueobject.Money {
	m, err := valueobject.MoneyFromDecimal(amount, s.currency)
	if err != nil {
		return valueobject.ZeroMoney(s.currency)
	}
	return m
}

// findCandidates obtiene los lotes candidatos bloqueados, en el orden de la estrategia.
func findCandidates(ctx context.Context, r Repos, st inventory.Strategy, q repository.BatchQuery) ([]*entity.Batch, error) {
	switch st {
	case inventory.StrategyLIFO:
		return r.Batches.FindByLIFO(ctx, q)
	case inventory.StrategyFEFO:
		return r.Batches.FindByFEFO(ctx, q)
	default:
		return r.Batches.FindByFIFO(ctx, q)
	}
}

func (s *Service) pageSize(n int) int {
	if n <= 0 {
		return s.perPage
	}
	if n > maxPerPage {
		return maxPerPage
	}
	return n
}
