package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/config"
)

var _ inventory.LedgerPublisher = (*LedgerPublisher)(nil)

// MessageWriter lo que el publisher necesita de *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// LedgerEvent payload publicado por cada movimiento confirmado.
type LedgerEvent struct {
	ID                        string     `json:"id"`
	TenantID                  string     `json:"tenant_id"`
	StockItemID               string     `json:"stock_item_id"`
	BatchID                   string     `json:"batch_id,omitempty"`
	TransactionType           string     `json:"transaction_type"`
	Direction                 string     `json:"direction"`
	WarehouseID               string     `json:"warehouse_id"`
	ProductID                 string     `json:"product_id"`
	UomID                     string     `json:"uom_id,omitempty"`
	Quantity                  string     `json:"quantity"`
	UnitCost                  string     `json:"unit_cost"`
	TotalCost                 string     `json:"total_cost"`
	BalanceAfter              string     `json:"balance_after"`
	BatchNumber               string     `json:"batch_number,omitempty"`
	ExpiryDate                *time.Time `json:"expiry_date,omitempty"`
	IsPharmaceuticalCompliant bool       `json:"is_pharmaceutical_compliant"`
	ReferenceType             string     `json:"reference_type,omitempty"`
	ReferenceID               string     `json:"reference_id,omitempty"`
	CreatedBy                 string     `json:"created_by"`
	CreatedAt                 time.Time  `json:"created_at"`
}

// LedgerPublisher publica movimientos del ledger; la clave es tenant/producto para conservar
// el orden por producto dentro de la partición.
type LedgerPublisher struct {
	writer MessageWriter
}

// NewLedgerPublisher envuelve un writer ya construido.
func NewLedgerPublisher(w MessageWriter) *LedgerPublisher {
	return &LedgerPublisher{writer: w}
}

// NewWriter construye el *kafka.Writer con balanceo por hash de clave.
func NewWriter(cfg config.KafkaConfig) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

// Publish envía todos los movimientos en una sola escritura.
func (p *LedgerPublisher) Publish(ctx context.Context, entries []*entity.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	msgs, err := BuildMessages(entries)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish ledger entries: %w", err)
	}
	return nil
}

// Close cierra el writer.
func (p *LedgerPublisher) Close() error {
	return p.writer.Close()
}

// BuildMessages serializa los movimientos a mensajes Kafka con headers de tipo y tenant.
func BuildMessages(entries []*entity.LedgerEntry) ([]kafkago.Message, error) {
	msgs := make([]kafkago.Message, 0, len(entries))
	for _, e := range entries {
		body, err := json.Marshal(toEvent(e))
		if err != nil {
			return nil, fmt.Errorf("marshal ledger entry %s: %w", e.ID, err)
		}
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(e.TenantID + "/" + e.ProductID),
			Value: body,
			Time:  e.CreatedAt,
			Headers: []kafkago.Header{
				{Key: "event_type", Value: []byte("stock.ledger." + string(e.TransactionType))},
				{Key: "tenant_id", Value: []byte(e.TenantID)},
			},
		})
	}
	return msgs, nil
}

func toEvent(e *entity.LedgerEntry) LedgerEvent {
	dir, _ := e.TransactionType.Direction()
	return LedgerEvent{
		ID:                        e.ID,
		TenantID:                  e.TenantID,
		StockItemID:               e.StockItemID,
		BatchID:                   e.BatchID,
		TransactionType:           string(e.TransactionType),
		Direction:                 dir.String(),
		WarehouseID:               e.WarehouseID,
		ProductID:                 e.ProductID,
		UomID:                     e.UomID,
		Quantity:                  e.Quantity.String(),
		UnitCost:                  e.UnitCost.StringFixed(4),
		TotalCost:                 e.TotalCost.StringFixed(4),
		BalanceAfter:              e.BalanceAfter.String(),
		BatchNumber:               e.BatchNumber,
		ExpiryDate:                e.ExpiryDate,
		IsPharmaceuticalCompliant: e.IsPharmaceuticalCompliant,
		ReferenceType:             e.ReferenceType,
		ReferenceID:               e.ReferenceID,
		CreatedBy:                 e.CreatedBy,
		CreatedAt:                 e.CreatedAt,
	}
}
