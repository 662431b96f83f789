package entity

import "github.com/jhoicas/stock-ledger/internal/domain"

// TransactionType es el tipo (cerrado) de un movimiento del libro mayor de stock.
type TransactionType string

const (
	TransactionTypeReceipt                  TransactionType = "receipt"
	TransactionTypePurchaseReceipt          TransactionType = "purchase_receipt"
	TransactionTypeIssue                    TransactionType = "issue"
	TransactionTypeShipment                 TransactionType = "shipment"
	TransactionTypeTransferIn               TransactionType = "transfer_in"
	TransactionTypeTransferOut              TransactionType = "transfer_out"
	TransactionTypeAdjustmentAdd            TransactionType = "adjustment_add"
	TransactionTypeAdjustmentRemove         TransactionType = "adjustment_remove"
	TransactionTypeManufacturingConsumption TransactionType = "manufacturing_consumption"
	TransactionTypeManufacturingOutput      TransactionType = "manufacturing_output"
	TransactionTypeSale                     TransactionType = "sale"
	TransactionTypeReturn                   TransactionType = "return"
	TransactionTypePurchaseReturn           TransactionType = "purchase_return"
)

// Direction indica si un movimiento suma (entrada) o resta (salida) stock.
type Direction int

const (
	DirectionInbound Direction = iota + 1
	DirectionOutbound
)

func (d Direction) String() string {
	switch d {
	case DirectionInbound:
		return "inbound"
	case DirectionOutbound:
		return "outbound"
	}
	return "unknown"
}

// AllTransactionTypes lista los tipos válidos.
func AllTransactionTypes() []TransactionType {
	return []TransactionType{
		TransactionTypeReceipt, TransactionTypePurchaseReceipt, TransactionTypeIssue, TransactionTypeShipment,
		TransactionTypeTransferIn, TransactionTypeTransferOut, TransactionTypeAdjustmentAdd,
		TransactionTypeAdjustmentRemove, TransactionTypeManufacturingConsumption,
		TransactionTypeManufacturingOutput, TransactionTypeSale, TransactionTypeReturn,
		TransactionTypePurchaseReturn,
	}
}

// Direction clasifica el tipo. ok=false para tipos desconocidos.
func (t TransactionType) Direction() (Direction, bool) {
	switch t {
	case TransactionTypeReceipt, TransactionTypePurchaseReceipt, TransactionTypeTransferIn,
		TransactionTypeAdjustmentAdd, TransactionTypeManufacturingOutput, TransactionTypeReturn:
		return DirectionInbound, true
	case TransactionTypeIssue, TransactionTypeShipment, TransactionTypeTransferOut,
		TransactionTypeAdjustmentRemove, TransactionTypeManufacturingConsumption,
		TransactionTypeSale, TransactionTypePurchaseReturn:
		return DirectionOutbound, true
	}
	return 0, false
}

func (t TransactionType) IsValid() bool {
	_, ok := t.Direction()
	return ok
}

func (t TransactionType) IsInbound() bool {
	d, ok := t.Direction()
	return ok && d == DirectionInbound
}

func (t TransactionType) IsOutbound() bool {
	d, ok := t.Direction()
	return ok && d == DirectionOutbound
}

// Label devuelve la etiqueta legible del tipo.
func (t TransactionType) Label() string {
	switch t {
	case TransactionTypeReceipt:
		return "Receipt"
	case TransactionTypePurchaseReceipt:
		return "Purchase receipt"
	case TransactionTypeIssue:
		return "Issue"
	case TransactionTypeShipment:
		return "Shipment"
	case TransactionTypeTransferIn:
		return "Transfer in"
	case TransactionTypeTransferOut:
		return "Transfer out"
	case TransactionTypeAdjustmentAdd:
		return "Adjustment (add)"
	case TransactionTypeAdjustmentRemove:
		return "Adjustment (remove)"
	case TransactionTypeManufacturingConsumption:
		return "Manufacturing consumption"
	case TransactionTypeManufacturingOutput:
		return "Manufacturing output"
	case TransactionTypeSale:
		return "Sale"
	case TransactionTypeReturn:
		return "Return"
	case TransactionTypePurchaseReturn:
		return "Purchase return"
	}
	return string(t)
}

// ParseTransactionType valida un tipo recibido como texto.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(s)
	if !t.IsValid() {
		return "", domain.InvalidArgument("transaction_type", "unknown transaction type: "+s)
	}
	return t, nil
}
