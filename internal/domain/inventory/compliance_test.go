package inventory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
)

func TestCheckBatchFields_Farmaceutico(t *testing.T) {
	exp := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	err := inventory.CheckBatchFields(true, "", &exp)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	assert.Equal(t, "batch_number", domain.FieldOf(err))
	assert.Contains(t, err.Error(), "batch_number")

	err = inventory.CheckBatchFields(true, "L-01", nil)
	require.Error(t, err)
	assert.Equal(t, "expiry_date", domain.FieldOf(err))

	assert.NoError(t, inventory.CheckBatchFields(true, "L-01", &exp))
}

func TestCheckBatchFields_SinCumplimientoNoExigeNada(t *testing.T) {
	assert.NoError(t, inventory.CheckBatchFields(false, "", nil))
}

func TestResolveStrategy(t *testing.T) {
	cases := []struct {
		name      string
		compliant bool
		in        inventory.Strategy
		want      inventory.Strategy
		wantErr   bool
	}{
		{"por defecto fifo", false, "", inventory.StrategyFIFO, false},
		{"respeta lifo", false, inventory.StrategyLIFO, inventory.StrategyLIFO, false},
		{"farmacéutico por defecto fefo", true, "", inventory.StrategyFEFO, false},
		{"farmacéutico acepta fefo explícito", true, inventory.StrategyFEFO, inventory.StrategyFEFO, false},
		{"farmacéutico rechaza fifo", true, inventory.StrategyFIFO, "", true},
		{"farmacéutico rechaza manual", true, inventory.StrategyManual, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := inventory.ResolveStrategy(tc.compliant, tc.in)
			if tc.wantErr {
				require.Error(t, err)
				assert.Equal(t, "strategy", domain.FieldOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCheckManual_ExigeLote(t *testing.T) {
	err := inventory.CheckManual(inventory.StrategyManual, " ")
	require.Error(t, err)
	assert.Equal(t, "batch_number is required when using the manual deduction strategy", err.Error())
	assert.NoError(t, inventory.CheckManual(inventory.StrategyManual, "L-9"))
	assert.NoError(t, inventory.CheckManual(inventory.StrategyFIFO, ""))
}

func TestParseStrategy(t *testing.T) {
	st, err := inventory.ParseStrategy(" FEFO ")
	require.NoError(t, err)
	assert.Equal(t, inventory.StrategyFEFO, st)

	_, err = inventory.ParseStrategy("random")
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestCompliancePolicy(t *testing.T) {
	p := inventory.NewCompliancePolicy([]string{" pharma-1 ", ""})
	assert.True(t, p.IsPharmaceuticalCompliant("pharma-1", "any"))
	assert.False(t, p.IsPharmaceuticalCompliant("retail", "any"))

	var nilPolicy *inventory.CompliancePolicy
	assert.False(t, nilPolicy.IsPharmaceuticalCompliant("pharma-1", ""))
}
