package pricing

import (
	"testing"

	"hellofixo-service/internal/domain/catalog"

	"github.com/stretchr/testify/assert"
)

func TestCalculateWorkedExample(t *testing.T) {
	est := Calculate(Input{
		BaseInspectionFee:    150,
		InspectionMultiplier: 1.2,
		Discount:             50,
	})

	assert.Equal(t, 180.0, est.InspectionFee)
	assert.Equal(t, 7.0, est.GSTAmount)
	assert.Equal(t, 187.0, est.GrandTotal)
	assert.Equal(t, 137.0, est.FinalPayable)
}

func TestCalculateNeverNegative(t *testing.T) {
	est := Calculate(Input{
		BaseInspectionFee:    99,
		InspectionMultiplier: 1,
		Discount:             500,
		WalletDeduction:      100,
	})

	assert.Equal(t, 103.0, est.GrandTotal)
	assert.Equal(t, 0.0, est.FinalPayable)
	assert.Equal(t, 0.0, est.WalletDeduction)
}

func TestCalculateCapsWalletAfterDiscount(t *testing.T) {
	est := Calculate(Input{
		BaseInspectionFee:    200,
		InspectionMultiplier: 1,
		Discount:             50,
		WalletDeduction:      1000,
	})

	assert.Equal(t, 208.0, est.GrandTotal)
	assert.Equal(t, 158.0, est.WalletDeduction)
	assert.Equal(t, 0.0, est.FinalPayable)
}

func TestCalculateIgnoresNegativeInputs(t *testing.T) {
	est := Calculate(Input{
		BaseInspectionFee:    100,
		InspectionMultiplier: 0,
		Discount:             -20,
		WalletDeduction:      -5,
	})

	assert.Equal(t, 100.0, est.InspectionFee)
	assert.Equal(t, 4.0, est.GSTAmount)
	assert.Equal(t, 0.0, est.Discount)
	assert.Equal(t, 104.0, est.FinalPayable)
}

func TestRanges(t *testing.T) {
	ranges := Ranges([]catalog.Problem{
		{ID: 1, Name: "Not cooling", EstimatedPrice: 1000},
		{ID: 2, Name: "Noise", EstimatedPrice: 100},
	}, 1.5)

	assert.Equal(t, []ProblemRange{
		{ProblemID: 1, Name: "Not cooling", Min: 1200, Max: 1800},
		{ProblemID: 2, Name: "Noise", Min: 0, Max: 450},
	}, ranges)
}

func TestGrandTotalIdentity(t *testing.T) {
	for _, base := range []float64{0, 49, 99, 149.5, 250, 399} {
		for _, m := range []float64{0.8, 1, 1.15, 1.2, 1.75} {
			est := Calculate(Input{BaseInspectionFee: base, InspectionMultiplier: m})
			assert.Equal(t, est.InspectionFee+est.GSTAmount, est.GrandTotal)
			assert.GreaterOrEqual(t, est.FinalPayable, 0.0)
		}
	}
}
