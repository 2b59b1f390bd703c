// internal/service/pricing/estimate.go
package pricing

import (
	"math"

	"hellofixo-service/internal/domain/catalog"
)

const (
	// GSTRate applies to the inspection fee only.
	GSTRate = 0.04
	// RangeSpread is added on either side of a problem's scaled price.
	RangeSpread = 300.0
)

// Input is everything the price of a visit depends on.
type Input struct {
	BaseInspectionFee    float64
	InspectionMultiplier float64
	RepairMultiplier     float64
	Problems             []catalog.Problem
	Discount             float64
	WalletDeduction      float64
}

// ProblemRange is the indicative repair price of one selected problem.
type ProblemRange struct {
	ProblemID int64   `json:"problem_id"`
	Name      string  `json:"name"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
}

// Estimate is the booking price breakdown shown before submission.
type Estimate struct {
	InspectionFee   float64        `json:"inspection_fee"`
	GSTAmount       float64        `json:"gst_amount"`
	GrandTotal      float64        `json:"grand_total"`
	Discount        float64        `json:"discount"`
	WalletDeduction float64        `json:"wallet_deduction"`
	FinalPayable    float64        `json:"final_payable"`
	Problems        []ProblemRange `json:"problems"`
}

// Calculate computes the estimate. All money amounts are whole rupees.
// Negative discount and wallet inputs count as zero, and the wallet only
// covers what is left after the discount.
func Calculate(in Input) Estimate {
	inspectionFee := math.Round(in.BaseInspectionFee * multiplier(in.InspectionMultiplier))
	gst := math.Round(inspectionFee * GSTRate)
	grandTotal := inspectionFee + gst

	discount := math.Max(in.Discount, 0)
	wallet := math.Max(in.WalletDeduction, 0)
	wallet = math.Min(wallet, math.Max(grandTotal-discount, 0))

	return Estimate{
		InspectionFee:   inspectionFee,
		GSTAmount:       gst,
		GrandTotal:      grandTotal,
		Discount:        discount,
		WalletDeduction: wallet,
		FinalPayable:    math.Max(grandTotal-discount-wallet, 0),
		Problems:        Ranges(in.Problems, in.RepairMultiplier),
	}
}

// Ranges scales each problem's estimated price by the repair multiplier and
// widens it by RangeSpread, clamping the lower bound at zero.
func Ranges(problems []catalog.Problem, repairMultiplier float64) []ProblemRange {
	m := multiplier(repairMultiplier)
	out := make([]ProblemRange, 0, len(problems))
	for _, p := range problems {
		price := math.Round(p.EstimatedPrice * m)
		out = append(out, ProblemRange{
			ProblemID: p.ID,
			Name:      p.Name,
			Min:       math.Max(price-RangeSpread, 0),
			Max:       price + RangeSpread,
		})
	}
	return out
}

// multiplier treats unset or non-positive multipliers as neutral.
func multiplier(m float64) float64 {
	if m <= 0 || math.IsNaN(m) {
		return 1
	}
	return m
}
