// Package fees computes the California statutory attorney fee estimate.
package fees

import "math"

// Bracket is one marginal band of the statutory fee schedule.
type Bracket struct {
	Width float64 `json:"width"`
	Rate  float64 `json:"rate"`
}

// Schedule is applied in order; value beyond the last band carries no fee.
var Schedule = []Bracket{
	{Width: 100_000, Rate: 0.04},
	{Width: 100_000, Rate: 0.03},
	{Width: 800_000, Rate: 0.02},
	{Width: 9_000_000, Rate: 0.01},
	{Width: 15_000_000, Rate: 0.005},
}

// Portion is the fee attributable to one band.
type Portion struct {
	From   float64 `json:"from"`
	To     float64 `json:"to"`
	Rate   float64 `json:"rate"`
	Amount float64 `json:"amount"`
}

// Breakdown splits estateValue across the schedule. Bands the value does
// not reach are omitted; +Inf fills every band.
func Breakdown(estateValue float64) []Portion {
	if !(estateValue > 0) {
		return nil
	}
	var out []Portion
	remaining := estateValue
	floor := 0.0
	for _, b := range Schedule {
		if remaining <= 0 {
			break
		}
		taxed := math.Min(remaining, b.Width)
		out = append(out, Portion{
			From:   floor,
			To:     floor + taxed,
			Rate:   b.Rate,
			Amount: taxed * b.Rate,
		})
		remaining -= taxed
		floor += b.Width
	}
	return out
}

// StatutoryFee returns the fee rounded to the nearest dollar. Zero, negative
// and NaN values yield 0; the fee never exceeds the full schedule.
func StatutoryFee(estateValue float64) int64 {
	total := 0.0
	for _, p := range Breakdown(estateValue) {
		total += p.Amount
	}
	return int64(math.Round(total))
}
