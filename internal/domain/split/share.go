package split

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/grymey-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// ShareKind tags how a recipient's portion is expressed
type ShareKind string

const (
	ShareAmount     ShareKind = "amount"
	SharePercentage ShareKind = "percentage"
)

// Share is either a fixed amount or a percentage of the split total.
// Exactly one of Amount and Percentage is meaningful, chosen by Kind.
type Share struct {
	Kind       ShareKind       `json:"kind"`
	Amount     int64           `json:"amount,omitempty"`
	Percentage decimal.Decimal `json:"percentage,omitempty"`
}

func AmountShare(amount int64) Share {
	return Share{Kind: ShareAmount, Amount: amount}
}

func PercentageShare(percentage decimal.Decimal) Share {
	return Share{Kind: SharePercentage, Percentage: percentage}
}

// MarshalJSON drops the field that does not belong to the share's kind
func (s Share) MarshalJSON() ([]byte, error) {
	if s.Kind == SharePercentage {
		return json.Marshal(struct {
			Kind       ShareKind       `json:"kind"`
			Percentage decimal.Decimal `json:"percentage"`
		}{s.Kind, s.Percentage})
	}
	return json.Marshal(struct {
		Kind   ShareKind `json:"kind"`
		Amount int64     `json:"amount"`
	}{s.Kind, s.Amount})
}

// Resolve turns shares into concrete minor-unit amounts.
//
// Percentage shares must all be percentages and sum to exactly 100. Each amount is
// floored; the leftover units go one at a time to the largest fractional parts,
// earlier recipients first on ties. Amount shares must sum to total, or define it
// when total is zero.
func Resolve(total int64, shares []Share) (int64, []int64, error) {
	if len(shares) == 0 {
		return 0, nil, fmt.Errorf("%w: at least one recipient is required", shared.ErrInvalidSplit)
	}

	percentages := 0
	for _, s := range shares {
		switch s.Kind {
		case SharePercentage:
			percentages++
		case ShareAmount:
		default:
			return 0, nil, fmt.Errorf("%w: unknown share kind %q", shared.ErrInvalidSplit, s.Kind)
		}
	}

	if percentages == 0 {
		return resolveAmounts(total, shares)
	}
	if percentages != len(shares) {
		return 0, nil, fmt.Errorf("%w: percentage and amount shares cannot be mixed", shared.ErrInvalidSplit)
	}
	return resolvePercentages(total, shares)
}

func resolveAmounts(total int64, shares []Share) (int64, []int64, error) {
	amounts := make([]int64, len(shares))
	var sum int64
	for i, s := range shares {
		if s.Amount <= 0 {
			return 0, nil, fmt.Errorf("%w: recipient %d amount must be positive", shared.ErrInvalidSplit, i)
		}
		amounts[i] = s.Amount
		sum += s.Amount
	}
	if total == 0 {
		total = sum
	}
	if sum != total {
		return 0, nil, fmt.Errorf("%w: amounts sum to %d, total is %d", shared.ErrInvalidSplit, sum, total)
	}
	return total, amounts, nil
}

func resolvePercentages(total int64, shares []Share) (int64, []int64, error) {
	if total <= 0 {
		return 0, nil, fmt.Errorf("%w: percentage split needs a positive total", shared.ErrInvalidSplit)
	}

	sum := decimal.Zero
	for i, s := range shares {
		if !s.Percentage.IsPositive() || s.Percentage.GreaterThan(oneHundred) {
			return 0, nil, fmt.Errorf("%w: recipient %d percentage must be in (0, 100]", shared.ErrInvalidSplit, i)
		}
		sum = sum.Add(s.Percentage)
	}
	if !sum.Equal(oneHundred) {
		return 0, nil, fmt.Errorf("%w: percentages sum to %s, not 100", shared.ErrInvalidSplit, sum.String())
	}

	totalDec := decimal.NewFromInt(total)
	amounts := make([]int64, len(shares))
	fractions := make([]decimal.Decimal, len(shares))
	var allocated int64
	for i, s := range shares {
		exact := totalDec.Mul(s.Percentage).Div(oneHundred)
		floor := exact.Floor()
		amounts[i] = floor.IntPart()
		fractions[i] = exact.Sub(floor)
		allocated += amounts[i]
	}

	order := make([]int, len(shares))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return fractions[order[a]].GreaterThan(fractions[order[b]])
	})
	for k := int64(0); k < total-allocated; k++ {
		amounts[order[k]]++
	}

	for i, amount := range amounts {
		if amount <= 0 {
			return 0, nil, fmt.Errorf("%w: recipient %d resolves to zero", shared.ErrInvalidSplit, i)
		}
	}
	return total, amounts, nil
}
