package calculator

import (
	"fmt"
)

// SubgroupComposition is the minimal view of a household unit the
// allocator needs: who is actually attending.
type SubgroupComposition struct {
	SubgroupID     string
	ActiveAdults   int
	ActiveChildren int
}

// SubgroupAmount is one subgroup's computed share of an amount.
type SubgroupAmount struct {
	SubgroupID string  `json:"subgroup_id"`
	Shares     float64 `json:"shares"` // weighted share count for this subgroup
	Amount     float64 `json:"amount"` // this subgroup's portion of the total amount
}

// Allocate distributes amount proportionally across subgroups using
// per-adult and per-child weights:
//
//	shares_i = activeAdults_i * adultShare + activeChildren_i * childShare
//	amount_i = amount * shares_i / totalShares
//
// The returned amounts sum to amount within floating-point tolerance; no
// whole-currency rounding redistribution is performed, that is a caller
// concern. When totalShares is zero (nobody active anywhere) every
// subgroup gets zero — a valid state, not an error.
func Allocate(amount, adultShare, childShare float64, subgroups []SubgroupComposition) ([]SubgroupAmount, error) {
	if amount < 0 {
		return nil, fmt.Errorf("amount cannot be negative: %v", amount)
	}
	if adultShare <= 0 {
		return nil, fmt.Errorf("adult share must be positive: %v", adultShare)
	}
	if childShare < 0 {
		return nil, fmt.Errorf("child share cannot be negative: %v", childShare)
	}

	results := make([]SubgroupAmount, len(subgroups))
	totalShares := 0.0
	for i, sg := range subgroups {
		shares := float64(sg.ActiveAdults)*adultShare + float64(sg.ActiveChildren)*childShare
		results[i] = SubgroupAmount{SubgroupID: sg.SubgroupID, Shares: shares}
		totalShares += shares
	}

	if totalShares == 0 {
		return results, nil
	}

	for i := range results {
		results[i].Amount = amount * results[i].Shares / totalShares
	}
	return results, nil
}
