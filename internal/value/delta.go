package value

import "math/big"

// Delta is a signed per-asset change, as produced by Difference or carried in a
// transaction's mint field. Entries with a zero amount are not meaningful.
type Delta map[AssetClass]*big.Int

// DeltaOf builds a Delta from plain int64 amounts, dropping zeros.
func DeltaOf(entries map[AssetClass]int64) Delta {
	d := make(Delta, len(entries))
	for asset, amt := range entries {
		if amt != 0 {
			d[asset] = big.NewInt(amt)
		}
	}
	return d
}

// Of returns the signed amount for asset, or zero.
func (d Delta) Of(asset AssetClass) *big.Int {
	if amt, ok := d[asset]; ok && amt != nil {
		return new(big.Int).Set(amt)
	}
	return new(big.Int)
}

// Policies returns the distinct minting policies touched by d.
func (d Delta) Policies() []string {
	seen := make(map[string]struct{}, len(d))
	out := make([]string, 0, len(d))
	for asset, amt := range d {
		if amt == nil || amt.Sign() == 0 {
			continue
		}
		if _, ok := seen[asset.PolicyID]; ok {
			continue
		}
		seen[asset.PolicyID] = struct{}{}
		out = append(out, asset.PolicyID)
	}
	return out
}
