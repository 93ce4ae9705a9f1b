package amm

import "github.com/aman-zulfiqar/amm-validator/internal/value"

// ResourceParams prices the minimum base-asset deposit an output must carry.
type ResourceParams struct {
	BaseFloor         uint64 `json:"base_floor"`
	PerAssetCost      uint64 `json:"per_asset_cost"`
	PerByteCost       uint64 `json:"per_byte_cost"`
	SizeCeiling       int    `json:"size_ceiling"`
	PenaltyMultiplier uint64 `json:"penalty_multiplier"`
}

// DefaultResourceParams mirrors typical mainnet min-deposit sizing.
func DefaultResourceParams() ResourceParams {
	return ResourceParams{
		BaseFloor:         1_000_000,
		PerAssetCost:      150_000,
		PerByteCost:       4_310,
		SizeCeiling:       512,
		PenaltyMultiplier: 2,
	}
}

// MinResourceRequirement returns
//
//	baseFloor + assetCount*perAssetCost + datumBytes*perByteCost
//
// where bytes beyond SizeCeiling cost PenaltyMultiplier times as much. Only
// contract-owned outputs carry a datum, so the datum size is ignored otherwise.
// The sum saturates instead of wrapping.
func MinResourceRequirement(v value.Value, datumSizeBytes int, isContractOwned bool, p ResourceParams) uint64 {
	total := p.BaseFloor
	total = satAdd(total, satMul(uint64(len(value.NonBaseAssets(v))), p.PerAssetCost))

	if !isContractOwned || datumSizeBytes <= 0 {
		return total
	}

	normal, excess := datumSizeBytes, 0
	if p.SizeCeiling >= 0 && datumSizeBytes > p.SizeCeiling {
		normal, excess = p.SizeCeiling, datumSizeBytes-p.SizeCeiling
	}
	multiplier := p.PenaltyMultiplier
	if multiplier == 0 {
		multiplier = 1
	}

	total = satAdd(total, satMul(uint64(normal), p.PerByteCost))
	total = satAdd(total, satMul(satMul(uint64(excess), p.PerByteCost), multiplier))
	return total
}

func satAdd(a, b uint64) uint64 {
	if s := a + b; s >= a {
		return s
	}
	return ^uint64(0)
}

func satMul(a, b uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}
	if r := a * b; r/b == a {
		return r
	}
	return ^uint64(0)
}
