package security

import (
	"errors"
	"fmt"

	"github.com/aman-zulfiqar/amm-validator/internal/amm"
	"github.com/aman-zulfiqar/amm-validator/internal/value"
)

// Config defines the thresholds of every check. Nothing in this package reads
// configuration on its own; callers pass a Config to each entry point.
type Config struct {
	// Dust protection
	MinSwapAmounts       map[value.AssetClass]uint64 `json:"min_swap_amounts,omitempty"`
	DefaultMinSwapAmount uint64                      `json:"default_min_swap_amount"`
	MaxSwapPercentageBps uint64                      `json:"max_swap_percentage_bps"`

	// Price impact limit
	MaxPriceImpactBps uint64 `json:"max_price_impact_bps"`

	// Transaction shape
	MaxTxInputs       int    `json:"max_tx_inputs"`
	MaxTxOutputs      int    `json:"max_tx_outputs"`
	MaxMintPolicies   int    `json:"max_mint_policies"`
	MaxTxFee          uint64 `json:"max_tx_fee"`
	MaxValidityWindow int64  `json:"max_validity_window_ms"`

	// Suspicious patterns
	MaxDistinctPolicies      int `json:"max_distinct_policies"`
	CircularAddressThreshold int `json:"circular_address_threshold"`

	// Withdrawal limits
	MinLPBurn        uint64 `json:"min_lp_burn"`
	MinWithdrawalBps uint64 `json:"min_withdrawal_bps"`
	MaxWithdrawalBps uint64 `json:"max_withdrawal_bps"`

	// Min-deposit sizing of the continuing pool output
	Resource amm.ResourceParams `json:"resource"`
}

// DefaultConfig returns conservative settings
func DefaultConfig() Config {
	return Config{
		MinSwapAmounts:           map[value.AssetClass]uint64{value.Base: 1_000_000}, // 1 ADA
		DefaultMinSwapAmount:     1,
		MaxSwapPercentageBps:     5000, // 50% of the input reserve
		MaxPriceImpactBps:        1000, // 10%
		MaxTxInputs:              10,
		MaxTxOutputs:             10,
		MaxMintPolicies:          3,
		MaxTxFee:                 2_000_000,
		MaxValidityWindow:        2 * 60 * 60 * 1000, // 2h
		MaxDistinctPolicies:      20,
		CircularAddressThreshold: 5,
		MinLPBurn:                1000,
		MinWithdrawalBps:         1,
		MaxWithdrawalBps:         10000,
		Resource:                 amm.DefaultResourceParams(),
	}
}

// MinSwapAmount returns the dust floor for asset.
func (c Config) MinSwapAmount(asset value.AssetClass) uint64 {
	if m, ok := c.MinSwapAmounts[asset]; ok {
		return m
	}
	return c.DefaultMinSwapAmount
}

// Validate rejects configurations that would make every check pass or fail
// trivially.
func (c Config) Validate() error {
	var errs []error
	if c.MaxSwapPercentageBps == 0 || c.MaxSwapPercentageBps > amm.BpsDenominator {
		errs = append(errs, fmt.Errorf("max_swap_percentage_bps must be in 1..%d", amm.BpsDenominator))
	}
	if c.MaxPriceImpactBps == 0 {
		errs = append(errs, errors.New("max_price_impact_bps must be positive"))
	}
	if c.MaxTxInputs <= 0 || c.MaxTxOutputs <= 0 {
		errs = append(errs, errors.New("max_tx_inputs and max_tx_outputs must be positive"))
	}
	if c.MaxMintPolicies < 0 || c.MaxDistinctPolicies < 0 {
		errs = append(errs, errors.New("policy limits must not be negative"))
	}
	if c.MaxValidityWindow <= 0 {
		errs = append(errs, errors.New("max_validity_window_ms must be positive"))
	}
	if c.CircularAddressThreshold <= 0 {
		errs = append(errs, errors.New("circular_address_threshold must be positive"))
	}
	if c.MinWithdrawalBps > c.MaxWithdrawalBps || c.MaxWithdrawalBps > amm.BpsDenominator {
		errs = append(errs, fmt.Errorf("withdrawal bps range [%d, %d] is invalid", c.MinWithdrawalBps, c.MaxWithdrawalBps))
	}
	return errors.Join(errs...)
}
