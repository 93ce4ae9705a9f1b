package security

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/aman-zulfiqar/amm-validator/internal/amm"
	"github.com/aman-zulfiqar/amm-validator/internal/ledger"
	"github.com/aman-zulfiqar/amm-validator/internal/pool"
	"github.com/aman-zulfiqar/amm-validator/internal/value"
)

// CheckDust rejects swaps below the asset's dust floor (DustAttack) and swaps
// larger than MaxSwapPercentageBps of the input reserve (ManipulationAttempt).
func CheckDust(cfg Config, asset value.AssetClass, amountIn, reserveIn uint64) Result {
	if floor := cfg.MinSwapAmount(asset); amountIn < floor {
		return Reject(DustAttack, "swap of %d %s is below the minimum %d", amountIn, asset, floor)
	}
	// amountIn/reserveIn > pct/10000, cross-multiplied
	lhs := amm.Product(amountIn, amm.BpsDenominator)
	rhs := amm.Product(reserveIn, cfg.MaxSwapPercentageBps)
	if lhs.Gt(rhs) {
		return Reject(ManipulationAttempt, "swap of %d exceeds %d bps of reserve %d", amountIn, cfg.MaxSwapPercentageBps, reserveIn)
	}
	return OK()
}

// CheckDeposit applies the per-asset dust floor to both deposit sides.
func CheckDeposit(cfg Config, pairedAsset value.AssetClass, baseAmount, pairedAmount uint64) Result {
	if floor := cfg.MinSwapAmount(value.Base); baseAmount < floor {
		return Reject(DustAttack, "base deposit %d is below the minimum %d", baseAmount, floor)
	}
	if floor := cfg.MinSwapAmount(pairedAsset); pairedAmount < floor {
		return Reject(DustAttack, "paired deposit %d is below the minimum %d", pairedAmount, floor)
	}
	return OK()
}

// CheckWithdrawal enforces the LP burn floor and the withdrawal share range.
func CheckWithdrawal(cfg Config, lpAmount, totalLP uint64) Result {
	if lpAmount < cfg.MinLPBurn {
		return Reject(DustAttack, "burn of %d LP is below the minimum %d", lpAmount, cfg.MinLPBurn)
	}
	if totalLP == 0 {
		return Reject(InsufficientLiquidity, "pool has no LP supply")
	}
	if lpAmount > totalLP {
		return Reject(InsufficientLiquidity, "burn of %d LP exceeds supply %d", lpAmount, totalLP)
	}
	share := amm.Product(lpAmount, amm.BpsDenominator)
	share.Div(share, uint256.NewInt(totalLP))
	bps := share.Uint64()
	if bps < cfg.MinWithdrawalBps || bps > cfg.MaxWithdrawalBps {
		return Reject(InvalidParameters, "withdrawal of %d bps outside [%d, %d]", bps, cfg.MinWithdrawalBps, cfg.MaxWithdrawalBps)
	}
	return OK()
}

// CheckInvariant compares the constant product before and after a transition.
// Swaps must not decrease it. Any transition that leaves LP supply outstanding
// must leave both reserves positive.
func CheckInvariant(before, after pool.State, isSwap bool) Result {
	if after.TotalLP > 0 && (after.ReserveBase == 0 || after.ReservePaired == 0) {
		return Reject(InsufficientLiquidity, "reserves %d/%d drained with %d LP outstanding", after.ReserveBase, after.ReservePaired, after.TotalLP)
	}
	if !isSwap {
		return OK()
	}
	k0 := amm.Product(before.ReserveBase, before.ReservePaired)
	k1 := amm.Product(after.ReserveBase, after.ReservePaired)
	if k1.Lt(k0) {
		return Reject(ManipulationAttempt, "constant product decreased from %s to %s", k0.Dec(), k1.Dec())
	}
	return OK()
}

// CheckPriceImpact rejects swaps that move the marginal price more than
// MaxPriceImpactBps.
func CheckPriceImpact(cfg Config, reserveIn, reserveOut, amountIn, feeBps uint64) Result {
	impact, err := amm.PriceImpactBps(reserveIn, reserveOut, amountIn, feeBps)
	if err != nil {
		if errors.Is(err, amm.ErrInvalidFee) {
			return Reject(InvalidParameters, "price impact: %v", err)
		}
		return Reject(InsufficientLiquidity, "price impact: %v", err)
	}
	if impact > cfg.MaxPriceImpactBps {
		return Reject(ExcessivePriceImpact, "price impact %d bps exceeds max %d bps", impact, cfg.MaxPriceImpactBps)
	}
	return OK()
}

// CheckTransactionShape bounds the size of the carrying transaction.
func CheckTransactionShape(cfg Config, tx ledger.TransactionContext) Result {
	// 1. Input and output counts
	if len(tx.Inputs) > cfg.MaxTxInputs {
		return Reject(FlashLoanAttempt, "%d inputs exceed max %d", len(tx.Inputs), cfg.MaxTxInputs)
	}
	if len(tx.Outputs) > cfg.MaxTxOutputs {
		return Reject(FlashLoanAttempt, "%d outputs exceed max %d", len(tx.Outputs), cfg.MaxTxOutputs)
	}

	// 2. Minting policies
	if n := len(tx.Mint.Policies()); n > cfg.MaxMintPolicies {
		return Reject(FlashLoanAttempt, "%d minting policies exceed max %d", n, cfg.MaxMintPolicies)
	}

	// 3. Fee
	if tx.Fee > cfg.MaxTxFee {
		return Reject(FlashLoanAttempt, "fee %d exceeds max %d", tx.Fee, cfg.MaxTxFee)
	}

	// 4. Validity window
	if span, ok := tx.Validity.Span(); ok && span > cfg.MaxValidityWindow {
		return Reject(FlashLoanAttempt, "validity window %dms exceeds max %dms", span, cfg.MaxValidityWindow)
	}
	return OK()
}

// CheckAuthorization requires actor's payment credential among the signers.
// A nil actor means the action is permissionless. Script credentials cannot
// sign, so a script actor is always rejected.
func CheckAuthorization(tx ledger.TransactionContext, actor *ledger.Address) Result {
	if actor == nil {
		return OK()
	}
	if actor.Payment.Kind == ledger.ScriptCredential {
		return Reject(UnauthorizedAccess, "script credential %s cannot sign", actor.Payment)
	}
	if !tx.SignedBy(actor.Payment) {
		return Reject(UnauthorizedAccess, "missing signature from %s", actor.Payment)
	}
	return OK()
}

// CheckDeadline requires the transaction's upper validity bound to be no later
// than the deadline. An unbounded upper validity satisfies any deadline.
func CheckDeadline(tx ledger.TransactionContext, deadline int64) Result {
	upper := tx.Validity.Upper
	if !upper.Finite {
		return OK()
	}
	if upper.Time > deadline {
		return Reject(DeadlineExpired, "validity upper bound %d is past deadline %d", upper.Time, deadline)
	}
	return OK()
}

// CheckSuspiciousPatterns flags transactions that touch too many distinct
// token policies (FlashLoanAttempt) or that route one address through too
// many inputs and outputs (ManipulationAttempt).
func CheckSuspiciousPatterns(cfg Config, tx ledger.TransactionContext) Result {
	policies := make(map[string]struct{})
	for _, p := range tx.Mint.Policies() {
		policies[p] = struct{}{}
	}
	for _, o := range tx.Outputs {
		for _, asset := range value.NonBaseAssets(o.Value) {
			policies[asset.PolicyID] = struct{}{}
		}
	}
	if len(policies) > cfg.MaxDistinctPolicies {
		return Reject(FlashLoanAttempt, "%d distinct policies exceed max %d", len(policies), cfg.MaxDistinctPolicies)
	}

	seen := make(map[string]int)
	count := func(outs []ledger.TxOutput) (string, bool) {
		for _, o := range outs {
			key := o.Address.Key()
			seen[key]++
			if seen[key] > cfg.CircularAddressThreshold {
				return key, true
			}
		}
		return "", false
	}
	if addr, hit := count(tx.Inputs); hit {
		return Reject(ManipulationAttempt, "address %s repeats more than %d times", addr, cfg.CircularAddressThreshold)
	}
	if addr, hit := count(tx.Outputs); hit {
		return Reject(ManipulationAttempt, "address %s repeats more than %d times", addr, cfg.CircularAddressThreshold)
	}
	return OK()
}
