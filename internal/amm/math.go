package amm

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

const (
	// BpsDenominator is 100% in basis points.
	BpsDenominator = 10000
	// PriceScale is the fixed-point scale for prices and ratios.
	PriceScale = 1_000_000
)

var (
	ErrZeroReserve       = errors.New("division by zero reserve")
	ErrZeroSupply        = errors.New("division by zero total supply")
	ErrBurnExceedsSupply = errors.New("burn exceeds total supply")
	ErrOverflow          = errors.New("result overflows uint64")
	ErrInvalidFee        = errors.New("fee exceeds 10000 bps")
)

func u(x uint64) *uint256.Int { return uint256.NewInt(x) }

func toUint64(x *uint256.Int) (uint64, error) {
	if !x.IsUint64() {
		return 0, ErrOverflow
	}
	return x.Uint64(), nil
}

// SwapOutput computes the constant-product output for amountIn with the fee
// taken on the input side:
//
//	amountInEff = amountIn * (10000 - feeBps)
//	amountOut   = amountInEff * reserveOut / (reserveIn*10000 + amountInEff)
//
// All divisions floor, so amountOut is always strictly below reserveOut.
func SwapOutput(reserveIn, reserveOut, amountIn, feeBps uint64) (uint64, error) {
	if feeBps > BpsDenominator {
		return 0, ErrInvalidFee
	}
	if reserveIn == 0 || reserveOut == 0 {
		return 0, ErrZeroReserve
	}
	if amountIn == 0 {
		return 0, nil
	}

	// 256-bit intermediates: amountIn*10000*reserveOut needs up to 142 bits
	amountInEff := new(uint256.Int).Mul(u(amountIn), u(BpsDenominator-feeBps))
	numerator := new(uint256.Int).Mul(amountInEff, u(reserveOut))
	denominator := new(uint256.Int).Mul(u(reserveIn), u(BpsDenominator))
	denominator.Add(denominator, amountInEff)

	return toUint64(numerator.Div(numerator, denominator))
}

// Price returns paired per base, scaled by PriceScale.
func Price(reserveBase, reservePaired uint64) (uint64, error) {
	if reserveBase == 0 {
		return 0, ErrZeroReserve
	}
	p := new(uint256.Int).Mul(u(reservePaired), u(PriceScale))
	return toUint64(p.Div(p, u(reserveBase)))
}

// PriceImpactBps measures how far a swap moves the marginal price:
// abs(priceAfter - priceBefore) * 10000 / priceBefore, both prices being
// reserveOut/reserveIn scaled by PriceScale.
func PriceImpactBps(reserveIn, reserveOut, amountIn, feeBps uint64) (uint64, error) {
	if reserveIn == 0 || reserveOut == 0 {
		return 0, ErrZeroReserve
	}

	before := new(uint256.Int).Mul(u(reserveOut), u(PriceScale))
	before.Div(before, u(reserveIn))
	if before.IsZero() {
		return 0, fmt.Errorf("price rounds to zero: %w", ErrZeroReserve)
	}

	amountOut, err := SwapOutput(reserveIn, reserveOut, amountIn, feeBps)
	if err != nil {
		return 0, err
	}

	newIn := new(uint256.Int).Add(u(reserveIn), u(amountIn))
	after := new(uint256.Int).Mul(u(reserveOut-amountOut), u(PriceScale))
	after.Div(after, newIn)

	diff := new(uint256.Int)
	if after.Gt(before) {
		diff.Sub(after, before)
	} else {
		diff.Sub(before, after)
	}
	diff.Mul(diff, u(BpsDenominator))
	return toUint64(diff.Div(diff, before))
}

// LPMintAmount returns the LP tokens minted for a deposit.
//
// The first deposit mints floor(sqrt(baseIn * pairedIn)). Later deposits mint
// against the smaller of the two deposit ratios, so a provider cannot mint
// more than the worse-matched side justifies.
func LPMintAmount(reserveBase, reservePaired, totalLp, baseIn, pairedIn uint64) (uint64, error) {
	if totalLp == 0 {
		product := new(uint256.Int).Mul(u(baseIn), u(pairedIn))
		return toUint64(new(uint256.Int).Sqrt(product))
	}
	if reserveBase == 0 || reservePaired == 0 {
		return 0, ErrZeroReserve
	}

	baseRatio := new(uint256.Int).Mul(u(baseIn), u(PriceScale))
	baseRatio.Div(baseRatio, u(reserveBase))
	pairedRatio := new(uint256.Int).Mul(u(pairedIn), u(PriceScale))
	pairedRatio.Div(pairedRatio, u(reservePaired))

	ratio := baseRatio
	if pairedRatio.Lt(baseRatio) {
		ratio = pairedRatio
	}

	lp := new(uint256.Int).Mul(u(totalLp), ratio)
	return toUint64(lp.Div(lp, u(PriceScale)))
}

// ProportionalWithdrawal returns the reserves released by burning lpBurn.
func ProportionalWithdrawal(reserveBase, reservePaired, totalLp, lpBurn uint64) (baseOut, pairedOut uint64, err error) {
	if totalLp == 0 {
		return 0, 0, ErrZeroSupply
	}
	if lpBurn > totalLp {
		return 0, 0, fmt.Errorf("%w: burn %d > supply %d", ErrBurnExceedsSupply, lpBurn, totalLp)
	}

	b := new(uint256.Int).Mul(u(reserveBase), u(lpBurn))
	b.Div(b, u(totalLp))
	p := new(uint256.Int).Mul(u(reservePaired), u(lpBurn))
	p.Div(p, u(totalLp))

	// both quotients are bounded by their reserve, so they fit
	return b.Uint64(), p.Uint64(), nil
}

// BalancedAmounts picks the deposit that matches the pool ratio.
//
// If all of the base side fits, the paired side is scaled down to match;
// otherwise all of the paired side is used and the base side is scaled.
// An empty pool accepts the desired amounts as-is.
func BalancedAmounts(reserveBase, reservePaired, baseDesired, pairedDesired uint64) (base, paired uint64, err error) {
	if reserveBase == 0 && reservePaired == 0 {
		return baseDesired, pairedDesired, nil
	}
	if reserveBase == 0 || reservePaired == 0 {
		return 0, 0, ErrZeroReserve
	}

	pairedOptimal := new(uint256.Int).Mul(u(baseDesired), u(reservePaired))
	pairedOptimal.Div(pairedOptimal, u(reserveBase))
	if !pairedOptimal.Gt(u(pairedDesired)) {
		return baseDesired, pairedOptimal.Uint64(), nil
	}

	baseOptimal := new(uint256.Int).Mul(u(pairedDesired), u(reserveBase))
	baseOptimal.Div(baseOptimal, u(reservePaired))
	// pairedOptimal > pairedDesired implies baseOptimal < baseDesired
	return baseOptimal.Uint64(), pairedDesired, nil
}

// FeeAmount is the part of amountIn kept by the pool as swap fee.
func FeeAmount(amountIn, feeBps uint64) uint64 {
	f := new(uint256.Int).Mul(u(amountIn), u(feeBps))
	f.Div(f, u(BpsDenominator))
	if !f.IsUint64() {
		return amountIn
	}
	return f.Uint64()
}

// SplitFee divides the swap fee between liquidity providers and the protocol.
// protocolFeeBps is the protocol's share of the fee, in basis points.
func SplitFee(amountIn, feeBps, protocolFeeBps uint64) (lpFee, protocolFee uint64) {
	fee := FeeAmount(amountIn, feeBps)
	protocolFee = FeeAmount(fee, protocolFeeBps)
	return fee - protocolFee, protocolFee
}

// ApplySlippage calculates minimum output with slippage tolerance
// slippageBps: basis points (e.g., 100 = 1%, 50 = 0.5%)
func ApplySlippage(amountOut uint64, slippageBps uint64) uint64 {
	if slippageBps >= BpsDenominator {
		return 0
	}
	r := new(uint256.Int).Mul(u(amountOut), u(BpsDenominator-slippageBps))
	return r.Div(r, u(BpsDenominator)).Uint64()
}

// Product returns a*b as a 256-bit integer.
func Product(a, b uint64) *uint256.Int {
	return new(uint256.Int).Mul(u(a), u(b))
}
