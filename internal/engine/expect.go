package engine

import (
	"bytes"
	"math/big"

	"github.com/aman-zulfiqar/amm-validator/internal/amm"
	"github.com/aman-zulfiqar/amm-validator/internal/codec"
	"github.com/aman-zulfiqar/amm-validator/internal/ledger"
	"github.com/aman-zulfiqar/amm-validator/internal/pool"
	"github.com/aman-zulfiqar/amm-validator/internal/security"
)

// plan is the computed successor together with the side effects the carrying
// transaction must show.
type plan struct {
	expected     *pool.Record
	baseToPaired bool
	lpMint       *big.Int
	nftMint      *big.Int
}

func newPlan(expected *pool.Record) plan {
	return plan{expected: expected, lpMint: new(big.Int), nftMint: new(big.Int)}
}

func (e *Engine) expect(cur *pool.Record, action codec.Action, next *pool.Record, tx ledger.TransactionContext) (plan, Decision) {
	switch a := action.(type) {
	case codec.Swap:
		return expectSwap(cur, a, next)
	case codec.AddLiquidity:
		return expectDeposit(cur, a, next)
	case codec.RemoveLiquidity:
		return expectWithdrawal(cur, a, next)
	case codec.CreatePool:
		return expectCreate(cur, a, next)
	case codec.EmergencyPause:
		return expectPause(cur, next, true)
	case codec.EmergencyUnpause:
		return expectPause(cur, next, false)
	case codec.UpdateMetadata:
		return expectMetadata(cur, a, next)
	case codec.MintLP:
		return expectMintLP(cur, a, next)
	case codec.BurnLP:
		return expectBurnLP(cur, a, next)
	}
	return plan{}, reject(security.InvalidParameters, "unsupported action %T", action)
}

func expectSwap(cur *pool.Record, a codec.Swap, next *pool.Record) (plan, Decision) {
	if cur.Payload.Config.Paused {
		return plan{}, reject(security.PoolPaused, "pool is paused")
	}

	// direction: whichever reserve the proposal grows is the input side
	var baseToPaired bool
	cs, ns := cur.Payload.State, next.Payload.State
	switch {
	case ns.ReserveBase > cs.ReserveBase:
		baseToPaired = true
	case ns.ReservePaired > cs.ReservePaired:
		baseToPaired = false
	default:
		return plan{}, reject(security.ExpectedActualMismatch, "proposed record grows neither reserve")
	}

	reserveIn, reserveOut := cs.Reserves(baseToPaired)
	fee := cur.Payload.Config.FeeBps
	amountOut, err := amm.SwapOutput(reserveIn, reserveOut, a.AmountIn, fee)
	if err != nil {
		return plan{}, mathReject("swap output", err)
	}
	if amountOut == 0 {
		return plan{}, reject(security.InvalidParameters, "swap of %d yields no output", a.AmountIn)
	}
	if amountOut < a.MinOut {
		return plan{}, reject(security.MinOutputNotMet, "output %d below minimum %d", amountOut, a.MinOut)
	}

	expected, err := pool.ApplySwap(cur, pool.SwapChange{
		BaseToPaired: baseToPaired,
		AmountIn:     a.AmountIn,
		AmountOut:    amountOut,
		Fee:          amm.FeeAmount(a.AmountIn, fee),
		At:           ns.LastInteraction,
	})
	if err != nil {
		return plan{}, mathReject("apply swap", err)
	}
	p := newPlan(expected)
	p.baseToPaired = baseToPaired
	return p, accept()
}

func expectDeposit(cur *pool.Record, a codec.AddLiquidity, next *pool.Record) (plan, Decision) {
	if cur.Payload.Config.Paused {
		return plan{}, reject(security.PoolPaused, "pool is paused")
	}
	cs := cur.Payload.State
	lpOut, err := amm.LPMintAmount(cs.ReserveBase, cs.ReservePaired, cs.TotalLP, a.BaseAmount, a.PairedAmount)
	if err != nil {
		return plan{}, mathReject("lp mint", err)
	}
	if lpOut == 0 {
		return plan{}, reject(security.DustAttack, "deposit mints no LP")
	}
	if lpOut < a.MinLPOut {
		return plan{}, reject(security.MinOutputNotMet, "lp out %d below minimum %d", lpOut, a.MinLPOut)
	}

	// providers are counted once, so the counter may or may not move
	providers := cur.Payload.Stats.UniqueProviders
	newProvider := next.Payload.Stats.UniqueProviders == providers+1

	expected, err := pool.ApplyLiquidityChange(cur, pool.LiquidityChange{
		Deposit:     true,
		Base:        a.BaseAmount,
		Paired:      a.PairedAmount,
		LP:          lpOut,
		NewProvider: newProvider,
		At:          next.Payload.State.LastInteraction,
	})
	if err != nil {
		return plan{}, mathReject("apply deposit", err)
	}
	p := newPlan(expected)
	p.lpMint.SetUint64(lpOut)
	return p, accept()
}

func expectWithdrawal(cur *pool.Record, a codec.RemoveLiquidity, next *pool.Record) (plan, Decision) {
	cs := cur.Payload.State
	baseOut, pairedOut, err := amm.ProportionalWithdrawal(cs.ReserveBase, cs.ReservePaired, cs.TotalLP, a.LPAmount)
	if err != nil {
		return plan{}, mathReject("withdrawal", err)
	}
	if baseOut < a.MinBaseOut || pairedOut < a.MinPairedOut {
		return plan{}, reject(security.MinOutputNotMet, "withdrawal %d/%d below minimum %d/%d", baseOut, pairedOut, a.MinBaseOut, a.MinPairedOut)
	}

	expected, err := pool.ApplyLiquidityChange(cur, pool.LiquidityChange{
		Base:   baseOut,
		Paired: pairedOut,
		LP:     a.LPAmount,
		At:     next.Payload.State.LastInteraction,
	})
	if err != nil {
		return plan{}, mathReject("apply withdrawal", err)
	}
	p := newPlan(expected)
	p.lpMint.SetUint64(a.LPAmount)
	p.lpMint.Neg(p.lpMint)
	return p, accept()
}

func expectCreate(cur *pool.Record, a codec.CreatePool, next *pool.Record) (plan, Decision) {
	if cur != nil && !cur.Payload.State.Closed() {
		return plan{}, reject(security.InvalidParameters, "pool already holds liquidity")
	}
	if next.Version != pool.CurrentVersion {
		return plan{}, reject(security.InvalidParameters, "new pools must use record version %d", pool.CurrentVersion)
	}
	if next.Payload.Config.FeeBps != a.FeeBps {
		return plan{}, reject(security.ExpectedActualMismatch, "config fee %d differs from requested %d", next.Payload.Config.FeeBps, a.FeeBps)
	}
	if len(next.Payload.State.PoolNFTName) == 0 {
		return plan{}, reject(security.InvalidParameters, "pool identity token needs a name")
	}

	lpOut, err := amm.LPMintAmount(0, 0, 0, a.InitialBase, a.InitialPaired)
	if err != nil {
		return plan{}, mathReject("initial lp", err)
	}
	price, err := amm.Price(a.InitialBase, a.InitialPaired)
	if err != nil {
		return plan{}, mathReject("initial price", err)
	}

	at := next.Payload.State.LastInteraction
	cfg := next.Payload.Config
	cfg.Paused = false

	expected := next.Clone()
	expected.Payload = pool.Datum{
		State: pool.State{
			ReserveBase:     a.InitialBase,
			ReservePaired:   a.InitialPaired,
			TotalLP:         lpOut,
			LastInteraction: at,
			PoolNFTName:     bytes.Clone(next.Payload.State.PoolNFTName),
		},
		Config: cfg,
		Stats: pool.Stats{
			UniqueProviders: 1,
			CreatedAt:       at,
			LastPrice:       price,
		},
	}

	p := newPlan(expected)
	p.lpMint.SetUint64(lpOut)
	p.nftMint.SetInt64(1)
	return p, accept()
}

func expectPause(cur *pool.Record, next *pool.Record, pause bool) (plan, Decision) {
	if cur.Payload.Config.Paused == pause {
		if pause {
			return plan{}, reject(security.InvalidParameters, "pool is already paused")
		}
		return plan{}, reject(security.InvalidParameters, "pool is not paused")
	}
	expected := cur.Clone()
	expected.Payload.Config.Paused = pause
	expected.Payload.State.LastInteraction = next.Payload.State.LastInteraction
	return newPlan(expected), accept()
}

func expectMetadata(cur *pool.Record, a codec.UpdateMetadata, next *pool.Record) (plan, Decision) {
	expected := cur.Clone()
	if expected.Metadata == nil {
		expected.Metadata = make(map[string][]byte)
	}
	expected.Metadata[pool.MetaName] = bytes.Clone(a.Name)
	if len(a.Description) > 0 {
		expected.Metadata[pool.MetaDescription] = bytes.Clone(a.Description)
	} else {
		delete(expected.Metadata, pool.MetaDescription)
	}
	expected.Payload.State.LastInteraction = next.Payload.State.LastInteraction
	return newPlan(expected), accept()
}

func checkPoolRef(cur *pool.Record, ref []byte) Decision {
	if len(ref) > 0 && !bytes.Equal(ref, cur.Payload.State.PoolNFTName) {
		return reject(security.InvalidParameters, "pool reference %q does not name this pool", ref)
	}
	return accept()
}

// expectMintLP accepts a mint only when the proposed reserves grow by enough
// to back it at the pool's current price.
func expectMintLP(cur *pool.Record, a codec.MintLP, next *pool.Record) (plan, Decision) {
	if cur.Payload.Config.Paused {
		return plan{}, reject(security.PoolPaused, "pool is paused")
	}
	if d := checkPoolRef(cur, a.PoolRef); !d.Accepted {
		return plan{}, d
	}
	cs, ns := cur.Payload.State, next.Payload.State
	if cs.TotalLP == 0 {
		return plan{}, reject(security.InsufficientLiquidity, "cannot mint LP against an empty pool")
	}
	if ns.ReserveBase < cs.ReserveBase || ns.ReservePaired < cs.ReservePaired {
		return plan{}, reject(security.ExpectedActualMismatch, "mint must not shrink reserves")
	}
	base, paired := ns.ReserveBase-cs.ReserveBase, ns.ReservePaired-cs.ReservePaired
	backed, err := amm.LPMintAmount(cs.ReserveBase, cs.ReservePaired, cs.TotalLP, base, paired)
	if err != nil {
		return plan{}, mathReject("mint lp", err)
	}
	if a.Amount > backed {
		return plan{}, reject(security.ManipulationAttempt, "mint of %d LP exceeds the %d backed by deposit %d/%d", a.Amount, backed, base, paired)
	}

	expected, err := pool.ApplyLiquidityChange(cur, pool.LiquidityChange{
		Deposit: true,
		Base:    base,
		Paired:  paired,
		LP:      a.Amount,
		At:      ns.LastInteraction,
	})
	if err != nil {
		return plan{}, mathReject("mint lp", err)
	}
	p := newPlan(expected)
	p.lpMint.SetUint64(a.Amount)
	return p, accept()
}

func expectBurnLP(cur *pool.Record, a codec.BurnLP, next *pool.Record) (plan, Decision) {
	if d := checkPoolRef(cur, a.PoolRef); !d.Accepted {
		return plan{}, d
	}
	expected := cur.Clone()
	st := &expected.Payload.State
	if a.Amount > st.TotalLP {
		return plan{}, reject(security.InsufficientLiquidity, "burn of %d exceeds supply %d", a.Amount, st.TotalLP)
	}
	if a.Amount == st.TotalLP && !st.Closed() {
		return plan{}, reject(security.InvalidParameters, "burning the whole supply would strand the reserves; withdraw instead")
	}
	st.TotalLP -= a.Amount
	st.LastInteraction = next.Payload.State.LastInteraction

	p := newPlan(expected)
	p.lpMint.SetUint64(a.Amount)
	p.lpMint.Neg(p.lpMint)
	return p, accept()
}
