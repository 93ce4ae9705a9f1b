package engine_test

import (
	"math/big"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/amm-validator/internal/amm"
	"github.com/aman-zulfiqar/amm-validator/internal/codec"
	"github.com/aman-zulfiqar/amm-validator/internal/engine"
	"github.com/aman-zulfiqar/amm-validator/internal/ledger"
	"github.com/aman-zulfiqar/amm-validator/internal/pool"
	"github.com/aman-zulfiqar/amm-validator/internal/pool/pooltest"
	"github.com/aman-zulfiqar/amm-validator/internal/security"
	"github.com/aman-zulfiqar/amm-validator/internal/value"
)

const (
	now      = pooltest.CreatedAt + 10
	deadline = pooltest.CreatedAt + 1000
	surplus  = 3_000_000
)

func newEngine() *engine.Engine {
	return engine.NewEngine(security.DefaultConfig())
}

func window() ledger.ValidityRange {
	return ledger.ValidityRange{Lower: ledger.At(pooltest.CreatedAt), Upper: ledger.At(deadline)}
}

type fixture struct {
	cur    *pool.Record
	action codec.Action
	next   *pool.Record
	tx     ledger.TransactionContext
}

func (f fixture) eval(e *engine.Engine) engine.Decision {
	return e.Evaluate(f.cur, f.action, f.next, f.tx)
}

func swapFixture(t *testing.T, amountIn uint64) fixture {
	t.Helper()
	cur := pooltest.Record()
	out, err := amm.SwapOutput(pooltest.ReserveBase, pooltest.ReservePaired, amountIn, pooltest.FeeBps)
	require.NoError(t, err)
	next, err := pool.ApplySwap(cur, pool.SwapChange{
		BaseToPaired: true,
		AmountIn:     amountIn,
		AmountOut:    out,
		Fee:          amm.FeeAmount(amountIn, pooltest.FeeBps),
		At:           now,
	})
	require.NoError(t, err)

	return fixture{
		cur:    cur,
		action: codec.Swap{AmountIn: amountIn, MinOut: out, Deadline: deadline, Recipient: pooltest.Trader},
		next:   next,
		tx: ledger.TransactionContext{
			Inputs: []ledger.TxOutput{
				pooltest.ContinuingOutput(cur, surplus),
				{Address: pooltest.Trader, Value: value.FromBase(amountIn + 3_000_000)},
			},
			Outputs: []ledger.TxOutput{
				pooltest.ContinuingOutput(next, surplus),
				{Address: pooltest.Trader, Value: value.Value{pooltest.PairedAsset: out}},
			},
			Signers:  []ledger.Hash{pooltest.Trader.Payment.Hash},
			Validity: window(),
			Fee:      200_000,
		},
	}
}

func depositFixture(t *testing.T, base, paired uint64) fixture {
	t.Helper()
	cur := pooltest.Record()
	lp, err := amm.LPMintAmount(pooltest.ReserveBase, pooltest.ReservePaired, pooltest.TotalLP, base, paired)
	require.NoError(t, err)
	next, err := pool.ApplyLiquidityChange(cur, pool.LiquidityChange{
		Deposit: true, Base: base, Paired: paired, LP: lp, NewProvider: true, At: now,
	})
	require.NoError(t, err)

	return fixture{
		cur:    cur,
		action: codec.AddLiquidity{BaseAmount: base, PairedAmount: paired, MinLPOut: lp, Deadline: deadline},
		next:   next,
		tx: ledger.TransactionContext{
			Inputs: []ledger.TxOutput{pooltest.ContinuingOutput(cur, surplus)},
			Outputs: []ledger.TxOutput{
				pooltest.ContinuingOutput(next, surplus),
				{Address: pooltest.Trader, Value: value.Value{value.Base: 2_000_000, pooltest.LPAsset: lp}},
			},
			Validity: window(),
			Fee:      200_000,
			Mint:     value.Delta{pooltest.LPAsset: new(big.Int).SetUint64(lp)},
		},
	}
}

func withdrawFixture(t *testing.T, lp uint64) fixture {
	t.Helper()
	cur := pooltest.Record()
	baseOut, pairedOut, err := amm.ProportionalWithdrawal(pooltest.ReserveBase, pooltest.ReservePaired, pooltest.TotalLP, lp)
	require.NoError(t, err)
	next, err := pool.ApplyLiquidityChange(cur, pool.LiquidityChange{Base: baseOut, Paired: pairedOut, LP: lp, At: now})
	require.NoError(t, err)

	return fixture{
		cur:    cur,
		action: codec.RemoveLiquidity{LPAmount: lp, MinBaseOut: baseOut, MinPairedOut: pairedOut, Deadline: deadline},
		next:   next,
		tx: ledger.TransactionContext{
			Inputs:   []ledger.TxOutput{pooltest.ContinuingOutput(cur, surplus)},
			Outputs:  []ledger.TxOutput{pooltest.ContinuingOutput(next, surplus)},
			Validity: window(),
			Fee:      200_000,
			Mint:     value.Delta{pooltest.LPAsset: new(big.Int).Neg(new(big.Int).SetUint64(lp))},
		},
	}
}

func adminFixture(next *pool.Record, action codec.Action) fixture {
	return fixture{
		cur:    pooltest.Record(),
		action: action,
		next:   next,
		tx: ledger.TransactionContext{
			Outputs:  []ledger.TxOutput{pooltest.ContinuingOutput(next, surplus)},
			Signers:  []ledger.Hash{pooltest.Admin.Payment.Hash},
			Validity: window(),
			Fee:      200_000,
		},
	}
}

func assertRejected(t *testing.T, d engine.Decision, code security.Code) {
	t.Helper()
	assert.False(t, d.Accepted, "expected %s, got accepted", code)
	assert.Equal(t, code, d.Code, d.Message)
}

func TestEvaluate_SwapAccepted(t *testing.T) {
	f := swapFixture(t, 10_000_000)
	d := f.eval(newEngine())
	assert.True(t, d.Accepted, d.String())
}

func TestEvaluate_SwapPairedToBase(t *testing.T) {
	cur := pooltest.Record()
	amountIn := uint64(20_000_000)
	out, err := amm.SwapOutput(pooltest.ReservePaired, pooltest.ReserveBase, amountIn, pooltest.FeeBps)
	require.NoError(t, err)
	next, err := pool.ApplySwap(cur, pool.SwapChange{
		AmountIn: amountIn, AmountOut: out, Fee: amm.FeeAmount(amountIn, pooltest.FeeBps), At: now,
	})
	require.NoError(t, err)

	f := swapFixture(t, 10_000_000)
	f.action = codec.Swap{AmountIn: amountIn, MinOut: out, Deadline: deadline, Recipient: pooltest.Trader}
	f.next = next
	f.tx.Outputs = []ledger.TxOutput{
		pooltest.ContinuingOutput(next, surplus),
		{Address: pooltest.Trader, Value: value.FromBase(out)},
	}
	d := f.eval(newEngine())
	assert.True(t, d.Accepted, d.String())
}

func TestEvaluate_ScenarioA(t *testing.T) {
	// a tenth of the base reserve moves the price too far for the defaults
	f := swapFixture(t, 100_000_000)
	assertRejected(t, f.eval(newEngine()), security.ExcessivePriceImpact)

	cfg := security.DefaultConfig()
	cfg.MaxPriceImpactBps = 2500
	d := f.eval(engine.NewEngine(cfg))
	require.True(t, d.Accepted, d.String())

	noFee, err := amm.SwapOutput(pooltest.ReserveBase, pooltest.ReservePaired, 100_000_000, 0)
	require.NoError(t, err)
	got := pooltest.ReservePaired - f.next.Payload.State.ReservePaired
	assert.Less(t, got, noFee)

	before := amm.Product(pooltest.ReserveBase, pooltest.ReservePaired)
	after := amm.Product(f.next.Payload.State.ReserveBase, f.next.Payload.State.ReservePaired)
	assert.False(t, after.Lt(before))
}

func TestEvaluate_ScenarioB(t *testing.T) {
	f := withdrawFixture(t, pooltest.TotalLP/10)
	f.action = codec.RemoveLiquidity{LPAmount: pooltest.TotalLP + 1, Deadline: deadline}
	assertRejected(t, f.eval(newEngine()), security.InsufficientLiquidity)
}

func TestEvaluate_ScenarioC(t *testing.T) {
	f := swapFixture(t, 10_000_000)
	for i := 0; i < 13; i++ {
		f.tx.Inputs = append(f.tx.Inputs, ledger.TxOutput{Address: pooltest.Creator, Value: value.FromBase(1)})
	}
	require.Len(t, f.tx.Inputs, 15)
	assertRejected(t, f.eval(newEngine()), security.FlashLoanAttempt)
}

func TestEvaluate_ScenarioD(t *testing.T) {
	f := swapFixture(t, 10_000_000)
	a := f.action.(codec.Swap)
	a.Deadline = 1000
	f.action = a

	f.tx.Validity = ledger.ValidityRange{Upper: ledger.At(1001)}
	assertRejected(t, f.eval(newEngine()), security.DeadlineExpired)

	f.tx.Validity = ledger.ValidityRange{Lower: ledger.At(pooltest.CreatedAt), Upper: ledger.Unbounded()}
	d := f.eval(newEngine())
	assert.True(t, d.Accepted, d.String())
}

func TestEvaluate_SwapRejections(t *testing.T) {
	e := newEngine()

	t.Run("paused", func(t *testing.T) {
		f := swapFixture(t, 10_000_000)
		f.cur.Payload.Config.Paused = true
		assertRejected(t, f.eval(e), security.PoolPaused)
	})

	t.Run("min out", func(t *testing.T) {
		f := swapFixture(t, 10_000_000)
		a := f.action.(codec.Swap)
		a.MinOut++
		f.action = a
		assertRejected(t, f.eval(e), security.MinOutputNotMet)
	})

	t.Run("dust", func(t *testing.T) {
		f := swapFixture(t, 500_000)
		assertRejected(t, f.eval(e), security.DustAttack)
	})

	t.Run("reserves untouched", func(t *testing.T) {
		f := swapFixture(t, 10_000_000)
		f.next = f.cur.Clone()
		assertRejected(t, f.eval(e), security.ExpectedActualMismatch)
	})

	t.Run("reserve mismatch", func(t *testing.T) {
		f := swapFixture(t, 10_000_000)
		f.next.Payload.State.ReservePaired++
		d := f.eval(e)
		assertRejected(t, d, security.ExpectedActualMismatch)
		assert.Contains(t, d.Message, "state.reserve_paired")
	})

	t.Run("stats mismatch", func(t *testing.T) {
		f := swapFixture(t, 10_000_000)
		f.next.Payload.Stats.SwapCount = 7
		d := f.eval(e)
		assertRejected(t, d, security.ExpectedActualMismatch)
		assert.Contains(t, d.Message, "stats.swap_count")
	})

	t.Run("unsigned", func(t *testing.T) {
		f := swapFixture(t, 10_000_000)
		f.tx.Signers = nil
		assertRejected(t, f.eval(e), security.UnauthorizedAccess)
	})

	t.Run("time goes backwards", func(t *testing.T) {
		f := swapFixture(t, 10_000_000)
		f.cur.Payload.State.LastInteraction = now + 1
		assertRejected(t, f.eval(e), security.InvalidParameters)
	})

	t.Run("underfunded pool output", func(t *testing.T) {
		f := swapFixture(t, 10_000_000)
		f.tx.Outputs[0] = pooltest.ContinuingOutput(f.next, 0)
		assertRejected(t, f.eval(e), security.InsufficientLiquidity)
	})

	t.Run("paired reserve not held", func(t *testing.T) {
		f := swapFixture(t, 10_000_000)
		f.tx.Outputs[0].Value[pooltest.PairedAsset]--
		assertRejected(t, f.eval(e), security.ExpectedActualMismatch)
	})

	t.Run("stray mint", func(t *testing.T) {
		f := swapFixture(t, 10_000_000)
		f.tx.Mint = value.DeltaOf(map[value.AssetClass]int64{pooltest.LPAsset: 1})
		assertRejected(t, f.eval(e), security.ExpectedActualMismatch)
	})
}

func TestEvaluate_Deposit(t *testing.T) {
	e := newEngine()

	f := depositFixture(t, 100_000_000, 200_000_000)
	d := f.eval(e)
	assert.True(t, d.Accepted, d.String())

	// returning provider leaves the counter alone
	f = depositFixture(t, 100_000_000, 200_000_000)
	f.next.Payload.Stats.UniqueProviders = f.cur.Payload.Stats.UniqueProviders
	d = f.eval(e)
	assert.True(t, d.Accepted, d.String())

	f = depositFixture(t, 100_000_000, 200_000_000)
	f.tx.Mint = value.Delta{pooltest.LPAsset: big.NewInt(1)}
	assertRejected(t, f.eval(e), security.ExpectedActualMismatch)

	f = depositFixture(t, 100_000_000, 200_000_000)
	a := f.action.(codec.AddLiquidity)
	a.MinLPOut++
	f.action = a
	assertRejected(t, f.eval(e), security.MinOutputNotMet)

	f = depositFixture(t, 100_000_000, 200_000_000)
	f.cur.Payload.Config.Paused = true
	assertRejected(t, f.eval(e), security.PoolPaused)

	f = depositFixture(t, 100_000_000, 200_000_000)
	a = f.action.(codec.AddLiquidity)
	a.BaseAmount = 1
	f.action = a
	assertRejected(t, f.eval(e), security.DustAttack)
}

func TestEvaluate_Withdrawal(t *testing.T) {
	e := newEngine()

	f := withdrawFixture(t, pooltest.TotalLP/10)
	d := f.eval(e)
	assert.True(t, d.Accepted, d.String())

	f = withdrawFixture(t, pooltest.TotalLP/10)
	a := f.action.(codec.RemoveLiquidity)
	a.MinBaseOut++
	f.action = a
	assertRejected(t, f.eval(e), security.MinOutputNotMet)

	f = withdrawFixture(t, 999)
	assertRejected(t, f.eval(e), security.DustAttack)

	// burning the whole supply closes the pool
	f = withdrawFixture(t, pooltest.TotalLP)
	f.tx.Outputs = nil
	d = f.eval(e)
	assert.True(t, d.Accepted, d.String())
	assert.True(t, f.next.Payload.State.Closed())
}

func createFixture() fixture {
	next := pooltest.Record()
	return fixture{
		action: codec.CreatePool{InitialBase: pooltest.ReserveBase, InitialPaired: pooltest.ReservePaired, FeeBps: pooltest.FeeBps},
		next:   next,
		tx: ledger.TransactionContext{
			Inputs:   []ledger.TxOutput{{Address: pooltest.Creator, Value: value.FromBase(pooltest.ReserveBase + 10_000_000)}},
			Outputs:  []ledger.TxOutput{pooltest.ContinuingOutput(next, surplus)},
			Signers:  []ledger.Hash{pooltest.Creator.Payment.Hash},
			Validity: ledger.ValidityRange{Lower: ledger.At(pooltest.CreatedAt - 1000), Upper: ledger.At(deadline)},
			Fee:      300_000,
			Mint: value.DeltaOf(map[value.AssetClass]int64{
				pooltest.LPAsset: pooltest.TotalLP,
				next.NFT():       1,
			}),
		},
	}
}

func TestEvaluate_CreatePool(t *testing.T) {
	e := newEngine()

	d := createFixture().eval(e)
	assert.True(t, d.Accepted, d.String())

	f := createFixture()
	delete(f.tx.Mint, f.next.NFT())
	assertRejected(t, f.eval(e), security.ExpectedActualMismatch)

	f = createFixture()
	f.action = codec.CreatePool{InitialBase: pooltest.ReserveBase, InitialPaired: pooltest.ReservePaired, FeeBps: 100}
	assertRejected(t, f.eval(e), security.ExpectedActualMismatch)

	f = createFixture()
	f.cur = pooltest.Record()
	assertRejected(t, f.eval(e), security.InvalidParameters)

	f = createFixture()
	f.tx.Signers = nil
	assertRejected(t, f.eval(e), security.UnauthorizedAccess)

	f = createFixture()
	f.next.Payload.Stats.LastPrice++
	assertRejected(t, f.eval(e), security.ExpectedActualMismatch)

	f = createFixture()
	f.next.Payload.Config.FeeBps = 9000
	f.next.Payload.Config.ProtocolFeeBps = 2000
	assertRejected(t, f.eval(e), security.InvalidParameters)
}

func TestEvaluate_Pause(t *testing.T) {
	e := newEngine()

	next := pooltest.Record()
	next.Payload.Config.Paused = true
	next.Payload.State.LastInteraction = now
	f := adminFixture(next, codec.EmergencyPause{})
	d := f.eval(e)
	assert.True(t, d.Accepted, d.String())

	f = adminFixture(next, codec.EmergencyPause{})
	f.tx.Signers = []ledger.Hash{pooltest.Trader.Payment.Hash}
	assertRejected(t, f.eval(e), security.UnauthorizedAccess)

	f = adminFixture(next, codec.EmergencyPause{})
	f.cur.Payload.Config.Paused = true
	assertRejected(t, f.eval(e), security.InvalidParameters)

	unpaused := pooltest.Record()
	unpaused.Payload.State.LastInteraction = now
	f = adminFixture(unpaused, codec.EmergencyUnpause{})
	f.cur.Payload.Config.Paused = true
	d = f.eval(e)
	assert.True(t, d.Accepted, d.String())

	// pausing must not touch reserves
	next = next.Clone()
	next.Payload.State.ReserveBase++
	f = adminFixture(next, codec.EmergencyPause{})
	assertRejected(t, f.eval(e), security.ExpectedActualMismatch)
}

func TestEvaluate_UpdateMetadata(t *testing.T) {
	e := newEngine()

	next := pooltest.Record()
	next.Metadata[pool.MetaName] = []byte("Renamed")
	next.Metadata[pool.MetaDescription] = []byte("deep pool")
	next.Payload.State.LastInteraction = now
	action := codec.UpdateMetadata{Name: []byte("Renamed"), Description: []byte("deep pool")}

	d := adminFixture(next, action).eval(e)
	assert.True(t, d.Accepted, d.String())

	f := adminFixture(next, codec.UpdateMetadata{Name: []byte("Other")})
	assertRejected(t, f.eval(e), security.ExpectedActualMismatch)

	f = adminFixture(next, action)
	f.next = next.Clone()
	f.next.Version = 2
	d = f.eval(e)
	assertRejected(t, d, security.ExpectedActualMismatch)
	assert.Contains(t, d.Message, "version")
}

func mintFixture(t *testing.T, amount, base, paired uint64) fixture {
	t.Helper()
	cur := pooltest.Record()
	next, err := pool.ApplyLiquidityChange(cur, pool.LiquidityChange{
		Deposit: true, Base: base, Paired: paired, LP: amount, At: now,
	})
	require.NoError(t, err)

	return fixture{
		cur:    cur,
		action: codec.MintLP{Amount: amount, PoolRef: pooltest.NFTName, Recipient: pooltest.Trader},
		next:   next,
		tx: ledger.TransactionContext{
			Inputs:   []ledger.TxOutput{pooltest.ContinuingOutput(cur, surplus)},
			Outputs:  []ledger.TxOutput{pooltest.ContinuingOutput(next, surplus)},
			Signers:  []ledger.Hash{pooltest.Trader.Payment.Hash},
			Validity: window(),
			Mint:     value.Delta{pooltest.LPAsset: new(big.Int).SetUint64(amount)},
		},
	}
}

func TestEvaluate_MintAndBurnLP(t *testing.T) {
	e := newEngine()

	backed, err := amm.LPMintAmount(pooltest.ReserveBase, pooltest.ReservePaired, pooltest.TotalLP, 10_000_000, 20_000_000)
	require.NoError(t, err)
	f := mintFixture(t, backed, 10_000_000, 20_000_000)
	d := f.eval(e)
	assert.True(t, d.Accepted, d.String())

	f = mintFixture(t, backed-1, 10_000_000, 20_000_000)
	d = f.eval(e)
	assert.True(t, d.Accepted, d.String())

	f = mintFixture(t, backed, 10_000_000, 20_000_000)
	f.action = codec.MintLP{Amount: backed, PoolRef: []byte("ELSEWHERE"), Recipient: pooltest.Trader}
	assertRejected(t, f.eval(e), security.InvalidParameters)

	f = mintFixture(t, backed+1, 10_000_000, 20_000_000)
	assertRejected(t, f.eval(e), security.ManipulationAttempt)

	f = mintFixture(t, 5_000, 0, 0)
	assertRejected(t, f.eval(e), security.ManipulationAttempt)

	f = mintFixture(t, 99*pooltest.TotalLP, 0, 0)
	assertRejected(t, f.eval(e), security.ManipulationAttempt)

	// one-sided deposits back nothing
	f = mintFixture(t, 5_000, 10_000_000, 0)
	assertRejected(t, f.eval(e), security.ManipulationAttempt)

	shrunk := pooltest.Record()
	shrunk.Payload.State.ReserveBase -= 1_000
	shrunk.Payload.State.TotalLP += 5_000
	shrunk.Payload.State.LastInteraction = now
	f = mintFixture(t, 5_000, 0, 0)
	f.next = shrunk
	f.tx.Outputs = []ledger.TxOutput{pooltest.ContinuingOutput(shrunk, surplus)}
	assertRejected(t, f.eval(e), security.ExpectedActualMismatch)

	burned := pooltest.Record()
	burned.Payload.State.TotalLP -= 5_000
	burned.Payload.State.LastInteraction = now
	f = fixture{
		cur:    pooltest.Record(),
		action: codec.BurnLP{Amount: 5_000, Owner: pooltest.Trader},
		next:   burned,
		tx: ledger.TransactionContext{
			Outputs:  []ledger.TxOutput{pooltest.ContinuingOutput(burned, surplus)},
			Signers:  []ledger.Hash{pooltest.Trader.Payment.Hash},
			Validity: window(),
			Mint:     value.DeltaOf(map[value.AssetClass]int64{pooltest.LPAsset: -5_000}),
		},
	}
	d = f.eval(e)
	assert.True(t, d.Accepted, d.String())

	f.action = codec.BurnLP{Amount: pooltest.TotalLP + 1, Owner: pooltest.Trader}
	assertRejected(t, f.eval(e), security.InsufficientLiquidity)
}

func TestEvaluate_Structure(t *testing.T) {
	e := newEngine()

	f := swapFixture(t, 10_000_000)
	assertRejected(t, e.Evaluate(f.cur, nil, f.next, f.tx), security.InvalidParameters)
	assertRejected(t, e.Evaluate(f.cur, codec.PauseFactory{}, f.next, f.tx), security.InvalidParameters)

	f.next.Version = 0
	assertRejected(t, f.eval(e), security.InvalidParameters)

	f = swapFixture(t, 10_000_000)
	delete(f.cur.Metadata, pool.MetaName)
	assertRejected(t, f.eval(e), security.InvalidParameters)
}

func TestEvaluate_RecordInvariants(t *testing.T) {
	e := newEngine()

	// reserves with no LP supply
	f := swapFixture(t, 10_000_000)
	f.cur.Payload.State.TotalLP = 0
	d := f.eval(e)
	assertRejected(t, d, security.InvalidParameters)
	assert.Contains(t, d.Message, "current record")
	assert.Contains(t, d.Message, pool.ErrOrphanReserves.Error())

	// LP supply over an empty reserve
	f = swapFixture(t, 10_000_000)
	f.next.Payload.State.ReservePaired = 0
	d = f.eval(e)
	assertRejected(t, d, security.InvalidParameters)
	assert.Contains(t, d.Message, "proposed record")
	assert.Contains(t, d.Message, pool.ErrEmptyReserve.Error())
}

func factoryTx(outputs ...ledger.TxOutput) ledger.TransactionContext {
	return ledger.TransactionContext{
		Outputs:  outputs,
		Validity: window(),
		Fee:      200_000,
	}
}

func TestEvaluateFactory(t *testing.T) {
	e := newEngine()
	feeOut := ledger.TxOutput{Address: pooltest.Admin, Value: value.FromBase(2_000_000)}
	create := codec.FactoryCreatePool{PairedAsset: pooltest.PairedAsset, InitialBase: 10_000_000, InitialPaired: 20_000_000, FeeBps: 30}

	next := pooltest.Factory()
	next.PoolCount++
	d := e.EvaluateFactory(pooltest.Factory(), create, next, factoryTx(feeOut))
	assert.True(t, d.Accepted, d.String())

	d = e.EvaluateFactory(pooltest.Factory(), create, next, factoryTx())
	assertRejected(t, d, security.InvalidParameters)

	d = e.EvaluateFactory(pooltest.Factory(), create, pooltest.Factory(), factoryTx(feeOut))
	assertRejected(t, d, security.ExpectedActualMismatch)

	paused := pooltest.Factory()
	paused.Paused = true
	d = e.EvaluateFactory(paused, create, next, factoryTx(feeOut))
	assertRejected(t, d, security.PoolPaused)

	dust := create
	dust.InitialBase = 10
	d = e.EvaluateFactory(pooltest.Factory(), dust, next, factoryTx(feeOut))
	assertRejected(t, d, security.DustAttack)

	update := codec.UpdateFactoryConfig{DefaultFeeBps: 25, CreationFee: 5_000_000, Admin: pooltest.Creator}
	updated := pooltest.Factory()
	updated.DefaultFeeBps, updated.CreationFee, updated.Admin = 25, 5_000_000, pooltest.Creator
	tx := factoryTx()
	tx.Signers = []ledger.Hash{pooltest.Admin.Payment.Hash}
	d = e.EvaluateFactory(pooltest.Factory(), update, updated, tx)
	assert.True(t, d.Accepted, d.String())

	d = e.EvaluateFactory(pooltest.Factory(), update, updated, factoryTx())
	assertRejected(t, d, security.UnauthorizedAccess)

	d = e.EvaluateFactory(pooltest.Factory(), codec.PauseFactory{}, paused, tx)
	assert.True(t, d.Accepted, d.String())
	d = e.EvaluateFactory(paused, codec.PauseFactory{}, paused, tx)
	assertRejected(t, d, security.InvalidParameters)
	d = e.EvaluateFactory(paused, codec.UnpauseFactory{}, pooltest.Factory(), tx)
	assert.True(t, d.Accepted, d.String())
}

func TestEvaluatePayload(t *testing.T) {
	e := newEngine()
	f := swapFixture(t, 10_000_000)

	cur, err := pool.EncodeRecord(f.cur)
	require.NoError(t, err)
	next, err := pool.EncodeRecord(f.next)
	require.NoError(t, err)
	action, err := codec.Encode(f.action)
	require.NoError(t, err)

	d := e.EvaluatePayload(cur, action, next, f.tx)
	assert.True(t, d.Accepted, d.String())

	assertRejected(t, e.EvaluatePayload(cur, []byte{0xff}, next, f.tx), security.InvalidParameters)
	assertRejected(t, e.EvaluatePayload(cur, action, []byte{0x01}, f.tx), security.InvalidParameters)

	fc, err := pool.EncodeFactory(pooltest.Factory())
	require.NoError(t, err)
	paused := pooltest.Factory()
	paused.Paused = true
	fn, err := pool.EncodeFactory(paused)
	require.NoError(t, err)
	pause, err := codec.Encode(codec.PauseFactory{})
	require.NoError(t, err)

	tx := factoryTx()
	tx.Signers = []ledger.Hash{pooltest.Admin.Payment.Hash}
	d = e.EvaluatePayload(fc, pause, fn, tx)
	assert.True(t, d.Accepted, d.String())
}

func TestEvaluate_LogsDecision(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	e := engine.NewEngine(security.DefaultConfig(), engine.WithLogger(logger))

	f := swapFixture(t, 10_000_000)
	f.tx.Signers = nil
	f.eval(e)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "transition rejected", entry.Message)
	assert.Equal(t, security.UnauthorizedAccess, entry.Data["code"])
	assert.Equal(t, "swap", entry.Data["action"])
}
