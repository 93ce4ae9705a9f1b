package engine

import (
	"github.com/aman-zulfiqar/amm-validator/internal/codec"
	"github.com/aman-zulfiqar/amm-validator/internal/ledger"
	"github.com/aman-zulfiqar/amm-validator/internal/pool"
	"github.com/aman-zulfiqar/amm-validator/internal/security"
	"github.com/aman-zulfiqar/amm-validator/internal/value"
)

// EvaluateFactory decides whether proposed is a valid successor of the
// factory record current under a factory-scoped action.
func (e *Engine) EvaluateFactory(current *pool.FactoryRecord, action codec.FactoryAction, proposed *pool.FactoryRecord, tx ledger.TransactionContext) Decision {
	d := e.evaluateFactory(current, action, proposed, tx)
	e.logDecision(action, d)
	return d
}

func (e *Engine) evaluateFactory(cur *pool.FactoryRecord, action codec.FactoryAction, next *pool.FactoryRecord, tx ledger.TransactionContext) Decision {
	if action == nil || cur == nil || next == nil {
		return reject(security.InvalidParameters, "factory evaluation needs an action and both records")
	}

	expected, d := e.expectFactory(cur, action, tx)
	if !d.Accepted {
		return d
	}

	res := e.pipeline.Validate(security.Input{Action: action, Factory: cur, Tx: tx})
	if !res.Valid {
		return fromResult(res)
	}
	return compareFactory(expected, next)
}

func (e *Engine) expectFactory(cur *pool.FactoryRecord, action codec.FactoryAction, tx ledger.TransactionContext) (pool.FactoryRecord, Decision) {
	expected := *cur
	switch a := action.(type) {
	case codec.FactoryCreatePool:
		if cur.Paused {
			return expected, reject(security.PoolPaused, "factory is paused")
		}
		if res := security.CheckDeposit(e.cfg, a.PairedAsset, a.InitialBase, a.InitialPaired); !res.Valid {
			return expected, fromResult(res)
		}
		if !paysCreationFee(tx, cur.Admin, cur.CreationFee) {
			return expected, reject(security.InvalidParameters, "no output pays the creation fee of %d to the factory admin", cur.CreationFee)
		}
		expected.PoolCount++
		if expected.PoolCount == 0 {
			return expected, reject(security.InvalidParameters, "pool count overflow")
		}

	case codec.UpdateFactoryConfig:
		expected.DefaultFeeBps = a.DefaultFeeBps
		expected.CreationFee = a.CreationFee
		expected.Admin = a.Admin

	case codec.PauseFactory:
		if cur.Paused {
			return expected, reject(security.InvalidParameters, "factory is already paused")
		}
		expected.Paused = true

	case codec.UnpauseFactory:
		if !cur.Paused {
			return expected, reject(security.InvalidParameters, "factory is not paused")
		}
		expected.Paused = false

	default:
		return expected, reject(security.InvalidParameters, "unsupported factory action %T", action)
	}
	return expected, accept()
}

func paysCreationFee(tx ledger.TransactionContext, admin ledger.Address, fee uint64) bool {
	if fee == 0 {
		return true
	}
	for _, o := range tx.Outputs {
		if o.Address.Equal(admin) && value.Contains(o.Value, value.Base, fee) {
			return true
		}
	}
	return false
}

func compareFactory(want pool.FactoryRecord, got *pool.FactoryRecord) Decision {
	switch {
	case !want.Admin.Equal(got.Admin):
		return mismatch("factory.admin", want.Admin.Key(), got.Admin.Key())
	case want.PoolCount != got.PoolCount:
		return mismatch("factory.pool_count", want.PoolCount, got.PoolCount)
	case want.DefaultFeeBps != got.DefaultFeeBps:
		return mismatch("factory.default_fee_bps", want.DefaultFeeBps, got.DefaultFeeBps)
	case want.CreationFee != got.CreationFee:
		return mismatch("factory.creation_fee", want.CreationFee, got.CreationFee)
	case want.Paused != got.Paused:
		return mismatch("factory.paused", want.Paused, got.Paused)
	}
	return accept()
}
