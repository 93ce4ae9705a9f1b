package security

import (
	"github.com/aman-zulfiqar/amm-validator/internal/codec"
	"github.com/aman-zulfiqar/amm-validator/internal/ledger"
	"github.com/aman-zulfiqar/amm-validator/internal/pool"
	"github.com/aman-zulfiqar/amm-validator/internal/value"
)

// Input is everything a check may look at. Current and Proposed are nil for
// factory actions; Factory is nil for pool actions.
type Input struct {
	Action   codec.Action
	Current  *pool.Record
	Proposed *pool.Record
	Factory  *pool.FactoryRecord
	Tx       ledger.TransactionContext

	// BaseToPaired is the swap direction; ignored for other actions.
	BaseToPaired bool
}

// Check is one named stage of the pipeline.
type Check struct {
	Name string
	Run  func(Config, Input) Result
}

// Pipeline runs its checks in order and stops at the first failure.
type Pipeline struct {
	cfg    Config
	checks []Check
}

// NewPipeline creates a pipeline with the standard check order: dust,
// invariant, price impact, transaction shape, authorization, deadline,
// suspicious patterns.
func NewPipeline(cfg Config) *Pipeline {
	return &Pipeline{cfg: cfg, checks: StandardChecks()}
}

// StandardChecks returns the checks in evaluation order.
func StandardChecks() []Check {
	return []Check{
		{Name: "dust", Run: runDust},
		{Name: "invariant", Run: runInvariant},
		{Name: "price_impact", Run: runPriceImpact},
		{Name: "transaction_shape", Run: func(cfg Config, in Input) Result { return CheckTransactionShape(cfg, in.Tx) }},
		{Name: "authorization", Run: func(_ Config, in Input) Result { return CheckAuthorization(in.Tx, Authority(in)) }},
		{Name: "deadline", Run: runDeadline},
		{Name: "suspicious_patterns", Run: func(cfg Config, in Input) Result { return CheckSuspiciousPatterns(cfg, in.Tx) }},
	}
}

// Config returns the thresholds the pipeline was built with.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Validate returns the first failing check's result, or OK.
func (p *Pipeline) Validate(in Input) Result {
	for _, c := range p.checks {
		if res := c.Run(p.cfg, in); !res.Valid {
			return res
		}
	}
	return OK()
}

// Authority returns the address that must sign for in.Action, or nil when the
// action is permissionless.
func Authority(in Input) *ledger.Address {
	switch a := in.Action.(type) {
	case codec.Swap:
		return &a.Recipient
	case codec.MintLP:
		return &a.Recipient
	case codec.BurnLP:
		return &a.Owner
	case codec.CreatePool:
		if in.Proposed != nil {
			return &in.Proposed.Payload.Config.Creator
		}
	case codec.EmergencyPause, codec.EmergencyUnpause, codec.UpdateMetadata:
		if in.Current != nil {
			return &in.Current.Payload.Config.Admin
		}
	case codec.UpdateFactoryConfig, codec.PauseFactory, codec.UnpauseFactory:
		if in.Factory != nil {
			return &in.Factory.Admin
		}
	}
	return nil
}

func swapSide(in Input) (asset value.AssetClass, reserveIn, reserveOut uint64) {
	st := in.Current.Payload.State
	reserveIn, reserveOut = st.Reserves(in.BaseToPaired)
	if in.BaseToPaired {
		return value.Base, reserveIn, reserveOut
	}
	return in.Current.Payload.Config.PairedAsset, reserveIn, reserveOut
}

func runDust(cfg Config, in Input) Result {
	if a, ok := in.Action.(codec.CreatePool); ok {
		if in.Proposed == nil {
			return OK()
		}
		return CheckDeposit(cfg, in.Proposed.Payload.Config.PairedAsset, a.InitialBase, a.InitialPaired)
	}
	if in.Current == nil {
		return OK()
	}
	switch a := in.Action.(type) {
	case codec.Swap:
		asset, reserveIn, _ := swapSide(in)
		return CheckDust(cfg, asset, a.AmountIn, reserveIn)
	case codec.AddLiquidity:
		return CheckDeposit(cfg, in.Current.Payload.Config.PairedAsset, a.BaseAmount, a.PairedAmount)
	case codec.RemoveLiquidity:
		return CheckWithdrawal(cfg, a.LPAmount, in.Current.Payload.State.TotalLP)
	}
	return OK()
}

func runInvariant(_ Config, in Input) Result {
	if in.Current == nil || in.Proposed == nil {
		return OK()
	}
	_, isSwap := in.Action.(codec.Swap)
	return CheckInvariant(in.Current.Payload.State, in.Proposed.Payload.State, isSwap)
}

func runPriceImpact(cfg Config, in Input) Result {
	a, ok := in.Action.(codec.Swap)
	if !ok || in.Current == nil {
		return OK()
	}
	_, reserveIn, reserveOut := swapSide(in)
	return CheckPriceImpact(cfg, reserveIn, reserveOut, a.AmountIn, in.Current.Payload.Config.FeeBps)
}

func runDeadline(_ Config, in Input) Result {
	deadline, ok := codec.Deadline(in.Action)
	if !ok {
		return OK()
	}
	return CheckDeadline(in.Tx, deadline)
}
