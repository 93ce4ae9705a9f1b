// Package engine couples the decoded action, the AMM math and the security
// pipeline into one accept/reject decision per proposed pool transition.
package engine

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/amm-validator/internal/codec"
	"github.com/aman-zulfiqar/amm-validator/internal/ledger"
	"github.com/aman-zulfiqar/amm-validator/internal/pool"
	"github.com/aman-zulfiqar/amm-validator/internal/security"
)

// Engine evaluates proposed transitions. It holds no state besides its
// configuration and is safe for concurrent use.
type Engine struct {
	cfg      security.Config
	pipeline *security.Pipeline
	log      logrus.FieldLogger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger makes the engine log each decision at debug level.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// NewEngine creates an engine for the given thresholds.
func NewEngine(cfg security.Config, opts ...Option) *Engine {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	e := &Engine{
		cfg:      cfg,
		pipeline: security.NewPipeline(cfg),
		log:      quiet,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the thresholds the engine was built with.
func (e *Engine) Config() security.Config {
	return e.cfg
}

// Evaluate decides whether proposed is a valid successor of current under
// action, carried by tx. current is nil only for CreatePool.
//
// The expected successor is computed first, so math failures such as burning
// more LP than exists surface before any heuristic. The security pipeline runs
// next, then proposed is compared field by field against the expectation.
func (e *Engine) Evaluate(current *pool.Record, action codec.Action, proposed *pool.Record, tx ledger.TransactionContext) Decision {
	d := e.evaluate(current, action, proposed, tx)
	e.logDecision(action, d)
	return d
}

func (e *Engine) evaluate(current *pool.Record, action codec.Action, proposed *pool.Record, tx ledger.TransactionContext) Decision {
	if action == nil {
		return reject(security.InvalidParameters, "no action")
	}
	if _, ok := action.(codec.FactoryAction); ok {
		return reject(security.InvalidParameters, "%s targets the factory record", action.Tag())
	}
	if !pool.ValidateStructure(proposed) {
		return reject(security.InvalidParameters, "proposed record needs a positive version and a name")
	}
	if err := pool.CheckInvariants(proposed); err != nil {
		return reject(security.InvalidParameters, "proposed record: %v", err)
	}
	if _, creating := action.(codec.CreatePool); !creating {
		if !pool.ValidateStructure(current) {
			return reject(security.InvalidParameters, "current record needs a positive version and a name")
		}
		if err := pool.CheckInvariants(current); err != nil {
			return reject(security.InvalidParameters, "current record: %v", err)
		}
	}

	// 1. Expected successor from the math
	p, d := e.expect(current, action, proposed, tx)
	if !d.Accepted {
		return d
	}

	// 2. Security pipeline
	res := e.pipeline.Validate(security.Input{
		Action:       action,
		Current:      current,
		Proposed:     proposed,
		Tx:           tx,
		BaseToPaired: p.baseToPaired,
	})
	if !res.Valid {
		return fromResult(res)
	}

	// 3. Proposed against expected
	if d := compareRecords(p.expected, proposed); !d.Accepted {
		return d
	}
	if d := checkLastInteraction(current, proposed, tx); !d.Accepted {
		return d
	}
	if d := checkMint(p, proposed, tx); !d.Accepted {
		return d
	}
	return checkBacking(e.cfg, proposed, tx)
}

// EvaluatePayload decodes the CBOR records and action, then evaluates them.
// Factory actions are evaluated against factory records. An empty current
// payload is allowed for CreatePool.
func (e *Engine) EvaluatePayload(currentCBOR, actionCBOR, proposedCBOR []byte, tx ledger.TransactionContext) Decision {
	action, err := codec.Decode(actionCBOR)
	if err != nil {
		d := reject(security.InvalidParameters, "action: %v", err)
		e.logDecision(nil, d)
		return d
	}

	if fa, ok := action.(codec.FactoryAction); ok {
		cur, err := pool.DecodeFactory(currentCBOR)
		if err != nil {
			return e.logged(action, reject(security.InvalidParameters, "current factory: %v", err))
		}
		next, err := pool.DecodeFactory(proposedCBOR)
		if err != nil {
			return e.logged(action, reject(security.InvalidParameters, "proposed factory: %v", err))
		}
		return e.EvaluateFactory(cur, fa, next, tx)
	}

	var cur *pool.Record
	if len(currentCBOR) > 0 {
		if cur, err = pool.DecodeRecord(currentCBOR); err != nil {
			return e.logged(action, reject(security.InvalidParameters, "current record: %v", err))
		}
	}
	next, err := pool.DecodeRecord(proposedCBOR)
	if err != nil {
		return e.logged(action, reject(security.InvalidParameters, "proposed record: %v", err))
	}
	return e.Evaluate(cur, action, next, tx)
}

func (e *Engine) logged(action codec.Action, d Decision) Decision {
	e.logDecision(action, d)
	return d
}

func (e *Engine) logDecision(action codec.Action, d Decision) {
	fields := logrus.Fields{"accepted": d.Accepted}
	if action != nil {
		fields["action"] = action.Tag().String()
	}
	if d.Accepted {
		e.log.WithFields(fields).Debug("transition accepted")
		return
	}
	fields["code"] = d.Code
	fields["reason"] = d.Message
	e.log.WithFields(fields).Debug("transition rejected")
}
