package server

import (
	"encoding/json"

	"github.com/aman-zulfiqar/amm-validator/internal/amm"
	"github.com/aman-zulfiqar/amm-validator/internal/engine"
	"github.com/aman-zulfiqar/amm-validator/internal/ledger"
)

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK       bool   `json:"ok"`
	Audit    string `json:"audit"`    // "ok", "unavailable" or "disabled"
	Profiles string `json:"profiles"` // "enabled" or "disabled"
}

// SwapQuoteResponse adds display strings to the raw quote.
type SwapQuoteResponse struct {
	*amm.SwapQuote
	EffectivePrice string `json:"effective_price"` // output units per input unit
	PriceImpactPct string `json:"price_impact_pct"`
	FeePct         string `json:"fee_pct"`
}

type DepositQuoteResponse struct {
	*amm.DepositQuote
	PoolPrice string `json:"pool_price"` // paired units per base unit
}

type WithdrawQuoteResponse struct {
	*amm.WithdrawQuote
	SharePct string `json:"share_pct"`
}

// DecodeRequest carries a hex-encoded action.
type DecodeRequest struct {
	Hex string `json:"hex"`
}

// ActionResponse pairs the wire form of an action with its JSON envelope.
type ActionResponse struct {
	Hex    string          `json:"hex"`
	Action json.RawMessage `json:"action"`
}

// ValidateRequest is a proposed transition in wire form. CurrentHex is empty
// when a pool is being created.
type ValidateRequest struct {
	CurrentHex  string                    `json:"currentHex"`
	ActionHex   string                    `json:"actionHex"`
	ProposedHex string                    `json:"proposedHex"`
	Context     ledger.TransactionContext `json:"context"`
	PoolID      string                    `json:"poolId,omitempty"`
}

type ValidateResponse struct {
	engine.Decision
	Action string `json:"action,omitempty"`
	PoolID string `json:"pool_id,omitempty"`
}
