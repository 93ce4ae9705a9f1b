// Package security holds the abuse checks run against every proposed pool
// transition. Each checker is a pure function of the inputs it names.
package security

import "fmt"

// Code is the machine-readable reason for a rejection.
type Code string

const (
	DustAttack            Code = "DustAttack"
	ManipulationAttempt   Code = "ManipulationAttempt"
	ExcessivePriceImpact  Code = "ExcessivePriceImpact"
	FlashLoanAttempt      Code = "FlashLoanAttempt"
	UnauthorizedAccess    Code = "UnauthorizedAccess"
	InvalidParameters     Code = "InvalidParameters"
	DeadlineExpired       Code = "DeadlineExpired"
	InsufficientLiquidity Code = "InsufficientLiquidity"
	PoolPaused            Code = "PoolPaused"
	MinOutputNotMet       Code = "MinOutputNotMet"

	// ExpectedActualMismatch is raised by the engine when the proposed record
	// diverges from the computed one.
	ExpectedActualMismatch Code = "ExpectedActualMismatch"
)

// Result is the outcome of one check.
type Result struct {
	Valid   bool   `json:"valid"`
	Code    Code   `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// OK is the success sentinel.
func OK() Result {
	return Result{Valid: true}
}

// Reject builds a failed result.
func Reject(code Code, format string, args ...any) Result {
	return Result{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (r Result) String() string {
	if r.Valid {
		return "ok"
	}
	return string(r.Code) + ": " + r.Message
}
