// Package audit records engine decisions. Sinks are best effort: the decision
// returned to the caller never depends on whether it was recorded.
package audit

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/aman-zulfiqar/amm-validator/internal/engine"
)

// DecisionEvent is one evaluated transition as seen by the audit trail.
type DecisionEvent struct {
	At       time.Time `json:"at"`
	PoolID   string    `json:"pool_id,omitempty"`
	Action   string    `json:"action"`
	Accepted bool      `json:"accepted"`
	Code     string    `json:"code,omitempty"`
	Message  string    `json:"message,omitempty"`
	TxFee    uint64    `json:"tx_fee"`
	Inputs   int       `json:"inputs"`
	Outputs  int       `json:"outputs"`
}

// NewEvent builds the event for decision d.
func NewEvent(poolID, action string, d engine.Decision, at time.Time) *DecisionEvent {
	if action == "" {
		action = "unknown"
	}
	return &DecisionEvent{
		At:       at.UTC(),
		PoolID:   poolID,
		Action:   action,
		Accepted: d.Accepted,
		Code:     string(d.Code),
		Message:  d.Message,
	}
}

// Sink stores or forwards decision events.
type Sink interface {
	Record(ctx context.Context, ev *DecisionEvent) error
	Ping(ctx context.Context) error
	io.Closer
}

// Fanout records every event to all of its sinks.
type Fanout []Sink

// Record writes ev to each sink and joins the failures.
func (f Fanout) Record(ctx context.Context, ev *DecisionEvent) error {
	var errs []error
	for _, s := range f {
		if err := s.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Ping(ctx context.Context) error {
	var errs []error
	for _, s := range f {
		if err := s.Ping(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Close() error {
	var errs []error
	for _, s := range f {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
