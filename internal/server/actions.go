package server

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/aman-zulfiqar/amm-validator/internal/audit"
	"github.com/aman-zulfiqar/amm-validator/internal/codec"
	"github.com/aman-zulfiqar/amm-validator/internal/constants"
	"github.com/aman-zulfiqar/amm-validator/internal/engine"
	"github.com/aman-zulfiqar/amm-validator/internal/ledger"
	"github.com/aman-zulfiqar/amm-validator/internal/profiles"
)

func decodeHex(field, s string, required bool) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if s == "" {
		if required {
			return nil, fmt.Errorf("%s is required", field)
		}
		return nil, nil
	}
	if len(s) > constants.MaxPayloadHexLen {
		return nil, fmt.Errorf("%s exceeds %d hex characters", field, constants.MaxPayloadHexLen)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return b, nil
}

func actionResponse(a codec.Action, raw []byte) (ActionResponse, error) {
	js, err := codec.MarshalAction(a)
	if err != nil {
		return ActionResponse{}, err
	}
	return ActionResponse{Hex: hex.EncodeToString(raw), Action: js}, nil
}

// DecodeAction turns a hex-encoded action into its JSON envelope.
func (h *Handlers) DecodeAction(c echo.Context) error {
	var req DecodeRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	raw, err := decodeHex("hex", req.Hex, true)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid hex", err.Error())
	}

	a, err := codec.Decode(raw)
	if err != nil {
		return h.err(c, http.StatusUnprocessableEntity, "malformed action", map[string]any{
			"kind":  codec.KindOf(err).String(),
			"error": err.Error(),
		})
	}
	resp, err := actionResponse(a, raw)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to render action", err.Error())
	}
	return c.JSON(http.StatusOK, resp)
}

// EncodeAction turns a JSON envelope into the wire form. The result is
// decoded again, so out-of-range fields are rejected here rather than later.
func (h *Handlers) EncodeAction(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "failed to read body", nil)
	}
	a, err := codec.UnmarshalAction(body)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid action", err.Error())
	}
	raw, err := codec.Encode(a)
	if err != nil {
		return h.err(c, http.StatusUnprocessableEntity, "action out of range", map[string]any{
			"kind":  codec.KindOf(err).String(),
			"error": err.Error(),
		})
	}
	resp, err := actionResponse(a, raw)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to render action", err.Error())
	}
	return c.JSON(http.StatusOK, resp)
}

// Validate evaluates one proposed transition. A rejection is a normal 200
// response; only requests that cannot be evaluated at all fail.
func (h *Handlers) Validate(c echo.Context) error {
	var req ValidateRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", err.Error())
	}

	bad := map[string]string{}
	cur, err := decodeHex("currentHex", req.CurrentHex, false)
	if err != nil {
		bad["currentHex"] = err.Error()
	}
	act, err := decodeHex("actionHex", req.ActionHex, true)
	if err != nil {
		bad["actionHex"] = err.Error()
	}
	next, err := decodeHex("proposedHex", req.ProposedHex, true)
	if err != nil {
		bad["proposedHex"] = err.Error()
	}
	if req.PoolID != "" {
		if err := profiles.ValidateKey(req.PoolID); err != nil {
			bad["poolId"] = "invalid format"
		}
	}
	if len(bad) > 0 {
		return h.err(c, http.StatusBadRequest, "invalid request", bad)
	}

	eng, err := h.engineFor(c.Request().Context(), req.PoolID)
	if err != nil {
		h.warn(err, "profile lookup failed")
		return h.err(c, http.StatusServiceUnavailable, "profile lookup failed", err.Error())
	}

	d := eng.EvaluatePayload(cur, act, next, req.Context)

	var action string
	if a, err := codec.Decode(act); err == nil {
		action = a.Tag().String()
	}
	h.record(c.Request().Context(), req.PoolID, action, d, req.Context)

	return c.JSON(http.StatusOK, ValidateResponse{Decision: d, Action: action, PoolID: req.PoolID})
}

// engineFor returns the engine for a pool, built from its stored profile when
// one exists.
func (h *Handlers) engineFor(ctx context.Context, poolID string) (*engine.Engine, error) {
	if poolID == "" || h.Profiles == nil {
		return h.Engine, nil
	}
	ctx, cancel := h.withTimeout(ctx, 3*time.Second)
	defer cancel()

	cfg, err := h.Profiles.Resolve(ctx, poolID, h.baseConfig())
	if err != nil {
		return nil, err
	}
	var opts []engine.Option
	if h.Logger != nil {
		opts = append(opts, engine.WithLogger(h.Logger.WithField("pool", poolID)))
	}
	return engine.NewEngine(cfg, opts...), nil
}

func (h *Handlers) record(ctx context.Context, poolID, action string, d engine.Decision, tx ledger.TransactionContext) {
	if h.Audit == nil {
		return
	}
	ev := audit.NewEvent(poolID, action, d, time.Now())
	ev.TxFee = tx.Fee
	ev.Inputs = len(tx.Inputs)
	ev.Outputs = len(tx.Outputs)

	ctx, cancel := h.withTimeout(context.WithoutCancel(ctx), constants.AuditWriteTimeout)
	defer cancel()
	if err := h.Audit.Record(ctx, ev); err != nil {
		h.warn(err, "audit record failed")
	}
}
