package engine

import (
	"errors"
	"fmt"

	"github.com/aman-zulfiqar/amm-validator/internal/amm"
	"github.com/aman-zulfiqar/amm-validator/internal/pool"
	"github.com/aman-zulfiqar/amm-validator/internal/security"
)

// Decision is the engine's verdict on one proposed transition.
type Decision struct {
	Accepted bool          `json:"accepted"`
	Code     security.Code `json:"code,omitempty"`
	Message  string        `json:"message,omitempty"`
}

func accept() Decision {
	return Decision{Accepted: true}
}

func reject(code security.Code, format string, args ...any) Decision {
	return Decision{Code: code, Message: fmt.Sprintf(format, args...)}
}

func fromResult(res security.Result) Decision {
	if res.Valid {
		return accept()
	}
	return Decision{Code: res.Code, Message: res.Message}
}

func (d Decision) String() string {
	if d.Accepted {
		return "accepted"
	}
	return fmt.Sprintf("rejected (%s): %s", d.Code, d.Message)
}

// mathReject maps an AmmMath or record-update failure onto a rejection code.
func mathReject(op string, err error) Decision {
	switch {
	case errors.Is(err, amm.ErrBurnExceedsSupply),
		errors.Is(err, amm.ErrZeroSupply),
		errors.Is(err, amm.ErrZeroReserve),
		errors.Is(err, pool.ErrReserveUnderflow):
		return reject(security.InsufficientLiquidity, "%s: %v", op, err)
	default:
		// ErrInvalidFee, ErrOverflow
		return reject(security.InvalidParameters, "%s: %v", op, err)
	}
}
