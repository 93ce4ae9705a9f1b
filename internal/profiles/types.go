// Package profiles keeps per-pool security thresholds in Redis so operators
// can tighten or relax the checks for one pool without a redeploy.
package profiles

import (
	"errors"
	"time"

	"github.com/aman-zulfiqar/amm-validator/internal/security"
)

var ErrNotFound = errors.New("profile not found")

// Profile is a named security configuration, usually keyed by pool NFT name.
type Profile struct {
	Key       string          `json:"key"`
	Config    security.Config `json:"config"`
	UpdatedAt time.Time       `json:"updated_at"`
}
