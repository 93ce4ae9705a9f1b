// Package pool defines the versioned pool datum and the pure functions that
// derive one record from another.
package pool

import (
	"bytes"
	"errors"
	"fmt"
	"maps"

	"github.com/aman-zulfiqar/amm-validator/internal/amm"
	"github.com/aman-zulfiqar/amm-validator/internal/ledger"
	"github.com/aman-zulfiqar/amm-validator/internal/value"
)

// Metadata keys understood by the validator.
const (
	MetaName        = "name"
	MetaDescription = "description"
)

// CurrentVersion is the record schema version written by this module.
const CurrentVersion = 1

var (
	ErrInvalidConfig  = errors.New("invalid pool config")
	ErrEmptyReserve   = errors.New("reserve is zero while LP supply is outstanding")
	ErrOrphanReserves = errors.New("reserves held without LP supply")
)

// Config holds the per-pool parameters fixed at creation. Only Paused changes
// afterwards, through the emergency actions.
type Config struct {
	PairedAsset    value.AssetClass `json:"paired_asset"`
	LPAsset        value.AssetClass `json:"lp_asset"`
	FeeBps         uint64           `json:"fee_bps"`
	ProtocolFeeBps uint64           `json:"protocol_fee_bps"`
	Creator        ledger.Address   `json:"creator"`
	Admin          ledger.Address   `json:"admin"`
	Paused         bool             `json:"paused"`
}

// Validate checks the fee invariant and the asset classes.
func (c Config) Validate() error {
	if c.FeeBps > amm.BpsDenominator || c.ProtocolFeeBps > amm.BpsDenominator || c.FeeBps+c.ProtocolFeeBps > amm.BpsDenominator {
		return fmt.Errorf("%w: fee %d + protocol fee %d exceeds %d bps", ErrInvalidConfig, c.FeeBps, c.ProtocolFeeBps, amm.BpsDenominator)
	}
	if c.PairedAsset.IsBase() {
		return fmt.Errorf("%w: paired asset must not be the base asset", ErrInvalidConfig)
	}
	if len(c.LPAsset.PolicyID) != value.PolicyIDLen {
		return fmt.Errorf("%w: lp asset needs a minting policy", ErrInvalidConfig)
	}
	return nil
}

// State holds the reserves and supply.
type State struct {
	ReserveBase     uint64 `json:"reserve_base"`
	ReservePaired   uint64 `json:"reserve_paired"`
	TotalLP         uint64 `json:"total_lp"`
	LastInteraction int64  `json:"last_interaction"`
	PoolNFTName     []byte `json:"pool_nft_name"`
}

// Reserves returns reserves in the correct order for a swap direction
func (s State) Reserves(baseToPaired bool) (reserveIn, reserveOut uint64) {
	if baseToPaired {
		return s.ReserveBase, s.ReservePaired
	}
	return s.ReservePaired, s.ReserveBase
}

// Closed reports whether the pool has no liquidity at all.
func (s State) Closed() bool {
	return s.TotalLP == 0 && s.ReserveBase == 0 && s.ReservePaired == 0
}

// Stats accumulates activity. Every counter is non-decreasing; LastPrice and
// PriceDigest are replaced on each swap.
type Stats struct {
	VolumeBase      uint64 `json:"volume_base"`
	VolumePaired    uint64 `json:"volume_paired"`
	FeesCollected   uint64 `json:"fees_collected"`
	SwapCount       uint64 `json:"swap_count"`
	UniqueProviders uint64 `json:"unique_providers"`
	CreatedAt       int64  `json:"created_at"`
	LastPrice       uint64 `json:"last_price"`
	PriceDigest     []byte `json:"price_digest,omitempty"`
}

// Datum is the pool payload.
type Datum struct {
	State  State  `json:"state"`
	Config Config `json:"config"`
	Stats  Stats  `json:"stats"`
}

// Record is the versioned datum stored at the pool's script address.
type Record struct {
	Metadata  map[string][]byte `json:"metadata"`
	Version   uint64            `json:"version"`
	Extension []byte            `json:"extension,omitempty"`
	Payload   Datum             `json:"payload"`
}

// Name returns the "name" metadata entry.
func (r *Record) Name() string {
	return string(r.Metadata[MetaName])
}

// NFT is the identity token that marks the pool's continuing output.
func (r *Record) NFT() value.AssetClass {
	return value.AssetClass{PolicyID: r.Payload.Config.LPAsset.PolicyID, Name: string(r.Payload.State.PoolNFTName)}
}

// ValidateStructure reports whether r may be handed to the security pipeline:
// a positive version and a name entry.
func ValidateStructure(r *Record) bool {
	if r == nil || r.Version == 0 {
		return false
	}
	_, ok := r.Metadata[MetaName]
	return ok
}

// CheckInvariants validates the config and the reserve/supply relation.
func CheckInvariants(r *Record) error {
	if err := r.Payload.Config.Validate(); err != nil {
		return err
	}
	s := r.Payload.State
	if s.TotalLP > 0 && (s.ReserveBase == 0 || s.ReservePaired == 0) {
		return fmt.Errorf("%w: base %d paired %d supply %d", ErrEmptyReserve, s.ReserveBase, s.ReservePaired, s.TotalLP)
	}
	if s.TotalLP == 0 && !s.Closed() {
		return fmt.Errorf("%w: base %d paired %d", ErrOrphanReserves, s.ReserveBase, s.ReservePaired)
	}
	return nil
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	out := *r
	if r.Metadata != nil {
		out.Metadata = make(map[string][]byte, len(r.Metadata))
		for k, v := range r.Metadata {
			out.Metadata[k] = bytes.Clone(v)
		}
	}
	out.Extension = bytes.Clone(r.Extension)
	out.Payload.State.PoolNFTName = bytes.Clone(r.Payload.State.PoolNFTName)
	out.Payload.Stats.PriceDigest = bytes.Clone(r.Payload.Stats.PriceDigest)
	if r.Payload.Config.Creator.Stake != nil {
		stake := *r.Payload.Config.Creator.Stake
		out.Payload.Config.Creator.Stake = &stake
	}
	if r.Payload.Config.Admin.Stake != nil {
		stake := *r.Payload.Config.Admin.Stake
		out.Payload.Config.Admin.Stake = &stake
	}
	return &out
}

// SameEnvelope reports whether a and b agree on metadata, version and
// extension.
func SameEnvelope(a, b *Record) bool {
	return a.Version == b.Version &&
		bytes.Equal(a.Extension, b.Extension) &&
		maps.EqualFunc(a.Metadata, b.Metadata, bytes.Equal)
}

// FactoryRecord is the datum of the pool factory.
type FactoryRecord struct {
	Admin         ledger.Address `json:"admin"`
	PoolCount     uint64         `json:"pool_count"`
	DefaultFeeBps uint64         `json:"default_fee_bps"`
	CreationFee   uint64         `json:"creation_fee"`
	Paused        bool           `json:"paused"`
}
