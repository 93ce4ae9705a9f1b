// Package codec converts pool actions to and from their on-chain
// representation: Plutus-data constructors carried as CBOR.
package codec

import (
	"fmt"

	"github.com/aman-zulfiqar/amm-validator/internal/ledger"
	"github.com/aman-zulfiqar/amm-validator/internal/value"
)

// Tag is the constructor index that selects an action variant.
type Tag uint

const (
	TagSwap Tag = iota
	TagAddLiquidity
	TagRemoveLiquidity
	TagCreatePool
	TagEmergencyPause
	TagEmergencyUnpause
	TagUpdateMetadata
	TagMintLP
	TagBurnLP
	TagFactoryCreatePool
	TagUpdateFactoryConfig
	TagPauseFactory
	TagUnpauseFactory
)

var tagNames = map[Tag]string{
	TagSwap:                "swap",
	TagAddLiquidity:        "add_liquidity",
	TagRemoveLiquidity:     "remove_liquidity",
	TagCreatePool:          "create_pool",
	TagEmergencyPause:      "emergency_pause",
	TagEmergencyUnpause:    "emergency_unpause",
	TagUpdateMetadata:      "update_metadata",
	TagMintLP:              "mint_lp",
	TagBurnLP:              "burn_lp",
	TagFactoryCreatePool:   "factory_create_pool",
	TagUpdateFactoryConfig: "update_factory_config",
	TagPauseFactory:        "pause_factory",
	TagUnpauseFactory:      "unpause_factory",
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tag(%d)", uint(t))
}

// ParseTag resolves a variant name as produced by Tag.String.
func ParseTag(name string) (Tag, bool) {
	for tag, n := range tagNames {
		if n == name {
			return tag, true
		}
	}
	return 0, false
}

// Field limits enforced while decoding.
const (
	MaxFeeBps          = 10000
	MaxDescriptionLen  = 64
	MaxMintMetadataLen = 64
)

// Action is one decoded pool or factory action. The set of implementations is
// closed; use a type switch to dispatch.
type Action interface {
	Tag() Tag
	isAction()
}

// FactoryAction is implemented by the actions that target the factory record
// rather than a pool record.
type FactoryAction interface {
	Action
	isFactoryAction()
}

type Swap struct {
	AmountIn  uint64         `json:"amount_in"`
	MinOut    uint64         `json:"min_out"`
	Deadline  int64          `json:"deadline"`
	Recipient ledger.Address `json:"recipient"`
}

type AddLiquidity struct {
	BaseAmount   uint64 `json:"base_amount"`
	PairedAmount uint64 `json:"paired_amount"`
	MinLPOut     uint64 `json:"min_lp_out"`
	Deadline     int64  `json:"deadline"`
}

type RemoveLiquidity struct {
	LPAmount     uint64 `json:"lp_amount"`
	MinBaseOut   uint64 `json:"min_base_out"`
	MinPairedOut uint64 `json:"min_paired_out"`
	Deadline     int64  `json:"deadline"`
}

type CreatePool struct {
	InitialBase   uint64 `json:"initial_base"`
	InitialPaired uint64 `json:"initial_paired"`
	FeeBps        uint64 `json:"fee_bps"`
}

type EmergencyPause struct{}

type EmergencyUnpause struct{}

// UpdateMetadata replaces the record's "name" and "description" entries.
type UpdateMetadata struct {
	Name        []byte `json:"name"`
	Description []byte `json:"description,omitempty"`
}

type MintLP struct {
	Amount    uint64         `json:"amount"`
	PoolRef   []byte         `json:"pool_ref,omitempty"`
	Recipient ledger.Address `json:"recipient"`
	Metadata  []byte         `json:"metadata,omitempty"`
}

type BurnLP struct {
	Amount  uint64         `json:"amount"`
	PoolRef []byte         `json:"pool_ref,omitempty"`
	Owner   ledger.Address `json:"owner"`
}

type FactoryCreatePool struct {
	PairedAsset   value.AssetClass `json:"paired_asset"`
	InitialBase   uint64           `json:"initial_base"`
	InitialPaired uint64           `json:"initial_paired"`
	FeeBps        uint64           `json:"fee_bps"`
}

type UpdateFactoryConfig struct {
	DefaultFeeBps uint64         `json:"default_fee_bps"`
	CreationFee   uint64         `json:"creation_fee"`
	Admin         ledger.Address `json:"admin"`
}

type PauseFactory struct{}

type UnpauseFactory struct{}

func (Swap) Tag() Tag                { return TagSwap }
func (AddLiquidity) Tag() Tag        { return TagAddLiquidity }
func (RemoveLiquidity) Tag() Tag     { return TagRemoveLiquidity }
func (CreatePool) Tag() Tag          { return TagCreatePool }
func (EmergencyPause) Tag() Tag      { return TagEmergencyPause }
func (EmergencyUnpause) Tag() Tag    { return TagEmergencyUnpause }
func (UpdateMetadata) Tag() Tag      { return TagUpdateMetadata }
func (MintLP) Tag() Tag              { return TagMintLP }
func (BurnLP) Tag() Tag              { return TagBurnLP }
func (FactoryCreatePool) Tag() Tag   { return TagFactoryCreatePool }
func (UpdateFactoryConfig) Tag() Tag { return TagUpdateFactoryConfig }
func (PauseFactory) Tag() Tag        { return TagPauseFactory }
func (UnpauseFactory) Tag() Tag      { return TagUnpauseFactory }

func (Swap) isAction()                {}
func (AddLiquidity) isAction()        {}
func (RemoveLiquidity) isAction()     {}
func (CreatePool) isAction()          {}
func (EmergencyPause) isAction()      {}
func (EmergencyUnpause) isAction()    {}
func (UpdateMetadata) isAction()      {}
func (MintLP) isAction()              {}
func (BurnLP) isAction()              {}
func (FactoryCreatePool) isAction()   {}
func (UpdateFactoryConfig) isAction() {}
func (PauseFactory) isAction()        {}
func (UnpauseFactory) isAction()      {}

func (FactoryCreatePool) isFactoryAction()   {}
func (UpdateFactoryConfig) isFactoryAction() {}
func (PauseFactory) isFactoryAction()        {}
func (UnpauseFactory) isFactoryAction()      {}

// Deadline returns the action's declared deadline, if it has one.
func Deadline(a Action) (int64, bool) {
	switch a := a.(type) {
	case Swap:
		return a.Deadline, true
	case AddLiquidity:
		return a.Deadline, true
	case RemoveLiquidity:
		return a.Deadline, true
	}
	return 0, false
}
