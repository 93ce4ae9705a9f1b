package codec

import (
	"fmt"

	"github.com/blinklabs-io/gouroboros/cbor"
)

// arity is the declared field count per variant.
var arity = map[Tag]int{
	TagSwap:                4,
	TagAddLiquidity:        4,
	TagRemoveLiquidity:     4,
	TagCreatePool:          3,
	TagEmergencyPause:      0,
	TagEmergencyUnpause:    0,
	TagUpdateMetadata:      2,
	TagMintLP:              4,
	TagBurnLP:              3,
	TagFactoryCreatePool:   4,
	TagUpdateFactoryConfig: 3,
	TagPauseFactory:        0,
	TagUnpauseFactory:      0,
}

// Decode parses an action payload. Every failure is a *DecodeError.
func Decode(data []byte) (Action, error) {
	c, err := decodeConstr(data)
	if err != nil {
		return nil, newError(WrongFieldType, "", "", "payload is not a constructor: %v", err)
	}
	tag := Tag(c.Constructor())
	n, ok := arity[tag]
	if !ok {
		return nil, newError(WrongDiscriminant, "", "", "unknown action constructor %d", c.Constructor())
	}
	f, err := openFields(tag.String(), "", c, n)
	if err != nil {
		return nil, err
	}

	var a Action
	switch tag {
	case TagSwap:
		a = Swap{
			AmountIn:  f.Positive("amount_in"),
			MinOut:    f.Uint("min_out"),
			Deadline:  f.Time("deadline"),
			Recipient: f.Address("recipient"),
		}
	case TagAddLiquidity:
		a = AddLiquidity{
			BaseAmount:   f.Positive("base_amount"),
			PairedAmount: f.Positive("paired_amount"),
			MinLPOut:     f.Uint("min_lp_out"),
			Deadline:     f.Time("deadline"),
		}
	case TagRemoveLiquidity:
		a = RemoveLiquidity{
			LPAmount:     f.Positive("lp_amount"),
			MinBaseOut:   f.Uint("min_base_out"),
			MinPairedOut: f.Uint("min_paired_out"),
			Deadline:     f.Time("deadline"),
		}
	case TagCreatePool:
		a = CreatePool{
			InitialBase:   f.Positive("initial_base"),
			InitialPaired: f.Positive("initial_paired"),
			FeeBps:        f.AtMost("fee_bps", MaxFeeBps),
		}
	case TagEmergencyPause:
		a = EmergencyPause{}
	case TagEmergencyUnpause:
		a = EmergencyUnpause{}
	case TagUpdateMetadata:
		a = UpdateMetadata{
			Name:        f.Bytes("name", 1, MaxIdentifierLen),
			Description: f.Bytes("description", 0, MaxDescriptionLen),
		}
	case TagMintLP:
		a = MintLP{
			Amount:    f.Positive("amount"),
			PoolRef:   f.Bytes("pool_ref", 0, MaxIdentifierLen),
			Recipient: f.Address("recipient"),
			Metadata:  f.Bytes("metadata", 0, MaxMintMetadataLen),
		}
	case TagBurnLP:
		a = BurnLP{
			Amount:  f.Positive("amount"),
			PoolRef: f.Bytes("pool_ref", 0, MaxIdentifierLen),
			Owner:   f.Address("owner"),
		}
	case TagFactoryCreatePool:
		fc := FactoryCreatePool{
			PairedAsset:   f.AssetClass("paired_asset"),
			InitialBase:   f.Positive("initial_base"),
			InitialPaired: f.Positive("initial_paired"),
			FeeBps:        f.AtMost("fee_bps", MaxFeeBps),
		}
		if f.Err() == nil && fc.PairedAsset.IsBase() {
			f.fail(MalformedIdentifier, "paired_asset", "paired asset must be a token, not the base asset")
		}
		a = fc
	case TagUpdateFactoryConfig:
		a = UpdateFactoryConfig{
			DefaultFeeBps: f.AtMost("default_fee_bps", MaxFeeBps),
			CreationFee:   f.Uint("creation_fee"),
			Admin:         f.Address("admin"),
		}
	case TagPauseFactory:
		a = PauseFactory{}
	case TagUnpauseFactory:
		a = UnpauseFactory{}
	}

	if err := f.Err(); err != nil {
		return nil, err
	}
	return a, nil
}

// Canonical returns a with empty byte fields set to nil, the form Decode
// produces.
func Canonical(a Action) Action {
	switch v := a.(type) {
	case UpdateMetadata:
		v.Name, v.Description = nilIfEmpty(v.Name), nilIfEmpty(v.Description)
		return v
	case MintLP:
		v.PoolRef, v.Metadata = nilIfEmpty(v.PoolRef), nilIfEmpty(v.Metadata)
		return v
	case BurnLP:
		v.PoolRef = nilIfEmpty(v.PoolRef)
		return v
	}
	return a
}

func nilIfEmpty(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}

// Encode serializes an action. Actions that would not decode are refused, so
// Decode(Encode(a)) == Canonical(a) for every action Encode accepts.
func Encode(a Action) ([]byte, error) {
	a = Canonical(a)
	var c cbor.Constructor
	switch a := a.(type) {
	case Swap:
		c = Constr(uint(TagSwap), a.AmountIn, a.MinOut, uint64(a.Deadline), AddressData(a.Recipient))
	case AddLiquidity:
		c = Constr(uint(TagAddLiquidity), a.BaseAmount, a.PairedAmount, a.MinLPOut, uint64(a.Deadline))
	case RemoveLiquidity:
		c = Constr(uint(TagRemoveLiquidity), a.LPAmount, a.MinBaseOut, a.MinPairedOut, uint64(a.Deadline))
	case CreatePool:
		c = Constr(uint(TagCreatePool), a.InitialBase, a.InitialPaired, a.FeeBps)
	case EmergencyPause:
		c = Constr(uint(TagEmergencyPause))
	case EmergencyUnpause:
		c = Constr(uint(TagEmergencyUnpause))
	case UpdateMetadata:
		c = Constr(uint(TagUpdateMetadata), Bytes(a.Name), Bytes(a.Description))
	case MintLP:
		c = Constr(uint(TagMintLP), a.Amount, Bytes(a.PoolRef), AddressData(a.Recipient), Bytes(a.Metadata))
	case BurnLP:
		c = Constr(uint(TagBurnLP), a.Amount, Bytes(a.PoolRef), AddressData(a.Owner))
	case FactoryCreatePool:
		c = Constr(uint(TagFactoryCreatePool), AssetClassData(a.PairedAsset), a.InitialBase, a.InitialPaired, a.FeeBps)
	case UpdateFactoryConfig:
		c = Constr(uint(TagUpdateFactoryConfig), a.DefaultFeeBps, a.CreationFee, AddressData(a.Admin))
	case PauseFactory:
		c = Constr(uint(TagPauseFactory))
	case UnpauseFactory:
		c = Constr(uint(TagUnpauseFactory))
	default:
		return nil, fmt.Errorf("encode: unsupported action %T", a)
	}

	if d, ok := Deadline(a); ok && d < 0 {
		return nil, fmt.Errorf("encode %s: %w", a.Tag(), newError(OutOfRange, a.Tag().String(), "deadline", "negative deadline %d", d))
	}

	data, err := cbor.Encode(&c)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", a.Tag(), err)
	}
	if _, err := Decode(data); err != nil {
		return nil, fmt.Errorf("encode %s: %w", a.Tag(), err)
	}
	return data, nil
}
