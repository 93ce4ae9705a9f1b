package value

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"sort"
	"strings"
)

// PolicyIDLen is the length of a minting policy hash.
const PolicyIDLen = 28

// MaxAssetNameLen is the longest asset name a ledger accepts.
const MaxAssetNameLen = 32

// AssetClass identifies one asset by minting policy and name.
// Both fields hold raw bytes; the base asset has an empty policy and name.
type AssetClass struct {
	PolicyID string
	Name     string
}

// Base is the network's native currency.
var Base = AssetClass{}

// NewAssetClass builds an AssetClass from raw policy and name bytes.
func NewAssetClass(policyID, name []byte) AssetClass {
	return AssetClass{PolicyID: string(policyID), Name: string(name)}
}

// IsBase reports whether a is the native currency.
func (a AssetClass) IsBase() bool {
	return a.PolicyID == "" && a.Name == ""
}

// String renders the class as hex(policy).hex(name), or "base".
func (a AssetClass) String() string {
	if a.IsBase() {
		return "base"
	}
	return hex.EncodeToString([]byte(a.PolicyID)) + "." + hex.EncodeToString([]byte(a.Name))
}

// ParseAssetClass is the inverse of AssetClass.String.
func ParseAssetClass(s string) (AssetClass, error) {
	if s == "base" || s == "" {
		return Base, nil
	}
	policyHex, nameHex, ok := strings.Cut(s, ".")
	if !ok {
		return AssetClass{}, fmt.Errorf("asset %q: expected policy.name", s)
	}
	policy, err := hex.DecodeString(policyHex)
	if err != nil {
		return AssetClass{}, fmt.Errorf("asset %q: policy: %w", s, err)
	}
	name, err := hex.DecodeString(nameHex)
	if err != nil {
		return AssetClass{}, fmt.Errorf("asset %q: name: %w", s, err)
	}
	if len(policy) != PolicyIDLen || len(name) > MaxAssetNameLen {
		return AssetClass{}, fmt.Errorf("asset %q: bad policy or name length", s)
	}
	return NewAssetClass(policy, name), nil
}

// MarshalText lets AssetClass key JSON objects.
func (a AssetClass) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AssetClass) UnmarshalText(text []byte) error {
	parsed, err := ParseAssetClass(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value is a multi-asset balance. A canonical Value has no zero entries.
type Value map[AssetClass]uint64

// FromBase returns a Value holding only the base asset.
func FromBase(amount uint64) Value {
	v := Value{}
	if amount > 0 {
		v[Base] = amount
	}
	return v
}

// QuantityOf returns the amount of asset held in v, or 0 if absent.
func QuantityOf(v Value, asset AssetClass) uint64 {
	return v[asset]
}

// Contains reports whether v holds at least minAmount of asset.
func Contains(v Value, asset AssetClass, minAmount uint64) bool {
	return v[asset] >= minAmount
}

// Difference returns the signed per-asset delta a - b with zero entries dropped.
func Difference(a, b Value) Delta {
	out := Delta{}
	for asset, amt := range a {
		out[asset] = new(big.Int).SetUint64(amt)
	}
	for asset, amt := range b {
		d, ok := out[asset]
		if !ok {
			d = new(big.Int)
			out[asset] = d
		}
		d.Sub(d, new(big.Int).SetUint64(amt))
	}
	for asset, d := range out {
		if d.Sign() == 0 {
			delete(out, asset)
		}
	}
	return out
}

// Merge returns a + b. Amounts that would overflow saturate at the uint64 maximum.
func Merge(a, b Value) Value {
	out := make(Value, len(a)+len(b))
	for asset, amt := range a {
		if amt > 0 {
			out[asset] = amt
		}
	}
	for asset, amt := range b {
		if amt == 0 {
			continue
		}
		sum := out[asset] + amt
		if sum < amt {
			sum = ^uint64(0)
		}
		out[asset] = sum
	}
	return out
}

// NonBaseAssets lists every non-base asset in v with a positive amount, sorted
// by policy then name so callers get a deterministic order.
func NonBaseAssets(v Value) []AssetClass {
	out := make([]AssetClass, 0, len(v))
	for asset, amt := range v {
		if asset.IsBase() || amt == 0 {
			continue
		}
		out = append(out, asset)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PolicyID != out[j].PolicyID {
			return out[i].PolicyID < out[j].PolicyID
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// IsDust is true iff v holds only the base asset, below threshold.
func IsDust(v Value, threshold uint64) bool {
	if len(NonBaseAssets(v)) > 0 {
		return false
	}
	return v[Base] < threshold
}

// Canonical returns a copy of v without zero entries.
func Canonical(v Value) Value {
	out := make(Value, len(v))
	for asset, amt := range v {
		if amt > 0 {
			out[asset] = amt
		}
	}
	return out
}
