// Package ledger holds the read-only view of a transaction that the settlement
// layer hands to the validator. Nothing here is constructed by the core itself.
package ledger

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/aman-zulfiqar/amm-validator/internal/value"
)

// HashLen is the size of a credential hash.
const HashLen = 28

// Hash is a credential, script or policy hash.
type Hash [HashLen]byte

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// CredentialKind distinguishes key hashes from script hashes.
type CredentialKind uint8

const (
	PubKeyCredential CredentialKind = 0
	ScriptCredential CredentialKind = 1
)

// Credential is a payment or staking credential.
type Credential struct {
	Kind CredentialKind
	Hash Hash
}

// PubKey builds a key-hash credential.
func PubKey(hash Hash) Credential {
	return Credential{Kind: PubKeyCredential, Hash: hash}
}

// ParseHash decodes a hex credential or policy hash of exactly HashLen bytes.
func ParseHash(s string) (Hash, error) {
	var out Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("decode hash: %w", err)
	}
	if len(b) != HashLen {
		return out, fmt.Errorf("hash must be %d bytes, got %d", HashLen, len(b))
	}
	copy(out[:], b)
	return out, nil
}

func (c Credential) String() string {
	prefix := "key"
	if c.Kind == ScriptCredential {
		prefix = "script"
	}
	return prefix + ":" + c.Hash.String()
}

// ParseCredential is the inverse of Credential.String.
func ParseCredential(s string) (Credential, error) {
	kind, hash, ok := strings.Cut(s, ":")
	if !ok {
		return Credential{}, fmt.Errorf("credential %q: missing kind prefix", s)
	}
	var c Credential
	switch kind {
	case "key":
		c.Kind = PubKeyCredential
	case "script":
		c.Kind = ScriptCredential
	default:
		return Credential{}, fmt.Errorf("credential %q: unknown kind %q", s, kind)
	}
	h, err := ParseHash(hash)
	if err != nil {
		return Credential{}, err
	}
	c.Hash = h
	return c, nil
}

func (c Credential) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Credential) UnmarshalText(text []byte) error {
	parsed, err := ParseCredential(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Address is a payment credential with an optional staking credential.
type Address struct {
	Payment Credential  `json:"payment"`
	Stake   *Credential `json:"stake,omitempty"`
}

// Equal compares two addresses including the staking part.
func (a Address) Equal(b Address) bool {
	if a.Payment != b.Payment {
		return false
	}
	if a.Stake == nil || b.Stake == nil {
		return a.Stake == nil && b.Stake == nil
	}
	return *a.Stake == *b.Stake
}

// Key returns a comparable representation of the address.
func (a Address) Key() string {
	if a.Stake == nil {
		return a.Payment.String()
	}
	return a.Payment.String() + "/" + a.Stake.String()
}

// TxOutput is one input (the output it spends) or output of a transaction.
type TxOutput struct {
	Address   Address     `json:"address"`
	Value     value.Value `json:"value"`
	DatumSize int         `json:"datum_size,omitempty"`
}

// Bound is one end of a validity interval. The zero Bound is unbounded.
type Bound struct {
	Time   int64 `json:"time,omitempty"`
	Finite bool  `json:"finite"`
}

// At returns a finite bound at t (POSIX milliseconds).
func At(t int64) Bound {
	return Bound{Time: t, Finite: true}
}

// Unbounded returns an infinite bound.
func Unbounded() Bound {
	return Bound{}
}

// ValidityRange is the interval in which the transaction may be included.
type ValidityRange struct {
	Lower Bound `json:"lower"`
	Upper Bound `json:"upper"`
}

// Span returns Upper-Lower when both ends are finite.
func (r ValidityRange) Span() (int64, bool) {
	if !r.Lower.Finite || !r.Upper.Finite {
		return 0, false
	}
	return r.Upper.Time - r.Lower.Time, true
}

// TransactionContext is the settlement layer's read-only description of the
// transaction carrying a proposed pool transition.
type TransactionContext struct {
	Inputs   []TxOutput    `json:"inputs"`
	Outputs  []TxOutput    `json:"outputs"`
	Signers  []Hash        `json:"signers"`
	Validity ValidityRange `json:"validity"`
	Fee      uint64        `json:"fee"`
	Mint     value.Delta   `json:"mint,omitempty"`
}

// SignedBy reports whether the credential's hash is among the signers.
func (tx TransactionContext) SignedBy(c Credential) bool {
	for _, s := range tx.Signers {
		if s == c.Hash {
			return true
		}
	}
	return false
}

// OutputsHolding returns the outputs carrying at least one unit of asset.
func (tx TransactionContext) OutputsHolding(asset value.AssetClass) []TxOutput {
	var out []TxOutput
	for _, o := range tx.Outputs {
		if value.Contains(o.Value, asset, 1) {
			out = append(out, o)
		}
	}
	return out
}
