package codec

import (
	"math"

	"github.com/blinklabs-io/gouroboros/cbor"

	"github.com/aman-zulfiqar/amm-validator/internal/ledger"
	"github.com/aman-zulfiqar/amm-validator/internal/value"
)

// MaxIdentifierLen bounds pool references, names and other opaque identifiers.
const MaxIdentifierLen = 32

// Constr builds a Plutus-data constructor from already encodable fields.
func Constr(tag uint, fields ...any) cbor.Constructor {
	if fields == nil {
		fields = []any{}
	}
	return cbor.NewConstructor(tag, fields)
}

// Bytes returns b, or an empty slice when b is nil; nil would encode as null.
func Bytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

// Bool encodes a Plutus boolean: Constr 0 is false, Constr 1 is true.
func Bool(b bool) cbor.Constructor {
	if b {
		return Constr(1)
	}
	return Constr(0)
}

// Metadata encodes a text-keyed byte map.
func Metadata(m map[string][]byte) map[string][]byte {
	out := make(map[string][]byte, len(m))
	for k, v := range m {
		out[k] = Bytes(v)
	}
	return out
}

func credentialData(c ledger.Credential) cbor.Constructor {
	hash := c.Hash
	return Constr(uint(c.Kind), hash[:])
}

// AddressData encodes Constr 0 [credential, maybe(Constr 0 [credential])].
func AddressData(a ledger.Address) cbor.Constructor {
	stake := Constr(1)
	if a.Stake != nil {
		stake = Constr(0, Constr(0, credentialData(*a.Stake)))
	}
	return Constr(0, credentialData(a.Payment), stake)
}

// AssetClassData encodes Constr 0 [policy, name].
func AssetClassData(a value.AssetClass) cbor.Constructor {
	return Constr(0, Bytes([]byte(a.PolicyID)), Bytes([]byte(a.Name)))
}

// Fields reads the fields of one decoded constructor in declaration order.
// The first failure sticks; later reads return zero values and Err reports it.
type Fields struct {
	variant string
	prefix  string
	raw     []cbor.RawMessage
	next    int
	err     error
}

// Open decodes data as constructor tag with exactly arity fields.
func Open(variant string, data []byte, tag uint, arity int) (*Fields, error) {
	c, err := decodeConstr(data)
	if err != nil {
		return nil, newError(WrongFieldType, variant, "", "expected constructor: %v", err)
	}
	if c.Constructor() != tag {
		return nil, newError(WrongDiscriminant, variant, "", "expected constructor %d, got %d", tag, c.Constructor())
	}
	return openFields(variant, "", c, arity)
}

func decodeConstr(data []byte) (cbor.Constructor, error) {
	var c cbor.Constructor
	_, err := cbor.Decode(data, &c)
	return c, err
}

func openFields(variant, prefix string, c cbor.Constructor, arity int) (*Fields, error) {
	var raw []cbor.RawMessage
	if fc := c.FieldsCbor(); len(fc) > 0 {
		if _, err := cbor.Decode(fc, &raw); err != nil {
			return nil, newError(WrongFieldType, variant, prefix, "fields: %v", err)
		}
	}
	if len(raw) != arity {
		return nil, newError(WrongFieldCount, variant, prefix, "expected %d fields, got %d", arity, len(raw))
	}
	return &Fields{variant: variant, prefix: prefix, raw: raw}, nil
}

// Err returns the first failure, if any.
func (f *Fields) Err() error {
	return f.err
}

func (f *Fields) name(field string) string {
	if f.prefix == "" {
		return field
	}
	return f.prefix + "." + field
}

func (f *Fields) fail(kind ErrorKind, field, format string, args ...any) {
	if f.err == nil {
		f.err = newError(kind, f.variant, f.name(field), format, args...)
	}
}

func (f *Fields) take() (cbor.RawMessage, bool) {
	if f.err != nil || f.next >= len(f.raw) {
		return nil, false
	}
	raw := f.raw[f.next]
	f.next++
	return raw, true
}

// Uint reads an unsigned integer. Negative or oversized integers are
// OutOfRange; anything else that is not an integer is WrongFieldType.
func (f *Fields) Uint(field string) uint64 {
	raw, ok := f.take()
	if !ok {
		return 0
	}
	var v uint64
	if _, err := cbor.Decode(raw, &v); err != nil {
		if isInteger(raw) {
			f.fail(OutOfRange, field, "integer does not fit an unsigned 64-bit amount")
			return 0
		}
		f.fail(WrongFieldType, field, "expected unsigned integer: %v", err)
		return 0
	}
	return v
}

// isInteger reports whether raw holds a CBOR integer of either sign or a bignum.
func isInteger(raw []byte) bool {
	if len(raw) == 0 {
		return false
	}
	switch raw[0] >> 5 {
	case 0, 1:
		return true
	case 6:
		return raw[0] == 0xc2 || raw[0] == 0xc3
	}
	return false
}

// Positive reads an unsigned integer that must be non-zero.
func (f *Fields) Positive(field string) uint64 {
	v := f.Uint(field)
	if f.err == nil && v == 0 {
		f.fail(OutOfRange, field, "must be greater than zero")
	}
	return v
}

// AtMost reads an unsigned integer bounded by max.
func (f *Fields) AtMost(field string, max uint64) uint64 {
	v := f.Uint(field)
	if f.err == nil && v > max {
		f.fail(OutOfRange, field, "%d exceeds %d", v, max)
	}
	return v
}

// Time reads a non-negative POSIX millisecond timestamp.
func (f *Fields) Time(field string) int64 {
	v := f.Uint(field)
	if f.err == nil && v > math.MaxInt64 {
		f.fail(OutOfRange, field, "timestamp %d overflows", v)
		return 0
	}
	return int64(v)
}

// Bytes reads a byte string whose length must lie in [min, max]. Empty byte
// strings decode to nil.
func (f *Fields) Bytes(field string, min, max int) []byte {
	raw, ok := f.take()
	if !ok {
		return nil
	}
	var b []byte
	if _, err := cbor.Decode(raw, &b); err != nil {
		f.fail(WrongFieldType, field, "expected byte string: %v", err)
		return nil
	}
	if len(b) < min || len(b) > max {
		f.fail(MalformedIdentifier, field, "length %d outside [%d, %d]", len(b), min, max)
		return nil
	}
	if len(b) == 0 {
		return nil
	}
	return b
}

// Bool reads a Plutus boolean.
func (f *Fields) Bool(field string) bool {
	raw, ok := f.take()
	if !ok {
		return false
	}
	c, err := decodeConstr(raw)
	if err != nil {
		f.fail(WrongFieldType, field, "expected bool constructor: %v", err)
		return false
	}
	if c.Constructor() > 1 {
		f.fail(WrongFieldType, field, "bool constructor %d", c.Constructor())
		return false
	}
	return c.Constructor() == 1
}

// Metadata reads a text-keyed byte map. Empty maps and values decode to nil.
func (f *Fields) Metadata(field string) map[string][]byte {
	raw, ok := f.take()
	if !ok {
		return nil
	}
	var m map[string][]byte
	if _, err := cbor.Decode(raw, &m); err != nil {
		f.fail(WrongFieldType, field, "expected text-keyed byte map: %v", err)
		return nil
	}
	if len(m) == 0 {
		return nil
	}
	for k, v := range m {
		if len(v) == 0 {
			m[k] = nil
		}
	}
	return m
}

// Constr reads a nested constructor with the given tag and arity.
func (f *Fields) Constr(field string, tag uint, arity int) *Fields {
	raw, ok := f.take()
	if !ok {
		return &Fields{variant: f.variant, err: f.err}
	}
	c, err := decodeConstr(raw)
	if err != nil {
		f.fail(WrongFieldType, field, "expected constructor: %v", err)
		return &Fields{variant: f.variant, err: f.err}
	}
	if c.Constructor() != tag {
		f.fail(WrongFieldType, field, "expected constructor %d, got %d", tag, c.Constructor())
		return &Fields{variant: f.variant, err: f.err}
	}
	sub, err := openFields(f.variant, f.name(field), c, arity)
	if err != nil {
		f.err = err
		return &Fields{variant: f.variant, err: err}
	}
	return sub
}

// Collect folds a nested reader's failure back into f.
func (f *Fields) Collect(sub *Fields) {
	if f.err == nil && sub.err != nil {
		f.err = sub.err
	}
}

// AssetClass reads Constr 0 [policy, name]. The policy is empty (base asset)
// or exactly 28 bytes.
func (f *Fields) AssetClass(field string) value.AssetClass {
	sub := f.Constr(field, 0, 2)
	policy := sub.Bytes("policy", 0, value.PolicyIDLen)
	name := sub.Bytes("name", 0, value.MaxAssetNameLen)
	f.Collect(sub)
	if f.err != nil {
		return value.AssetClass{}
	}
	if len(policy) != 0 && len(policy) != value.PolicyIDLen {
		f.fail(MalformedIdentifier, field+".policy", "policy id must be %d bytes, got %d", value.PolicyIDLen, len(policy))
		return value.AssetClass{}
	}
	if len(policy) == 0 && len(name) != 0 {
		f.fail(MalformedIdentifier, field+".name", "base asset cannot carry a name")
		return value.AssetClass{}
	}
	return value.NewAssetClass(policy, name)
}

// Address reads an address. Every structural problem is MalformedAddress.
func (f *Fields) Address(field string) ledger.Address {
	raw, ok := f.take()
	if !ok {
		return ledger.Address{}
	}
	addr, detail := decodeAddress(raw)
	if detail != "" {
		f.fail(MalformedAddress, field, "%s", detail)
		return ledger.Address{}
	}
	return addr
}

func decodeAddress(raw []byte) (ledger.Address, string) {
	c, err := decodeConstr(raw)
	if err != nil || c.Constructor() != 0 {
		return ledger.Address{}, "expected address constructor 0"
	}
	parts, detail := rawFields(c, 2)
	if detail != "" {
		return ledger.Address{}, detail
	}

	payment, detail := decodeCredential(parts[0])
	if detail != "" {
		return ledger.Address{}, "payment: " + detail
	}
	addr := ledger.Address{Payment: payment}

	maybe, err := decodeConstr(parts[1])
	if err != nil {
		return ledger.Address{}, "stake: expected maybe constructor"
	}
	switch maybe.Constructor() {
	case 1:
		if _, detail := rawFields(maybe, 0); detail != "" {
			return ledger.Address{}, "stake: " + detail
		}
	case 0:
		inner, detail := rawFields(maybe, 1)
		if detail != "" {
			return ledger.Address{}, "stake: " + detail
		}
		staking, err := decodeConstr(inner[0])
		if err != nil {
			return ledger.Address{}, "stake: expected staking credential"
		}
		if staking.Constructor() != 0 {
			return ledger.Address{}, "stake: pointer staking references are not supported"
		}
		cred, detail := rawFields(staking, 1)
		if detail != "" {
			return ledger.Address{}, "stake: " + detail
		}
		stake, detail := decodeCredential(cred[0])
		if detail != "" {
			return ledger.Address{}, "stake: " + detail
		}
		addr.Stake = &stake
	default:
		return ledger.Address{}, "stake: maybe constructor must be 0 or 1"
	}
	return addr, ""
}

func decodeCredential(raw []byte) (ledger.Credential, string) {
	c, err := decodeConstr(raw)
	if err != nil {
		return ledger.Credential{}, "expected credential constructor"
	}
	if c.Constructor() > 1 {
		return ledger.Credential{}, "credential constructor must be 0 or 1"
	}
	fields, detail := rawFields(c, 1)
	if detail != "" {
		return ledger.Credential{}, detail
	}
	var hash []byte
	if _, err := cbor.Decode(fields[0], &hash); err != nil {
		return ledger.Credential{}, "credential hash is not a byte string"
	}
	if len(hash) != ledger.HashLen {
		return ledger.Credential{}, "credential hash must be 28 bytes"
	}
	cred := ledger.Credential{Kind: ledger.CredentialKind(c.Constructor())}
	copy(cred.Hash[:], hash)
	return cred, ""
}

func rawFields(c cbor.Constructor, arity int) ([]cbor.RawMessage, string) {
	var raw []cbor.RawMessage
	if fc := c.FieldsCbor(); len(fc) > 0 {
		if _, err := cbor.Decode(fc, &raw); err != nil {
			return nil, "unreadable fields"
		}
	}
	if len(raw) != arity {
		return nil, "wrong number of fields"
	}
	return raw, ""
}
