package codec

import (
	"encoding/json"
	"fmt"
)

// Envelope is the JSON form of an action used by the API and CLI:
//
//	{"type": "swap", "fields": {"amount_in": 100, ...}}
type Envelope struct {
	Type   string          `json:"type"`
	Fields json.RawMessage `json:"fields,omitempty"`
}

// MarshalAction renders a as an Envelope.
func MarshalAction(a Action) ([]byte, error) {
	fields, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", a.Tag(), err)
	}
	return json.Marshal(Envelope{Type: a.Tag().String(), Fields: fields})
}

// UnmarshalAction parses an Envelope. The result is not range checked; pass it
// through Encode to validate it.
func UnmarshalAction(data []byte) (Action, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal action: %w", err)
	}
	tag, ok := ParseTag(env.Type)
	if !ok {
		return nil, fmt.Errorf("unmarshal action: unknown type %q", env.Type)
	}

	switch tag {
	case TagSwap:
		return unmarshalFields[Swap](env)
	case TagAddLiquidity:
		return unmarshalFields[AddLiquidity](env)
	case TagRemoveLiquidity:
		return unmarshalFields[RemoveLiquidity](env)
	case TagCreatePool:
		return unmarshalFields[CreatePool](env)
	case TagEmergencyPause:
		return EmergencyPause{}, nil
	case TagEmergencyUnpause:
		return EmergencyUnpause{}, nil
	case TagUpdateMetadata:
		return unmarshalFields[UpdateMetadata](env)
	case TagMintLP:
		return unmarshalFields[MintLP](env)
	case TagBurnLP:
		return unmarshalFields[BurnLP](env)
	case TagFactoryCreatePool:
		return unmarshalFields[FactoryCreatePool](env)
	case TagUpdateFactoryConfig:
		return unmarshalFields[UpdateFactoryConfig](env)
	case TagPauseFactory:
		return PauseFactory{}, nil
	default:
		return UnpauseFactory{}, nil
	}
}

func unmarshalFields[T Action](env Envelope) (Action, error) {
	var v T
	if len(env.Fields) == 0 {
		return nil, fmt.Errorf("unmarshal %s: missing fields", env.Type)
	}
	if err := json.Unmarshal(env.Fields, &v); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", env.Type, err)
	}
	return Canonical(v), nil
}
