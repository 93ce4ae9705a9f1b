// Package pooltest provides pool records and transactions for tests.
package pooltest

import (
	"bytes"

	"github.com/aman-zulfiqar/amm-validator/internal/ledger"
	"github.com/aman-zulfiqar/amm-validator/internal/pool"
	"github.com/aman-zulfiqar/amm-validator/internal/value"
)

// Reserves and supply of the record returned by Record.
const (
	ReserveBase   = 1000_000_000
	ReservePaired = 2000_000_000
	TotalLP       = 1414_213_562 // floor(sqrt(base*paired))
	FeeBps        = 30
	CreatedAt     = 1_700_000_000_000
)

var (
	Admin   = ledger.Address{Payment: ledger.PubKey(ledger.Hash{0xad})}
	Creator = ledger.Address{Payment: ledger.PubKey(ledger.Hash{0xc0})}
	Trader  = ledger.Address{Payment: ledger.PubKey(ledger.Hash{0x7a})}
	Script  = ledger.Address{Payment: ledger.Credential{Kind: ledger.ScriptCredential, Hash: ledger.Hash{0x5c}}}

	PairedAsset = value.NewAssetClass(bytes.Repeat([]byte{0x11}, value.PolicyIDLen), []byte("TOKEN"))
	LPAsset     = value.NewAssetClass(bytes.Repeat([]byte{0x22}, value.PolicyIDLen), []byte("LP"))
	NFTName     = []byte("POOL")
)

// Record returns a funded, unpaused pool record.
func Record() *pool.Record {
	return &pool.Record{
		Metadata: map[string][]byte{pool.MetaName: []byte("ADA-TOKEN")},
		Version:  pool.CurrentVersion,
		Payload: pool.Datum{
			State: pool.State{
				ReserveBase:     ReserveBase,
				ReservePaired:   ReservePaired,
				TotalLP:         TotalLP,
				LastInteraction: CreatedAt,
				PoolNFTName:     bytes.Clone(NFTName),
			},
			Config: pool.Config{
				PairedAsset: PairedAsset,
				LPAsset:     LPAsset,
				FeeBps:      FeeBps,
				Creator:     Creator,
				Admin:       Admin,
			},
			Stats: pool.Stats{
				CreatedAt:       CreatedAt,
				UniqueProviders: 1,
				LastPrice:       2_000_000,
			},
		},
	}
}

// Factory returns an unpaused factory record administered by Admin.
func Factory() *pool.FactoryRecord {
	return &pool.FactoryRecord{
		Admin:         Admin,
		PoolCount:     3,
		DefaultFeeBps: FeeBps,
		CreationFee:   2_000_000,
	}
}

// ContinuingOutput returns a pool output backing r's reserves with the given
// base-asset surplus on top of the base reserve.
func ContinuingOutput(r *pool.Record, surplus uint64) ledger.TxOutput {
	st := r.Payload.State
	v := value.Value{value.Base: st.ReserveBase + surplus, r.NFT(): 1}
	v[r.Payload.Config.PairedAsset] = st.ReservePaired
	return ledger.TxOutput{Address: Script, Value: value.Canonical(v), DatumSize: 300}
}
