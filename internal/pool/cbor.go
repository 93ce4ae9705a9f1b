package pool

import (
	"fmt"

	"github.com/blinklabs-io/gouroboros/cbor"

	"github.com/aman-zulfiqar/amm-validator/internal/codec"
	"github.com/aman-zulfiqar/amm-validator/internal/value"
)

const (
	recordVariant  = "pool_record"
	factoryVariant = "factory_record"
	// digests are blake2b-256, but old records may carry none
	maxDigestLen = 32
)

// EncodeRecord serializes r as
//
//	Constr 0 [metadata, version, extension, Constr 0 [state, config, stats]]
func EncodeRecord(r *Record) ([]byte, error) {
	st, cfg, stats := r.Payload.State, r.Payload.Config, r.Payload.Stats

	state := codec.Constr(0,
		st.ReserveBase, st.ReservePaired, st.TotalLP, uint64(st.LastInteraction), codec.Bytes(st.PoolNFTName))
	config := codec.Constr(0,
		codec.AssetClassData(cfg.PairedAsset), codec.AssetClassData(cfg.LPAsset),
		cfg.FeeBps, cfg.ProtocolFeeBps,
		codec.AddressData(cfg.Creator), codec.AddressData(cfg.Admin),
		codec.Bool(cfg.Paused))
	statsData := codec.Constr(0,
		stats.VolumeBase, stats.VolumePaired, stats.FeesCollected, stats.SwapCount,
		stats.UniqueProviders, uint64(stats.CreatedAt), stats.LastPrice, codec.Bytes(stats.PriceDigest))

	if st.LastInteraction < 0 || stats.CreatedAt < 0 {
		return nil, fmt.Errorf("encode record: negative timestamp")
	}

	rec := codec.Constr(0,
		codec.Metadata(r.Metadata), r.Version, codec.Bytes(r.Extension),
		codec.Constr(0, state, config, statsData))
	data, err := cbor.Encode(&rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return data, nil
}

// DecodeRecord parses a pool record. Failures are *codec.DecodeError.
func DecodeRecord(data []byte) (*Record, error) {
	f, err := codec.Open(recordVariant, data, 0, 4)
	if err != nil {
		return nil, err
	}

	r := &Record{
		Metadata:  f.Metadata("metadata"),
		Version:   f.Uint("version"),
		Extension: f.Bytes("extension", 0, 1<<16),
	}

	payload := f.Constr("payload", 0, 3)

	s := payload.Constr("state", 0, 5)
	r.Payload.State = State{
		ReserveBase:     s.Uint("reserve_base"),
		ReservePaired:   s.Uint("reserve_paired"),
		TotalLP:         s.Uint("total_lp"),
		LastInteraction: s.Time("last_interaction"),
		PoolNFTName:     s.Bytes("pool_nft_name", 0, value.MaxAssetNameLen),
	}
	payload.Collect(s)

	c := payload.Constr("config", 0, 7)
	r.Payload.Config = Config{
		PairedAsset:    c.AssetClass("paired_asset"),
		LPAsset:        c.AssetClass("lp_asset"),
		FeeBps:         c.AtMost("fee_bps", codec.MaxFeeBps),
		ProtocolFeeBps: c.AtMost("protocol_fee_bps", codec.MaxFeeBps),
		Creator:        c.Address("creator"),
		Admin:          c.Address("admin"),
		Paused:         c.Bool("paused"),
	}
	payload.Collect(c)

	st := payload.Constr("stats", 0, 8)
	r.Payload.Stats = Stats{
		VolumeBase:      st.Uint("volume_base"),
		VolumePaired:    st.Uint("volume_paired"),
		FeesCollected:   st.Uint("fees_collected"),
		SwapCount:       st.Uint("swap_count"),
		UniqueProviders: st.Uint("unique_providers"),
		CreatedAt:       st.Time("created_at"),
		LastPrice:       st.Uint("last_price"),
		PriceDigest:     st.Bytes("price_digest", 0, maxDigestLen),
	}
	payload.Collect(st)
	f.Collect(payload)

	if err := f.Err(); err != nil {
		return nil, err
	}
	return r, nil
}

// EncodeFactory serializes the factory datum as
// Constr 0 [admin, poolCount, defaultFeeBps, creationFee, paused].
func EncodeFactory(fr *FactoryRecord) ([]byte, error) {
	c := codec.Constr(0,
		codec.AddressData(fr.Admin), fr.PoolCount, fr.DefaultFeeBps, fr.CreationFee, codec.Bool(fr.Paused))
	data, err := cbor.Encode(&c)
	if err != nil {
		return nil, fmt.Errorf("encode factory: %w", err)
	}
	return data, nil
}

// DecodeFactory parses a factory datum.
func DecodeFactory(data []byte) (*FactoryRecord, error) {
	f, err := codec.Open(factoryVariant, data, 0, 5)
	if err != nil {
		return nil, err
	}
	fr := &FactoryRecord{
		Admin:         f.Address("admin"),
		PoolCount:     f.Uint("pool_count"),
		DefaultFeeBps: f.AtMost("default_fee_bps", codec.MaxFeeBps),
		CreationFee:   f.Uint("creation_fee"),
		Paused:        f.Bool("paused"),
	}
	if err := f.Err(); err != nil {
		return nil, err
	}
	return fr, nil
}
