package pool_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/amm-validator/internal/amm"
	"github.com/aman-zulfiqar/amm-validator/internal/codec"
	"github.com/aman-zulfiqar/amm-validator/internal/ledger"
	"github.com/aman-zulfiqar/amm-validator/internal/pool"
	"github.com/aman-zulfiqar/amm-validator/internal/pool/pooltest"
)

func TestValidateStructure(t *testing.T) {
	r := pooltest.Record()
	assert.True(t, pool.ValidateStructure(r))

	r.Version = 0
	assert.False(t, pool.ValidateStructure(r))

	r = pooltest.Record()
	delete(r.Metadata, pool.MetaName)
	assert.False(t, pool.ValidateStructure(r))

	assert.False(t, pool.ValidateStructure(nil))
}

func TestConfigValidate(t *testing.T) {
	cfg := pooltest.Record().Payload.Config
	require.NoError(t, cfg.Validate())

	cfg.ProtocolFeeBps = 9971
	assert.ErrorIs(t, cfg.Validate(), pool.ErrInvalidConfig)

	cfg = pooltest.Record().Payload.Config
	cfg.ProtocolFeeBps = ^uint64(0)
	assert.ErrorIs(t, cfg.Validate(), pool.ErrInvalidConfig)

	cfg = pooltest.Record().Payload.Config
	cfg.LPAsset.PolicyID = ""
	assert.ErrorIs(t, cfg.Validate(), pool.ErrInvalidConfig)
}

func TestCheckInvariants(t *testing.T) {
	r := pooltest.Record()
	require.NoError(t, pool.CheckInvariants(r))

	r.Payload.State.ReserveBase = 0
	assert.ErrorIs(t, pool.CheckInvariants(r), pool.ErrEmptyReserve)

	r = pooltest.Record()
	r.Payload.State.TotalLP = 0
	assert.ErrorIs(t, pool.CheckInvariants(r), pool.ErrOrphanReserves)

	r.Payload.State.ReserveBase, r.Payload.State.ReservePaired = 0, 0
	assert.NoError(t, pool.CheckInvariants(r), "closed pool")
}

func TestWithUpdatedStats(t *testing.T) {
	before := pooltest.Record().Payload.Stats
	before.PriceDigest = []byte{1, 2, 3}

	after := pool.WithUpdatedStats(before, 10, 20, 3, 42)
	assert.Equal(t, before.SwapCount+1, after.SwapCount)
	assert.Equal(t, before.VolumeBase+10, after.VolumeBase)
	assert.Equal(t, before.VolumePaired+20, after.VolumePaired)
	assert.Equal(t, before.FeesCollected+3, after.FeesCollected)
	assert.Equal(t, uint64(42), after.LastPrice)
	assert.Equal(t, before.UniqueProviders, after.UniqueProviders)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
	assert.Equal(t, before.PriceDigest, after.PriceDigest)

	saturated := pool.WithUpdatedStats(pool.Stats{VolumeBase: ^uint64(0)}, 5, 0, 0, 0)
	assert.Equal(t, ^uint64(0), saturated.VolumeBase)
}

func TestRollPriceDigest(t *testing.T) {
	d1 := pool.RollPriceDigest(nil, 2_000_000)
	assert.Len(t, d1, 32)
	assert.Equal(t, d1, pool.RollPriceDigest(nil, 2_000_000))
	assert.NotEqual(t, d1, pool.RollPriceDigest(nil, 2_000_001))
	assert.NotEqual(t, d1, pool.RollPriceDigest(d1, 2_000_000))
}

func TestApplySwapIsPure(t *testing.T) {
	r := pooltest.Record()
	snapshot := r.Clone()

	out, err := amm.SwapOutput(r.Payload.State.ReserveBase, r.Payload.State.ReservePaired, 100_000_000, pooltest.FeeBps)
	require.NoError(t, err)

	next, err := pool.ApplySwap(r, pool.SwapChange{
		BaseToPaired: true,
		AmountIn:     100_000_000,
		AmountOut:    out,
		Fee:          amm.FeeAmount(100_000_000, pooltest.FeeBps),
		At:           pooltest.CreatedAt + 1,
	})
	require.NoError(t, err)

	assert.Equal(t, snapshot, r, "input record must not change")
	assert.Equal(t, uint64(1100_000_000), next.Payload.State.ReserveBase)
	assert.Equal(t, uint64(2000_000_000)-out, next.Payload.State.ReservePaired)
	assert.Equal(t, uint64(1), next.Payload.Stats.SwapCount)
	assert.Equal(t, uint64(100_000_000), next.Payload.Stats.VolumeBase)
	assert.Equal(t, out, next.Payload.Stats.VolumePaired)
	assert.Len(t, next.Payload.Stats.PriceDigest, 32)

	price, err := amm.Price(next.Payload.State.ReserveBase, next.Payload.State.ReservePaired)
	require.NoError(t, err)
	assert.Equal(t, price, next.Payload.Stats.LastPrice)

	next.Metadata[pool.MetaName] = []byte("changed")
	assert.Equal(t, "ADA-TOKEN", r.Name())
}

func TestApplySwapPairedToBase(t *testing.T) {
	r := pooltest.Record()
	next, err := pool.ApplySwap(r, pool.SwapChange{AmountIn: 50, AmountOut: 20, At: 1})
	require.NoError(t, err)
	assert.Equal(t, uint64(pooltest.ReservePaired+50), next.Payload.State.ReservePaired)
	assert.Equal(t, uint64(pooltest.ReserveBase-20), next.Payload.State.ReserveBase)
	assert.Equal(t, uint64(20), next.Payload.Stats.VolumeBase)

	_, err = pool.ApplySwap(r, pool.SwapChange{AmountIn: 1, AmountOut: pooltest.ReserveBase + 1})
	assert.ErrorIs(t, err, pool.ErrReserveUnderflow)
}

func TestApplyLiquidityChange(t *testing.T) {
	r := pooltest.Record()

	next, err := pool.ApplyLiquidityChange(r, pool.LiquidityChange{Deposit: true, Base: 10, Paired: 20, LP: 5, NewProvider: true, At: 7})
	require.NoError(t, err)
	assert.Equal(t, uint64(pooltest.ReserveBase+10), next.Payload.State.ReserveBase)
	assert.Equal(t, uint64(pooltest.TotalLP+5), next.Payload.State.TotalLP)
	assert.Equal(t, uint64(2), next.Payload.Stats.UniqueProviders)
	assert.Equal(t, int64(7), next.Payload.State.LastInteraction)
	assert.Equal(t, uint64(pooltest.TotalLP), r.Payload.State.TotalLP)

	closed, err := pool.ApplyLiquidityChange(r, pool.LiquidityChange{
		Base: pooltest.ReserveBase, Paired: pooltest.ReservePaired, LP: pooltest.TotalLP,
	})
	require.NoError(t, err)
	assert.True(t, closed.Payload.State.Closed())

	_, err = pool.ApplyLiquidityChange(r, pool.LiquidityChange{LP: pooltest.TotalLP + 1})
	assert.ErrorIs(t, err, pool.ErrReserveUnderflow)

	_, err = pool.ApplyLiquidityChange(r, pool.LiquidityChange{Deposit: true, Base: ^uint64(0)})
	assert.ErrorIs(t, err, amm.ErrOverflow)
}

func TestSameEnvelope(t *testing.T) {
	a, b := pooltest.Record(), pooltest.Record()
	assert.True(t, pool.SameEnvelope(a, b))

	b.Extension = []byte{1}
	assert.False(t, pool.SameEnvelope(a, b))

	b = pooltest.Record()
	b.Metadata[pool.MetaDescription] = []byte("x")
	assert.False(t, pool.SameEnvelope(a, b))
}

func TestRecordRoundTrip(t *testing.T) {
	r := pooltest.Record()
	stake := ledger.PubKey(ledger.Hash{0x99})
	r.Payload.Config.Admin.Stake = &stake
	r.Payload.Config.Paused = true
	r.Payload.Config.ProtocolFeeBps = 500
	r.Extension = []byte{0xca, 0xfe}
	r.Metadata[pool.MetaDescription] = []byte("desc")
	r.Payload.Stats.PriceDigest = pool.RollPriceDigest(nil, 1)
	r.Payload.Stats.SwapCount = 12

	data, err := pool.EncodeRecord(r)
	require.NoError(t, err)

	got, err := pool.DecodeRecord(data)
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestDecodeRecordErrors(t *testing.T) {
	_, err := pool.DecodeRecord([]byte{0x01})
	assert.Equal(t, codec.WrongFieldType, codec.KindOf(err))

	r := pooltest.Record()
	r.Payload.Config.FeeBps = 20_000
	data, err := pool.EncodeRecord(r)
	require.NoError(t, err)
	_, err = pool.DecodeRecord(data)
	assert.Equal(t, codec.OutOfRange, codec.KindOf(err))

	var de *codec.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "payload.config.fee_bps", de.Field)

	r = pooltest.Record()
	r.Payload.State.PoolNFTName = bytes.Repeat([]byte{'n'}, 40)
	data, err = pool.EncodeRecord(r)
	require.NoError(t, err)
	_, err = pool.DecodeRecord(data)
	assert.Equal(t, codec.MalformedIdentifier, codec.KindOf(err))
}

func TestFactoryRoundTrip(t *testing.T) {
	fr := pooltest.Factory()
	fr.Paused = true

	data, err := pool.EncodeFactory(fr)
	require.NoError(t, err)

	got, err := pool.DecodeFactory(data)
	require.NoError(t, err)
	assert.Equal(t, fr, got)
}

func TestRecordNFT(t *testing.T) {
	r := pooltest.Record()
	nft := r.NFT()
	assert.Equal(t, pooltest.LPAsset.PolicyID, nft.PolicyID)
	assert.Equal(t, "POOL", nft.Name)
}
