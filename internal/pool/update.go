package pool

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/aman-zulfiqar/amm-validator/internal/amm"
)

var ErrReserveUnderflow = errors.New("change exceeds pool holdings")

// WithUpdatedStats records one swap: swap count +1, volumes and fees grow by
// the given amounts, LastPrice is replaced. Everything else is carried over.
// Counters saturate instead of wrapping.
func WithUpdatedStats(stats Stats, baseDelta, pairedDelta, feeCollected, newPrice uint64) Stats {
	out := stats
	out.VolumeBase = satAdd(stats.VolumeBase, baseDelta)
	out.VolumePaired = satAdd(stats.VolumePaired, pairedDelta)
	out.FeesCollected = satAdd(stats.FeesCollected, feeCollected)
	out.SwapCount = satAdd(stats.SwapCount, 1)
	out.LastPrice = newPrice
	return out
}

// RollPriceDigest chains a price into the rolling history digest:
// blake2b-256(prev || bigEndian(price)).
func RollPriceDigest(prev []byte, price uint64) []byte {
	buf := make([]byte, 0, len(prev)+8)
	buf = append(buf, prev...)
	buf = binary.BigEndian.AppendUint64(buf, price)
	sum := blake2b.Sum256(buf)
	return sum[:]
}

// SwapChange describes a settled swap.
type SwapChange struct {
	BaseToPaired bool
	AmountIn     uint64
	AmountOut    uint64
	Fee          uint64
	At           int64
}

// ApplySwap returns the record that results from ch. r is not modified.
func ApplySwap(r *Record, ch SwapChange) (*Record, error) {
	out := r.Clone()
	st := &out.Payload.State

	reserveIn, reserveOut := st.Reserves(ch.BaseToPaired)
	if ch.AmountOut > reserveOut {
		return nil, fmt.Errorf("%w: out %d > reserve %d", ErrReserveUnderflow, ch.AmountOut, reserveOut)
	}
	if reserveIn+ch.AmountIn < reserveIn {
		return nil, fmt.Errorf("apply swap: %w", amm.ErrOverflow)
	}
	reserveIn += ch.AmountIn
	reserveOut -= ch.AmountOut

	var baseVol, pairedVol uint64
	if ch.BaseToPaired {
		st.ReserveBase, st.ReservePaired = reserveIn, reserveOut
		baseVol, pairedVol = ch.AmountIn, ch.AmountOut
	} else {
		st.ReservePaired, st.ReserveBase = reserveIn, reserveOut
		baseVol, pairedVol = ch.AmountOut, ch.AmountIn
	}
	st.LastInteraction = ch.At

	price, err := amm.Price(st.ReserveBase, st.ReservePaired)
	if err != nil {
		return nil, fmt.Errorf("apply swap: %w", err)
	}
	stats := WithUpdatedStats(out.Payload.Stats, baseVol, pairedVol, ch.Fee, price)
	stats.PriceDigest = RollPriceDigest(out.Payload.Stats.PriceDigest, price)
	out.Payload.Stats = stats
	return out, nil
}

// LiquidityChange describes a deposit or withdrawal of both reserves together
// with the LP tokens minted or burned for it.
type LiquidityChange struct {
	Deposit     bool
	Base        uint64
	Paired      uint64
	LP          uint64
	NewProvider bool
	At          int64
}

// ApplyLiquidityChange returns the record that results from ch. r is not
// modified.
func ApplyLiquidityChange(r *Record, ch LiquidityChange) (*Record, error) {
	out := r.Clone()
	st := &out.Payload.State

	if ch.Deposit {
		if st.ReserveBase+ch.Base < st.ReserveBase ||
			st.ReservePaired+ch.Paired < st.ReservePaired ||
			st.TotalLP+ch.LP < st.TotalLP {
			return nil, fmt.Errorf("apply deposit: %w", amm.ErrOverflow)
		}
		st.ReserveBase += ch.Base
		st.ReservePaired += ch.Paired
		st.TotalLP += ch.LP
		if ch.NewProvider {
			out.Payload.Stats.UniqueProviders = satAdd(out.Payload.Stats.UniqueProviders, 1)
		}
	} else {
		if ch.Base > st.ReserveBase || ch.Paired > st.ReservePaired || ch.LP > st.TotalLP {
			return nil, fmt.Errorf("apply withdrawal: %w", ErrReserveUnderflow)
		}
		st.ReserveBase -= ch.Base
		st.ReservePaired -= ch.Paired
		st.TotalLP -= ch.LP
	}
	st.LastInteraction = ch.At
	return out, nil
}

func satAdd(a, b uint64) uint64 {
	if s := a + b; s >= a {
		return s
	}
	return ^uint64(0)
}
