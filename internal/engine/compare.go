package engine

import (
	"bytes"
	"math/big"

	"github.com/aman-zulfiqar/amm-validator/internal/amm"
	"github.com/aman-zulfiqar/amm-validator/internal/ledger"
	"github.com/aman-zulfiqar/amm-validator/internal/pool"
	"github.com/aman-zulfiqar/amm-validator/internal/security"
	"github.com/aman-zulfiqar/amm-validator/internal/value"
)

func mismatch(field string, want, got any) Decision {
	return reject(security.ExpectedActualMismatch, "%s: expected %v, proposed %v", field, want, got)
}

// compareRecords checks proposed against the computed successor field by
// field and names the first difference.
func compareRecords(want, got *pool.Record) Decision {
	if !pool.SameEnvelope(want, got) {
		switch {
		case want.Version != got.Version:
			return mismatch("version", want.Version, got.Version)
		case !bytes.Equal(want.Extension, got.Extension):
			return mismatch("extension", want.Extension, got.Extension)
		default:
			return reject(security.ExpectedActualMismatch, "metadata differs from the expected record")
		}
	}

	wc, gc := want.Payload.Config, got.Payload.Config
	switch {
	case wc.PairedAsset != gc.PairedAsset:
		return mismatch("config.paired_asset", wc.PairedAsset, gc.PairedAsset)
	case wc.LPAsset != gc.LPAsset:
		return mismatch("config.lp_asset", wc.LPAsset, gc.LPAsset)
	case wc.FeeBps != gc.FeeBps:
		return mismatch("config.fee_bps", wc.FeeBps, gc.FeeBps)
	case wc.ProtocolFeeBps != gc.ProtocolFeeBps:
		return mismatch("config.protocol_fee_bps", wc.ProtocolFeeBps, gc.ProtocolFeeBps)
	case !wc.Creator.Equal(gc.Creator):
		return mismatch("config.creator", wc.Creator.Key(), gc.Creator.Key())
	case !wc.Admin.Equal(gc.Admin):
		return mismatch("config.admin", wc.Admin.Key(), gc.Admin.Key())
	case wc.Paused != gc.Paused:
		return mismatch("config.paused", wc.Paused, gc.Paused)
	}

	ws, gs := want.Payload.State, got.Payload.State
	switch {
	case ws.ReserveBase != gs.ReserveBase:
		return mismatch("state.reserve_base", ws.ReserveBase, gs.ReserveBase)
	case ws.ReservePaired != gs.ReservePaired:
		return mismatch("state.reserve_paired", ws.ReservePaired, gs.ReservePaired)
	case ws.TotalLP != gs.TotalLP:
		return mismatch("state.total_lp", ws.TotalLP, gs.TotalLP)
	case ws.LastInteraction != gs.LastInteraction:
		return mismatch("state.last_interaction", ws.LastInteraction, gs.LastInteraction)
	case !bytes.Equal(ws.PoolNFTName, gs.PoolNFTName):
		return mismatch("state.pool_nft_name", ws.PoolNFTName, gs.PoolNFTName)
	}

	wt, gt := want.Payload.Stats, got.Payload.Stats
	switch {
	case wt.VolumeBase != gt.VolumeBase:
		return mismatch("stats.volume_base", wt.VolumeBase, gt.VolumeBase)
	case wt.VolumePaired != gt.VolumePaired:
		return mismatch("stats.volume_paired", wt.VolumePaired, gt.VolumePaired)
	case wt.FeesCollected != gt.FeesCollected:
		return mismatch("stats.fees_collected", wt.FeesCollected, gt.FeesCollected)
	case wt.SwapCount != gt.SwapCount:
		return mismatch("stats.swap_count", wt.SwapCount, gt.SwapCount)
	case wt.UniqueProviders != gt.UniqueProviders:
		return mismatch("stats.unique_providers", wt.UniqueProviders, gt.UniqueProviders)
	case wt.CreatedAt != gt.CreatedAt:
		return mismatch("stats.created_at", wt.CreatedAt, gt.CreatedAt)
	case wt.LastPrice != gt.LastPrice:
		return mismatch("stats.last_price", wt.LastPrice, gt.LastPrice)
	case !bytes.Equal(wt.PriceDigest, gt.PriceDigest):
		return mismatch("stats.price_digest", wt.PriceDigest, gt.PriceDigest)
	}
	return accept()
}

// checkLastInteraction requires the proposed timestamp to be non-decreasing
// and inside the transaction's finite validity bounds.
func checkLastInteraction(cur, next *pool.Record, tx ledger.TransactionContext) Decision {
	at := next.Payload.State.LastInteraction
	if cur != nil && at < cur.Payload.State.LastInteraction {
		return reject(security.InvalidParameters, "last interaction %d precedes %d", at, cur.Payload.State.LastInteraction)
	}
	v := tx.Validity
	if v.Lower.Finite && at < v.Lower.Time {
		return reject(security.InvalidParameters, "last interaction %d before validity start %d", at, v.Lower.Time)
	}
	if v.Upper.Finite && at > v.Upper.Time {
		return reject(security.InvalidParameters, "last interaction %d after validity end %d", at, v.Upper.Time)
	}
	return accept()
}

// checkMint requires the transaction to mint exactly the LP and identity
// tokens the transition accounts for.
func checkMint(p plan, next *pool.Record, tx ledger.TransactionContext) Decision {
	lp := next.Payload.Config.LPAsset
	if got := tx.Mint.Of(lp); got.Cmp(p.lpMint) != 0 {
		return mintMismatch(lp, p.lpMint, got)
	}
	nft := next.NFT()
	if nft == lp {
		return accept()
	}
	if got := tx.Mint.Of(nft); got.Cmp(p.nftMint) != 0 {
		return mintMismatch(nft, p.nftMint, got)
	}
	return accept()
}

func mintMismatch(asset value.AssetClass, want, got *big.Int) Decision {
	return reject(security.ExpectedActualMismatch, "mint of %s: expected %s, transaction mints %s", asset, want, got)
}

// checkBacking requires the output carrying the pool's identity token to hold
// the reserves plus the minimum resource deposit. Closed pools have nothing
// to back.
func checkBacking(cfg security.Config, next *pool.Record, tx ledger.TransactionContext) Decision {
	st := next.Payload.State
	if st.Closed() {
		return accept()
	}
	outs := tx.OutputsHolding(next.NFT())
	if len(outs) == 0 {
		return accept()
	}
	if len(outs) > 1 {
		return reject(security.ExpectedActualMismatch, "identity token %s split across %d outputs", next.NFT(), len(outs))
	}

	out := outs[0]
	paired := value.QuantityOf(out.Value, next.Payload.Config.PairedAsset)
	if paired != st.ReservePaired {
		return mismatch("output paired amount", st.ReservePaired, paired)
	}
	deposit := amm.MinResourceRequirement(out.Value, out.DatumSize, true, cfg.Resource)
	need := st.ReserveBase + deposit
	if need < st.ReserveBase {
		need = ^uint64(0)
	}
	if base := value.QuantityOf(out.Value, value.Base); base < need {
		return reject(security.InsufficientLiquidity, "output holds %d base, needs reserves %d plus deposit %d", base, st.ReserveBase, deposit)
	}
	return accept()
}
