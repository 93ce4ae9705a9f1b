package amm

// SwapQuote contains quote details for a swap
type SwapQuote struct {
	AmountIn       uint64 `json:"amount_in"`
	AmountOut      uint64 `json:"amount_out"`
	MinAmountOut   uint64 `json:"min_amount_out"` // after slippage
	FeeBps         uint64 `json:"fee_bps"`
	LPFee          uint64 `json:"lp_fee"`
	ProtocolFee    uint64 `json:"protocol_fee"`
	PriceImpactBps uint64 `json:"price_impact_bps"`
	ReserveIn      uint64 `json:"reserve_in"`  // before swap
	ReserveOut     uint64 `json:"reserve_out"` // before swap
}

// QuoteSwap previews a swap without touching any record.
func QuoteSwap(reserveIn, reserveOut, amountIn, feeBps, protocolFeeBps, slippageBps uint64) (*SwapQuote, error) {
	out, err := SwapOutput(reserveIn, reserveOut, amountIn, feeBps)
	if err != nil {
		return nil, err
	}
	impact, err := PriceImpactBps(reserveIn, reserveOut, amountIn, feeBps)
	if err != nil {
		return nil, err
	}
	lpFee, protocolFee := SplitFee(amountIn, feeBps, protocolFeeBps)

	return &SwapQuote{
		AmountIn:       amountIn,
		AmountOut:      out,
		MinAmountOut:   ApplySlippage(out, slippageBps),
		FeeBps:         feeBps,
		LPFee:          lpFee,
		ProtocolFee:    protocolFee,
		PriceImpactBps: impact,
		ReserveIn:      reserveIn,
		ReserveOut:     reserveOut,
	}, nil
}

// DepositQuote previews an AddLiquidity.
type DepositQuote struct {
	BaseIn   uint64 `json:"base_in"`
	PairedIn uint64 `json:"paired_in"`
	LPOut    uint64 `json:"lp_out"`
	// Balanced amounts matching the current pool ratio.
	BalancedBase   uint64 `json:"balanced_base"`
	BalancedPaired uint64 `json:"balanced_paired"`
}

// QuoteDeposit previews the LP minted for a deposit and the ratio-matched
// amounts a client should send instead.
func QuoteDeposit(reserveBase, reservePaired, totalLp, baseIn, pairedIn uint64) (*DepositQuote, error) {
	lp, err := LPMintAmount(reserveBase, reservePaired, totalLp, baseIn, pairedIn)
	if err != nil {
		return nil, err
	}
	b, p, err := BalancedAmounts(reserveBase, reservePaired, baseIn, pairedIn)
	if err != nil {
		return nil, err
	}
	return &DepositQuote{BaseIn: baseIn, PairedIn: pairedIn, LPOut: lp, BalancedBase: b, BalancedPaired: p}, nil
}

// WithdrawQuote previews a RemoveLiquidity.
type WithdrawQuote struct {
	LPBurn    uint64 `json:"lp_burn"`
	BaseOut   uint64 `json:"base_out"`
	PairedOut uint64 `json:"paired_out"`
	ShareBps  uint64 `json:"share_bps"`
}

// QuoteWithdraw previews the reserves released by burning lpBurn.
func QuoteWithdraw(reserveBase, reservePaired, totalLp, lpBurn uint64) (*WithdrawQuote, error) {
	b, p, err := ProportionalWithdrawal(reserveBase, reservePaired, totalLp, lpBurn)
	if err != nil {
		return nil, err
	}
	share := Product(lpBurn, BpsDenominator)
	share.Div(share, u(totalLp))
	return &WithdrawQuote{LPBurn: lpBurn, BaseOut: b, PairedOut: p, ShareBps: share.Uint64()}, nil
}
