package main

import (
	"github.com/spf13/cobra"

	"github.com/aman-zulfiqar/amm-validator/internal/amm"
)

func newQuoteCmd() *cobra.Command {
	quote := &cobra.Command{
		Use:   "quote",
		Short: "Preview swaps, deposits and withdrawals",
	}

	swap := &cobra.Command{
		Use:   "swap",
		Short: "Quote a swap against the given reserves",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			reserveIn, _ := f.GetUint64("reserve-in")
			reserveOut, _ := f.GetUint64("reserve-out")
			amountIn, _ := f.GetUint64("amount-in")
			feeBps, _ := f.GetUint64("fee-bps")
			protocolFeeBps, _ := f.GetUint64("protocol-fee-bps")
			slippageBps, _ := f.GetUint64("slippage-bps")

			q, err := amm.QuoteSwap(reserveIn, reserveOut, amountIn, feeBps, protocolFeeBps, slippageBps)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), q)
		},
	}
	swap.Flags().Uint64("reserve-in", 0, "reserve of the input asset")
	swap.Flags().Uint64("reserve-out", 0, "reserve of the output asset")
	swap.Flags().Uint64("amount-in", 0, "amount sent to the pool")
	swap.Flags().Uint64("fee-bps", 30, "pool fee in basis points")
	swap.Flags().Uint64("protocol-fee-bps", 0, "protocol share of the fee in basis points")
	swap.Flags().Uint64("slippage-bps", 50, "slippage tolerance for the minimum output")
	markRequired(swap, "reserve-in", "reserve-out", "amount-in")

	deposit := &cobra.Command{
		Use:   "deposit",
		Short: "Quote the LP minted for a deposit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			reserveBase, _ := f.GetUint64("reserve-base")
			reservePaired, _ := f.GetUint64("reserve-paired")
			totalLp, _ := f.GetUint64("total-lp")
			baseIn, _ := f.GetUint64("base-in")
			pairedIn, _ := f.GetUint64("paired-in")

			q, err := amm.QuoteDeposit(reserveBase, reservePaired, totalLp, baseIn, pairedIn)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), q)
		},
	}
	deposit.Flags().Uint64("reserve-base", 0, "base reserve")
	deposit.Flags().Uint64("reserve-paired", 0, "paired reserve")
	deposit.Flags().Uint64("total-lp", 0, "LP supply")
	deposit.Flags().Uint64("base-in", 0, "base amount deposited")
	deposit.Flags().Uint64("paired-in", 0, "paired amount deposited")
	markRequired(deposit, "base-in", "paired-in")

	withdraw := &cobra.Command{
		Use:   "withdraw",
		Short: "Quote the reserves released by burning LP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			reserveBase, _ := f.GetUint64("reserve-base")
			reservePaired, _ := f.GetUint64("reserve-paired")
			totalLp, _ := f.GetUint64("total-lp")
			lpBurn, _ := f.GetUint64("lp-burn")

			q, err := amm.QuoteWithdraw(reserveBase, reservePaired, totalLp, lpBurn)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), q)
		},
	}
	withdraw.Flags().Uint64("reserve-base", 0, "base reserve")
	withdraw.Flags().Uint64("reserve-paired", 0, "paired reserve")
	withdraw.Flags().Uint64("total-lp", 0, "LP supply")
	withdraw.Flags().Uint64("lp-burn", 0, "LP burned")
	markRequired(withdraw, "reserve-base", "reserve-paired", "total-lp", "lp-burn")

	quote.AddCommand(swap, deposit, withdraw)
	return quote
}

func markRequired(cmd *cobra.Command, names ...string) {
	for _, n := range names {
		_ = cmd.MarkFlagRequired(n)
	}
}
