package server

import (
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/aman-zulfiqar/amm-validator/internal/amm"
)

const (
	defaultFeeBps      = 30
	defaultSlippageBps = 50
	priceDecimals      = 8
)

// queryUints reads unsigned integer query parameters and collects every
// problem so the caller can report them together.
type queryUints struct {
	c   echo.Context
	bad map[string]string
}

func newQueryUints(c echo.Context) *queryUints {
	return &queryUints{c: c, bad: map[string]string{}}
}

func (q *queryUints) get(name string, def uint64, required bool) uint64 {
	raw := strings.TrimSpace(q.c.QueryParam(name))
	if raw == "" {
		if required {
			q.bad[name] = "required"
		}
		return def
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		q.bad[name] = "must be an unsigned integer"
		return def
	}
	return n
}

func (q *queryUints) failed() bool {
	return len(q.bad) > 0
}

func dec(x uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(x), 0)
}

// ratio renders num/den with priceDecimals places, or "0" for an empty side.
func ratio(num, den uint64) string {
	if den == 0 {
		return "0"
	}
	return dec(num).DivRound(dec(den), priceDecimals).String()
}

func bpsPct(bps uint64) string {
	return decimal.New(int64(bps), -2).StringFixed(2)
}

// QuoteSwap previews a swap against the given reserves.
func (h *Handlers) QuoteSwap(c echo.Context) error {
	q := newQueryUints(c)
	reserveIn := q.get("reserveIn", 0, true)
	reserveOut := q.get("reserveOut", 0, true)
	amountIn := q.get("amountIn", 0, true)
	feeBps := q.get("feeBps", defaultFeeBps, false)
	protocolFeeBps := q.get("protocolFeeBps", 0, false)
	slippageBps := q.get("slippageBps", defaultSlippageBps, false)
	if q.failed() {
		return h.err(c, http.StatusBadRequest, "invalid query", q.bad)
	}

	quote, err := amm.QuoteSwap(reserveIn, reserveOut, amountIn, feeBps, protocolFeeBps, slippageBps)
	if err != nil {
		return h.err(c, http.StatusUnprocessableEntity, "quote failed", err.Error())
	}
	return c.JSON(http.StatusOK, SwapQuoteResponse{
		SwapQuote:      quote,
		EffectivePrice: ratio(quote.AmountOut, quote.AmountIn),
		PriceImpactPct: bpsPct(quote.PriceImpactBps),
		FeePct:         bpsPct(quote.FeeBps),
	})
}

// QuoteDeposit previews the LP minted for a deposit.
func (h *Handlers) QuoteDeposit(c echo.Context) error {
	q := newQueryUints(c)
	reserveBase := q.get("reserveBase", 0, false)
	reservePaired := q.get("reservePaired", 0, false)
	totalLp := q.get("totalLp", 0, false)
	baseIn := q.get("baseIn", 0, true)
	pairedIn := q.get("pairedIn", 0, true)
	if q.failed() {
		return h.err(c, http.StatusBadRequest, "invalid query", q.bad)
	}

	quote, err := amm.QuoteDeposit(reserveBase, reservePaired, totalLp, baseIn, pairedIn)
	if err != nil {
		return h.err(c, http.StatusUnprocessableEntity, "quote failed", err.Error())
	}
	price := ratio(reservePaired, reserveBase)
	if totalLp == 0 {
		price = ratio(pairedIn, baseIn)
	}
	return c.JSON(http.StatusOK, DepositQuoteResponse{DepositQuote: quote, PoolPrice: price})
}

// QuoteWithdraw previews the reserves released by burning LP.
func (h *Handlers) QuoteWithdraw(c echo.Context) error {
	q := newQueryUints(c)
	reserveBase := q.get("reserveBase", 0, true)
	reservePaired := q.get("reservePaired", 0, true)
	totalLp := q.get("totalLp", 0, true)
	lpBurn := q.get("lpBurn", 0, true)
	if q.failed() {
		return h.err(c, http.StatusBadRequest, "invalid query", q.bad)
	}

	quote, err := amm.QuoteWithdraw(reserveBase, reservePaired, totalLp, lpBurn)
	if err != nil {
		return h.err(c, http.StatusUnprocessableEntity, "quote failed", err.Error())
	}
	return c.JSON(http.StatusOK, WithdrawQuoteResponse{WithdrawQuote: quote, SharePct: bpsPct(quote.ShareBps)})
}
