package clearing

import (
	sdkmath "cosmossdk.io/math"
)

// swapOutput runs the constant-product relation k = SqrtK² over one reserve
// pair: moving swapAmount units into (SwapAdd) or out of (SwapRemove) the
// input reserve yields the implied output reserve, truncated.
func swapOutput(swapAmount, inputReserve int64, direction SwapDirection, sqrtK int64) (newInput int64, newOutput int64, err error) {
	if direction == SwapAdd {
		newInput = inputReserve + swapAmount
	} else {
		newInput = inputReserve - swapAmount
	}
	if newInput <= 0 {
		return 0, 0, ErrInvalidAMMReserves
	}

	k := sdkmath.NewInt(sqrtK).Mul(sdkmath.NewInt(sqrtK))
	out := k.Quo(sdkmath.NewInt(newInput))
	if !out.IsInt64() {
		return 0, 0, ErrMathOverflow
	}
	newOutput = out.Int64()
	if newOutput <= 0 {
		return 0, 0, ErrInvalidAMMReserves
	}
	return newInput, newOutput, nil
}

// reserveToQuote converts a reserve-scale amount to quote precision through
// the peg multiplier, truncating.
func reserveToQuote(reserveAmount, pegMultiplier int64) (int64, error) {
	return mulDiv(reserveAmount, pegMultiplier, PegPrecision*AMMToQuotePrecisionRatio)
}

// quoteSwapped converts a quote-reserve change into quote-asset units. When
// the taker removes base from the pool it pays quote, and the truncated
// conversion is bumped by one so rounding always favors the market.
func quoteSwapped(quoteReserveBefore, quoteReserveAfter int64, direction SwapDirection, pegMultiplier int64) (int64, error) {
	delta := quoteReserveAfter - quoteReserveBefore
	if delta < 0 {
		delta = -delta
	}
	quote, err := reserveToQuote(delta, pegMultiplier)
	if err != nil {
		return 0, err
	}
	if direction == SwapRemove {
		return checkedAdd(quote, 1)
	}
	return quote, nil
}

// spreadReserves selects the reserve pair the taker actually trades against:
// buying base lifts the ask side, selling base hits the bid side.
func (a *AMM) spreadReserves(direction SwapDirection) (baseReserve, quoteReserve int64) {
	if direction == SwapRemove {
		return a.AskBaseAssetReserve, a.AskQuoteAssetReserve
	}
	return a.BidBaseAssetReserve, a.BidQuoteAssetReserve
}

// SwapBase fills baseAmount against the AMM. The quote amount is priced on
// the spread reserves; the difference versus the canonical curve is returned
// as surplus, which accrues to the market's fee revenue. Canonical reserves
// are updated to the post-swap values; the bid/ask pairs are left for the
// spread-recomputation pass outside this core.
func (a *AMM) SwapBase(baseAmount int64, direction SwapDirection) (quoteAmount int64, quoteSurplus int64, err error) {
	spreadBase, spreadQuote := a.spreadReserves(direction)

	_, newSpreadQuote, err := swapOutput(baseAmount, spreadBase, direction, a.SqrtK)
	if err != nil {
		return 0, 0, err
	}
	quoteAmount, err = quoteSwapped(spreadQuote, newSpreadQuote, direction, a.PegMultiplier)
	if err != nil {
		return 0, 0, err
	}

	newBase, newQuote, err := swapOutput(baseAmount, a.BaseAssetReserve, direction, a.SqrtK)
	if err != nil {
		return 0, 0, err
	}
	quoteNoSpread, err := quoteSwapped(a.QuoteAssetReserve, newQuote, direction, a.PegMultiplier)
	if err != nil {
		return 0, 0, err
	}

	quoteSurplus = quoteAmount - quoteNoSpread
	if quoteSurplus < 0 {
		quoteSurplus = -quoteSurplus
	}

	a.BaseAssetReserve = newBase
	a.QuoteAssetReserve = newQuote
	return quoteAmount, quoteSurplus, nil
}

// BaseAssetValue prices closing a position against the canonical reserves:
// longs sell into the pool, shorts buy back out of it. Read-only.
func (a *AMM) BaseAssetValue(pos *MarketPosition) (int64, error) {
	if pos.BaseAssetAmount == 0 {
		return 0, nil
	}
	direction := SwapAdd
	if pos.BaseAssetAmount < 0 {
		direction = SwapRemove
	}
	_, newQuote, err := swapOutput(absInt64(pos.BaseAssetAmount), a.BaseAssetReserve, direction, a.SqrtK)
	if err != nil {
		return 0, err
	}
	return quoteSwapped(a.QuoteAssetReserve, newQuote, direction, a.PegMultiplier)
}

// QuotePrice returns the price (price precision) the taker would start paying
// on the relevant spread curve, used to gate limit orders against the AMM.
func (a *AMM) QuotePrice(direction Direction) (int64, error) {
	var baseReserve, quoteReserve int64
	if direction == Long {
		baseReserve, quoteReserve = a.AskBaseAssetReserve, a.AskQuoteAssetReserve
	} else {
		baseReserve, quoteReserve = a.BidBaseAssetReserve, a.BidQuoteAssetReserve
	}
	if baseReserve <= 0 {
		return 0, ErrInvalidAMMReserves
	}
	scaled := sdkmath.NewInt(quoteReserve).
		Mul(sdkmath.NewInt(a.PegMultiplier)).
		Mul(sdkmath.NewInt(PricePrecision)).
		Quo(sdkmath.NewInt(baseReserve)).
		Quo(sdkmath.NewInt(PegPrecision))
	if !scaled.IsInt64() {
		return 0, ErrMathOverflow
	}
	return scaled.Int64(), nil
}

// MarkPrice is the canonical-reserve price in price precision.
func (a *AMM) MarkPrice() (int64, error) {
	if a.BaseAssetReserve <= 0 {
		return 0, ErrInvalidAMMReserves
	}
	scaled := sdkmath.NewInt(a.QuoteAssetReserve).
		Mul(sdkmath.NewInt(a.PegMultiplier)).
		Mul(sdkmath.NewInt(PricePrecision)).
		Quo(sdkmath.NewInt(a.BaseAssetReserve)).
		Quo(sdkmath.NewInt(PegPrecision))
	if !scaled.IsInt64() {
		return 0, ErrMathOverflow
	}
	return scaled.Int64(), nil
}
