package clearing

// AMM is the market's virtual constant-product curve and the aggregate
// counters it carries. Bid/ask reserve pairs encode the quoted spread; the
// canonical reserves are the ones fills settle against. The curve's own
// repegging/spread recomputation lives outside this core.
type AMM struct {
	BaseAssetReserve  int64
	QuoteAssetReserve int64

	BidBaseAssetReserve  int64
	BidQuoteAssetReserve int64
	AskBaseAssetReserve  int64
	AskQuoteAssetReserve int64

	SqrtK         int64
	PegMultiplier int64

	// NetBaseAssetAmount is the AMM's net counterparty exposure: maker-match
	// fills contribute zero, AMM fills the taker's signed base delta.
	NetBaseAssetAmount int64

	QuoteAssetAmountLong  int64
	QuoteAssetAmountShort int64

	TotalFee                   int64
	TotalFeeMinusDistributions int64
	NetRevenueSinceLastFunding int64
}

// Market is one perpetual market's shared aggregate. It is mutated exclusively
// within a single fulfillment call; the host guarantees no concurrent access.
type Market struct {
	Initialized bool
	MarketIndex uint64

	AMM AMM

	// Aggregate directional exposure across all users. Invariant after every
	// fill: BaseAssetAmountLong + BaseAssetAmountShort == AMM.NetBaseAssetAmount.
	BaseAssetAmountLong  int64
	BaseAssetAmountShort int64

	MarginRatioInitial     uint32
	MarginRatioPartial     uint32
	MarginRatioMaintenance uint32

	// Aggregate unsettled PnL across all users, split by sign.
	UnsettledProfit int64
	UnsettledLoss   int64
}

// applyUnsettledPnL credits delta to the position's unsettled PnL and mirrors
// it into the market's profit/loss aggregates.
func (m *Market) applyUnsettledPnL(pos *MarketPosition, delta int64) {
	pos.UnsettledPnL += delta
	if delta >= 0 {
		m.UnsettledProfit += delta
	} else {
		m.UnsettledLoss += -delta
	}
}

// applyFillToAggregates records one leg's base/quote flow in the market
// exposure counters. signedBase is the user's base delta (+long/-short).
func (m *Market) applyFillToAggregates(direction Direction, baseAmount, quoteAmount int64) {
	if direction == Long {
		m.BaseAssetAmountLong += baseAmount
		m.AMM.QuoteAssetAmountLong += quoteAmount
		m.AMM.NetBaseAssetAmount += baseAmount
	} else {
		m.BaseAssetAmountShort -= baseAmount
		m.AMM.QuoteAssetAmountShort += quoteAmount
		m.AMM.NetBaseAssetAmount -= baseAmount
	}
}

// accrueFeeRevenue adds a net fee amount to the market's revenue counters.
func (m *Market) accrueFeeRevenue(amount int64) {
	m.AMM.TotalFee += amount
	m.AMM.TotalFeeMinusDistributions += amount
	m.AMM.NetRevenueSinceLastFunding += amount
}
