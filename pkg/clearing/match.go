package clearing

import "github.com/ethereum/go-ethereum/common"

// OrdersCross reports whether a taker at takerPrice is willing to trade
// against a maker quoting makerPrice. A long taker must bid at or above the
// maker's ask; a short taker must offer at or below the maker's bid.
func OrdersCross(takerDirection Direction, takerPrice, makerPrice int64) bool {
	if takerDirection == Long {
		return takerPrice >= makerPrice
	}
	return takerPrice <= makerPrice
}

// FulfillWithMatch executes the maker-match leg: if the taker and maker
// orders are eligible to trade at the current slot, it fills
// min(remaining, remaining) at the maker's price and atomically applies the
// position, fee, order-state and market-aggregate effects of both legs, plus
// one order record.
//
// Ineligible pairs (different markets, same direction, non-crossing prices,
// nothing left to fill) return a zero fill with no state touched: a benign
// outcome, not an error. A non-post-only maker is invalid input.
func FulfillWithMatch(
	market *Market,
	taker *User, takerOrderIdx int, takerKey common.Address,
	maker *User, makerOrderIdx int, makerKey common.Address,
	filler *User, fillerKey common.Address,
	now int64, slot uint64,
	fees *FeeStructure,
	records *[]OrderRecord,
) (int64, bool, error) {
	if takerOrderIdx < 0 || takerOrderIdx >= len(taker.Orders) ||
		makerOrderIdx < 0 || makerOrderIdx >= len(maker.Orders) {
		return 0, false, ErrOrderIndexOutOfRange
	}
	takerOrder := &taker.Orders[takerOrderIdx]
	makerOrder := &maker.Orders[makerOrderIdx]

	if takerOrder.MarketIndex != makerOrder.MarketIndex {
		return 0, false, nil
	}
	if takerOrder.Direction == makerOrder.Direction {
		return 0, false, nil
	}
	if !makerOrder.PostOnly {
		return 0, false, ErrMakerNotPostOnly
	}

	takerPrice, err := AuctionPrice(takerOrder, slot)
	if err != nil {
		return 0, false, err
	}
	// A post-only market-type maker quotes its own auction price.
	makerPrice, err := AuctionPrice(makerOrder, slot)
	if err != nil {
		return 0, false, err
	}
	if !OrdersCross(takerOrder.Direction, takerPrice, makerPrice) {
		return 0, false, nil
	}

	// Makers always trade at their own price.
	fillPrice := makerPrice
	baseAmount := minInt64(takerOrder.RemainingBaseAssetAmount(), makerOrder.RemainingBaseAssetAmount())
	if baseAmount == 0 {
		return 0, false, nil
	}

	quoteAmount, err := mulDiv(baseAmount, fillPrice, PricePrecision*BaseToQuotePrecisionRatio)
	if err != nil {
		return 0, false, err
	}

	fillFees, err := CalculateFees(quoteAmount, fees, true, filler != nil)
	if err != nil {
		return 0, false, err
	}

	takerPos := taker.ForcePosition(takerOrder.MarketIndex)
	makerPos := maker.ForcePosition(makerOrder.MarketIndex)

	// All fallible arithmetic happens before any mutation so the fill commits
	// as a single unit.
	takerDelta, err := computePositionDelta(takerPos, takerOrder.Direction, baseAmount, quoteAmount)
	if err != nil {
		return 0, false, err
	}
	makerDelta, err := computePositionDelta(makerPos, makerOrder.Direction, baseAmount, quoteAmount)
	if err != nil {
		return 0, false, err
	}

	takerOrderID, makerOrderID := takerOrder.OrderID, makerOrder.OrderID
	takerDirection, makerDirection := takerOrder.Direction, makerOrder.Direction

	takerDelta.apply(takerPos)
	makerDelta.apply(makerPos)

	market.applyFillToAggregates(takerDirection, baseAmount, quoteAmount)
	market.applyFillToAggregates(makerDirection, baseAmount, quoteAmount)

	market.applyUnsettledPnL(takerPos, takerDelta.tradePnL)
	market.applyUnsettledPnL(takerPos, -fillFees.TakerFee)
	market.applyUnsettledPnL(makerPos, makerDelta.tradePnL)
	market.applyUnsettledPnL(makerPos, fillFees.MakerRebate)

	taker.Fees.TotalFeePaid += fillFees.TakerFee
	taker.Fees.TotalRefereeDiscount += fillFees.RefereeDiscount
	taker.Fees.TotalTokenDiscount += fillFees.TokenDiscount
	maker.Fees.TotalFeeRebate += fillFees.MakerRebate
	if filler != nil && fillFees.FillerReward > 0 {
		fillerPos := filler.ForcePosition(takerOrder.MarketIndex)
		market.applyUnsettledPnL(fillerPos, fillFees.FillerReward)
	}
	market.accrueFeeRevenue(fillFees.MarketFee)

	settleFill(takerOrder, takerPos, baseAmount)
	settleFill(makerOrder, makerPos, baseAmount)

	*records = append(*records, OrderRecord{
		Ts:               now,
		Slot:             slot,
		MarketIndex:      market.MarketIndex,
		Method:           FulfillmentMatch,
		Taker:            takerKey,
		TakerOrderID:     takerOrderID,
		Maker:            makerKey,
		MakerOrderID:     makerOrderID,
		Filler:           fillerKey,
		FillPrice:        fillPrice,
		BaseAssetAmount:  baseAmount,
		QuoteAssetAmount: quoteAmount,
		TakerFee:         fillFees.TakerFee,
		MakerRebate:      fillFees.MakerRebate,
		FillerReward:     fillFees.FillerReward,
	})

	return baseAmount, takerDelta.increasesRisk, nil
}
