package clearing

import "github.com/ethereum/go-ethereum/common"

// FulfillWithAMM fills the order's remaining size against the market's
// virtual reserves. Longs lift the ask-side curve, shorts hit the bid-side
// curve; the spread surplus versus the canonical curve accrues to the market.
// Limit orders (or an explicit limitPrice override) only fill when the AMM's
// current quote crosses the limit; a non-crossing limit is a zero-fill
// success. Never fills more than the order's remaining size.
func FulfillWithAMM(
	market *Market,
	user *User, orderIdx int, userKey common.Address,
	filler *User, fillerKey common.Address,
	now int64, slot uint64,
	fees *FeeStructure,
	limitPrice int64,
	records *[]OrderRecord,
) (int64, bool, error) {
	if orderIdx < 0 || orderIdx >= len(user.Orders) {
		return 0, false, ErrOrderIndexOutOfRange
	}
	order := &user.Orders[orderIdx]
	baseAmount := order.RemainingBaseAssetAmount()
	if baseAmount == 0 {
		return 0, false, nil
	}

	direction := order.Direction
	swapDirection := SwapAdd
	if direction == Long {
		swapDirection = SwapRemove
	}

	if limitPrice == 0 && order.OrderType == LimitOrder {
		limitPrice = order.Price
	}
	if limitPrice > 0 {
		ammPrice, err := market.AMM.QuotePrice(direction)
		if err != nil {
			return 0, false, err
		}
		if !OrdersCross(direction, limitPrice, ammPrice) {
			return 0, false, nil
		}
	}

	// Swap on a scratch copy first; the market commits only once every
	// downstream computation has succeeded.
	amm := market.AMM
	quoteAmount, quoteSurplus, err := amm.SwapBase(baseAmount, swapDirection)
	if err != nil {
		return 0, false, err
	}

	fillFees, err := CalculateFees(quoteAmount, fees, false, filler != nil)
	if err != nil {
		return 0, false, err
	}

	pos := user.ForcePosition(order.MarketIndex)
	delta, err := computePositionDelta(pos, direction, baseAmount, quoteAmount)
	if err != nil {
		return 0, false, err
	}

	fillPrice, err := mulDiv(quoteAmount, PricePrecision*BaseToQuotePrecisionRatio, baseAmount)
	if err != nil {
		return 0, false, err
	}

	orderID := order.OrderID

	market.AMM = amm
	delta.apply(pos)
	market.applyFillToAggregates(direction, baseAmount, quoteAmount)

	market.applyUnsettledPnL(pos, delta.tradePnL)
	market.applyUnsettledPnL(pos, -fillFees.TakerFee)
	user.Fees.TotalFeePaid += fillFees.TakerFee
	user.Fees.TotalRefereeDiscount += fillFees.RefereeDiscount
	user.Fees.TotalTokenDiscount += fillFees.TokenDiscount
	if filler != nil && fillFees.FillerReward > 0 {
		fillerPos := filler.ForcePosition(order.MarketIndex)
		market.applyUnsettledPnL(fillerPos, fillFees.FillerReward)
	}
	market.accrueFeeRevenue(fillFees.MarketFee + quoteSurplus)

	settleFill(order, pos, baseAmount)

	*records = append(*records, OrderRecord{
		Ts:               now,
		Slot:             slot,
		MarketIndex:      market.MarketIndex,
		Method:           FulfillmentAMM,
		Taker:            userKey,
		TakerOrderID:     orderID,
		Filler:           fillerKey,
		FillPrice:        fillPrice,
		BaseAssetAmount:  baseAmount,
		QuoteAssetAmount: quoteAmount,
		TakerFee:         fillFees.TakerFee,
		FillerReward:     fillFees.FillerReward,
	})

	return baseAmount, delta.increasesRisk, nil
}

// FulfillOrder is the top-level fulfillment entry. It runs the maker-match
// leg first when a maker is supplied, fills any residual against the AMM once
// the taker's auction window has elapsed (limit orders instead gate on
// crossing the AMM quote), then validates the taker's margin. A breach rolls
// the whole fill back — both users, the filler, the market and the record
// log — and cancels the taker order; that is a normal zero-fill outcome, not
// an error.
//
// Returns the total base filled and whether the move could, taken alone,
// increase account risk.
func FulfillOrder(
	taker *User, takerOrderIdx int, takerKey common.Address,
	maker *User, makerOrderIdx int, makerKey common.Address,
	filler *User, fillerKey common.Address,
	bankMap *BankMap, marketMap *MarketMap, oracleMap *OracleMap,
	fees *FeeStructure,
	marketIndex uint64,
	limitPrice int64,
	now int64, slot uint64,
	records *[]OrderRecord,
) (int64, bool, error) {
	if takerOrderIdx < 0 || takerOrderIdx >= len(taker.Orders) {
		return 0, false, ErrOrderIndexOutOfRange
	}
	order := &taker.Orders[takerOrderIdx]
	if order.Status != OrderOpen && order.Status != OrderPartiallyFilled {
		return 0, false, ErrOrderNotOpen
	}
	if order.MarketIndex != marketIndex {
		return 0, false, ErrMarketIndexMismatch
	}

	market, release, err := marketMap.GetRef(marketIndex)
	if err != nil {
		return 0, false, err
	}

	// Value snapshots of everything a rollback must restore.
	takerBefore := taker.Clone()
	var makerBefore, fillerBefore User
	if maker != nil {
		makerBefore = maker.Clone()
	}
	if filler != nil {
		fillerBefore = filler.Clone()
	}
	marketBefore := *market
	recordsBefore := len(*records)

	restore := func() {
		*taker = takerBefore
		if maker != nil {
			*maker = makerBefore
		}
		if filler != nil {
			*filler = fillerBefore
		}
		*market = marketBefore
		*records = (*records)[:recordsBefore]
	}

	totalFilled := int64(0)
	riskIncreasing := false

	if maker != nil {
		filled, risk, err := FulfillWithMatch(
			market,
			taker, takerOrderIdx, takerKey,
			maker, makerOrderIdx, makerKey,
			filler, fillerKey,
			now, slot, fees, records,
		)
		if err != nil {
			restore()
			release()
			return 0, false, err
		}
		totalFilled += filled
		riskIncreasing = riskIncreasing || risk
	}

	if order.IsFillable() && order.AuctionComplete(slot) {
		filled, risk, err := FulfillWithAMM(
			market,
			taker, takerOrderIdx, takerKey,
			filler, fillerKey,
			now, slot, fees, limitPrice, records,
		)
		if err != nil {
			restore()
			release()
			return 0, false, err
		}
		totalFilled += filled
		riskIncreasing = riskIncreasing || risk
	}

	release()

	if totalFilled == 0 {
		return 0, false, nil
	}

	meetsMargin, err := MeetsInitialMarginRequirement(taker, marketMap, bankMap, oracleMap)
	if err != nil {
		if _, release, rerr := marketMap.GetRef(marketIndex); rerr == nil {
			restore()
			release()
		}
		return 0, false, err
	}

	if !meetsMargin {
		_, release, rerr := marketMap.GetRef(marketIndex)
		if rerr != nil {
			return 0, false, rerr
		}
		restore()
		release()

		// The fill is gone but the order that breached margin does not stay
		// on the book: its reservations are released and it resets.
		order := &taker.Orders[takerOrderIdx]
		pos := taker.ForcePosition(order.MarketIndex)
		cancelOrder(order, pos)
		return 0, false, nil
	}

	return totalFilled, riskIncreasing, nil
}
