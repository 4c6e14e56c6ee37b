package clearing

// AuctionPrice returns the current clearing price of an order at the given
// slot. Limit orders price at their fixed limit. Market orders with a zero
// auction duration resolve immediately to the auction end price; otherwise the
// price interpolates linearly between start and end over the auction window,
// clamped at both edges. Deterministic for identical inputs; the result feeds
// consensus replay, so no wall-clock or floating point is involved.
func AuctionPrice(order *Order, slot uint64) (int64, error) {
	if order.OrderType == LimitOrder {
		return order.Price, nil
	}
	if order.AuctionDuration == 0 || slot >= order.Slot+order.AuctionDuration {
		return order.AuctionEndPrice, nil
	}
	if slot <= order.Slot {
		return order.AuctionStartPrice, nil
	}

	elapsed := int64(slot - order.Slot)
	span := order.AuctionEndPrice - order.AuctionStartPrice
	delta, err := mulDiv(span, elapsed, int64(order.AuctionDuration))
	if err != nil {
		return 0, err
	}
	return checkedAdd(order.AuctionStartPrice, delta)
}
