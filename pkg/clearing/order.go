package clearing

// Order is a user's order as presented to the fulfillment core. Orders are
// created by the placement path in Open status; this core only fills them
// (toward PartiallyFilled or back to the zero value when fully consumed) or
// cancels them after a margin-breach rollback.
type Order struct {
	Status      OrderStatus
	OrderType   OrderType
	OrderID     uint64
	MarketIndex uint64
	Direction   Direction

	// BaseAssetAmount is the requested size; BaseAssetAmountFilled tracks how
	// much has already been consumed. Both in base precision.
	BaseAssetAmount       int64
	BaseAssetAmountFilled int64

	// Price is the fixed limit price (limit orders only), price precision.
	Price    int64
	PostOnly bool

	// Dutch-auction window for market orders: the clearing price walks
	// linearly from start to end over Duration slots after placement.
	AuctionStartPrice int64
	AuctionEndPrice   int64
	AuctionDuration   uint64

	// Placement time.
	Ts   int64
	Slot uint64
}

// RemainingBaseAssetAmount returns the unfilled size. Never negative.
func (o *Order) RemainingBaseAssetAmount() int64 {
	r := o.BaseAssetAmount - o.BaseAssetAmountFilled
	if r < 0 {
		return 0
	}
	return r
}

// IsFillable reports whether the order can still take fills.
func (o *Order) IsFillable() bool {
	return (o.Status == OrderOpen || o.Status == OrderPartiallyFilled) &&
		o.RemainingBaseAssetAmount() > 0
}

// AuctionComplete reports whether the order's auction window has elapsed at
// the given slot. Limit orders have no auction and are always complete.
func (o *Order) AuctionComplete(slot uint64) bool {
	if o.OrderType == LimitOrder {
		return true
	}
	return slot >= o.Slot+o.AuctionDuration
}
