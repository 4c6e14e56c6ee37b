package clearing

// Fixed-point precisions. All amounts are stored as int64 in these units and
// every computation whose intermediate can exceed int64 goes through math.Int
// (see math.go).
const (
	// PricePrecision scales prices (1e10 = 1.0 quote per base).
	PricePrecision int64 = 10_000_000_000
	// BasePrecision scales base-asset amounts (1e13 = 1 unit).
	BasePrecision int64 = 10_000_000_000_000
	// QuotePrecision scales quote-asset amounts (1e6 = 1 unit).
	QuotePrecision int64 = 1_000_000
	// AMMReservePrecision scales virtual reserves (same scale as base).
	AMMReservePrecision int64 = 10_000_000_000_000
	// PegPrecision scales the AMM peg multiplier.
	PegPrecision int64 = 1_000
	// MarginPrecision scales margin ratios (1e4 = 100%).
	MarginPrecision int64 = 10_000

	// BaseToQuotePrecisionRatio converts base-scale amounts to quote scale.
	BaseToQuotePrecisionRatio int64 = BasePrecision / QuotePrecision // 1e7
	// AMMToQuotePrecisionRatio converts reserve-scale amounts to quote scale.
	AMMToQuotePrecisionRatio int64 = AMMReservePrecision / QuotePrecision // 1e7

	// BankInterestPrecision scales bank balances (1e6 = 1 unit).
	BankInterestPrecision int64 = 1_000_000
	// BankCumulativeInterestPrecision scales cumulative interest factors.
	BankCumulativeInterestPrecision int64 = 10_000_000_000
	// BankWeightPrecision scales asset/liability risk weights (100 = 100%).
	BankWeightPrecision int64 = 100
)

// Direction is the side of an order or position delta.
type Direction int8

const (
	Long Direction = iota
	Short
)

func (d Direction) String() string {
	if d == Short {
		return "short"
	}
	return "long"
}

// Opposite returns the other side.
func (d Direction) Opposite() Direction {
	if d == Long {
		return Short
	}
	return Long
}

// OrderType is the kind of order presented for fulfillment.
type OrderType int8

const (
	MarketOrder OrderType = iota
	LimitOrder
)

func (t OrderType) String() string {
	if t == LimitOrder {
		return "limit"
	}
	return "market"
}

// OrderStatus is the lifecycle state of an order. The zero value (Init) is the
// canonical empty state an order returns to once fully filled or cancelled.
type OrderStatus int8

const (
	OrderInit OrderStatus = iota
	OrderOpen
	OrderPartiallyFilled
)

func (s OrderStatus) String() string {
	switch s {
	case OrderOpen:
		return "open"
	case OrderPartiallyFilled:
		return "partially_filled"
	default:
		return "init"
	}
}

// SwapDirection tells the AMM which way the swapped asset moves relative to
// its reserves: Add when the taker sells the asset into the pool, Remove when
// the taker takes the asset out.
type SwapDirection int8

const (
	SwapAdd SwapDirection = iota
	SwapRemove
)

// FulfillmentMethod identifies which path produced a fill.
type FulfillmentMethod int8

const (
	FulfillmentAMM FulfillmentMethod = iota
	FulfillmentMatch
)

func (m FulfillmentMethod) String() string {
	if m == FulfillmentMatch {
		return "match"
	}
	return "amm"
}
