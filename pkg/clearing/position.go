package clearing

// MarketPosition is a user's per-market position. Base amounts are signed
// (positive long, negative short); quote amounts are cumulative cost in quote
// precision. OpenBids/OpenAsks reserve base exposure for resting orders and
// must reach zero exactly when the owning order reaches its terminal state.
type MarketPosition struct {
	MarketIndex uint64

	BaseAssetAmount  int64
	QuoteAssetAmount int64
	QuoteEntryAmount int64

	// UnsettledPnL accrues trade PnL, fees and rebates until settlement.
	UnsettledPnL int64

	OpenOrders uint64
	OpenBids   int64 // positive reservation
	OpenAsks   int64 // negative reservation
}

// UserFees are lifetime fee counters for one user.
type UserFees struct {
	TotalFeePaid         int64
	TotalFeeRebate       int64
	TotalRefereeDiscount int64
	TotalTokenDiscount   int64
}

// User aggregates a user's orders, positions and bank balances. The account
// loading/ownership layer lives outside this core; a User arrives as an
// already-resolved in-memory snapshot and is exclusively borrowed for the
// duration of one fulfillment call.
type User struct {
	Orders       []Order
	Positions    []MarketPosition
	BankBalances []UserBankBalance
	Fees         UserFees
}

// GetPosition returns the user's position for a market, or nil.
func (u *User) GetPosition(marketIndex uint64) *MarketPosition {
	for i := range u.Positions {
		if u.Positions[i].MarketIndex == marketIndex {
			return &u.Positions[i]
		}
	}
	return nil
}

// ForcePosition returns the user's position for a market, creating a zeroed
// one if the user has never traded it. Positions are never removed.
func (u *User) ForcePosition(marketIndex uint64) *MarketPosition {
	if p := u.GetPosition(marketIndex); p != nil {
		return p
	}
	u.Positions = append(u.Positions, MarketPosition{MarketIndex: marketIndex})
	return &u.Positions[len(u.Positions)-1]
}

// Clone deep-copies the user for snapshot/rollback.
func (u *User) Clone() User {
	out := User{Fees: u.Fees}
	out.Orders = append([]Order(nil), u.Orders...)
	out.Positions = append([]MarketPosition(nil), u.Positions...)
	out.BankBalances = append([]UserBankBalance(nil), u.BankBalances...)
	return out
}

// positionDelta is the precomputed, error-free-to-apply effect of one fill on
// one position. Splitting compute from apply keeps the executor atomic: all
// fallible arithmetic happens before any state is touched.
type positionDelta struct {
	newBase       int64
	newQuoteAsset int64
	newQuoteEntry int64
	tradePnL      int64
	increasesRisk bool
}

// computePositionDelta works out the position after filling baseAmount at a
// total cost of quoteAmount in the given direction. Increases accumulate cost
// basis; reductions realize PnL against the proportional entry amount; flips
// close the whole position and open the remainder fresh.
func computePositionDelta(pos *MarketPosition, direction Direction, baseAmount, quoteAmount int64) (positionDelta, error) {
	signedBase := baseAmount
	if direction == Short {
		signedBase = -baseAmount
	}

	d := positionDelta{
		newBase:       pos.BaseAssetAmount + signedBase,
		newQuoteAsset: pos.QuoteAssetAmount,
		newQuoteEntry: pos.QuoteEntryAmount,
	}

	switch {
	case pos.BaseAssetAmount == 0 || (pos.BaseAssetAmount > 0) == (signedBase > 0):
		// Opening or increasing.
		d.newQuoteAsset = pos.QuoteAssetAmount + quoteAmount
		d.newQuoteEntry = pos.QuoteEntryAmount + quoteAmount
		d.increasesRisk = true

	case absInt64(signedBase) <= absInt64(pos.BaseAssetAmount):
		// Reducing (or exactly closing).
		entryClosed, err := mulDiv(pos.QuoteEntryAmount, baseAmount, absInt64(pos.BaseAssetAmount))
		if err != nil {
			return positionDelta{}, err
		}
		quoteClosed, err := mulDiv(pos.QuoteAssetAmount, baseAmount, absInt64(pos.BaseAssetAmount))
		if err != nil {
			return positionDelta{}, err
		}
		if pos.BaseAssetAmount > 0 {
			// Long reduced by selling: proceeds minus entry.
			d.tradePnL = quoteAmount - entryClosed
		} else {
			// Short reduced by buying back: entry minus cost.
			d.tradePnL = entryClosed - quoteAmount
		}
		d.newQuoteAsset = pos.QuoteAssetAmount - quoteClosed
		d.newQuoteEntry = pos.QuoteEntryAmount - entryClosed
		if d.newBase == 0 {
			d.newQuoteAsset = 0
			d.newQuoteEntry = 0
		}

	default:
		// Flipping through zero: close everything, open the remainder.
		closedBase := absInt64(pos.BaseAssetAmount)
		quoteClosed, err := mulDiv(quoteAmount, closedBase, baseAmount)
		if err != nil {
			return positionDelta{}, err
		}
		if pos.BaseAssetAmount > 0 {
			d.tradePnL = quoteClosed - pos.QuoteEntryAmount
		} else {
			d.tradePnL = pos.QuoteEntryAmount - quoteClosed
		}
		d.newQuoteAsset = quoteAmount - quoteClosed
		d.newQuoteEntry = quoteAmount - quoteClosed
		d.increasesRisk = true
	}

	return d, nil
}

// apply commits a computed delta to the position.
func (d positionDelta) apply(pos *MarketPosition) {
	pos.BaseAssetAmount = d.newBase
	pos.QuoteAssetAmount = d.newQuoteAsset
	pos.QuoteEntryAmount = d.newQuoteEntry
}

// settleFill reduces the order's remaining size and its position reservation
// after a fill of baseAmount, resetting the order to its zero value (and
// releasing its open-order slot) once fully consumed.
func settleFill(order *Order, pos *MarketPosition, baseAmount int64) {
	order.BaseAssetAmountFilled += baseAmount
	if order.Direction == Long {
		pos.OpenBids -= baseAmount
	} else {
		pos.OpenAsks += baseAmount
	}
	if order.RemainingBaseAssetAmount() == 0 {
		if pos.OpenOrders > 0 {
			pos.OpenOrders--
		}
		*order = Order{}
	} else {
		order.Status = OrderPartiallyFilled
	}
}

// cancelOrder releases an order's reservations and resets it to the zero
// value without filling. Used after a margin-breach rollback.
func cancelOrder(order *Order, pos *MarketPosition) {
	remaining := order.RemainingBaseAssetAmount()
	if order.Direction == Long {
		pos.OpenBids -= remaining
	} else {
		pos.OpenAsks += remaining
	}
	if pos.OpenOrders > 0 {
		pos.OpenOrders--
	}
	*order = Order{}
}
