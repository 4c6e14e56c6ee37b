package clearing

import "testing"

func TestPositionDeltaOpenLong(t *testing.T) {
	pos := &MarketPosition{}
	d, err := computePositionDelta(pos, Long, BasePrecision, 100*QuotePrecision)
	if err != nil {
		t.Fatal(err)
	}
	if d.newBase != BasePrecision || d.newQuoteAsset != 100*QuotePrecision || d.newQuoteEntry != 100*QuotePrecision {
		t.Errorf("delta = %+v", d)
	}
	if d.tradePnL != 0 {
		t.Errorf("opening fill realized pnl %d", d.tradePnL)
	}
	if !d.increasesRisk {
		t.Error("opening fill must be risk-increasing")
	}
}

func TestPositionDeltaIncreaseShort(t *testing.T) {
	pos := &MarketPosition{
		BaseAssetAmount:  -BasePrecision,
		QuoteAssetAmount: 100 * QuotePrecision,
		QuoteEntryAmount: 100 * QuotePrecision,
	}
	d, err := computePositionDelta(pos, Short, BasePrecision, 110*QuotePrecision)
	if err != nil {
		t.Fatal(err)
	}
	if d.newBase != -2*BasePrecision || d.newQuoteAsset != 210*QuotePrecision {
		t.Errorf("delta = %+v", d)
	}
	if !d.increasesRisk {
		t.Error("increase must be risk-increasing")
	}
}

func TestPositionDeltaReduceLongRealizesPnL(t *testing.T) {
	pos := &MarketPosition{
		BaseAssetAmount:  2 * BasePrecision,
		QuoteAssetAmount: 200 * QuotePrecision,
		QuoteEntryAmount: 200 * QuotePrecision,
	}
	// Sell half at 120: proceeds 120 against 100 entry closed.
	d, err := computePositionDelta(pos, Short, BasePrecision, 120*QuotePrecision)
	if err != nil {
		t.Fatal(err)
	}
	if d.newBase != BasePrecision {
		t.Errorf("new base = %d", d.newBase)
	}
	if d.tradePnL != 20*QuotePrecision {
		t.Errorf("pnl = %d, want %d", d.tradePnL, 20*QuotePrecision)
	}
	if d.newQuoteAsset != 100*QuotePrecision || d.newQuoteEntry != 100*QuotePrecision {
		t.Errorf("delta = %+v", d)
	}
	if d.increasesRisk {
		t.Error("reduce must not be risk-increasing")
	}
}

func TestPositionDeltaReduceShortRealizesPnL(t *testing.T) {
	pos := &MarketPosition{
		BaseAssetAmount:  -2 * BasePrecision,
		QuoteAssetAmount: 200 * QuotePrecision,
		QuoteEntryAmount: 200 * QuotePrecision,
	}
	// Buy back half at 90: 100 entry closed against 90 cost.
	d, err := computePositionDelta(pos, Long, BasePrecision, 90*QuotePrecision)
	if err != nil {
		t.Fatal(err)
	}
	if d.newBase != -BasePrecision {
		t.Errorf("new base = %d", d.newBase)
	}
	if d.tradePnL != 10*QuotePrecision {
		t.Errorf("pnl = %d, want %d", d.tradePnL, 10*QuotePrecision)
	}
}

func TestPositionDeltaFullCloseZeroesQuote(t *testing.T) {
	pos := &MarketPosition{
		BaseAssetAmount:  BasePrecision,
		QuoteAssetAmount: 100 * QuotePrecision,
		QuoteEntryAmount: 100 * QuotePrecision,
	}
	d, err := computePositionDelta(pos, Short, BasePrecision, 95*QuotePrecision)
	if err != nil {
		t.Fatal(err)
	}
	if d.newBase != 0 || d.newQuoteAsset != 0 || d.newQuoteEntry != 0 {
		t.Errorf("close left residue: %+v", d)
	}
	if d.tradePnL != -5*QuotePrecision {
		t.Errorf("pnl = %d, want %d", d.tradePnL, -5*QuotePrecision)
	}
}

func TestPositionDeltaFlipThroughZero(t *testing.T) {
	pos := &MarketPosition{
		BaseAssetAmount:  BasePrecision,
		QuoteAssetAmount: 100 * QuotePrecision,
		QuoteEntryAmount: 100 * QuotePrecision,
	}
	// Sell 3 units at 110 each: close the long (+10), go short 2.
	d, err := computePositionDelta(pos, Short, 3*BasePrecision, 330*QuotePrecision)
	if err != nil {
		t.Fatal(err)
	}
	if d.newBase != -2*BasePrecision {
		t.Errorf("new base = %d", d.newBase)
	}
	if d.tradePnL != 10*QuotePrecision {
		t.Errorf("pnl = %d, want %d", d.tradePnL, 10*QuotePrecision)
	}
	if d.newQuoteAsset != 220*QuotePrecision || d.newQuoteEntry != 220*QuotePrecision {
		t.Errorf("delta = %+v", d)
	}
	if !d.increasesRisk {
		t.Error("flip opens fresh exposure and must be risk-increasing")
	}
}

func TestSettleFillPartialAndFull(t *testing.T) {
	order := Order{
		Status:          OrderOpen,
		OrderType:       LimitOrder,
		Direction:       Long,
		BaseAssetAmount: BasePrecision,
	}
	pos := MarketPosition{OpenOrders: 1, OpenBids: BasePrecision}

	settleFill(&order, &pos, BasePrecision/4)
	if order.Status != OrderPartiallyFilled || order.BaseAssetAmountFilled != BasePrecision/4 {
		t.Errorf("order = %+v", order)
	}
	if pos.OpenBids != 3*BasePrecision/4 || pos.OpenOrders != 1 {
		t.Errorf("pos = %+v", pos)
	}

	settleFill(&order, &pos, 3*BasePrecision/4)
	if order != (Order{}) {
		t.Errorf("fully filled order not cleared: %+v", order)
	}
	if pos.OpenBids != 0 || pos.OpenOrders != 0 {
		t.Errorf("reservations not released: %+v", pos)
	}
}

func TestCancelOrderReleasesReservation(t *testing.T) {
	order := Order{
		Status:                OrderPartiallyFilled,
		OrderType:             LimitOrder,
		Direction:             Short,
		BaseAssetAmount:       BasePrecision,
		BaseAssetAmountFilled: BasePrecision / 4,
	}
	pos := MarketPosition{OpenOrders: 1, OpenAsks: -3 * BasePrecision / 4}

	cancelOrder(&order, &pos)
	if order != (Order{}) {
		t.Errorf("cancelled order not cleared: %+v", order)
	}
	if pos.OpenAsks != 0 || pos.OpenOrders != 0 {
		t.Errorf("reservations not released: %+v", pos)
	}
}

func TestForcePositionCreatesOnce(t *testing.T) {
	u := &User{}
	p1 := u.ForcePosition(3)
	p1.BaseAssetAmount = 42
	p2 := u.ForcePosition(3)
	if p2.BaseAssetAmount != 42 {
		t.Error("ForcePosition created a duplicate")
	}
	if len(u.Positions) != 1 {
		t.Errorf("positions = %d, want 1", len(u.Positions))
	}
	if u.GetPosition(4) != nil {
		t.Error("GetPosition invented a position")
	}
}
