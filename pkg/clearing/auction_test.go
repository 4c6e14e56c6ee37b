package clearing

import "testing"

func marketOrderWithAuction(direction Direction, start, end int64, duration uint64) *Order {
	return &Order{
		Status:            OrderOpen,
		OrderType:         MarketOrder,
		Direction:         direction,
		BaseAssetAmount:   BasePrecision,
		AuctionStartPrice: start,
		AuctionEndPrice:   end,
		AuctionDuration:   duration,
	}
}

func TestAuctionPriceInterpolation(t *testing.T) {
	order := marketOrderWithAuction(Long, 100*PricePrecision, 200*PricePrecision, 5)

	tests := []struct {
		slot uint64
		want int64
	}{
		{0, 100 * PricePrecision},
		{1, 120 * PricePrecision},
		{2, 140 * PricePrecision},
		{3, 160 * PricePrecision},
		{4, 180 * PricePrecision},
		{5, 200 * PricePrecision},
		{100, 200 * PricePrecision}, // clamped, never extrapolated
	}
	for _, tt := range tests {
		got, err := AuctionPrice(order, tt.slot)
		if err != nil {
			t.Fatalf("slot %d: %v", tt.slot, err)
		}
		if got != tt.want {
			t.Errorf("slot %d: price = %d, want %d", tt.slot, got, tt.want)
		}
	}
}

func TestAuctionPriceMonotonic(t *testing.T) {
	long := marketOrderWithAuction(Long, 100*PricePrecision, 200*PricePrecision, 7)
	short := marketOrderWithAuction(Short, 200*PricePrecision, 100*PricePrecision, 7)

	prevLong, prevShort := int64(0), int64(1<<62)
	for slot := uint64(0); slot <= 10; slot++ {
		pl, err := AuctionPrice(long, slot)
		if err != nil {
			t.Fatal(err)
		}
		ps, err := AuctionPrice(short, slot)
		if err != nil {
			t.Fatal(err)
		}
		if pl < prevLong {
			t.Errorf("long auction price decreased at slot %d: %d < %d", slot, pl, prevLong)
		}
		if ps > prevShort {
			t.Errorf("short auction price increased at slot %d: %d > %d", slot, ps, prevShort)
		}
		prevLong, prevShort = pl, ps
	}
}

func TestAuctionPriceBeforeWindow(t *testing.T) {
	order := marketOrderWithAuction(Long, 100*PricePrecision, 200*PricePrecision, 5)
	order.Slot = 10

	got, err := AuctionPrice(order, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got != 100*PricePrecision {
		t.Errorf("price before window = %d, want auction start", got)
	}
}

func TestAuctionPriceZeroDuration(t *testing.T) {
	order := marketOrderWithAuction(Long, 0, 100*PricePrecision, 0)

	got, err := AuctionPrice(order, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got != 100*PricePrecision {
		t.Errorf("zero-duration auction price = %d, want end price", got)
	}
}

func TestAuctionPriceLimitOrder(t *testing.T) {
	order := &Order{
		Status:    OrderOpen,
		OrderType: LimitOrder,
		Price:     55 * PricePrecision,
		// Auction fields are ignored for limit orders even if set.
		AuctionStartPrice: 1,
		AuctionEndPrice:   2,
		AuctionDuration:   9,
	}
	got, err := AuctionPrice(order, 4)
	if err != nil {
		t.Fatal(err)
	}
	if got != 55*PricePrecision {
		t.Errorf("limit order price = %d, want fixed limit price", got)
	}
}
