package clearing

import "github.com/ethereum/go-ethereum/common"

// OrderRecord is one immutable entry in the append-only fill log: the full
// economic terms of a single fill leg, consumed downstream for settlement and
// auditing. Records are only ever appended within a fulfillment call and the
// whole tail is truncated if that call rolls back.
type OrderRecord struct {
	Ts          int64
	Slot        uint64
	MarketIndex uint64
	Method      FulfillmentMethod

	Taker        common.Address
	TakerOrderID uint64
	Maker        common.Address // zero address on AMM legs
	MakerOrderID uint64
	Filler       common.Address

	FillPrice        int64 // price precision
	BaseAssetAmount  int64
	QuoteAssetAmount int64

	TakerFee     int64
	MakerRebate  int64
	FillerReward int64
}
