package api

// API payloads for REST endpoints and WebSocket messages. All amounts are
// fixed-point integers in the core's precisions (price 1e10, base 1e13,
// quote 1e6).

// MarketInfo is one market's public state.
type MarketInfo struct {
	MarketIndex uint64 `json:"marketIndex"`
	MarkPrice   int64  `json:"markPrice"`
	BidPrice    int64  `json:"bidPrice"`
	AskPrice    int64  `json:"askPrice"`

	BaseAssetReserve  int64 `json:"baseAssetReserve"`
	QuoteAssetReserve int64 `json:"quoteAssetReserve"`
	SqrtK             int64 `json:"sqrtK"`
	PegMultiplier     int64 `json:"pegMultiplier"`

	NetBaseAssetAmount   int64 `json:"netBaseAssetAmount"`
	BaseAssetAmountLong  int64 `json:"baseAssetAmountLong"`
	BaseAssetAmountShort int64 `json:"baseAssetAmountShort"`

	TotalFee        int64 `json:"totalFee"`
	UnsettledProfit int64 `json:"unsettledProfit"`
	UnsettledLoss   int64 `json:"unsettledLoss"`

	MarginRatioInitial     uint32 `json:"marginRatioInitial"`
	MarginRatioPartial     uint32 `json:"marginRatioPartial"`
	MarginRatioMaintenance uint32 `json:"marginRatioMaintenance"`
}

// PositionInfo is one open position.
type PositionInfo struct {
	MarketIndex      uint64 `json:"marketIndex"`
	BaseAssetAmount  int64  `json:"baseAssetAmount"`
	QuoteAssetAmount int64  `json:"quoteAssetAmount"`
	QuoteEntryAmount int64  `json:"quoteEntryAmount"`
	UnsettledPnL     int64  `json:"unsettledPnl"`
	OpenOrders       uint64 `json:"openOrders"`
	OpenBids         int64  `json:"openBids"`
	OpenAsks         int64  `json:"openAsks"`
}

// OrderInfo is one resting order.
type OrderInfo struct {
	OrderID     uint64 `json:"orderId"`
	MarketIndex uint64 `json:"marketIndex"`
	Status      string `json:"status"`
	Type        string `json:"type"`
	Direction   string `json:"direction"`
	Size        int64  `json:"size"`
	Filled      int64  `json:"filled"`
	Price       int64  `json:"price,omitempty"`
	PostOnly    bool   `json:"postOnly,omitempty"`

	AuctionStartPrice int64  `json:"auctionStartPrice,omitempty"`
	AuctionEndPrice   int64  `json:"auctionEndPrice,omitempty"`
	AuctionDuration   uint64 `json:"auctionDuration,omitempty"`
	Slot              uint64 `json:"slot"`
}

// BankBalanceInfo is one collateral balance.
type BankBalanceInfo struct {
	BankIndex uint64 `json:"bankIndex"`
	Type      string `json:"type"` // "deposit" | "borrow"
	Balance   int64  `json:"balance"`
}

// UserInfo is an account summary.
type UserInfo struct {
	Address              string            `json:"address"`
	BankBalances         []BankBalanceInfo `json:"bankBalances"`
	TotalFeePaid         int64             `json:"totalFeePaid"`
	TotalFeeRebate       int64             `json:"totalFeeRebate"`
	TotalRefereeDiscount int64             `json:"totalRefereeDiscount"`
	TotalTokenDiscount   int64             `json:"totalTokenDiscount"`
}

// FillInfo is one fill record, REST and WS alike.
type FillInfo struct {
	Ts               int64  `json:"ts"`
	Slot             uint64 `json:"slot"`
	MarketIndex      uint64 `json:"marketIndex"`
	Method           string `json:"method"` // "match" | "amm"
	Taker            string `json:"taker"`
	TakerOrderID     uint64 `json:"takerOrderId"`
	Maker            string `json:"maker,omitempty"`
	MakerOrderID     uint64 `json:"makerOrderId,omitempty"`
	FillPrice        int64  `json:"fillPrice"`
	BaseAssetAmount  int64  `json:"baseAssetAmount"`
	QuoteAssetAmount int64  `json:"quoteAssetAmount"`
	TakerFee         int64  `json:"takerFee"`
	MakerRebate      int64  `json:"makerRebate,omitempty"`
	FillerReward     int64  `json:"fillerReward,omitempty"`
}

// FillUpdate is the WS broadcast envelope on channel "fills:<marketIndex>".
type FillUpdate struct {
	Type string   `json:"type"` // "fill"
	Fill FillInfo `json:"fill"`
}

// PlaceOrderRequest is the payload for POST /api/v1/orders.
type PlaceOrderRequest struct {
	Address     string `json:"address"`
	MarketIndex uint64 `json:"marketIndex"`
	Type        string `json:"type"`      // "market" | "limit"
	Direction   string `json:"direction"` // "long" | "short"
	Size        int64  `json:"size"`
	Price       int64  `json:"price,omitempty"`
	PostOnly    bool   `json:"postOnly,omitempty"`

	AuctionStartPrice int64  `json:"auctionStartPrice,omitempty"`
	AuctionEndPrice   int64  `json:"auctionEndPrice,omitempty"`
	AuctionDuration   uint64 `json:"auctionDuration,omitempty"`
}

// PlaceOrderResponse acknowledges a placement.
type PlaceOrderResponse struct {
	Status  string `json:"status"`
	OrderID uint64 `json:"orderId"`
}

// CancelOrderRequest is the payload for POST /api/v1/orders/cancel.
type CancelOrderRequest struct {
	Address string `json:"address"`
	OrderID uint64 `json:"orderId"`
}

// FulfillOrderRequest is the payload for POST /api/v1/fulfill: a crank that
// runs one taker order through fulfillment, optionally against a maker.
type FulfillOrderRequest struct {
	MarketIndex  uint64 `json:"marketIndex"`
	Taker        string `json:"taker"`
	TakerOrderID uint64 `json:"takerOrderId"`
	Maker        string `json:"maker,omitempty"`
	MakerOrderID uint64 `json:"makerOrderId,omitempty"`
	Filler       string `json:"filler,omitempty"`
	LimitPrice   int64  `json:"limitPrice,omitempty"`
}

// FulfillOrderResponse reports the filled size (zero is a valid outcome).
type FulfillOrderResponse struct {
	Status     string `json:"status"`
	FilledBase int64  `json:"filledBase"`
}

// ErrorResponse is returned for all errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WSSubscribeRequest is sent by clients to manage channel subscriptions,
// e.g. {"op":"subscribe","channels":["fills:0"]}.
type WSSubscribeRequest struct {
	Op       string   `json:"op"` // "subscribe" | "unsubscribe"
	Channels []string `json:"channels"`
}
