package house

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/openperp/clearinghouse/pkg/clearing"
	"github.com/openperp/clearinghouse/pkg/storage"
)

var (
	ErrUnknownMarket = errors.New("unknown market")
	ErrUnknownBank   = errors.New("unknown bank")
	ErrUnknownOrder  = errors.New("unknown order")
	ErrBadOrder      = errors.New("invalid order parameters")
)

// Clearinghouse owns the in-memory clearing state and drives the fulfillment
// core. One mutex serializes everything: fulfillment is a single-writer
// state machine and the API only reads snapshots.
type Clearinghouse struct {
	log   *zap.Logger
	store *storage.RecordStore // optional

	mu      sync.Mutex
	fees    clearing.FeeStructure
	markets map[uint64]*clearing.Market
	banks   map[uint64]*clearing.Bank
	oracles map[uint64]int64
	users   map[common.Address]*clearing.User

	slot        uint64
	now         int64
	nextOrderID uint64

	// onFill is invoked (outside the lock) with the records of each
	// successful fulfillment; the API hooks its websocket feed here.
	onFill func([]clearing.OrderRecord)
}

func New(log *zap.Logger, store *storage.RecordStore, fees clearing.FeeStructure) *Clearinghouse {
	return &Clearinghouse{
		log:         log,
		store:       store,
		fees:        fees,
		markets:     make(map[uint64]*clearing.Market),
		banks:       make(map[uint64]*clearing.Bank),
		oracles:     make(map[uint64]int64),
		users:       make(map[common.Address]*clearing.User),
		nextOrderID: 1,
	}
}

// SetFillHook registers the fill broadcast callback.
func (h *Clearinghouse) SetFillHook(fn func([]clearing.OrderRecord)) { h.onFill = fn }

// AddMarket registers a market, preferring a persisted snapshot over the
// provided genesis state so restarts resume where they left off.
func (h *Clearinghouse) AddMarket(market *clearing.Market) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.store != nil {
		if stored, ok, err := h.store.LoadMarket(market.MarketIndex); err != nil {
			return err
		} else if ok {
			h.markets[market.MarketIndex] = stored
			h.log.Info("market restored", zap.Uint64("market", market.MarketIndex))
			return nil
		}
	}
	h.markets[market.MarketIndex] = market
	if h.store != nil {
		if err := h.store.SaveMarket(market); err != nil {
			return err
		}
	}
	h.log.Info("market registered", zap.Uint64("market", market.MarketIndex))
	return nil
}

// AddBank registers a collateral bank.
func (h *Clearinghouse) AddBank(bank *clearing.Bank) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.banks[bank.BankIndex] = bank
}

// SetOraclePrice ingests an external collateral price, price precision.
func (h *Clearinghouse) SetOraclePrice(oracleID uint64, price int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.oracles[oracleID] = price
}

// AdvanceSlot moves the house clock forward one slot.
func (h *Clearinghouse) AdvanceSlot(now int64) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.slot++
	h.now = now
	return h.slot
}

// CurrentSlot returns the house slot.
func (h *Clearinghouse) CurrentSlot() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.slot
}

// user resolves (or lazily creates) a user, consulting the store first.
// Callers hold the lock.
func (h *Clearinghouse) user(addr common.Address) *clearing.User {
	if u, ok := h.users[addr]; ok {
		return u
	}
	if h.store != nil {
		if stored, ok, err := h.store.LoadUser(addr); err == nil && ok {
			h.users[addr] = stored
			return stored
		}
	}
	u := &clearing.User{}
	h.users[addr] = u
	return u
}

// Deposit credits a user's bank balance.
func (h *Clearinghouse) Deposit(addr common.Address, bankIndex uint64, amount int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.banks[bankIndex]; !ok {
		return ErrUnknownBank
	}
	user := h.user(addr)
	for i := range user.BankBalances {
		b := &user.BankBalances[i]
		if b.BankIndex == bankIndex && b.BalanceType == clearing.BankDeposit {
			b.Balance += amount
			return h.persistUser(addr, user)
		}
	}
	user.BankBalances = append(user.BankBalances, clearing.UserBankBalance{
		BankIndex:   bankIndex,
		BalanceType: clearing.BankDeposit,
		Balance:     amount,
	})
	return h.persistUser(addr, user)
}

// OrderParams is the placement request the host accepts.
type OrderParams struct {
	MarketIndex uint64
	OrderType   clearing.OrderType
	Direction   clearing.Direction
	BaseAmount  int64
	Price       int64 // limit orders
	PostOnly    bool

	AuctionStartPrice int64
	AuctionEndPrice   int64
	AuctionDuration   uint64
}

func (p *OrderParams) validate() error {
	if p.BaseAmount <= 0 {
		return fmt.Errorf("%w: non-positive size", ErrBadOrder)
	}
	switch p.OrderType {
	case clearing.LimitOrder:
		if p.Price <= 0 {
			return fmt.Errorf("%w: limit order needs a price", ErrBadOrder)
		}
	case clearing.MarketOrder:
		if p.AuctionEndPrice <= 0 {
			return fmt.Errorf("%w: market order needs an auction end price", ErrBadOrder)
		}
		if p.PostOnly && p.AuctionStartPrice <= 0 {
			return fmt.Errorf("%w: post-only market order needs an auction start price", ErrBadOrder)
		}
	default:
		return fmt.Errorf("%w: unknown order type", ErrBadOrder)
	}
	return nil
}

// PlaceOrder books a new order into the first free order slot and reserves
// its base exposure on the position.
func (h *Clearinghouse) PlaceOrder(addr common.Address, p OrderParams) (uint64, error) {
	if err := p.validate(); err != nil {
		return 0, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.markets[p.MarketIndex]; !ok {
		return 0, ErrUnknownMarket
	}

	user := h.user(addr)
	orderID := h.nextOrderID
	h.nextOrderID++

	order := clearing.Order{
		Status:            clearing.OrderOpen,
		OrderType:         p.OrderType,
		OrderID:           orderID,
		MarketIndex:       p.MarketIndex,
		Direction:         p.Direction,
		BaseAssetAmount:   p.BaseAmount,
		Price:             p.Price,
		PostOnly:          p.PostOnly,
		AuctionStartPrice: p.AuctionStartPrice,
		AuctionEndPrice:   p.AuctionEndPrice,
		AuctionDuration:   p.AuctionDuration,
		Ts:                h.now,
		Slot:              h.slot,
	}

	// Reuse a consumed slot before growing the slice.
	idx := -1
	for i := range user.Orders {
		if user.Orders[i].Status == clearing.OrderInit {
			idx = i
			break
		}
	}
	if idx >= 0 {
		user.Orders[idx] = order
	} else {
		user.Orders = append(user.Orders, order)
	}

	pos := user.ForcePosition(p.MarketIndex)
	pos.OpenOrders++
	if p.Direction == clearing.Long {
		pos.OpenBids += p.BaseAmount
	} else {
		pos.OpenAsks -= p.BaseAmount
	}

	if err := h.persistUser(addr, user); err != nil {
		return 0, err
	}
	h.log.Debug("order placed",
		zap.String("user", addr.Hex()),
		zap.Uint64("order", orderID),
		zap.Uint64("market", p.MarketIndex),
		zap.String("side", p.Direction.String()),
		zap.Int64("size", p.BaseAmount))
	return orderID, nil
}

// CancelOrder releases an open order and its reservations.
func (h *Clearinghouse) CancelOrder(addr common.Address, orderID uint64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	user := h.user(addr)
	idx, ok := findOrder(user, orderID)
	if !ok {
		return ErrUnknownOrder
	}
	order := &user.Orders[idx]
	pos := user.ForcePosition(order.MarketIndex)

	remaining := order.RemainingBaseAssetAmount()
	if order.Direction == clearing.Long {
		pos.OpenBids -= remaining
	} else {
		pos.OpenAsks += remaining
	}
	if pos.OpenOrders > 0 {
		pos.OpenOrders--
	}
	*order = clearing.Order{}

	return h.persistUser(addr, user)
}

func findOrder(user *clearing.User, orderID uint64) (int, bool) {
	for i := range user.Orders {
		if user.Orders[i].Status != clearing.OrderInit && user.Orders[i].OrderID == orderID {
			return i, true
		}
	}
	return 0, false
}

// FulfillRequest names the parties of one fulfillment. Maker and filler are
// optional; a zero maker address means amm-only.
type FulfillRequest struct {
	MarketIndex  uint64
	Taker        common.Address
	TakerOrderID uint64
	Maker        common.Address
	MakerOrderID uint64
	Filler       common.Address
	LimitPrice   int64
}

// Fulfill runs the fulfillment core for one taker order, persists the
// touched state and broadcasts the fills.
func (h *Clearinghouse) Fulfill(req FulfillRequest) (int64, error) {
	h.mu.Lock()

	market, ok := h.markets[req.MarketIndex]
	if !ok {
		h.mu.Unlock()
		return 0, ErrUnknownMarket
	}

	taker := h.user(req.Taker)
	takerIdx, ok := findOrder(taker, req.TakerOrderID)
	if !ok {
		h.mu.Unlock()
		return 0, ErrUnknownOrder
	}

	var maker *clearing.User
	makerIdx := 0
	if req.Maker != (common.Address{}) {
		maker = h.user(req.Maker)
		makerIdx, ok = findOrder(maker, req.MakerOrderID)
		if !ok {
			h.mu.Unlock()
			return 0, ErrUnknownOrder
		}
	}
	var filler *clearing.User
	if req.Filler != (common.Address{}) {
		filler = h.user(req.Filler)
	}

	marketMap := clearing.NewMarketMap(market)
	bankList := make([]*clearing.Bank, 0, len(h.banks))
	for _, b := range h.banks {
		bankList = append(bankList, b)
	}
	bankMap := clearing.NewBankMap(bankList...)
	prices := make(map[uint64]int64, len(h.oracles))
	for id, p := range h.oracles {
		prices[id] = p
	}
	oracleMap := clearing.NewOracleMap(prices)

	var records []clearing.OrderRecord
	filled, _, err := clearing.FulfillOrder(
		taker, takerIdx, req.Taker,
		maker, makerIdx, req.Maker,
		filler, req.Filler,
		bankMap, marketMap, oracleMap,
		&h.fees, req.MarketIndex, req.LimitPrice,
		h.now, h.slot, &records,
	)
	if err != nil {
		h.mu.Unlock()
		return 0, err
	}

	if perr := h.persistFill(req, taker, maker, filler, market, records); perr != nil {
		h.mu.Unlock()
		return filled, perr
	}
	h.mu.Unlock()

	if filled > 0 {
		h.log.Info("order fulfilled",
			zap.String("taker", req.Taker.Hex()),
			zap.Uint64("order", req.TakerOrderID),
			zap.Int64("filled", filled),
			zap.Int("legs", len(records)))
		if h.onFill != nil && len(records) > 0 {
			h.onFill(records)
		}
	}
	return filled, nil
}

func (h *Clearinghouse) persistFill(req FulfillRequest, taker, maker, filler *clearing.User, market *clearing.Market, records []clearing.OrderRecord) error {
	if h.store == nil {
		return nil
	}
	if err := h.store.AppendRecords(records); err != nil {
		return fmt.Errorf("persist records: %w", err)
	}
	if err := h.store.SaveMarket(market); err != nil {
		return fmt.Errorf("persist market: %w", err)
	}
	if err := h.store.SaveUser(req.Taker, taker); err != nil {
		return fmt.Errorf("persist taker: %w", err)
	}
	if maker != nil {
		if err := h.store.SaveUser(req.Maker, maker); err != nil {
			return fmt.Errorf("persist maker: %w", err)
		}
	}
	if filler != nil {
		if err := h.store.SaveUser(req.Filler, filler); err != nil {
			return fmt.Errorf("persist filler: %w", err)
		}
	}
	return nil
}

func (h *Clearinghouse) persistUser(addr common.Address, user *clearing.User) error {
	if h.store == nil {
		return nil
	}
	return h.store.SaveUser(addr, user)
}

// MarketSnapshot returns a copy of one market.
func (h *Clearinghouse) MarketSnapshot(marketIndex uint64) (clearing.Market, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.markets[marketIndex]
	if !ok {
		return clearing.Market{}, false
	}
	return *m, true
}

// MarketSnapshots returns copies of all markets.
func (h *Clearinghouse) MarketSnapshots() []clearing.Market {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]clearing.Market, 0, len(h.markets))
	for _, m := range h.markets {
		out = append(out, *m)
	}
	return out
}

// UserSnapshot returns a deep copy of one user's state.
func (h *Clearinghouse) UserSnapshot(addr common.Address) (clearing.User, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	u, ok := h.users[addr]
	if !ok {
		return clearing.User{}, false
	}
	return u.Clone(), true
}

// RecentRecords pages the persisted fill log, newest first.
func (h *Clearinghouse) RecentRecords(marketIndex uint64, limit int) ([]clearing.OrderRecord, error) {
	if h.store == nil {
		return nil, nil
	}
	return h.store.RecentRecordsByMarket(marketIndex, limit)
}
