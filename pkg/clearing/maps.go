package clearing

// Borrow-guarded account maps. The loader that fills these lives outside the
// core; here they only enforce single-writer discipline: each GetRef hands
// out an exclusive handle and a second live handle for the same key is a
// runtime error, mirroring the host's at-most-one-mutable-reference rule.

// MarketMap holds the markets touched by one invocation.
type MarketMap struct {
	markets  map[uint64]*Market
	borrowed map[uint64]bool
}

// NewMarketMap builds a map over already-loaded markets.
func NewMarketMap(markets ...*Market) *MarketMap {
	m := &MarketMap{
		markets:  make(map[uint64]*Market, len(markets)),
		borrowed: make(map[uint64]bool, len(markets)),
	}
	for _, mkt := range markets {
		m.markets[mkt.MarketIndex] = mkt
	}
	return m
}

// GetRef borrows the market mutably. The release func must be called before
// anyone else (including the margin guard) can borrow the same market.
func (m *MarketMap) GetRef(marketIndex uint64) (*Market, func(), error) {
	mkt, ok := m.markets[marketIndex]
	if !ok {
		return nil, nil, ErrAccountNotFound
	}
	if m.borrowed[marketIndex] {
		return nil, nil, ErrAccountBorrowed
	}
	if !mkt.Initialized {
		return nil, nil, ErrMarketNotInitialized
	}
	m.borrowed[marketIndex] = true
	release := func() { m.borrowed[marketIndex] = false }
	return mkt, release, nil
}

// BankMap holds the collateral banks touched by one invocation.
type BankMap struct {
	banks    map[uint64]*Bank
	borrowed map[uint64]bool
}

// NewBankMap builds a map over already-loaded banks.
func NewBankMap(banks ...*Bank) *BankMap {
	m := &BankMap{
		banks:    make(map[uint64]*Bank, len(banks)),
		borrowed: make(map[uint64]bool, len(banks)),
	}
	for _, b := range banks {
		m.banks[b.BankIndex] = b
	}
	return m
}

// GetRef borrows the bank mutably.
func (m *BankMap) GetRef(bankIndex uint64) (*Bank, func(), error) {
	b, ok := m.banks[bankIndex]
	if !ok {
		return nil, nil, ErrAccountNotFound
	}
	if m.borrowed[bankIndex] {
		return nil, nil, ErrAccountBorrowed
	}
	m.borrowed[bankIndex] = true
	release := func() { m.borrowed[bankIndex] = false }
	return b, release, nil
}

// Get reads a bank without borrowing it mutably. Margin evaluation only reads.
func (m *BankMap) Get(bankIndex uint64) (*Bank, bool) {
	b, ok := m.banks[bankIndex]
	return b, ok
}

// OracleMap resolves oracle prices for margin evaluation. Prices are
// read-only snapshots provided by the caller and are never used to set trade
// prices.
type OracleMap struct {
	prices map[uint64]int64
}

// NewOracleMap builds a map over already-ingested oracle prices.
func NewOracleMap(prices map[uint64]int64) *OracleMap {
	if prices == nil {
		prices = make(map[uint64]int64)
	}
	return &OracleMap{prices: prices}
}

// EmptyOracleMap is an oracle map with no external prices; quote-asset banks
// still price at one.
func EmptyOracleMap() *OracleMap {
	return NewOracleMap(nil)
}

// Price returns the current price for an oracle id, price precision.
func (m *OracleMap) Price(oracleID uint64) (int64, bool) {
	p, ok := m.prices[oracleID]
	return p, ok
}
