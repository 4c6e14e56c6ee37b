package clearing

import (
	"errors"
	"testing"
)

func TestMarketMapBorrowDiscipline(t *testing.T) {
	m := NewMarketMap(testMarket())

	mkt, release, err := m.GetRef(0)
	if err != nil {
		t.Fatal(err)
	}
	if mkt == nil {
		t.Fatal("nil market")
	}

	if _, _, err := m.GetRef(0); !errors.Is(err, ErrAccountBorrowed) {
		t.Fatalf("second borrow err = %v, want ErrAccountBorrowed", err)
	}

	release()
	if _, release, err := m.GetRef(0); err != nil {
		t.Fatalf("re-borrow after release: %v", err)
	} else {
		release()
	}
}

func TestMarketMapMissingAndUninitialized(t *testing.T) {
	uninit := testMarket()
	uninit.MarketIndex = 1
	uninit.Initialized = false
	m := NewMarketMap(testMarket(), uninit)

	if _, _, err := m.GetRef(9); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("missing market err = %v, want ErrAccountNotFound", err)
	}
	if _, _, err := m.GetRef(1); !errors.Is(err, ErrMarketNotInitialized) {
		t.Errorf("uninitialized market err = %v, want ErrMarketNotInitialized", err)
	}
}

func TestBankMapBorrowAndRead(t *testing.T) {
	m := NewBankMap(testBank())

	if _, ok := m.Get(0); !ok {
		t.Fatal("bank not found by read")
	}

	_, release, err := m.GetRef(0)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := m.GetRef(0); !errors.Is(err, ErrAccountBorrowed) {
		t.Fatalf("second borrow err = %v, want ErrAccountBorrowed", err)
	}
	// Reads stay available while borrowed; margin evaluation only reads.
	if _, ok := m.Get(0); !ok {
		t.Error("read blocked by borrow")
	}
	release()
}

func TestOracleMapQuoteAssetNeedsNoPrice(t *testing.T) {
	oracles := EmptyOracleMap()
	if _, ok := oracles.Price(1); ok {
		t.Error("empty oracle map returned a price")
	}

	oracles = NewOracleMap(map[uint64]int64{7: 2 * PricePrecision})
	p, ok := oracles.Price(7)
	if !ok || p != 2*PricePrecision {
		t.Errorf("price = %d/%v", p, ok)
	}
}
