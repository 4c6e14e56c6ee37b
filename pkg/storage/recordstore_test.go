package storage

import (
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/openperp/clearinghouse/pkg/clearing"
)

func record(marketIndex uint64, slot uint64, quote int64) clearing.OrderRecord {
	return clearing.OrderRecord{
		Slot:             slot,
		MarketIndex:      marketIndex,
		Method:           clearing.FulfillmentAMM,
		Taker:            common.HexToAddress("0x01"),
		TakerOrderID:     slot,
		FillPrice:        100 * clearing.PricePrecision,
		BaseAssetAmount:  clearing.BasePrecision,
		QuoteAssetAmount: quote,
	}
}

func TestRecordStoreAppendAndRecent(t *testing.T) {
	s, err := NewRecordStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	recs := []clearing.OrderRecord{
		record(0, 1, 100),
		record(0, 2, 200),
		record(1, 3, 300),
	}
	if err := s.AppendRecords(recs); err != nil {
		t.Fatal(err)
	}

	got, err := s.RecentRecords(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("recent = %d records, want 2", len(got))
	}
	// Newest first.
	if got[0].Slot != 3 || got[1].Slot != 2 {
		t.Errorf("order wrong: slots %d, %d", got[0].Slot, got[1].Slot)
	}
	if !reflect.DeepEqual(got[0], recs[2]) {
		t.Errorf("round trip mismatch: %+v vs %+v", got[0], recs[2])
	}
}

func TestRecordStoreMarketIndex(t *testing.T) {
	s, err := NewRecordStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.AppendRecords([]clearing.OrderRecord{
		record(0, 1, 100),
		record(1, 2, 200),
		record(0, 3, 300),
	}); err != nil {
		t.Fatal(err)
	}

	got, err := s.RecentRecordsByMarket(0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("market 0 records = %d, want 2", len(got))
	}
	if got[0].Slot != 3 || got[1].Slot != 1 {
		t.Errorf("order wrong: slots %d, %d", got[0].Slot, got[1].Slot)
	}
}

func TestRecordStoreSequenceSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := NewRecordStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.AppendRecords([]clearing.OrderRecord{record(0, 1, 100)}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = NewRecordStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.AppendRecords([]clearing.OrderRecord{record(0, 2, 200)}); err != nil {
		t.Fatal(err)
	}

	got, err := s.RecentRecords(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("records after reopen = %d, want 2", len(got))
	}
	if got[0].Slot != 2 {
		t.Errorf("newest slot = %d, want the post-reopen append", got[0].Slot)
	}
}

func TestRecordStoreMarketSnapshot(t *testing.T) {
	s, err := NewRecordStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, ok, err := s.LoadMarket(0); err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}

	market := &clearing.Market{
		Initialized: true,
		MarketIndex: 0,
		AMM: clearing.AMM{
			BaseAssetReserve:  100 * clearing.AMMReservePrecision,
			QuoteAssetReserve: 100 * clearing.AMMReservePrecision,
			SqrtK:             100 * clearing.AMMReservePrecision,
			PegMultiplier:     100 * clearing.PegPrecision,
			TotalFee:          12345,
		},
		MarginRatioInitial: 1000,
	}
	if err := s.SaveMarket(market); err != nil {
		t.Fatal(err)
	}

	got, ok, err := s.LoadMarket(0)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(got, market) {
		t.Errorf("market round trip mismatch: %+v", got)
	}
}

func TestRecordStoreUserSnapshot(t *testing.T) {
	s, err := NewRecordStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	addr := common.HexToAddress("0x02")
	user := &clearing.User{
		Orders: []clearing.Order{{
			Status:          clearing.OrderOpen,
			OrderType:       clearing.LimitOrder,
			OrderID:         9,
			BaseAssetAmount: clearing.BasePrecision,
			Price:           100 * clearing.PricePrecision,
		}},
		Positions: []clearing.MarketPosition{{
			BaseAssetAmount: clearing.BasePrecision,
			OpenOrders:      1,
			OpenBids:        clearing.BasePrecision,
		}},
		BankBalances: []clearing.UserBankBalance{{
			BalanceType: clearing.BankDeposit,
			Balance:     100 * clearing.BankInterestPrecision,
		}},
	}
	if err := s.SaveUser(addr, user); err != nil {
		t.Fatal(err)
	}

	got, ok, err := s.LoadUser(addr)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(got, user) {
		t.Errorf("user round trip mismatch: %+v", got)
	}
	if _, ok, _ := s.LoadUser(common.HexToAddress("0x03")); ok {
		t.Error("unknown user loaded")
	}
}
