package clearing

import (
	"errors"
	"testing"
)

func TestMarginFlatUserWithDeposit(t *testing.T) {
	marketMap := NewMarketMap(testMarket())
	bankMap := NewBankMap(testBank())
	user := &User{}
	depositQuote(user, 100*BankInterestPrecision)

	ok, err := MeetsInitialMarginRequirement(user, marketMap, bankMap, EmptyOracleMap())
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("flat funded user must meet margin")
	}
}

func TestMarginLeveredLongMeets(t *testing.T) {
	marketMap := NewMarketMap(testMarket())
	bankMap := NewBankMap(testBank())
	user := &User{
		Positions: []MarketPosition{{
			BaseAssetAmount:  BasePrecision,
			QuoteAssetAmount: 104081633,
			QuoteEntryAmount: 104081633,
		}},
	}
	depositQuote(user, 100*BankInterestPrecision)

	ok, err := MeetsInitialMarginRequirement(user, marketMap, bankMap, EmptyOracleMap())
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("10x-collateralized long must meet 10% initial margin")
	}
}

func TestMarginUnderfundedLongFails(t *testing.T) {
	marketMap := NewMarketMap(testMarket())
	bankMap := NewBankMap(testBank())
	user := &User{
		Positions: []MarketPosition{{
			BaseAssetAmount:  BasePrecision,
			QuoteAssetAmount: 104081633,
			QuoteEntryAmount: 104081633,
		}},
	}
	depositQuote(user, 1*BankInterestPrecision)

	ok, err := MeetsInitialMarginRequirement(user, marketMap, bankMap, EmptyOracleMap())
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("underfunded long must fail margin")
	}
}

func TestMarginBorrowReducesCollateral(t *testing.T) {
	marketMap := NewMarketMap(testMarket())
	bank := testBank()
	// Borrows weight against the account at 110%.
	bank.InitialLiabilityWeight = 110
	bankMap := NewBankMap(bank)

	user := &User{
		BankBalances: []UserBankBalance{
			{BalanceType: BankDeposit, Balance: 100 * BankInterestPrecision},
			{BalanceType: BankBorrow, Balance: 100 * BankInterestPrecision},
		},
	}

	// 100 deposit minus 110 weighted borrow is negative collateral.
	ok, err := MeetsInitialMarginRequirement(user, marketMap, bankMap, EmptyOracleMap())
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("borrow-heavy account must fail margin")
	}
}

func TestMarginExternalOraclePricesDeposit(t *testing.T) {
	marketMap := NewMarketMap(testMarket())
	bank := testBank()
	bank.OracleSource = OracleExternal
	bank.OracleID = 7
	bankMap := NewBankMap(bank)

	user := &User{
		Positions: []MarketPosition{{
			BaseAssetAmount:  BasePrecision,
			QuoteAssetAmount: 104081633,
			QuoteEntryAmount: 104081633,
		}},
		BankBalances: []UserBankBalance{
			{BalanceType: BankDeposit, Balance: 50 * BankInterestPrecision},
		},
	}

	// At 2.0 the 50-token deposit is worth 100 quote and the long clears.
	oracles := NewOracleMap(map[uint64]int64{7: 2 * PricePrecision})
	ok, err := MeetsInitialMarginRequirement(user, marketMap, bankMap, oracles)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("oracle-priced deposit should cover margin")
	}

	// Without the price the evaluation cannot proceed.
	if _, err := MeetsInitialMarginRequirement(user, marketMap, bankMap, EmptyOracleMap()); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("missing oracle err = %v, want ErrAccountNotFound", err)
	}
}

func TestMarginInterestAccruesOnBalance(t *testing.T) {
	marketMap := NewMarketMap(testMarket())
	bank := testBank()
	// 5% accrued deposit interest.
	bank.CumulativeDepositInterest = BankCumulativeInterestPrecision * 105 / 100
	bankMap := NewBankMap(bank)

	user := &User{
		Positions: []MarketPosition{{
			BaseAssetAmount:  BasePrecision,
			QuoteAssetAmount: 104081633,
			QuoteEntryAmount: 104081633,
		}},
		// 14.5 raw only clears the requirement once interest lifts it to 15.225.
		BankBalances: []UserBankBalance{{BalanceType: BankDeposit, Balance: 14_500_000}},
	}

	ok, err := MeetsInitialMarginRequirement(user, marketMap, bankMap, EmptyOracleMap())
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("interest-accrued deposit should cover margin")
	}

	// The same balance without accrued interest falls short.
	bank.CumulativeDepositInterest = BankCumulativeInterestPrecision
	ok, err = MeetsInitialMarginRequirement(user, marketMap, bankMap, EmptyOracleMap())
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("deposit without interest should miss margin")
	}
}

func TestMarginFailsWhileMarketBorrowed(t *testing.T) {
	marketMap := NewMarketMap(testMarket())
	bankMap := NewBankMap(testBank())
	user := &User{
		Positions: []MarketPosition{{BaseAssetAmount: BasePrecision, QuoteAssetAmount: 100 * QuotePrecision}},
	}

	_, release, err := marketMap.GetRef(0)
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	if _, err := MeetsInitialMarginRequirement(user, marketMap, bankMap, EmptyOracleMap()); !errors.Is(err, ErrAccountBorrowed) {
		t.Errorf("err = %v, want ErrAccountBorrowed", err)
	}
}

func TestMarginMissingBank(t *testing.T) {
	marketMap := NewMarketMap(testMarket())
	bankMap := NewBankMap()
	user := &User{}
	depositQuote(user, BankInterestPrecision)

	if _, err := MeetsInitialMarginRequirement(user, marketMap, bankMap, EmptyOracleMap()); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("err = %v, want ErrAccountNotFound", err)
	}
}
