package clearing

import (
	"errors"
	"testing"
)

func TestCalculateFeesMatchLeg(t *testing.T) {
	fees, err := CalculateFees(100*QuotePrecision, testFeeStructure(), true, false)
	if err != nil {
		t.Fatal(err)
	}
	if fees.TakerFee != 50000 {
		t.Errorf("taker fee = %d, want 50000", fees.TakerFee)
	}
	if fees.MakerRebate != 30000 {
		t.Errorf("maker rebate = %d, want 30000", fees.MakerRebate)
	}
	if fees.MarketFee != 20000 {
		t.Errorf("market fee = %d, want 20000", fees.MarketFee)
	}
}

func TestCalculateFeesAMMLegHasNoRebate(t *testing.T) {
	fees, err := CalculateFees(100*QuotePrecision, testFeeStructure(), false, false)
	if err != nil {
		t.Fatal(err)
	}
	if fees.MakerRebate != 0 {
		t.Errorf("maker rebate = %d, want 0", fees.MakerRebate)
	}
	if fees.MarketFee != fees.TakerFee {
		t.Errorf("whole taker fee should accrue to the market: %+v", fees)
	}
}

func TestCalculateFeesFillerReward(t *testing.T) {
	fs := testFeeStructure()
	fs.FillerRewardNumerator = 1
	fs.FillerRewardDenominator = 10

	fees, err := CalculateFees(100*QuotePrecision, fs, true, true)
	if err != nil {
		t.Fatal(err)
	}
	// Reward carves out of what is left after the rebate.
	if fees.FillerReward != 2000 {
		t.Errorf("filler reward = %d, want 2000", fees.FillerReward)
	}
	if fees.MarketFee != 18000 {
		t.Errorf("market fee = %d, want 18000", fees.MarketFee)
	}
	if fees.TakerFee != fees.MakerRebate+fees.FillerReward+fees.MarketFee {
		t.Errorf("fee breakdown does not balance: %+v", fees)
	}
}

func TestCalculateFeesNoFillerNoReward(t *testing.T) {
	fs := testFeeStructure()
	fs.FillerRewardNumerator = 1
	fs.FillerRewardDenominator = 10

	fees, err := CalculateFees(100*QuotePrecision, fs, true, false)
	if err != nil {
		t.Fatal(err)
	}
	if fees.FillerReward != 0 {
		t.Errorf("filler reward = %d, want 0 without a filler", fees.FillerReward)
	}
}

func TestCalculateFeesDiscountsReduceTakerFee(t *testing.T) {
	fs := testFeeStructure()
	fs.RefereeDiscountNumerator = 1
	fs.RefereeDiscountDenominator = 10
	fs.TokenDiscountNumerator = 1
	fs.TokenDiscountDenominator = 20

	fees, err := CalculateFees(100*QuotePrecision, fs, true, false)
	if err != nil {
		t.Fatal(err)
	}
	if fees.RefereeDiscount != 5000 || fees.TokenDiscount != 2500 {
		t.Errorf("discounts = %d/%d, want 5000/2500", fees.RefereeDiscount, fees.TokenDiscount)
	}
	if fees.TakerFee != 42500 {
		t.Errorf("taker fee = %d, want 42500", fees.TakerFee)
	}
	// The rebate rate applies to the discounted fee.
	if fees.MakerRebate != 25500 {
		t.Errorf("maker rebate = %d, want 25500", fees.MakerRebate)
	}
	if fees.MarketFee != 17000 {
		t.Errorf("market fee = %d, want 17000", fees.MarketFee)
	}
}

func TestCalculateFeesTruncatesTowardMarket(t *testing.T) {
	// Odd notional so both the fee and the rebate truncate.
	fees, err := CalculateFees(3333333, testFeeStructure(), true, false)
	if err != nil {
		t.Fatal(err)
	}
	if fees.TakerFee != 1666 {
		t.Errorf("taker fee = %d, want 1666", fees.TakerFee)
	}
	if fees.MakerRebate != 999 {
		t.Errorf("maker rebate = %d, want 999", fees.MakerRebate)
	}
	if fees.MarketFee != 667 {
		t.Errorf("market fee = %d, want 667", fees.MarketFee)
	}
}

func TestCalculateFeesZeroDenominator(t *testing.T) {
	_, err := CalculateFees(100*QuotePrecision, &FeeStructure{}, true, false)
	if !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("err = %v, want ErrDivisionByZero", err)
	}
}
