package clearing

// FeeStructure is the fee schedule supplied by the host. The taker fee is a
// plain numerator/denominator rate on notional; the maker rebate and filler
// reward are carved out of the taker fee, never additional to it. Referee and
// token discounts are pass-through multipliers: their eligibility computation
// happens outside this core, here they only reduce the effective taker fee.
type FeeStructure struct {
	FeeNumerator   int64
	FeeDenominator int64

	MakerRebateNumerator   int64
	MakerRebateDenominator int64

	FillerRewardNumerator   int64
	FillerRewardDenominator int64

	RefereeDiscountNumerator   int64
	RefereeDiscountDenominator int64
	TokenDiscountNumerator     int64
	TokenDiscountDenominator   int64
}

// FillFees is the fee breakdown of one fill leg. All truncation favors the
// market so fee value never leaks to users through rounding.
type FillFees struct {
	TakerFee        int64
	MakerRebate     int64
	FillerReward    int64
	RefereeDiscount int64
	TokenDiscount   int64
	// MarketFee is what accrues to the market: TakerFee - MakerRebate - FillerReward.
	MarketFee int64
}

// carve computes amount*num/denom, treating an unset (zero-denominator)
// optional component as zero.
func carve(amount, numerator, denominator int64) (int64, error) {
	if denominator == 0 {
		return 0, nil
	}
	return mulDiv(amount, numerator, denominator)
}

// CalculateFees resolves the fee breakdown for a fill of the given notional
// quote amount. hasMaker toggles the rebate (AMM legs have no maker);
// hasFiller toggles the filler reward.
func CalculateFees(quoteAmount int64, fs *FeeStructure, hasMaker, hasFiller bool) (FillFees, error) {
	if fs.FeeDenominator == 0 {
		return FillFees{}, ErrDivisionByZero
	}
	fee, err := mulDiv(quoteAmount, fs.FeeNumerator, fs.FeeDenominator)
	if err != nil {
		return FillFees{}, err
	}

	var out FillFees
	out.RefereeDiscount, err = carve(fee, fs.RefereeDiscountNumerator, fs.RefereeDiscountDenominator)
	if err != nil {
		return FillFees{}, err
	}
	out.TokenDiscount, err = carve(fee, fs.TokenDiscountNumerator, fs.TokenDiscountDenominator)
	if err != nil {
		return FillFees{}, err
	}
	out.TakerFee = fee - out.RefereeDiscount - out.TokenDiscount
	if out.TakerFee < 0 {
		out.TakerFee = 0
	}

	if hasMaker {
		out.MakerRebate, err = carve(out.TakerFee, fs.MakerRebateNumerator, fs.MakerRebateDenominator)
		if err != nil {
			return FillFees{}, err
		}
	}
	if hasFiller {
		out.FillerReward, err = carve(out.TakerFee-out.MakerRebate, fs.FillerRewardNumerator, fs.FillerRewardDenominator)
		if err != nil {
			return FillFees{}, err
		}
	}

	out.MarketFee = out.TakerFee - out.MakerRebate - out.FillerReward
	return out, nil
}
