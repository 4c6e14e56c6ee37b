package clearing

// MeetsInitialMarginRequirement recomputes account health after a tentative
// fill: risk-weighted collateral (bank balances plus unsettled and unrealized
// PnL) must cover the initial margin on every open position, each valued at
// its AMM close-out price. Margin insufficiency is an expected market
// condition, so callers treat a false result as a benign no-trade outcome,
// not an error.
func MeetsInitialMarginRequirement(user *User, marketMap *MarketMap, bankMap *BankMap, oracleMap *OracleMap) (bool, error) {
	totalCollateral := int64(0)
	for i := range user.BankBalances {
		balance := &user.BankBalances[i]
		if balance.Balance == 0 {
			continue
		}
		bank, ok := bankMap.Get(balance.BankIndex)
		if !ok {
			return false, ErrAccountNotFound
		}
		value, err := balance.collateralValue(bank, oracleMap)
		if err != nil {
			return false, err
		}
		totalCollateral, err = checkedAdd(totalCollateral, value)
		if err != nil {
			return false, err
		}
	}

	marginRequirement := int64(0)
	for i := range user.Positions {
		pos := &user.Positions[i]
		totalCollateral += pos.UnsettledPnL
		if pos.BaseAssetAmount == 0 {
			continue
		}

		market, release, err := marketMap.GetRef(pos.MarketIndex)
		if err != nil {
			return false, err
		}
		value, err := market.AMM.BaseAssetValue(pos)
		if err != nil {
			release()
			return false, err
		}

		// Unrealized PnL versus cost basis.
		if pos.BaseAssetAmount > 0 {
			totalCollateral += value - pos.QuoteAssetAmount
		} else {
			totalCollateral += pos.QuoteAssetAmount - value
		}

		required, err := mulDiv(value, int64(market.MarginRatioInitial), MarginPrecision)
		release()
		if err != nil {
			return false, err
		}
		marginRequirement, err = checkedAdd(marginRequirement, required)
		if err != nil {
			return false, err
		}
	}

	return totalCollateral >= marginRequirement, nil
}
