package house

import "github.com/openperp/clearinghouse/pkg/clearing"

// GenesisMarket builds a fresh market with symmetric reserves at sqrtK and a
// spread of spreadBps either side of the canonical curve.
func GenesisMarket(marketIndex uint64, sqrtK, pegMultiplier, spreadBps int64, initial, partial, maintenance uint32) *clearing.Market {
	wide := sqrtK * (10_000 + spreadBps) / 10_000
	tight := sqrtK * (10_000 - spreadBps) / 10_000

	return &clearing.Market{
		Initialized: true,
		MarketIndex: marketIndex,
		AMM: clearing.AMM{
			BaseAssetReserve:     sqrtK,
			QuoteAssetReserve:    sqrtK,
			BidBaseAssetReserve:  wide,
			BidQuoteAssetReserve: tight,
			AskBaseAssetReserve:  tight,
			AskQuoteAssetReserve: wide,
			SqrtK:                sqrtK,
			PegMultiplier:        pegMultiplier,
		},
		MarginRatioInitial:     initial,
		MarginRatioPartial:     partial,
		MarginRatioMaintenance: maintenance,
	}
}

// GenesisBank is a plain quote-asset collateral bank with full risk weights
// and no accrued interest.
func GenesisBank(bankIndex uint64) *clearing.Bank {
	return &clearing.Bank{
		BankIndex:                  bankIndex,
		OracleSource:               clearing.OracleQuoteAsset,
		Decimals:                   6,
		CumulativeDepositInterest:  clearing.BankCumulativeInterestPrecision,
		CumulativeBorrowInterest:   clearing.BankCumulativeInterestPrecision,
		InitialAssetWeight:         clearing.BankWeightPrecision,
		MaintenanceAssetWeight:     clearing.BankWeightPrecision,
		InitialLiabilityWeight:     clearing.BankWeightPrecision,
		MaintenanceLiabilityWeight: clearing.BankWeightPrecision,
	}
}
