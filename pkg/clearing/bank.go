package clearing

// OracleSource tells the margin engine how to price an asset. QuoteAsset
// banks are the unit of account and always price at one; external sources
// resolve through the OracleMap.
type OracleSource int8

const (
	OracleQuoteAsset OracleSource = iota
	OracleExternal
)

// BankBalanceType splits deposits from borrows.
type BankBalanceType int8

const (
	BankDeposit BankBalanceType = iota
	BankBorrow
)

// Bank is one collateral asset's interest and risk-weight parameters. Loading
// and validating banks is the host's job; this core only reads them for
// margin evaluation.
type Bank struct {
	BankIndex    uint64
	OracleSource OracleSource
	OracleID     uint64
	Decimals     uint8

	CumulativeDepositInterest int64
	CumulativeBorrowInterest  int64

	InitialAssetWeight         int64
	MaintenanceAssetWeight     int64
	InitialLiabilityWeight     int64
	MaintenanceLiabilityWeight int64
}

// UserBankBalance is a user's interest-bearing claim on one bank.
type UserBankBalance struct {
	BankIndex   uint64
	BalanceType BankBalanceType
	Balance     int64 // bank interest precision
}

// tokenAmount resolves the balance through the bank's cumulative interest.
func (b *UserBankBalance) tokenAmount(bank *Bank) (int64, error) {
	interest := bank.CumulativeDepositInterest
	if b.BalanceType == BankBorrow {
		interest = bank.CumulativeBorrowInterest
	}
	return mulDiv(b.Balance, interest, BankCumulativeInterestPrecision)
}

// collateralValue returns the risk-weighted quote value of one balance:
// deposits count positively at the initial asset weight, borrows negatively
// at the initial liability weight. Oracle prices feed margin evaluation only,
// never trade pricing.
func (b *UserBankBalance) collateralValue(bank *Bank, oracles *OracleMap) (int64, error) {
	tokens, err := b.tokenAmount(bank)
	if err != nil {
		return 0, err
	}

	price := PricePrecision // quote asset prices at one
	if bank.OracleSource == OracleExternal {
		p, ok := oracles.Price(bank.OracleID)
		if !ok {
			return 0, ErrAccountNotFound
		}
		price = p
	}
	value, err := mulDiv(tokens, price, PricePrecision)
	if err != nil {
		return 0, err
	}

	if b.BalanceType == BankBorrow {
		weighted, err := mulDiv(value, bank.InitialLiabilityWeight, BankWeightPrecision)
		if err != nil {
			return 0, err
		}
		return -weighted, nil
	}
	return mulDiv(value, bank.InitialAssetWeight, BankWeightPrecision)
}
