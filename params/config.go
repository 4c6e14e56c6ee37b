package params

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/openperp/clearinghouse/pkg/clearing"
)

type Fees struct {
	FeeNumerator   int64
	FeeDenominator int64

	MakerRebateNumerator   int64
	MakerRebateDenominator int64

	FillerRewardNumerator   int64
	FillerRewardDenominator int64
}

type Market struct {
	// Genesis curve: reserves in AMM reserve precision, peg in peg precision.
	SqrtK         int64
	PegMultiplier int64
	// SpreadBps widens the bid/ask reserve pairs around the canonical curve.
	SpreadBps int64

	MarginRatioInitial     uint32
	MarginRatioPartial     uint32
	MarginRatioMaintenance uint32
}

type Node struct {
	DataDir      string
	APIAddr      string
	SlotInterval time.Duration
	Feeder       bool
	LogFile      string
}

type Config struct {
	Fees   Fees
	Market Market
	Node   Node
}

func Default() Config {
	return Config{
		Fees: Fees{
			FeeNumerator:            5,
			FeeDenominator:          10000,
			MakerRebateNumerator:    3,
			MakerRebateDenominator:  5,
			FillerRewardNumerator:   1,
			FillerRewardDenominator: 100,
		},
		Market: Market{
			SqrtK:                  100 * clearing.AMMReservePrecision,
			PegMultiplier:          100 * clearing.PegPrecision,
			SpreadBps:              100, // one percent either side
			MarginRatioInitial:     1000,
			MarginRatioPartial:     714,
			MarginRatioMaintenance: 500,
		},
		Node: Node{
			DataDir:      "data",
			APIAddr:      ":8080",
			SlotInterval: 200 * time.Millisecond,
			Feeder:       false,
			LogFile:      "",
		},
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv("FEE_NUMERATOR"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Fees.FeeNumerator = n
		}
	}
	if v := os.Getenv("FEE_DENOMINATOR"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.Fees.FeeDenominator = n
		}
	}
	if v := os.Getenv("MAKER_REBATE_NUMERATOR"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Fees.MakerRebateNumerator = n
		}
	}
	if v := os.Getenv("MAKER_REBATE_DENOMINATOR"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.Fees.MakerRebateDenominator = n
		}
	}

	if v := os.Getenv("MARKET_SQRT_K"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.Market.SqrtK = n
		}
	}
	if v := os.Getenv("MARKET_PEG"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.Market.PegMultiplier = n
		}
	}
	if v := os.Getenv("MARKET_SPREAD_BPS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			cfg.Market.SpreadBps = n
		}
	}
	if v := os.Getenv("MARGIN_RATIO_INITIAL"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.Market.MarginRatioInitial = uint32(n)
		}
	}

	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Node.DataDir = v
	}
	if v := os.Getenv("API_ADDR"); v != "" {
		cfg.Node.APIAddr = v
	}
	if v := os.Getenv("SLOT_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.Node.SlotInterval = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("FEEDER"); v != "" {
		cfg.Node.Feeder = v == "true"
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Node.LogFile = v
	}

	return cfg
}

// FeeStructure resolves the configured schedule into the core's type.
func (f Fees) FeeStructure() clearing.FeeStructure {
	return clearing.FeeStructure{
		FeeNumerator:            f.FeeNumerator,
		FeeDenominator:          f.FeeDenominator,
		MakerRebateNumerator:    f.MakerRebateNumerator,
		MakerRebateDenominator:  f.MakerRebateDenominator,
		FillerRewardNumerator:   f.FillerRewardNumerator,
		FillerRewardDenominator: f.FillerRewardDenominator,
	}
}
