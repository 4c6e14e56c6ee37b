package house

import (
	"context"
	"math/big"
	"math/rand"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/openperp/clearinghouse/pkg/clearing"
)

// FeederConfig controls the demo order feeder.
type FeederConfig struct {
	MarketIndex uint64
	BankIndex   uint64
	NumAccounts int
	Interval    time.Duration
	DepositSize int64 // quote units per trader, bank interest precision
	OrderSize   int64 // base precision
	Seed        int64
}

// DefaultFeederConfig is a modest devnet load.
func DefaultFeederConfig() FeederConfig {
	return FeederConfig{
		NumAccounts: 25,
		Interval:    200 * time.Millisecond,
		DepositSize: 10_000 * clearing.BankInterestPrecision,
		OrderSize:   clearing.BasePrecision / 10,
		Seed:        1,
	}
}

// StartFeeder runs a background loop of simulated traders: each tick one
// trader places a market order bracketing the current mark price and a filler
// drives it through fulfillment. Returns a cancel func.
func StartFeeder(ctx context.Context, h *Clearinghouse, log *zap.Logger, cfg FeederConfig) context.CancelFunc {
	feedCtx, cancel := context.WithCancel(ctx)
	rng := rand.New(rand.NewSource(cfg.Seed))

	accounts := make([]common.Address, cfg.NumAccounts)
	for i := range accounts {
		accounts[i] = common.BigToAddress(big.NewInt(int64(i + 1)))
		if err := h.Deposit(accounts[i], cfg.BankIndex, cfg.DepositSize); err != nil {
			log.Warn("feeder deposit failed", zap.Error(err))
		}
	}
	filler := common.BigToAddress(big.NewInt(int64(cfg.NumAccounts + 1)))

	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		start := time.Now()
		placed, filled := 0, 0
		log.Info("feeder started",
			zap.Int("accounts", cfg.NumAccounts),
			zap.Duration("interval", cfg.Interval))

		for {
			select {
			case <-feedCtx.Done():
				log.Info("feeder stopped",
					zap.Int("placed", placed),
					zap.Int("filled", filled),
					zap.Duration("ran", time.Since(start).Round(time.Second)))
				return

			case <-ticker.C:
				market, ok := h.MarketSnapshot(cfg.MarketIndex)
				if !ok {
					continue
				}
				mark, err := market.AMM.MarkPrice()
				if err != nil {
					log.Warn("feeder mark price", zap.Error(err))
					continue
				}

				trader := accounts[rng.Intn(len(accounts))]
				direction := clearing.Long
				if rng.Intn(2) == 1 {
					direction = clearing.Short
				}

				// Auction brackets the mark by a couple percent either side.
				auctionStart := mark * 98 / 100
				auctionEnd := mark * 102 / 100
				if direction == clearing.Short {
					auctionStart, auctionEnd = auctionEnd, auctionStart
				}

				orderID, err := h.PlaceOrder(trader, OrderParams{
					MarketIndex:       cfg.MarketIndex,
					OrderType:         clearing.MarketOrder,
					Direction:         direction,
					BaseAmount:        cfg.OrderSize,
					AuctionStartPrice: auctionStart,
					AuctionEndPrice:   auctionEnd,
					AuctionDuration:   0, // marketable immediately
				})
				if err != nil {
					log.Warn("feeder place failed", zap.Error(err))
					continue
				}
				placed++

				n, err := h.Fulfill(FulfillRequest{
					MarketIndex:  cfg.MarketIndex,
					Taker:        trader,
					TakerOrderID: orderID,
					Filler:       filler,
				})
				if err != nil {
					log.Warn("feeder fulfill failed", zap.Error(err))
					continue
				}
				if n > 0 {
					filled++
				} else {
					// Breached margin or non-crossing: clear any residual.
					_ = h.CancelOrder(trader, orderID)
				}
			}
		}
	}()

	return cancel
}
