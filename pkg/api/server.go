package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/openperp/clearinghouse/pkg/clearing"
	"github.com/openperp/clearinghouse/pkg/house"
)

// Server exposes the clearinghouse over REST and streams fills over
// WebSocket.
type Server struct {
	house  *house.Clearinghouse
	log    *zap.Logger
	router *mux.Router
	hub    *Hub
}

func NewServer(h *house.Clearinghouse, log *zap.Logger) *Server {
	s := &Server{
		house:  h,
		log:    log,
		router: mux.NewRouter(),
		hub:    NewHub(log),
	}
	s.setupRoutes()

	// Fan every fill out to subscribed WS clients.
	h.SetFillHook(func(records []clearing.OrderRecord) {
		for _, rec := range records {
			s.hub.BroadcastToChannel(
				fmt.Sprintf("fills:%d", rec.MarketIndex),
				FillUpdate{Type: "fill", Fill: fillInfo(rec)},
			)
		}
	})
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/markets", s.handleGetMarkets).Methods("GET")
	api.HandleFunc("/markets/{index}", s.handleGetMarket).Methods("GET")
	api.HandleFunc("/markets/{index}/fills", s.handleGetFills).Methods("GET")

	api.HandleFunc("/users/{address}", s.handleGetUser).Methods("GET")
	api.HandleFunc("/users/{address}/positions", s.handleGetPositions).Methods("GET")
	api.HandleFunc("/users/{address}/orders", s.handleGetOrders).Methods("GET")

	api.HandleFunc("/orders", s.handlePlaceOrder).Methods("POST")
	api.HandleFunc("/orders/cancel", s.handleCancelOrder).Methods("POST")
	api.HandleFunc("/fulfill", s.handleFulfill).Methods("POST")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start runs the hub and blocks serving HTTP.
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:3001"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	s.log.Info("api server starting", zap.String("addr", addr))
	return http.ListenAndServe(addr, c.Handler(s.router))
}

func marketInfo(m clearing.Market) MarketInfo {
	info := MarketInfo{
		MarketIndex:            m.MarketIndex,
		BaseAssetReserve:       m.AMM.BaseAssetReserve,
		QuoteAssetReserve:      m.AMM.QuoteAssetReserve,
		SqrtK:                  m.AMM.SqrtK,
		PegMultiplier:          m.AMM.PegMultiplier,
		NetBaseAssetAmount:     m.AMM.NetBaseAssetAmount,
		BaseAssetAmountLong:    m.BaseAssetAmountLong,
		BaseAssetAmountShort:   m.BaseAssetAmountShort,
		TotalFee:               m.AMM.TotalFee,
		UnsettledProfit:        m.UnsettledProfit,
		UnsettledLoss:          m.UnsettledLoss,
		MarginRatioInitial:     m.MarginRatioInitial,
		MarginRatioPartial:     m.MarginRatioPartial,
		MarginRatioMaintenance: m.MarginRatioMaintenance,
	}
	// Prices are best-effort; a degenerate curve just leaves zeros.
	if p, err := m.AMM.MarkPrice(); err == nil {
		info.MarkPrice = p
	}
	if p, err := m.AMM.QuotePrice(clearing.Long); err == nil {
		info.AskPrice = p
	}
	if p, err := m.AMM.QuotePrice(clearing.Short); err == nil {
		info.BidPrice = p
	}
	return info
}

func fillInfo(rec clearing.OrderRecord) FillInfo {
	info := FillInfo{
		Ts:               rec.Ts,
		Slot:             rec.Slot,
		MarketIndex:      rec.MarketIndex,
		Method:           rec.Method.String(),
		Taker:            rec.Taker.Hex(),
		TakerOrderID:     rec.TakerOrderID,
		FillPrice:        rec.FillPrice,
		BaseAssetAmount:  rec.BaseAssetAmount,
		QuoteAssetAmount: rec.QuoteAssetAmount,
		TakerFee:         rec.TakerFee,
		MakerRebate:      rec.MakerRebate,
		FillerReward:     rec.FillerReward,
	}
	if rec.Maker != (common.Address{}) {
		info.Maker = rec.Maker.Hex()
		info.MakerOrderID = rec.MakerOrderID
	}
	return info
}

func (s *Server) handleGetMarkets(w http.ResponseWriter, r *http.Request) {
	markets := s.house.MarketSnapshots()
	response := make([]MarketInfo, len(markets))
	for i, m := range markets {
		response[i] = marketInfo(m)
	}
	respondJSON(w, response)
}

func (s *Server) handleGetMarket(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.ParseUint(mux.Vars(r)["index"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid market index", err.Error())
		return
	}
	m, ok := s.house.MarketSnapshot(index)
	if !ok {
		respondError(w, http.StatusNotFound, "market not found", "")
		return
	}
	respondJSON(w, marketInfo(m))
}

func (s *Server) handleGetFills(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.ParseUint(mux.Vars(r)["index"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid market index", err.Error())
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	records, err := s.house.RecentRecords(index, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "record lookup failed", err.Error())
		return
	}
	response := make([]FillInfo, len(records))
	for i, rec := range records {
		response[i] = fillInfo(rec)
	}
	respondJSON(w, response)
}

func (s *Server) userFromPath(w http.ResponseWriter, r *http.Request) (common.Address, clearing.User, bool) {
	raw := mux.Vars(r)["address"]
	if !common.IsHexAddress(raw) {
		respondError(w, http.StatusBadRequest, "invalid address", "")
		return common.Address{}, clearing.User{}, false
	}
	addr := common.HexToAddress(raw)
	user, ok := s.house.UserSnapshot(addr)
	if !ok {
		respondError(w, http.StatusNotFound, "user not found", "")
		return common.Address{}, clearing.User{}, false
	}
	return addr, user, true
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	addr, user, ok := s.userFromPath(w, r)
	if !ok {
		return
	}

	balances := make([]BankBalanceInfo, len(user.BankBalances))
	for i, b := range user.BankBalances {
		typ := "deposit"
		if b.BalanceType == clearing.BankBorrow {
			typ = "borrow"
		}
		balances[i] = BankBalanceInfo{BankIndex: b.BankIndex, Type: typ, Balance: b.Balance}
	}

	respondJSON(w, UserInfo{
		Address:              addr.Hex(),
		BankBalances:         balances,
		TotalFeePaid:         user.Fees.TotalFeePaid,
		TotalFeeRebate:       user.Fees.TotalFeeRebate,
		TotalRefereeDiscount: user.Fees.TotalRefereeDiscount,
		TotalTokenDiscount:   user.Fees.TotalTokenDiscount,
	})
}

func (s *Server) handleGetPositions(w http.ResponseWriter, r *http.Request) {
	_, user, ok := s.userFromPath(w, r)
	if !ok {
		return
	}

	positions := make([]PositionInfo, 0, len(user.Positions))
	for _, pos := range user.Positions {
		if pos.BaseAssetAmount == 0 && pos.OpenOrders == 0 && pos.UnsettledPnL == 0 {
			continue
		}
		positions = append(positions, PositionInfo{
			MarketIndex:      pos.MarketIndex,
			BaseAssetAmount:  pos.BaseAssetAmount,
			QuoteAssetAmount: pos.QuoteAssetAmount,
			QuoteEntryAmount: pos.QuoteEntryAmount,
			UnsettledPnL:     pos.UnsettledPnL,
			OpenOrders:       pos.OpenOrders,
			OpenBids:         pos.OpenBids,
			OpenAsks:         pos.OpenAsks,
		})
	}
	respondJSON(w, positions)
}

func (s *Server) handleGetOrders(w http.ResponseWriter, r *http.Request) {
	_, user, ok := s.userFromPath(w, r)
	if !ok {
		return
	}

	orders := make([]OrderInfo, 0, len(user.Orders))
	for _, o := range user.Orders {
		if o.Status == clearing.OrderInit {
			continue
		}
		orders = append(orders, OrderInfo{
			OrderID:           o.OrderID,
			MarketIndex:       o.MarketIndex,
			Status:            o.Status.String(),
			Type:              o.OrderType.String(),
			Direction:         o.Direction.String(),
			Size:              o.BaseAssetAmount,
			Filled:            o.BaseAssetAmountFilled,
			Price:             o.Price,
			PostOnly:          o.PostOnly,
			AuctionStartPrice: o.AuctionStartPrice,
			AuctionEndPrice:   o.AuctionEndPrice,
			AuctionDuration:   o.AuctionDuration,
			Slot:              o.Slot,
		})
	}
	respondJSON(w, orders)
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if !common.IsHexAddress(req.Address) {
		respondError(w, http.StatusBadRequest, "invalid address", "")
		return
	}

	params := house.OrderParams{
		MarketIndex:       req.MarketIndex,
		BaseAmount:        req.Size,
		Price:             req.Price,
		PostOnly:          req.PostOnly,
		AuctionStartPrice: req.AuctionStartPrice,
		AuctionEndPrice:   req.AuctionEndPrice,
		AuctionDuration:   req.AuctionDuration,
	}
	switch req.Type {
	case "limit":
		params.OrderType = clearing.LimitOrder
	case "market":
		params.OrderType = clearing.MarketOrder
	default:
		respondError(w, http.StatusBadRequest, "invalid order type", req.Type)
		return
	}
	switch req.Direction {
	case "long":
		params.Direction = clearing.Long
	case "short":
		params.Direction = clearing.Short
	default:
		respondError(w, http.StatusBadRequest, "invalid direction", req.Direction)
		return
	}

	orderID, err := s.house.PlaceOrder(common.HexToAddress(req.Address), params)
	if err != nil {
		respondError(w, http.StatusBadRequest, "order rejected", err.Error())
		return
	}

	s.log.Info("order accepted",
		zap.String("user", req.Address),
		zap.Uint64("order", orderID))
	respondJSON(w, PlaceOrderResponse{Status: "accepted", OrderID: orderID})
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	var req CancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if !common.IsHexAddress(req.Address) {
		respondError(w, http.StatusBadRequest, "invalid address", "")
		return
	}

	if err := s.house.CancelOrder(common.HexToAddress(req.Address), req.OrderID); err != nil {
		respondError(w, http.StatusBadRequest, "cancel rejected", err.Error())
		return
	}
	respondJSON(w, map[string]string{"status": "cancelled"})
}

func (s *Server) handleFulfill(w http.ResponseWriter, r *http.Request) {
	var req FulfillOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if !common.IsHexAddress(req.Taker) {
		respondError(w, http.StatusBadRequest, "invalid taker address", "")
		return
	}

	hreq := house.FulfillRequest{
		MarketIndex:  req.MarketIndex,
		Taker:        common.HexToAddress(req.Taker),
		TakerOrderID: req.TakerOrderID,
		MakerOrderID: req.MakerOrderID,
		LimitPrice:   req.LimitPrice,
	}
	if req.Maker != "" {
		if !common.IsHexAddress(req.Maker) {
			respondError(w, http.StatusBadRequest, "invalid maker address", "")
			return
		}
		hreq.Maker = common.HexToAddress(req.Maker)
	}
	if req.Filler != "" {
		if !common.IsHexAddress(req.Filler) {
			respondError(w, http.StatusBadRequest, "invalid filler address", "")
			return
		}
		hreq.Filler = common.HexToAddress(req.Filler)
	}

	filled, err := s.house.Fulfill(hreq)
	if err != nil {
		respondError(w, http.StatusBadRequest, "fulfillment failed", err.Error())
		return
	}
	respondJSON(w, FulfillOrderResponse{Status: "ok", FilledBase: filled})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Message: message,
	})
}
