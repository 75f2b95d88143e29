// Package api exposes the matching engine over HTTP: match previews, market
// metadata, aggregated depth and a websocket feed of previews per market.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/holiman/uint256"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/uhyunpark/limitmatch/pkg/app/core/amount"
	"github.com/uhyunpark/limitmatch/pkg/app/core/market"
	"github.com/uhyunpark/limitmatch/pkg/app/core/matching"
	"github.com/uhyunpark/limitmatch/pkg/app/core/orderbook"
	"github.com/uhyunpark/limitmatch/pkg/storage"
	"github.com/uhyunpark/limitmatch/pkg/util"
)

const (
	maxBodyBytes = 1 << 20
	defaultDepth = 50
)

type Config struct {
	Engine  *matching.Engine
	Markets *market.Registry
	Store   storage.BookStore
	Journal storage.Journal // optional
	Logger  *zap.SugaredLogger
	Clock   util.Clock

	// Used when neither the request nor a market sets a minimum.
	MakerMinimum *uint256.Int
	TakerMinimum *uint256.Int

	CORSOrigins []string
}

// Server handles REST API and WebSocket connections
type Server struct {
	engine  *matching.Engine
	markets *market.Registry
	store   storage.BookStore
	journal storage.Journal
	logger  *zap.SugaredLogger
	clock   util.Clock

	makerMin *uint256.Int
	takerMin *uint256.Int

	router  *mux.Router
	handler http.Handler
	hub     *Hub

	mu   sync.Mutex
	http *http.Server
}

// NewServer wires the routes and starts the websocket hub. Call Shutdown to
// stop the hub even if Start is never called.
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	if cfg.Clock == nil {
		cfg.Clock = util.RealClock{}
	}
	if cfg.Journal == nil {
		cfg.Journal = storage.NewNopJournal()
	}
	if cfg.Markets == nil {
		cfg.Markets = market.NewRegistry()
	}
	if cfg.Engine == nil {
		cfg.Engine = matching.NewEngine(amount.DefaultUnit(), cfg.Logger)
	}

	s := &Server{
		engine:   cfg.Engine,
		markets:  cfg.Markets,
		store:    cfg.Store,
		journal:  cfg.Journal,
		logger:   cfg.Logger,
		clock:    cfg.Clock,
		makerMin: amount.Clone(cfg.MakerMinimum),
		takerMin: amount.Clone(cfg.TakerMinimum),
		router:   mux.NewRouter(),
		hub:      NewHub(cfg.Logger),
	}
	s.setupRoutes()

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	s.handler = c.Handler(s.router)

	go s.hub.Run()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/match", s.handleMatch).Methods("POST")

	api.HandleFunc("/markets", s.handleGetMarkets).Methods("GET")
	api.HandleFunc("/markets/{symbol}", s.handleGetMarket).Methods("GET")
	api.HandleFunc("/markets/{symbol}/status", s.handleUpdateStatus).Methods("PUT")
	api.HandleFunc("/markets/{symbol}/orderbook", s.handleGetOrderbook).Methods("GET")
	api.HandleFunc("/markets/{symbol}/orders/{side}/{id}", s.handleGetOrder).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the routes wrapped in CORS.
func (s *Server) Handler() http.Handler { return s.handler }

// Start serves until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.http = srv
	s.mu.Unlock()

	s.logger.Infow("api_server_starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Stop()
	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Preview runs one match request. Nothing is written to the book.
func (s *Server) Preview(req MatchRequest) (*MatchResponse, error) {
	p, err := DecodeMatchRequest(req, s.clock)
	if err != nil {
		return nil, err
	}

	makerMin, takerMin := s.makerMin, s.takerMin
	book := p.Book
	if p.Symbol != "" {
		m, err := s.markets.Get(p.Symbol)
		if err != nil {
			return nil, err
		}
		if err := m.CanMatch(); err != nil {
			return nil, err
		}
		if err := checkPair(m, p.Order); err != nil {
			return nil, err
		}
		makerMin, takerMin = m.Minimums()
		if !p.HasBook {
			if s.store == nil {
				return nil, fmt.Errorf("%w: no book store configured", errBadRequest)
			}
			if book, err = s.store.LoadBook(p.Symbol); err != nil {
				return nil, fmt.Errorf("failed to load book %s: %w", p.Symbol, err)
			}
		}
	}
	if p.MakerMinimum != nil {
		makerMin = p.MakerMinimum
	}
	if p.TakerMinimum != nil {
		takerMin = p.TakerMinimum
	}

	res, err := s.engine.Match(p.Order, book, makerMin, takerMin)
	if err != nil {
		return nil, err
	}
	resp := p.Response(res, s.engine.Unit())

	now := s.clock.Now()
	s.logMatch(now, p.Symbol, req.Order, resp)
	if p.Symbol != "" {
		s.hub.BroadcastToChannel("matches:"+p.Symbol, MatchUpdate{
			Type:      "match",
			Symbol:    p.Symbol,
			Result:    resp,
			Timestamp: now.UnixMilli(),
		})
	}
	return &resp, nil
}

// checkPair rejects orders whose assets are not the market's pair in the
// orientation their side implies.
func checkPair(m *market.Market, o *matching.Order) error {
	give, take := m.Base, m.Quote
	if o.Side == matching.Sell {
		give, take = m.Quote, m.Base
	}
	if o.GiveAsset != give || o.TakeAsset != take {
		return fmt.Errorf("%w: %s order does not trade %s", matching.ErrInvalidOrder, o.Side, m.Symbol)
	}
	return nil
}

// logMatch writes a match event to the journal
func (s *Server) logMatch(at time.Time, symbol string, order storage.OrderRecord, resp MatchResponse) {
	entry := map[string]any{
		"timestamp": at.Format(time.RFC3339Nano),
		"event":     "match",
		"symbol":    symbol,
		"order":     order,
		"result":    resp,
	}
	if err := s.journal.Append(entry); err != nil {
		s.logger.Warnw("journal_append_failed", "err", err)
	}
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON request", err.Error())
		return
	}

	resp, err := s.Preview(req)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.logger.Errorw("match_failed", "symbol", req.Symbol, "err", err)
		}
		respondError(w, status, http.StatusText(status), err.Error())
		return
	}
	s.logger.Debugw("match_previewed", "symbol", req.Symbol, "trades", len(resp.Trades), "rest", len(resp.Orders))
	respondJSON(w, resp)
}

func (s *Server) handleGetMarkets(w http.ResponseWriter, r *http.Request) {
	markets := s.markets.List()
	if r.URL.Query().Get("active") == "true" {
		markets = s.markets.ListActive()
	}
	response := make([]MarketInfo, len(markets))
	for i, m := range markets {
		response[i] = s.marketInfo(m)
	}
	respondJSON(w, response)
}

func (s *Server) handleGetMarket(w http.ResponseWriter, r *http.Request) {
	m, err := s.markets.Get(mux.Vars(r)["symbol"])
	if err != nil {
		respondError(w, http.StatusNotFound, "market not found", err.Error())
		return
	}
	respondJSON(w, s.marketInfo(m))
}

// handleUpdateStatus pauses or resumes matching on a market.
func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	var req StatusRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON request", err.Error())
		return
	}
	status, err := market.ParseStatus(req.Status)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid status", err.Error())
		return
	}
	if err := s.markets.UpdateStatus(symbol, status); err != nil {
		code := statusFor(err)
		respondError(w, code, http.StatusText(code), err.Error())
		return
	}
	m, err := s.markets.Get(symbol)
	if err != nil {
		respondError(w, http.StatusNotFound, "market not found", err.Error())
		return
	}
	s.logger.Infow("market_status_updated", "symbol", symbol, "status", m.Status.String())
	respondJSON(w, s.marketInfo(m))
}

func (s *Server) marketInfo(m *market.Market) MarketInfo {
	u := s.engine.Unit()
	maker, taker := m.Minimums()
	return MarketInfo{
		Symbol:       m.Symbol,
		BaseAsset:    m.Base.Hex(),
		QuoteAsset:   m.Quote.Hex(),
		Status:       m.Status.String(),
		MakerMinimum: amount.ToDecimal(maker, u).String(),
		TakerMinimum: amount.ToDecimal(taker, u).String(),
	}
}

func (s *Server) handleGetOrderbook(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	if _, err := s.markets.Get(symbol); err != nil {
		respondError(w, http.StatusNotFound, "market not found", err.Error())
		return
	}

	depth := defaultDepth
	if d := r.URL.Query().Get("depth"); d != "" {
		n, err := strconv.Atoi(d)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid depth", d)
			return
		}
		depth = n
	}

	if s.store == nil {
		respondError(w, http.StatusNotFound, "orderbook not found", symbol)
		return
	}
	book, err := s.store.LoadBook(symbol)
	if err != nil {
		s.logger.Errorw("book_load_failed", "symbol", symbol, "err", err)
		respondError(w, http.StatusInternalServerError, "failed to load orderbook", err.Error())
		return
	}

	u := s.engine.Unit()
	d := orderbook.Aggregate(book, u).Limit(depth)
	response := OrderbookSnapshot{
		Symbol:    symbol,
		Bids:      priceLevels(d.Bids, u),
		Asks:      priceLevels(d.Asks, u),
		Timestamp: s.clock.Now().UnixMilli(),
	}
	if mid, ok := d.MidPrice(); ok {
		response.MidPrice = amount.ToDecimal(mid, u).String()
	}
	respondJSON(w, response)
}

// handleGetOrder returns one resting order. The id may be a hash or the
// label the order was imported with.
func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if _, err := s.markets.Get(vars["symbol"]); err != nil {
		respondError(w, http.StatusNotFound, "market not found", err.Error())
		return
	}
	side, err := matching.ParseSide(vars["side"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid side", err.Error())
		return
	}
	if s.store == nil {
		respondError(w, http.StatusNotFound, "order not found", vars["id"])
		return
	}
	o, err := s.store.GetOrder(vars["symbol"], side, storage.ParseOrderID(vars["id"]))
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, "order not found", err.Error())
		return
	}
	if err != nil {
		s.logger.Errorw("order_load_failed", "symbol", vars["symbol"], "id", vars["id"], "err", err)
		respondError(w, http.StatusInternalServerError, "failed to load order", err.Error())
		return
	}
	respondJSON(w, storage.NewOrderRecord(o))
}

func priceLevels(levels []orderbook.PriceLevel, u amount.Unit) []PriceLevel {
	out := make([]PriceLevel, len(levels))
	for i, l := range levels {
		out[i] = PriceLevel{
			Price:  amount.ToDecimal(l.Price, u).String(),
			Size:   amount.ToDecimal(l.Size, u).String(),
			Orders: l.Orders,
		}
	}
	return out
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]any{
		"status":  "ok",
		"markets": s.markets.Count(),
		"clients": s.hub.ClientCount(),
	})
}

// ==============================
// Helper Functions
// ==============================

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, matching.ErrInvalidOrder),
		errors.Is(err, amount.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, market.ErrMarketNotFound):
		return http.StatusNotFound
	case errors.Is(err, market.ErrMarketPaused):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, data any) {
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
