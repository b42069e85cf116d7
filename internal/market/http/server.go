package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-platform-poc/internal/market/cache"
	"github.com/radieske/prediction-market-platform-poc/internal/market/dto"
	"github.com/radieske/prediction-market-platform-poc/internal/market/engine"
	"github.com/radieske/prediction-market-platform-poc/internal/market/settle"
	"github.com/radieske/prediction-market-platform-poc/pkg/contracts/events"
)

// Reader expõe as leituras de mercado/posições usadas pelos GETs
type Reader interface {
	GetMarket(ctx context.Context, marketID string) (*settle.Market, error)
	ListMarkets(ctx context.Context) ([]settle.Market, error)
	UserPositions(ctx context.Context, userID string) ([]settle.Position, error)
	GetPosition(ctx context.Context, positionID string) (*settle.Position, error)
}

// Publisher publica os eventos de domínio após o commit
type Publisher interface {
	PublishStakePlaced(ctx context.Context, e events.StakePlaced) error
	PublishMarketResolved(ctx context.Context, e events.MarketResolved) error
	PublishPositionCashedOut(ctx context.Context, e events.PositionCashedOut) error
}

// Server expõe a API pública do market-service: mercados, cotações,
// apostas, cashout e liquidação.
type Server struct {
	log    *zap.Logger
	settle *settle.Service
	reader Reader
	cache  *cache.MarketCache
	publ   Publisher
}

func NewServer(log *zap.Logger, s *settle.Service, r Reader, c *cache.MarketCache, p Publisher) *Server {
	return &Server{log: log, settle: s, reader: r, cache: c, publ: p}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/markets", s.createMarket)
	r.Get("/v1/markets", s.listMarkets)
	r.Get("/v1/markets/{id}", s.getMarket)
	r.Post("/v1/markets/{id}/close", s.closeMarket)
	r.Post("/v1/markets/{id}/resolve", s.resolveMarket)
	r.Post("/v1/stakes", s.placeStake)
	r.Get("/v1/positions", s.listPositions)
	r.Post("/v1/positions/{id}/cashout", s.cashout)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

// statusFor mapeia os erros sentinela do settle pra códigos HTTP
func statusFor(err error) int {
	switch {
	case errors.Is(err, settle.ErrMarketNotFound),
		errors.Is(err, settle.ErrPositionNotFound):
		return http.StatusNotFound
	case errors.Is(err, settle.ErrInvalidOutcome),
		errors.Is(err, settle.ErrBelowMinimumStake):
		return http.StatusBadRequest
	case errors.Is(err, settle.ErrMarketNotOpen),
		errors.Is(err, settle.ErrAlreadyResolved),
		errors.Is(err, settle.ErrPositionNotActive),
		errors.Is(err, settle.ErrCashoutUnavailable),
		errors.Is(err, settle.ErrInsufficientFunds),
		errors.Is(err, settle.ErrTxConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// marketToDTO monta a resposta de mercado com cotação corrente de
// cada lado (engine puro sobre os pools lidos).
func marketToDTO(m *settle.Market) dto.MarketResponse {
	resp := dto.MarketResponse{
		ID:               m.ID,
		Title:            m.Title,
		Status:           string(m.Status),
		TotalPoolCents:   m.TotalPoolCents,
		ResolutionResult: m.ResolutionResult,
		CreatedAt:        m.CreatedAt,
	}
	for _, label := range m.Outcomes {
		q, err := engine.QuoteOutcome(m.Pools, label)
		if err != nil {
			continue
		}
		resp.Outcomes = append(resp.Outcomes, dto.OutcomeQuote{
			Label:          label,
			PoolCents:      m.Pools[label],
			Probability:    q.Probability,
			OddsMultiplier: q.OddsMultiplier,
		})
	}
	return resp
}

// broadcast atualiza o cache e o canal pub/sub com o estado comitado.
// Erros aqui são só logados: a mutação já está durável no Postgres.
func (s *Server) broadcast(ctx context.Context, marketID string) {
	m, err := s.reader.GetMarket(ctx, marketID)
	if err != nil {
		s.log.Warn("broadcast read failed", zap.String("marketId", marketID), zap.Error(err))
		return
	}
	snapshot := marketToDTO(m)
	if err := s.cache.SetSnapshot(ctx, marketID, snapshot); err != nil {
		s.log.Warn("cache set failed", zap.Error(err))
	}
	if err := s.cache.Broadcast(ctx, marketID, snapshot); err != nil {
		s.log.Warn("pubsub publish failed", zap.Error(err))
	}
}

func (s *Server) createMarket(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateMarketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	m, err := s.settle.CreateMarket(r.Context(), req.Title, req.Outcomes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, marketToDTO(&m))
}

func (s *Server) listMarkets(w http.ResponseWriter, r *http.Request) {
	markets, err := s.reader.ListMarkets(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]dto.MarketResponse, 0, len(markets))
	for i := range markets {
		out = append(out, dto.MarketResponse{
			ID:             markets[i].ID,
			Title:          markets[i].Title,
			Status:         string(markets[i].Status),
			TotalPoolCents: markets[i].TotalPoolCents,
			CreatedAt:      markets[i].CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getMarket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var cached dto.MarketResponse
	if ok, _ := s.cache.GetSnapshot(r.Context(), id, &cached); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	m, err := s.reader.GetMarket(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := marketToDTO(m)
	_ = s.cache.SetSnapshot(r.Context(), id, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) closeMarket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.settle.CloseMarket(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	s.broadcast(r.Context(), id)
	writeJSON(w, http.StatusOK, map[string]string{"marketId": id, "status": string(settle.MarketClosed)})
}

func (s *Server) placeStake(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceStakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.MarketID == "" || req.Outcome == "" || req.AmountCents <= 0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	pos, newBalance, err := s.settle.PlaceStake(r.Context(), req.UserID, req.MarketID, req.Outcome, req.AmountCents)
	if err != nil {
		stakeRejections.WithLabelValues(rejectionReason(err)).Inc()
		writeError(w, err)
		return
	}
	stakesPlaced.Inc()
	stakeVolumeCents.Add(float64(req.AmountCents))

	_ = s.publ.PublishStakePlaced(r.Context(), events.StakePlaced{
		PositionID:      pos.ID,
		UserID:          pos.UserID,
		MarketID:        pos.MarketID,
		Outcome:         pos.Outcome,
		AmountCents:     pos.AmountCents,
		OddsAtEntry:     pos.OddsAtEntry,
		PotentialCents:  pos.PotentialPayoutCents,
		NewBalanceCents: newBalance,
	})
	s.broadcast(r.Context(), pos.MarketID)

	writeJSON(w, http.StatusCreated, dto.PlaceStakeResponse{
		PositionID:           pos.ID,
		Status:               string(pos.Status),
		OddsAtEntry:          pos.OddsAtEntry,
		PotentialPayoutCents: pos.PotentialPayoutCents,
		NewBalanceCents:      newBalance,
	})
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, settle.ErrMarketNotOpen):
		return "market_not_open"
	case errors.Is(err, settle.ErrInvalidOutcome):
		return "invalid_outcome"
	case errors.Is(err, settle.ErrBelowMinimumStake):
		return "below_minimum"
	case errors.Is(err, settle.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, settle.ErrTxConflict):
		return "tx_conflict"
	default:
		return "other"
	}
}

func (s *Server) resolveMarket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req dto.ResolveMarketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Outcome == "" {
		http.Error(w, "outcome required", http.StatusBadRequest)
		return
	}

	summary, err := s.settle.ResolveMarket(r.Context(), id, req.Outcome)
	if err != nil {
		writeError(w, err)
		return
	}
	marketsResolved.Inc()
	payoutsPaidCents.Add(float64(summary.TotalPaidCents))

	_ = s.publ.PublishMarketResolved(r.Context(), events.MarketResolved{
		MarketID:       summary.MarketID,
		Result:         summary.Result,
		WinnersPaid:    summary.WinnersPaid,
		LosersSettled:  summary.LosersSettled,
		TotalPaidCents: summary.TotalPaidCents,
		TotalPoolCents: summary.TotalPoolCents,
	})
	s.broadcast(r.Context(), id)

	writeJSON(w, http.StatusOK, dto.ResolveMarketResponse{
		MarketID:       summary.MarketID,
		Result:         summary.Result,
		WinnersPaid:    summary.WinnersPaid,
		LosersSettled:  summary.LosersSettled,
		TotalPaidCents: summary.TotalPaidCents,
		TotalPoolCents: summary.TotalPoolCents,
	})
}

func (s *Server) listPositions(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId required", http.StatusBadRequest)
		return
	}
	positions, err := s.reader.UserPositions(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]dto.PositionResponse, 0, len(positions))
	for i := range positions {
		p := &positions[i]
		out = append(out, dto.PositionResponse{
			PositionID:           p.ID,
			MarketID:             p.MarketID,
			Outcome:              p.Outcome,
			AmountCents:          p.AmountCents,
			OddsAtEntry:          p.OddsAtEntry,
			PotentialPayoutCents: p.PotentialPayoutCents,
			Status:               string(p.Status),
			CreatedAt:            p.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// notifyCashout publica o evento e o snapshot pós-commit. O evento
// precisa do marketId/userId, então relê a posição já terminal; falha
// na releitura é só logada — o crédito já está durável no Postgres.
func (s *Server) notifyCashout(ctx context.Context, positionID string, valueCents int64) {
	p, err := s.reader.GetPosition(ctx, positionID)
	if err != nil {
		s.log.Warn("cashout post-commit read failed", zap.String("positionId", positionID), zap.Error(err))
		return
	}
	_ = s.publ.PublishPositionCashedOut(ctx, events.PositionCashedOut{
		PositionID: p.ID,
		UserID:     p.UserID,
		MarketID:   p.MarketID,
		ValueCents: valueCents,
	})
	s.broadcast(ctx, p.MarketID)
}

func (s *Server) cashout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	value, newBalance, err := s.settle.Cashout(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	cashoutsExecuted.Inc()

	s.notifyCashout(r.Context(), id, value)

	writeJSON(w, http.StatusOK, dto.CashoutResponse{
		PositionID:      id,
		Status:          string(settle.PositionCashedOut),
		ValueCents:      value,
		NewBalanceCents: newBalance,
	})
}
