package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/radieske/prediction-market-platform-poc/internal/pix"
	"github.com/radieske/prediction-market-platform-poc/internal/wallet/dto"
	"github.com/radieske/prediction-market-platform-poc/internal/wallet/repo"
)

// Repo define a interface de operações de carteira usadas pelo handler HTTP
type Repo interface {
	GetOrCreateWallet(ctx context.Context, userID string) (walletID string, balance int64, err error)
	CreatePendingDeposit(ctx context.Context, chargeID, userID string, amountCents int64, qrPayload string) error
	Withdraw(ctx context.Context, userID string, amountCents int64, externalRef string) (newBalance int64, err error)
	Ledger(ctx context.Context, userID string, limit int) ([]repo.LedgerEntry, error)
}

// Gateway é o adaptador do provedor PIX
type Gateway interface {
	CreateCharge(ctx context.Context, userID string, amountCents int64) (pix.Charge, error)
}

// Server expõe endpoints HTTP para operações de carteira (wallet)
type Server struct {
	log  *zap.Logger
	repo Repo
	pix  Gateway
}

// NewServer instancia o servidor HTTP de wallet
func NewServer(log *zap.Logger, r Repo, g Gateway) *Server {
	return &Server{log: log, repo: r, pix: g}
}

// Router retorna o mux HTTP com as rotas da API de wallet
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/wallet", s.getWallet)
	mux.HandleFunc("/wallet/deposit/pix", s.depositPix)
	mux.HandleFunc("/wallet/withdraw", s.withdraw)
	mux.HandleFunc("/wallet/ledger", s.ledger)
	return mux
}

// getWallet retorna (ou cria) a carteira e saldo do usuário
func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId required", http.StatusBadRequest)
		return
	}
	walletID, bal, err := s.repo.GetOrCreateWallet(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, dto.WalletResponse{UserID: userID, WalletID: walletID, BalanceCents: bal})
}

// depositPix cria uma cobrança no provedor PIX e registra o depósito
// PENDING. O saldo só muda quando a confirmação assíncrona chegar.
func (s *Server) depositPix(w http.ResponseWriter, r *http.Request) {
	var req dto.PixDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.AmountCents <= 0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	charge, err := s.pix.CreateCharge(r.Context(), req.UserID, req.AmountCents)
	if err != nil {
		s.log.Warn("pix create charge failed", zap.Error(err))
		http.Error(w, "pix gateway unavailable", http.StatusBadGateway)
		return
	}

	if err := s.repo.CreatePendingDeposit(r.Context(), charge.ChargeID, req.UserID, req.AmountCents, charge.QRPayload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, dto.PixChargeResponse{
		ChargeID:    charge.ChargeID,
		QRPayload:   charge.QRPayload,
		AmountCents: req.AmountCents,
		Status:      "PENDING",
	})
}

// withdraw debita saldo do usuário; nunca deixa a carteira negativa
func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	var req dto.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.AmountCents <= 0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	newBalance, err := s.repo.Withdraw(r.Context(), req.UserID, req.AmountCents, req.ExternalRef)
	if err != nil {
		if errors.Is(err, repo.ErrInsufficientFunds) {
			http.Error(w, "insufficient funds", http.StatusConflict)
			return
		}
		if errors.Is(err, repo.ErrNotFound) {
			http.Error(w, "wallet not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, dto.WithdrawResponse{UserID: req.UserID, NewBalanceCents: newBalance})
}

// ledger retorna o extrato (razão) da carteira do usuário
func (s *Server) ledger(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId required", http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := s.repo.Ledger(r.Context(), userID, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]dto.LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.LedgerEntryResponse{
			ID:            e.ID,
			OperationType: e.OperationType,
			AmountCents:   e.AmountCents,
			Reference:     e.Reference,
			CreatedAt:     e.CreatedAt,
		})
	}
	writeJSON(w, out)
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
