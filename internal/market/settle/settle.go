package settle

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/radieske/prediction-market-platform-poc/internal/market/engine"
)

// Tentativas por operação em caso de conflito de serialização.
const txRetries = 3

// Service orquestra as operações de aposta, cashout e liquidação sobre
// o Store transacional. Toda mutação de saldo/pool/posição acontece
// dentro de uma única transação do store; o service nunca segura
// estado entre chamadas.
type Service struct {
	store Store
	now   func() time.Time
}

func New(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// withRetry re-executa fn em conflitos de serialização (stakes e
// cashouts). Cada retry relê o estado do zero — cotação velha nunca é
// reaproveitada.
func (s *Service) withRetry(ctx context.Context, fn func(tx Tx) error) error {
	var err error
	for attempt := 0; attempt < txRetries; attempt++ {
		err = s.store.WithinTx(ctx, fn)
		if !errors.Is(err, ErrTxConflict) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(20*(attempt+1)) * time.Millisecond):
		}
	}
	return err
}

// CreateMarket abre um mercado com todos os pools zerados.
// Exige pelo menos dois resultados distintos e não vazios.
func (s *Service) CreateMarket(ctx context.Context, title string, outcomes []string) (Market, error) {
	if strings.TrimSpace(title) == "" {
		return Market{}, ErrInvalidOutcome
	}
	// Labels são normalizados (trim) antes de persistir: o rótulo
	// validado é exatamente o rótulo apostável.
	labels := make([]string, 0, len(outcomes))
	seen := make(map[string]struct{}, len(outcomes))
	for _, o := range outcomes {
		o = strings.TrimSpace(o)
		if o == "" {
			return Market{}, ErrInvalidOutcome
		}
		if _, dup := seen[o]; dup {
			return Market{}, ErrInvalidOutcome
		}
		seen[o] = struct{}{}
		labels = append(labels, o)
	}
	if len(labels) < 2 {
		return Market{}, ErrInvalidOutcome
	}

	pools := make(map[string]int64, len(labels))
	for _, o := range labels {
		pools[o] = 0
	}
	m := Market{
		ID:        uuid.NewString(),
		Title:     title,
		Outcomes:  labels,
		Pools:     pools,
		Status:    MarketOpen,
		CreatedAt: s.now().UTC(),
	}

	err := s.store.WithinTx(ctx, func(tx Tx) error {
		return tx.InsertMarket(ctx, &m)
	})
	if err != nil {
		return Market{}, err
	}
	return m, nil
}

// CloseMarket encerra a janela de apostas (OPEN -> CLOSED) sem liquidar.
func (s *Service) CloseMarket(ctx context.Context, marketID string) error {
	return s.store.WithinTx(ctx, func(tx Tx) error {
		m, err := tx.MarketForUpdate(ctx, marketID)
		if err != nil {
			return err
		}
		if m.Status == MarketResolved {
			return ErrAlreadyResolved
		}
		if m.Status != MarketOpen {
			return ErrMarketNotOpen
		}
		return tx.SetMarketStatus(ctx, marketID, MarketClosed)
	})
}

// PlaceStake executa a aposta como unidade atômica: valida, congela a
// odd a partir do snapshot de pool lido NA MESMA transação, debita o
// saldo, grava a posição e incrementa o pool. Qualquer rejeição
// acontece antes de qualquer escrita.
func (s *Service) PlaceStake(ctx context.Context, userID, marketID, outcome string, amountCents int64) (Position, int64, error) {
	if amountCents < engine.MinimumStakeCents {
		return Position{}, 0, ErrBelowMinimumStake
	}

	var (
		pos        Position
		newBalance int64
	)
	err := s.withRetry(ctx, func(tx Tx) error {
		m, err := tx.MarketForUpdate(ctx, marketID)
		if err != nil {
			return err
		}
		if m.Status != MarketOpen {
			return ErrMarketNotOpen
		}
		if !m.HasOutcome(outcome) {
			return ErrInvalidOutcome
		}

		balance, err := tx.BalanceForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if balance < amountCents {
			return ErrInsufficientFunds
		}

		quote, err := engine.QuoteOutcome(m.Pools, outcome)
		if err != nil {
			return ErrInvalidOutcome
		}

		pos = Position{
			ID:                   uuid.NewString(),
			UserID:               userID,
			MarketID:             marketID,
			Outcome:              outcome,
			AmountCents:          amountCents,
			OddsAtEntry:          quote.OddsMultiplier,
			PotentialPayoutCents: engine.PotentialPayout(amountCents, quote.OddsMultiplier),
			Status:               PositionActive,
			CreatedAt:            s.now().UTC(),
		}

		newBalance, err = tx.ApplyBalanceDelta(ctx, userID, -amountCents, OpBetPlaced, pos.ID)
		if err != nil {
			return err
		}
		if err := tx.InsertPosition(ctx, &pos); err != nil {
			return err
		}
		return tx.AddToPool(ctx, marketID, outcome, amountCents)
	})
	if err != nil {
		return Position{}, 0, err
	}
	return pos, newBalance, nil
}

// ResolveMarket liquida o mercado em lote, tudo-ou-nada: cada posição
// ACTIVE do lado vencedor recebe o payout CONGELADO na entrada (nunca
// recalculado com o pool final), as demais viram LOST, e o mercado
// fica RESOLVED. Segunda chamada falha com ErrAlreadyResolved — sem
// retry, sem pagamento dobrado.
func (s *Service) ResolveMarket(ctx context.Context, marketID, winningOutcome string) (ResolutionSummary, error) {
	var summary ResolutionSummary
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		m, err := tx.MarketForUpdate(ctx, marketID)
		if err != nil {
			return err
		}
		if m.Status == MarketResolved {
			return ErrAlreadyResolved
		}
		if !m.HasOutcome(winningOutcome) {
			return ErrInvalidOutcome
		}

		positions, err := tx.ActivePositions(ctx, marketID)
		if err != nil {
			return err
		}

		summary = ResolutionSummary{
			MarketID:       marketID,
			Result:         winningOutcome,
			TotalPoolCents: m.TotalPoolCents,
		}
		for i := range positions {
			p := &positions[i]
			if p.Outcome == winningOutcome {
				if _, err := tx.ApplyBalanceDelta(ctx, p.UserID, p.PotentialPayoutCents, OpPayout, p.ID); err != nil {
					return err
				}
				if err := tx.SetPositionStatus(ctx, p.ID, PositionWon); err != nil {
					return err
				}
				summary.WinnersPaid++
				summary.TotalPaidCents += p.PotentialPayoutCents
			} else {
				if err := tx.SetPositionStatus(ctx, p.ID, PositionLost); err != nil {
					return err
				}
				summary.LosersSettled++
			}
		}

		return tx.MarkResolved(ctx, marketID, winningOutcome)
	})
	if err != nil {
		return ResolutionSummary{}, err
	}
	return summary, nil
}

// Cashout encerra uma posição ativa pelo preço corrente: payout
// congelado × probabilidade atual do lado, menos a taxa. Só disponível
// com mercado OPEN; valor zero rejeita sem criar transação.
func (s *Service) Cashout(ctx context.Context, positionID string) (valueCents int64, newBalanceCents int64, err error) {
	err = s.withRetry(ctx, func(tx Tx) error {
		// Leitura sem lock só pra descobrir o mercado; o lock segue a
		// ordem fixa mercado -> posição -> carteira.
		peek, err := tx.Position(ctx, positionID)
		if err != nil {
			return err
		}

		m, err := tx.MarketForUpdate(ctx, peek.MarketID)
		if err != nil {
			return err
		}
		if m.Status != MarketOpen {
			return ErrMarketNotOpen
		}

		pos, err := tx.PositionForUpdate(ctx, positionID)
		if err != nil {
			return err
		}
		if pos.Status != PositionActive {
			return ErrPositionNotActive
		}

		valueCents = engine.CashoutValue(pos.PotentialPayoutCents, m.Pools[pos.Outcome], m.TotalPoolCents)
		if valueCents <= 0 {
			return ErrCashoutUnavailable
		}

		newBalanceCents, err = tx.ApplyBalanceDelta(ctx, pos.UserID, valueCents, OpCashout, pos.ID)
		if err != nil {
			return err
		}
		return tx.SetPositionStatus(ctx, positionID, PositionCashedOut)
	})
	if err != nil {
		return 0, 0, err
	}
	return valueCents, newBalanceCents, nil
}
