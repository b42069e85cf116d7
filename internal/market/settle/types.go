package settle

import "time"

type MarketStatus string

const (
	MarketOpen     MarketStatus = "OPEN"
	MarketClosed   MarketStatus = "CLOSED"
	MarketResolved MarketStatus = "RESOLVED"
)

type PositionStatus string

const (
	PositionActive    PositionStatus = "ACTIVE"
	PositionWon       PositionStatus = "WON"
	PositionLost      PositionStatus = "LOST"
	PositionCashedOut PositionStatus = "CASHED_OUT"
)

// LedgerOp é o tipo da entrada no razão (wallet_ledger), append-only.
type LedgerOp string

const (
	OpDeposit   LedgerOp = "DEPOSIT"
	OpWithdraw  LedgerOp = "WITHDRAW"
	OpBetPlaced LedgerOp = "BET_PLACED"
	OpPayout    LedgerOp = "PAYOUT"
	OpCashout   LedgerOp = "CASHOUT"
)

// Market é o estado autorizado de um mercado: conjunto fechado e
// ordenado de resultados, pool por resultado e status.
// Invariante: TotalPoolCents == soma de Pools.
type Market struct {
	ID               string
	Title            string
	Outcomes         []string // ordem de criação, imutável
	Pools            map[string]int64
	TotalPoolCents   int64
	Status           MarketStatus
	ResolutionResult string // preenchido só quando RESOLVED
	CreatedAt        time.Time
	ResolvedAt       *time.Time
}

// HasOutcome valida pertencimento ao conjunto fechado de resultados.
func (m *Market) HasOutcome(outcome string) bool {
	for _, o := range m.Outcomes {
		if o == outcome {
			return true
		}
	}
	return false
}

// Position é uma aposta individual. OddsAtEntry e PotentialPayoutCents
// são congelados na criação; movimentos posteriores do pool nunca
// alteram uma posição já aberta.
type Position struct {
	ID                   string
	UserID               string
	MarketID             string
	Outcome              string
	AmountCents          int64
	OddsAtEntry          float64
	PotentialPayoutCents int64
	Status               PositionStatus
	CreatedAt            time.Time
}

// ResolutionSummary é o resultado de uma liquidação de mercado.
type ResolutionSummary struct {
	MarketID       string
	Result         string
	WinnersPaid    int
	LosersSettled  int
	TotalPaidCents int64
	TotalPoolCents int64
}
