package settle_test

import (
	"context"
	"sync"

	"github.com/radieske/prediction-market-platform-poc/internal/market/settle"
)

// memStore é um settle.Store em memória pros testes: uma transação por
// vez (lock global) com rollback por snapshot, imitando a semântica
// tudo-ou-nada do Postgres.
type memStore struct {
	mu        sync.Mutex
	markets   map[string]*settle.Market
	positions map[string]*settle.Position
	posOrder  []string
	balances  map[string]int64
	ledger    []ledgerRow

	// injeção de falhas
	conflictsLeft int   // devolve ErrTxConflict nas próximas N transações
	failOp        error // ApplyBalanceDelta falha com esse erro quando setado
	failOpUser    string
}

type ledgerRow struct {
	userID string
	op     settle.LedgerOp
	amount int64
	ref    string
}

func newMemStore() *memStore {
	return &memStore{
		markets:   map[string]*settle.Market{},
		positions: map[string]*settle.Position{},
		balances:  map[string]int64{},
	}
}

type memSnapshot struct {
	markets   map[string]*settle.Market
	positions map[string]*settle.Position
	posOrder  []string
	balances  map[string]int64
	ledger    []ledgerRow
}

func copyMarket(m *settle.Market) *settle.Market {
	c := *m
	c.Outcomes = append([]string(nil), m.Outcomes...)
	c.Pools = make(map[string]int64, len(m.Pools))
	for k, v := range m.Pools {
		c.Pools[k] = v
	}
	if m.ResolvedAt != nil {
		t := *m.ResolvedAt
		c.ResolvedAt = &t
	}
	return &c
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		markets:   make(map[string]*settle.Market, len(s.markets)),
		positions: make(map[string]*settle.Position, len(s.positions)),
		posOrder:  append([]string(nil), s.posOrder...),
		balances:  make(map[string]int64, len(s.balances)),
		ledger:    append([]ledgerRow(nil), s.ledger...),
	}
	for id, m := range s.markets {
		snap.markets[id] = copyMarket(m)
	}
	for id, p := range s.positions {
		c := *p
		snap.positions[id] = &c
	}
	for u, b := range s.balances {
		snap.balances[u] = b
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.markets = snap.markets
	s.positions = snap.positions
	s.posOrder = snap.posOrder
	s.balances = snap.balances
	s.ledger = snap.ledger
}

func (s *memStore) WithinTx(_ context.Context, fn func(tx settle.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conflictsLeft > 0 {
		s.conflictsLeft--
		return settle.ErrTxConflict
	}

	snap := s.snapshot()
	if err := fn(&memTx{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// helpers de seed (fora de transação)

func (s *memStore) seedMarket(m *settle.Market) {
	s.markets[m.ID] = copyMarket(m)
}

func (s *memStore) setBalance(userID string, cents int64) {
	s.balances[userID] = cents
}

func (s *memStore) market(id string) *settle.Market { return copyMarket(s.markets[id]) }

func (s *memStore) position(id string) settle.Position { return *s.positions[id] }

func (s *memStore) ledgerOps(userID string) []ledgerRow {
	var out []ledgerRow
	for _, row := range s.ledger {
		if row.userID == userID {
			out = append(out, row)
		}
	}
	return out
}

type memTx struct{ s *memStore }

func (t *memTx) MarketForUpdate(_ context.Context, marketID string) (*settle.Market, error) {
	m, ok := t.s.markets[marketID]
	if !ok {
		return nil, settle.ErrMarketNotFound
	}
	return copyMarket(m), nil
}

func (t *memTx) InsertMarket(_ context.Context, m *settle.Market) error {
	t.s.markets[m.ID] = copyMarket(m)
	return nil
}

func (t *memTx) SetMarketStatus(_ context.Context, marketID string, status settle.MarketStatus) error {
	m, ok := t.s.markets[marketID]
	if !ok {
		return settle.ErrMarketNotFound
	}
	m.Status = status
	return nil
}

func (t *memTx) MarkResolved(_ context.Context, marketID, result string) error {
	m, ok := t.s.markets[marketID]
	if !ok {
		return settle.ErrMarketNotFound
	}
	m.Status = settle.MarketResolved
	m.ResolutionResult = result
	return nil
}

func (t *memTx) AddToPool(_ context.Context, marketID, outcome string, deltaCents int64) error {
	m, ok := t.s.markets[marketID]
	if !ok {
		return settle.ErrMarketNotFound
	}
	if _, ok := m.Pools[outcome]; !ok {
		return settle.ErrInvalidOutcome
	}
	m.Pools[outcome] += deltaCents
	m.TotalPoolCents += deltaCents
	return nil
}

func (t *memTx) Position(_ context.Context, positionID string) (*settle.Position, error) {
	p, ok := t.s.positions[positionID]
	if !ok {
		return nil, settle.ErrPositionNotFound
	}
	c := *p
	return &c, nil
}

func (t *memTx) PositionForUpdate(ctx context.Context, positionID string) (*settle.Position, error) {
	return t.Position(ctx, positionID)
}

func (t *memTx) InsertPosition(_ context.Context, p *settle.Position) error {
	c := *p
	t.s.positions[p.ID] = &c
	t.s.posOrder = append(t.s.posOrder, p.ID)
	return nil
}

func (t *memTx) SetPositionStatus(_ context.Context, positionID string, status settle.PositionStatus) error {
	p, ok := t.s.positions[positionID]
	if !ok {
		return settle.ErrPositionNotFound
	}
	p.Status = status
	return nil
}

func (t *memTx) ActivePositions(_ context.Context, marketID string) ([]settle.Position, error) {
	var out []settle.Position
	for _, id := range t.s.posOrder {
		p := t.s.positions[id]
		if p.MarketID == marketID && p.Status == settle.PositionActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (t *memTx) BalanceForUpdate(_ context.Context, userID string) (int64, error) {
	return t.s.balances[userID], nil
}

func (t *memTx) ApplyBalanceDelta(_ context.Context, userID string, deltaCents int64, op settle.LedgerOp, ref string) (int64, error) {
	if t.s.failOp != nil && userID == t.s.failOpUser {
		return 0, t.s.failOp
	}
	newBalance := t.s.balances[userID] + deltaCents
	if newBalance < 0 {
		return 0, settle.ErrInsufficientFunds
	}
	t.s.balances[userID] = newBalance
	t.s.ledger = append(t.s.ledger, ledgerRow{userID: userID, op: op, amount: deltaCents, ref: ref})
	return newBalance, nil
}
