package repo

import (
	"context"
	"database/sql"

	"github.com/radieske/prediction-market-platform-poc/internal/market/settle"
)

// Leituras fora de transação, usadas pelos endpoints GET. Não seguram
// lock: quem precisa de snapshot consistente pra mutação usa WithinTx.

func (p *Postgres) GetMarket(ctx context.Context, marketID string) (*settle.Market, error) {
	m := settle.Market{ID: marketID, Pools: map[string]int64{}}
	var result sql.NullString
	var resolvedAt sql.NullTime
	err := p.db.QueryRowContext(ctx, `
		SELECT title, status, resolution_result, total_pool_cents, created_at, resolved_at
		FROM markets WHERE id=$1`, marketID).
		Scan(&m.Title, &m.Status, &result, &m.TotalPoolCents, &m.CreatedAt, &resolvedAt)
	if err == sql.ErrNoRows {
		return nil, settle.ErrMarketNotFound
	}
	if err != nil {
		return nil, err
	}
	if result.Valid {
		m.ResolutionResult = result.String
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		m.ResolvedAt = &t
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT label, pool_cents FROM market_outcomes
		WHERE market_id=$1 ORDER BY ord`, marketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var label string
		var pool int64
		if err := rows.Scan(&label, &pool); err != nil {
			return nil, err
		}
		m.Outcomes = append(m.Outcomes, label)
		m.Pools[label] = pool
	}
	return &m, rows.Err()
}

func (p *Postgres) ListMarkets(ctx context.Context) ([]settle.Market, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, title, status, total_pool_cents, created_at
		FROM markets ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []settle.Market
	for rows.Next() {
		var m settle.Market
		if err := rows.Scan(&m.ID, &m.Title, &m.Status, &m.TotalPoolCents, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (p *Postgres) GetPosition(ctx context.Context, positionID string) (*settle.Position, error) {
	pos := settle.Position{ID: positionID}
	err := p.db.QueryRowContext(ctx, `
		SELECT user_id, market_id, outcome, amount_cents, odds_at_entry, potential_payout_cents, status, created_at
		FROM positions WHERE id=$1`, positionID).
		Scan(&pos.UserID, &pos.MarketID, &pos.Outcome, &pos.AmountCents, &pos.OddsAtEntry,
			&pos.PotentialPayoutCents, &pos.Status, &pos.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, settle.ErrPositionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pos, nil
}

func (p *Postgres) UserPositions(ctx context.Context, userID string) ([]settle.Position, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, user_id, market_id, outcome, amount_cents, odds_at_entry, potential_payout_cents, status, created_at
		FROM positions WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []settle.Position
	for rows.Next() {
		var p settle.Position
		if err := rows.Scan(&p.ID, &p.UserID, &p.MarketID, &p.Outcome, &p.AmountCents,
			&p.OddsAtEntry, &p.PotentialPayoutCents, &p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
