package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/radieske/prediction-market-platform-poc/internal/market/settle"
)

// Postgres implementa settle.Store sobre um banco Postgres.
// Cada WithinTx vira um *sql.Tx; locks pessimistas por linha (FOR
// UPDATE) serializam apostas concorrentes no mesmo mercado/carteira.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// WithinTx roda fn dentro de uma transação e traduz falhas de
// serialização/deadlock do Postgres pra settle.ErrTxConflict, que o
// settle usa pra decidir retry.
func (p *Postgres) WithinTx(ctx context.Context, fn func(tx settle.Tx) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return mapConflict(err)
	}
	if err := tx.Commit(); err != nil {
		return mapConflict(err)
	}
	return nil
}

// mapConflict converte SQLSTATE 40001 (serialization_failure) e 40P01
// (deadlock_detected) em ErrTxConflict
func mapConflict(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == "40001" || pqErr.Code == "40P01" {
			return fmt.Errorf("%w: %v", settle.ErrTxConflict, err)
		}
	}
	return err
}

type pgTx struct{ tx *sql.Tx }

func (t *pgTx) MarketForUpdate(ctx context.Context, marketID string) (*settle.Market, error) {
	m := settle.Market{ID: marketID, Pools: map[string]int64{}}
	var result sql.NullString
	var resolvedAt sql.NullTime
	err := t.tx.QueryRowContext(ctx, `
		SELECT title, status, resolution_result, total_pool_cents, created_at, resolved_at
		FROM markets WHERE id=$1 FOR UPDATE`, marketID).
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

	rows, err := t.tx.QueryContext(ctx, `
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

func (t *pgTx) InsertMarket(ctx context.Context, m *settle.Market) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO markets (id, title, status, total_pool_cents, created_at)
		VALUES ($1,$2,$3,0,$4)`, m.ID, m.Title, m.Status, m.CreatedAt)
	if err != nil {
		return err
	}
	for i, label := range m.Outcomes {
		if _, err := t.tx.ExecContext(ctx, `
			INSERT INTO market_outcomes (market_id, label, ord, pool_cents)
			VALUES ($1,$2,$3,0)`, m.ID, label, i); err != nil {
			return err
		}
	}
	return nil
}

func (t *pgTx) SetMarketStatus(ctx context.Context, marketID string, status settle.MarketStatus) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE markets SET status=$1 WHERE id=$2`, status, marketID)
	return err
}

func (t *pgTx) MarkResolved(ctx context.Context, marketID, result string) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE markets SET status='RESOLVED', resolution_result=$1, resolved_at=NOW()
		WHERE id=$2`, result, marketID)
	return err
}

// AddToPool incrementa o pool do resultado e o total do mercado na
// mesma transação, preservando total_pool == soma dos pools.
func (t *pgTx) AddToPool(ctx context.Context, marketID, outcome string, deltaCents int64) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE market_outcomes SET pool_cents = pool_cents + $1
		WHERE market_id=$2 AND label=$3`, deltaCents, marketID, outcome)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return settle.ErrInvalidOutcome
	}
	_, err = t.tx.ExecContext(ctx, `
		UPDATE markets SET total_pool_cents = total_pool_cents + $1
		WHERE id=$2`, deltaCents, marketID)
	return err
}

func (t *pgTx) Position(ctx context.Context, positionID string) (*settle.Position, error) {
	return t.scanPosition(ctx, positionID, false)
}

func (t *pgTx) PositionForUpdate(ctx context.Context, positionID string) (*settle.Position, error) {
	return t.scanPosition(ctx, positionID, true)
}

func (t *pgTx) scanPosition(ctx context.Context, positionID string, forUpdate bool) (*settle.Position, error) {
	q := `
		SELECT user_id, market_id, outcome, amount_cents, odds_at_entry, potential_payout_cents, status, created_at
		FROM positions WHERE id=$1`
	if forUpdate {
		q += ` FOR UPDATE`
	}
	p := settle.Position{ID: positionID}
	err := t.tx.QueryRowContext(ctx, q, positionID).
		Scan(&p.UserID, &p.MarketID, &p.Outcome, &p.AmountCents, &p.OddsAtEntry,
			&p.PotentialPayoutCents, &p.Status, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, settle.ErrPositionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (t *pgTx) InsertPosition(ctx context.Context, p *settle.Position) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO positions
		  (id, user_id, market_id, outcome, amount_cents, odds_at_entry, potential_payout_cents, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.ID, p.UserID, p.MarketID, p.Outcome, p.AmountCents, p.OddsAtEntry,
		p.PotentialPayoutCents, p.Status, p.CreatedAt)
	return err
}

func (t *pgTx) SetPositionStatus(ctx context.Context, positionID string, status settle.PositionStatus) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE positions SET status=$1, updated_at=NOW() WHERE id=$2`, status, positionID)
	return err
}

func (t *pgTx) ActivePositions(ctx context.Context, marketID string) ([]settle.Position, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, user_id, market_id, outcome, amount_cents, odds_at_entry, potential_payout_cents, status, created_at
		FROM positions
		WHERE market_id=$1 AND status='ACTIVE'
		ORDER BY created_at
		FOR UPDATE`, marketID)
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

// BalanceForUpdate retorna o saldo segurando lock na linha da
// carteira, criando a carteira zerada se não existir (padrão
// get-or-create do wallet-service).
func (t *pgTx) BalanceForUpdate(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := t.tx.QueryRowContext(ctx,
		`SELECT balance_cents FROM wallets WHERE user_id=$1 FOR UPDATE`, userID).Scan(&balance)
	if err == sql.ErrNoRows {
		if _, err := t.tx.ExecContext(ctx,
			`INSERT INTO wallets(id, user_id, balance_cents, version) VALUES($1,$2,0,1)`,
			uuid.NewString(), userID); err != nil {
			return 0, err
		}
		return 0, nil
	}
	return balance, err
}

// ApplyBalanceDelta muta o saldo e registra no razão em um passo.
// Débito que deixaria o saldo negativo falha com ErrInsufficientFunds
// antes de qualquer escrita.
func (t *pgTx) ApplyBalanceDelta(ctx context.Context, userID string, deltaCents int64, op settle.LedgerOp, ref string) (int64, error) {
	var walletID string
	var balance int64
	err := t.tx.QueryRowContext(ctx,
		`SELECT id, balance_cents FROM wallets WHERE user_id=$1 FOR UPDATE`, userID).
		Scan(&walletID, &balance)
	if err == sql.ErrNoRows {
		walletID = uuid.NewString()
		if _, err := t.tx.ExecContext(ctx,
			`INSERT INTO wallets(id, user_id, balance_cents, version) VALUES($1,$2,0,1)`,
			walletID, userID); err != nil {
			return 0, err
		}
		balance = 0
	} else if err != nil {
		return 0, err
	}

	newBalance := balance + deltaCents
	if newBalance < 0 {
		return 0, settle.ErrInsufficientFunds
	}

	if _, err := t.tx.ExecContext(ctx,
		`UPDATE wallets SET balance_cents=$1, version=version+1 WHERE id=$2`,
		newBalance, walletID); err != nil {
		return 0, err
	}
	if _, err := t.tx.ExecContext(ctx, `
		INSERT INTO wallet_ledger(wallet_id, operation_type, amount_cents, reference)
		VALUES($1,$2,$3,$4)`, walletID, op, deltaCents, ref); err != nil {
		return 0, err
	}
	return newBalance, nil
}
