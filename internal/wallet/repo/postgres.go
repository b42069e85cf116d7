package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Postgres implementa operações de carteira em banco
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("not found")
)

// LedgerEntry é uma linha do razão (extrato) da carteira.
type LedgerEntry struct {
	ID            int64
	OperationType string
	AmountCents   int64
	Reference     string
	CreatedAt     time.Time
}

// walletTx é a visão transacional das escritas de carteira. As
// decisões do fluxo (crédito idempotente por charge_id, saldo nunca
// negativo) moram em confirmDeposit/withdraw, que rodam sobre esta
// interface tanto no Postgres quanto no fake em memória dos testes.
type walletTx interface {
	// depositForUpdate lê a cobrança segurando lock na linha;
	// ErrNotFound quando a cobrança não existe.
	depositForUpdate(ctx context.Context, chargeID string) (userID string, amountCents int64, confirmed bool, err error)
	markDepositConfirmed(ctx context.Context, chargeID string) error

	// walletForUpdate lê a carteira do usuário com lock;
	// ErrNotFound quando não existe.
	walletForUpdate(ctx context.Context, userID string) (walletID string, balanceCents int64, err error)
	setBalance(ctx context.Context, walletID string, balanceCents int64) error
	appendLedger(ctx context.Context, walletID, operationType string, amountCents int64, reference string) error
}

// confirmDeposit credita o depósito de uma cobrança PIX confirmada.
// Idempotente por charge_id: reprocessar a mesma confirmação devolve o
// saldo corrente sem nova escrita (o lock na linha do depósito decide).
func confirmDeposit(ctx context.Context, tx walletTx, chargeID string) (userID string, amountCents, newBalance int64, err error) {
	userID, amountCents, confirmed, err := tx.depositForUpdate(ctx, chargeID)
	if err != nil {
		return "", 0, 0, err
	}

	walletID, balance, err := tx.walletForUpdate(ctx, userID)
	if err != nil {
		return "", 0, 0, err
	}

	if confirmed {
		// já creditado; replay não escreve nada
		return userID, amountCents, balance, nil
	}

	newBalance = balance + amountCents
	if err := tx.setBalance(ctx, walletID, newBalance); err != nil {
		return "", 0, 0, err
	}
	if err := tx.appendLedger(ctx, walletID, "DEPOSIT", amountCents, "pix:"+chargeID); err != nil {
		return "", 0, 0, err
	}
	if err := tx.markDepositConfirmed(ctx, chargeID); err != nil {
		return "", 0, 0, err
	}
	return userID, amountCents, newBalance, nil
}

// withdraw debita o saldo; nunca deixa a carteira negativa.
func withdraw(ctx context.Context, tx walletTx, userID string, amountCents int64, externalRef string) (int64, error) {
	walletID, balance, err := tx.walletForUpdate(ctx, userID)
	if err != nil {
		return 0, err
	}
	if balance < amountCents {
		return 0, ErrInsufficientFunds
	}

	newBalance := balance - amountCents
	if err := tx.setBalance(ctx, walletID, newBalance); err != nil {
		return 0, err
	}
	if err := tx.appendLedger(ctx, walletID, "WITHDRAW", -amountCents, "withdraw:"+externalRef); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// GetOrCreateWallet retorna o walletId e saldo de um usuário, criando a carteira se não existir
// Usa transação para garantir atomicidade
func (p *Postgres) GetOrCreateWallet(ctx context.Context, userID string) (walletID string, balance int64, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, err
	}
	defer tx.Rollback()

	var id string
	var bal int64
	err = tx.QueryRowContext(ctx, `SELECT id, balance_cents FROM wallets WHERE user_id=$1`, userID).Scan(&id, &bal)
	if err == sql.ErrNoRows {
		id = uuid.New().String()
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO wallets(id, user_id, balance_cents, version) VALUES($1,$2,0,1)`,
			id, userID); err != nil {
			return "", 0, err
		}
		bal = 0
	} else if err != nil {
		return "", 0, err
	}

	if err = tx.Commit(); err != nil {
		return "", 0, err
	}

	return id, bal, nil
}

// CreatePendingDeposit registra uma cobrança PIX criada no provedor.
// O crédito só acontece na confirmação (payment_confirmed).
func (p *Postgres) CreatePendingDeposit(ctx context.Context, chargeID, userID string, amountCents int64, qrPayload string) error {
	// Garante que a carteira exista antes da cobrança
	if _, _, err := p.GetOrCreateWallet(ctx, userID); err != nil {
		return err
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO deposits(charge_id, user_id, amount_cents, status, qr_payload)
		VALUES($1,$2,$3,'PENDING',$4)
		ON CONFLICT (charge_id) DO NOTHING`,
		chargeID, userID, amountCents, qrPayload)
	return err
}

// ConfirmDeposit credita o depósito de uma cobrança PIX confirmada
// dentro de uma transação. Ver confirmDeposit.
func (p *Postgres) ConfirmDeposit(ctx context.Context, chargeID string) (userID string, amountCents, newBalance int64, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, 0, err
	}
	defer tx.Rollback()

	userID, amountCents, newBalance, err = confirmDeposit(ctx, &pgWalletTx{tx: tx}, chargeID)
	if err != nil {
		return "", 0, 0, err
	}
	if err = tx.Commit(); err != nil {
		return "", 0, 0, err
	}
	return userID, amountCents, newBalance, nil
}

// Withdraw debita o saldo com lock pessimista dentro de uma transação.
// Ver withdraw.
func (p *Postgres) Withdraw(ctx context.Context, userID string, amountCents int64, externalRef string) (newBalance int64, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	newBalance, err = withdraw(ctx, &pgWalletTx{tx: tx}, userID, amountCents, externalRef)
	if err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// Ledger retorna o extrato da carteira, mais recente primeiro.
func (p *Postgres) Ledger(ctx context.Context, userID string, limit int) ([]LedgerEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT l.id, l.operation_type, l.amount_cents, COALESCE(l.reference,''), l.created_at
		FROM wallet_ledger l
		JOIN wallets w ON w.id = l.wallet_id
		WHERE w.user_id=$1
		ORDER BY l.id DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.ID, &e.OperationType, &e.AmountCents, &e.Reference, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// pgWalletTx implementa walletTx sobre um *sql.Tx com locks
// pessimistas por linha (FOR UPDATE).
type pgWalletTx struct{ tx *sql.Tx }

func (t *pgWalletTx) depositForUpdate(ctx context.Context, chargeID string) (string, int64, bool, error) {
	var userID, status string
	var amount int64
	err := t.tx.QueryRowContext(ctx, `
		SELECT user_id, amount_cents, status FROM deposits
		WHERE charge_id=$1 FOR UPDATE`, chargeID).Scan(&userID, &amount, &status)
	if err == sql.ErrNoRows {
		return "", 0, false, ErrNotFound
	}
	if err != nil {
		return "", 0, false, err
	}
	return userID, amount, status == "CONFIRMED", nil
}

func (t *pgWalletTx) markDepositConfirmed(ctx context.Context, chargeID string) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE deposits SET status='CONFIRMED', confirmed_at=NOW() WHERE charge_id=$1`, chargeID)
	return err
}

func (t *pgWalletTx) walletForUpdate(ctx context.Context, userID string) (string, int64, error) {
	var walletID string
	var balance int64
	err := t.tx.QueryRowContext(ctx,
		`SELECT id, balance_cents FROM wallets WHERE user_id=$1 FOR UPDATE`, userID).
		Scan(&walletID, &balance)
	if err == sql.ErrNoRows {
		return "", 0, ErrNotFound
	}
	if err != nil {
		return "", 0, err
	}
	return walletID, balance, nil
}

func (t *pgWalletTx) setBalance(ctx context.Context, walletID string, balanceCents int64) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE wallets SET balance_cents=$1, version=version+1 WHERE id=$2`,
		balanceCents, walletID)
	return err
}

func (t *pgWalletTx) appendLedger(ctx context.Context, walletID, operationType string, amountCents int64, reference string) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO wallet_ledger(wallet_id, operation_type, amount_cents, reference)
		VALUES($1,$2,$3,$4)`, walletID, operationType, amountCents, reference)
	return err
}
