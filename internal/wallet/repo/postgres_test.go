package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memWalletTx é um walletTx em memória: exercita as mesmas decisões de
// fluxo que rodam sobre o Postgres, sem banco.
type memWalletTx struct {
	deposits map[string]*memDeposit // chargeID ->
	wallets  map[string]*memWallet  // userID ->
	ledger   []memLedgerRow
}

type memDeposit struct {
	userID      string
	amountCents int64
	confirmed   bool
}

type memWallet struct {
	id      string
	balance int64
}

type memLedgerRow struct {
	walletID  string
	operation string
	amount    int64
	reference string
}

func newMemWalletTx() *memWalletTx {
	return &memWalletTx{
		deposits: map[string]*memDeposit{},
		wallets:  map[string]*memWallet{},
	}
}

func (m *memWalletTx) seedWallet(userID, walletID string, balance int64) {
	m.wallets[userID] = &memWallet{id: walletID, balance: balance}
}

func (m *memWalletTx) seedDeposit(chargeID, userID string, amountCents int64) {
	m.deposits[chargeID] = &memDeposit{userID: userID, amountCents: amountCents}
}

func (m *memWalletTx) depositForUpdate(_ context.Context, chargeID string) (string, int64, bool, error) {
	d, ok := m.deposits[chargeID]
	if !ok {
		return "", 0, false, ErrNotFound
	}
	return d.userID, d.amountCents, d.confirmed, nil
}

func (m *memWalletTx) markDepositConfirmed(_ context.Context, chargeID string) error {
	d, ok := m.deposits[chargeID]
	if !ok {
		return ErrNotFound
	}
	d.confirmed = true
	return nil
}

func (m *memWalletTx) walletForUpdate(_ context.Context, userID string) (string, int64, error) {
	w, ok := m.wallets[userID]
	if !ok {
		return "", 0, ErrNotFound
	}
	return w.id, w.balance, nil
}

func (m *memWalletTx) setBalance(_ context.Context, walletID string, balanceCents int64) error {
	for _, w := range m.wallets {
		if w.id == walletID {
			w.balance = balanceCents
			return nil
		}
	}
	return ErrNotFound
}

func (m *memWalletTx) appendLedger(_ context.Context, walletID, operationType string, amountCents int64, reference string) error {
	m.ledger = append(m.ledger, memLedgerRow{
		walletID:  walletID,
		operation: operationType,
		amount:    amountCents,
		reference: reference,
	})
	return nil
}

func TestConfirmDeposit_CreditsOnce(t *testing.T) {
	tx := newMemWalletTx()
	tx.seedWallet("u1", "w1", 1000)
	tx.seedDeposit("PIX-abc", "u1", 5000)
	ctx := context.Background()

	userID, amount, newBalance, err := confirmDeposit(ctx, tx, "PIX-abc")
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
	assert.Equal(t, int64(5000), amount)
	assert.Equal(t, int64(6000), newBalance)
	assert.True(t, tx.deposits["PIX-abc"].confirmed)

	// uma única linha DEPOSIT no razão, referenciando a cobrança
	require.Len(t, tx.ledger, 1)
	assert.Equal(t, "DEPOSIT", tx.ledger[0].operation)
	assert.Equal(t, int64(5000), tx.ledger[0].amount)
	assert.Equal(t, "pix:PIX-abc", tx.ledger[0].reference)

	// replay da mesma confirmação: mesmo saldo, nenhuma escrita nova
	_, _, replayBalance, err := confirmDeposit(ctx, tx, "PIX-abc")
	require.NoError(t, err)
	assert.Equal(t, int64(6000), replayBalance)
	assert.Equal(t, int64(6000), tx.wallets["u1"].balance)
	assert.Len(t, tx.ledger, 1)
}

func TestConfirmDeposit_UnknownCharge(t *testing.T) {
	tx := newMemWalletTx()
	tx.seedWallet("u1", "w1", 1000)

	_, _, _, err := confirmDeposit(context.Background(), tx, "PIX-nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int64(1000), tx.wallets["u1"].balance)
	assert.Empty(t, tx.ledger)
}

func TestWithdraw(t *testing.T) {
	tx := newMemWalletTx()
	tx.seedWallet("u1", "w1", 6000)

	newBalance, err := withdraw(context.Background(), tx, "u1", 2500, "ref-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3500), newBalance)
	assert.Equal(t, int64(3500), tx.wallets["u1"].balance)

	// razão registra o débito com valor negativo
	require.Len(t, tx.ledger, 1)
	assert.Equal(t, "WITHDRAW", tx.ledger[0].operation)
	assert.Equal(t, int64(-2500), tx.ledger[0].amount)
	assert.Equal(t, "withdraw:ref-1", tx.ledger[0].reference)
}

func TestWithdraw_NeverDrivesBalanceNegative(t *testing.T) {
	tx := newMemWalletTx()
	tx.seedWallet("u1", "w1", 100)
	ctx := context.Background()

	_, err := withdraw(ctx, tx, "u1", 200, "ref-2")
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, int64(100), tx.wallets["u1"].balance)
	assert.Empty(t, tx.ledger)

	// débito do saldo exato é permitido; um centavo a mais não
	newBalance, err := withdraw(ctx, tx, "u1", 100, "ref-3")
	require.NoError(t, err)
	assert.Equal(t, int64(0), newBalance)

	_, err = withdraw(ctx, tx, "u1", 1, "ref-4")
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestWithdraw_UnknownWallet(t *testing.T) {
	tx := newMemWalletTx()

	_, err := withdraw(context.Background(), tx, "ghost", 100, "ref")
	assert.ErrorIs(t, err, ErrNotFound)
}
