package settle

import "errors"

var (
	ErrMarketNotFound     = errors.New("market not found")
	ErrPositionNotFound   = errors.New("position not found")
	ErrMarketNotOpen      = errors.New("market not open")
	ErrInvalidOutcome     = errors.New("invalid outcome")
	ErrBelowMinimumStake  = errors.New("stake below minimum")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrAlreadyResolved    = errors.New("market already resolved")
	ErrPositionNotActive  = errors.New("position not active")
	ErrCashoutUnavailable = errors.New("cashout unavailable")

	// ErrTxConflict sinaliza conflito de serialização/deadlock no store.
	// O settle re-executa o ciclo read-compute-write inteiro; nunca
	// reaproveita uma cotação lida na tentativa anterior.
	ErrTxConflict = errors.New("transaction conflict")
)
