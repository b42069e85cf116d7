package settle

import "context"

// Store é a unidade de trabalho transacional por trás do settle.
// A implementação de produção (market/repo.Postgres) mapeia fn pra um
// *sql.Tx com locks de linha; conflitos chegam como ErrTxConflict.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx expõe as operações de leitura-com-lock e escrita usadas dentro de
// uma transação. Ordem fixa de lock: mercado -> posição -> carteira.
// Quem precisar de mais de um desses deve adquirir nessa ordem.
type Tx interface {
	// MarketForUpdate carrega o mercado (com pools) segurando lock na linha.
	MarketForUpdate(ctx context.Context, marketID string) (*Market, error)

	// InsertMarket persiste um mercado recém-criado com pools zerados.
	InsertMarket(ctx context.Context, m *Market) error

	// SetMarketStatus aplica transição de status sem liquidação (OPEN -> CLOSED).
	SetMarketStatus(ctx context.Context, marketID string, status MarketStatus) error

	// MarkResolved grava status RESOLVED + resultado, terminal.
	MarkResolved(ctx context.Context, marketID, result string) error

	// AddToPool incrementa o pool do resultado e o total do mercado juntos.
	AddToPool(ctx context.Context, marketID, outcome string, deltaCents int64) error

	// Position / PositionForUpdate carregam uma posição, a segunda com lock.
	Position(ctx context.Context, positionID string) (*Position, error)
	PositionForUpdate(ctx context.Context, positionID string) (*Position, error)

	InsertPosition(ctx context.Context, p *Position) error
	SetPositionStatus(ctx context.Context, positionID string, status PositionStatus) error

	// ActivePositions lista as posições ACTIVE de um mercado, com lock,
	// pra liquidação em lote.
	ActivePositions(ctx context.Context, marketID string) ([]Position, error)

	// BalanceForUpdate retorna o saldo do usuário segurando lock na carteira.
	BalanceForUpdate(ctx context.Context, userID string) (int64, error)

	// ApplyBalanceDelta muta o saldo e registra a entrada no razão em um
	// passo só. Delta negativo com saldo insuficiente deve falhar com
	// ErrInsufficientFunds sem efeito algum.
	ApplyBalanceDelta(ctx context.Context, userID string, deltaCents int64, op LedgerOp, ref string) (newBalanceCents int64, err error)
}
