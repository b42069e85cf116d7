package engine

import (
	"errors"
	"math"
)

// Constantes do modelo financeiro. A comissão incide sobre o LUCRO da
// aposta (acima de 1.0x), nunca sobre o principal.
const (
	// CommissionRate é a fração do lucro bruto repassada ao apostador.
	// A plataforma retém os 35% restantes.
	CommissionRate = 0.65

	// MinimumStakeCents é a aposta mínima aceita (R$ 2,00).
	MinimumStakeCents int64 = 200
)

var ErrUnknownOutcome = errors.New("unknown outcome")

// Quote é o preço de um resultado em um dado instante do pool.
type Quote struct {
	Probability    float64 `json:"probability"`
	OddsMultiplier float64 `json:"odds_multiplier"`
}

// QuoteOutcome calcula probabilidade e multiplicador pari-mutuel de um
// resultado a partir do estado atual dos pools. Função pura: não lê nem
// grava estado, e é chamada tanto pelos endpoints de leitura quanto
// dentro da transação de aposta pra congelar a odd de entrada.
//
// Pools vazios (mercado recém-criado) viram um preço uniforme 1/N: sem
// informação, todos os lados custam o mesmo.
func QuoteOutcome(pools map[string]int64, outcome string) (Quote, error) {
	outcomePool, ok := pools[outcome]
	if !ok {
		return Quote{}, ErrUnknownOutcome
	}

	n := len(pools)
	var total int64
	for _, p := range pools {
		total += p
	}

	var probability float64
	if total > 0 {
		probability = float64(outcomePool) / float64(total)
	} else {
		probability = 1.0 / float64(n)
	}

	var rawOdds float64
	if total > 0 && outcomePool > 0 {
		rawOdds = float64(total) / float64(outcomePool)
	} else {
		rawOdds = float64(n)
	}

	// Comissão sobre o lucro: mult = 1 + (raw-1)*rate. O max garante que
	// nenhuma cotação pague menos que o principal, mesmo com pool
	// totalmente concentrado no lado cotado.
	mult := 1.0 + (rawOdds-1.0)*CommissionRate
	if mult < 1.0 {
		mult = 1.0
	}

	return Quote{Probability: probability, OddsMultiplier: mult}, nil
}

// PotentialPayout converte stake + multiplicador em payout potencial,
// arredondado pro centavo mais próximo. O valor fica congelado na
// posição e nunca é recalculado depois.
func PotentialPayout(stakeCents int64, oddsMultiplier float64) int64 {
	return int64(math.Round(float64(stakeCents) * oddsMultiplier))
}
