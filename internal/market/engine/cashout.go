package engine

import "math"

// CashoutFee é o desconto flat aplicado sobre o valor de saída
// antecipada (20%).
const CashoutFee = 0.20

// CashoutValue precifica a saída antecipada de uma posição ativa:
// payout potencial congelado × probabilidade ATUAL do lado apostado,
// menos a taxa de cashout. Acompanha o sentimento do pool em tempo
// real e nunca excede o payout potencial original.
//
// Arredonda pro centavo mais próximo, a mesma regra do payout
// potencial. Retorna 0 quando o pool do lado está zerado, e o
// chamador trata valor <= 0 como cashout indisponível.
func CashoutValue(potentialPayoutCents, outcomePoolCents, totalPoolCents int64) int64 {
	if totalPoolCents <= 0 || outcomePoolCents <= 0 {
		return 0
	}
	currentProb := float64(outcomePoolCents) / float64(totalPoolCents)
	value := float64(potentialPayoutCents) * currentProb * (1.0 - CashoutFee)
	return int64(math.Round(value))
}
