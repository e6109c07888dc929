package core

import "math"

// Stress score weights and bounds.
const (
	EssentialWeight = 0.50
	VariableWeight  = 0.30
	SavingsWeight   = 0.20

	MinStressScore = 0.0
	MaxStressScore = 100.0
)

// Score computes the weighted ratio sum and clamps it to [0, 100].
//
// The savings term is the only one that can go negative: a surplus lowers the
// score and a deficit raises it. The raw value is a sum of ratios and usually
// stays well below 1, so the 0-100 clamp rarely bites; the two scales are kept
// as they are.
func Score(s FinancialSnapshot) (float64, error) {
	if s.Income.Cents <= 0 {
		return 0, ErrDivisionUndefined
	}

	income := float64(s.Income.Cents)
	fixed := float64(s.FixedExpenses.Cents)
	variable := float64(s.TotalVariable().Cents)

	essentialRatio := fixed / income
	variableRatio := variable / income
	savingsRatio := (income - (fixed + variable)) / income

	raw := essentialRatio*EssentialWeight +
		variableRatio*VariableWeight +
		savingsRatio*SavingsWeight

	return clamp(raw, MinStressScore, MaxStressScore), nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
