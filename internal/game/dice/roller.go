package dice

// Roll evaluates expr using src.
//
// Postcondition: len(result.Dice) == expr.Count; Total() == sum(Dice)+Modifier.
func Roll(expr Expression, src Source) RollResult {
	rolled := make([]int, expr.Count)
	for i := range rolled {
		rolled[i] = src.Intn(expr.Sides) + 1
	}
	return RollResult{Expression: expr.Raw, Dice: rolled, Modifier: expr.Modifier}
}

// Chance reports whether a roll on src lands under probability p.
// p <= 0 never succeeds and p >= 1 always does.
func Chance(src Source, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return src.Float64() < p
}
