package dex

// Stats are concrete combatant stats after level scaling.
type Stats struct {
	HP      int
	Attack  int
	Defense int
	Speed   int
}

// ScaledStats computes level-scaled stats from a species' base stats using
// the simplified mainline formulas (no IVs or EVs):
//
//	hp    = floor(2*base*level/100) + level + 10
//	other = floor(2*base*level/100) + 5
//
// Level never enters the in-battle damage formula; it matters only here, at
// instantiation.
//
// Precondition: level must be >= 1.
// Postcondition: Every returned stat is >= 1.
func ScaledStats(base BaseStats, level int) Stats {
	scale := func(b int) int { return 2 * b * level / 100 }
	return Stats{
		HP:      scale(base.HP) + level + 10,
		Attack:  scale(base.Attack) + 5,
		Defense: scale(base.Defense) + 5,
		Speed:   scale(base.Speed) + 5,
	}
}
