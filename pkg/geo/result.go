package geo

// ResultMap maps each entity name to its outcome. It carries no ordering.
type ResultMap map[Entity]Outcome

// Counts tallies outcomes by kind.
func (m ResultMap) Counts() map[Kind]int {
	counts := make(map[Kind]int, 3)
	for _, o := range m {
		counts[o.Kind]++
	}
	return counts
}

// Distinct returns the number of distinct names in entities.
func Distinct(entities []Entity) int {
	seen := make(map[Entity]struct{}, len(entities))
	for _, e := range entities {
		seen[e] = struct{}{}
	}
	return len(seen)
}
