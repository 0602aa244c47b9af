package patterns

// Set is an ordered list of compiled patterns, such as one include list.
type Set []Pattern

// ParseSet compiles every pattern, failing on the first invalid one.
func ParseSet(raws []string) (Set, error) {
	set := make(Set, 0, len(raws))
	for _, raw := range raws {
		p, err := Parse(raw)
		if err != nil {
			return nil, err
		}
		set = append(set, p)
	}
	return set, nil
}

// MatchAny reports whether any pattern matches id. An empty set matches
// nothing.
func (s Set) MatchAny(id string) bool {
	for _, p := range s {
		if p.Match(id) {
			return true
		}
	}
	return false
}

// MatchCounts returns, per pattern, how many ids it matches.
func (s Set) MatchCounts(ids []string) []int {
	counts := make([]int, len(s))
	for i, p := range s {
		for _, id := range ids {
			if p.Match(id) {
				counts[i]++
			}
		}
	}
	return counts
}
