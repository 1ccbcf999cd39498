package models

// SearchFilters is the set of facet constraints for a catalog search.
// An empty slice means the facet is unconstrained. Constructed fresh per
// query by the caller; never persisted.
//
// Matching semantics differ per facet family and are part of the contract:
// BaseGame and Status require an item to carry every requested value (AND),
// Difficulty and Features match an item carrying any requested value (OR).
type SearchFilters struct {
	BaseGame   []string `json:"baseGame"`
	Status     []string `json:"status"`
	Difficulty []string `json:"difficulty"`
	Features   []string `json:"features"`
}

// Empty reports whether no facet is constrained.
func (f SearchFilters) Empty() bool {
	return len(f.BaseGame) == 0 && len(f.Status) == 0 &&
		len(f.Difficulty) == 0 && len(f.Features) == 0
}

// FilterOptions is the deduplicated facet vocabulary used to build the
// filter UI.
type FilterOptions struct {
	BaseGames    []string `json:"baseGames"`
	Statuses     []string `json:"statuses"`
	Difficulties []string `json:"difficulties"`
	Features     []string `json:"features"`
}
