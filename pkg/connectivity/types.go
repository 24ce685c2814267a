// Package connectivity refreshes and serves the pairwise connectivity
// cache (C3): a ranked similarity table between unassigned strategic
// titles, rebuilt in full on each refresh (§4.3). Scoring happens in this
// package (the driver), not inside the graph store (§9 redesign note: "move
// pair scoring to the driver").
package connectivity

// Record is one row of title_connectivity_cache (§3 Pairwise connectivity
// record). TitleA is always lexicographically smaller than TitleB.
type Record struct {
	TitleA        string
	TitleB        string
	EntityJaccard float64
	ActorMatch    float64
	Composite     float64
	SharedActor   string // empty when no shared actor is identified
}
