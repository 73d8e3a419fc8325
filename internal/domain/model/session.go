package model

// Session is a read-only copy of the session counters.
type Session struct {
	CurrentPlayer int
	TotalTurns    int
	TotalMatches  int
	TotalPairs    int
	Active        bool
	Locked        bool
	Phase         string
}

// ResolutionKind tells a match from a mismatch.
type ResolutionKind string

// Resolution kinds.
const (
	Match    ResolutionKind = "match"
	Mismatch ResolutionKind = "mismatch"
)

// Resolution describes one resolved turn.
type Resolution struct {
	Kind        ResolutionKind
	Turn        int
	PlayerIndex int
	PlayerName  string
	// Flags holds the two flag names in selection order. For a match both
	// entries are equal.
	Flags [2]string
}
