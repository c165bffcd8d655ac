package texture

// Stats counts parse outcomes for one optimization run. The orchestrator
// owns a single value, passes it explicitly, and resets it per run; there
// is no package-level mutable state.
type Stats struct {
	FastParses int // headers resolved by the built-in parser
	Fallbacks  int // headers that would need an external diagnostic tool
}

// Record tallies one parse outcome.
func (s *Stats) Record(info Info) {
	if info.Valid() {
		s.FastParses++
	} else {
		s.Fallbacks++
	}
}

// Reset zeroes the counters.
func (s *Stats) Reset() {
	*s = Stats{}
}
