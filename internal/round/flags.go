package round

import "buzzquiz/arbiter/internal/types"

// FlagSet is an insertion-ordered set of flagged contestants. Adding a
// contestant twice keeps the first violation.
type FlagSet struct {
	order []types.Flag
	index map[types.ContestantID]int
}

func NewFlagSet() *FlagSet {
	return &FlagSet{index: make(map[types.ContestantID]int)}
}

// Add inserts f unless its contestant is already flagged. It reports
// whether the set changed.
func (s *FlagSet) Add(f types.Flag) bool {
	if _, ok := s.index[f.Contestant]; ok {
		return false
	}
	s.index[f.Contestant] = len(s.order)
	s.order = append(s.order, f)
	return true
}

func (s *FlagSet) Has(id types.ContestantID) bool {
	_, ok := s.index[id]
	return ok
}

func (s *FlagSet) Len() int { return len(s.order) }

// Flags returns the flags in the order they were added.
func (s *FlagSet) Flags() []types.Flag {
	out := make([]types.Flag, len(s.order))
	copy(out, s.order)
	return out
}

// Contestants returns flagged contestants in flag order.
func (s *FlagSet) Contestants() []types.ContestantID {
	out := make([]types.ContestantID, len(s.order))
	for i, f := range s.order {
		out[i] = f.Contestant
	}
	return out
}
