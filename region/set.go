package region

import "fmt"

// Set is an ordered collection of regions with unique ids. Reads return
// copies; the only way to change a Set is Apply.
type Set struct {
	regions []Region
	index   map[string]int
	rev     uint64
}

// NewSet builds a set from regions, rejecting empty and duplicate ids.
func NewSet(regions ...Region) (*Set, error) {
	s := &Set{index: make(map[string]int, len(regions))}
	for _, r := range regions {
		if err := s.insert(len(s.regions), r); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Set) Len() int { return len(s.regions) }

// Revision counts applied mutations.
func (s *Set) Revision() uint64 { return s.rev }

// All returns a deep copy of the regions in order.
func (s *Set) All() []Region {
	out := make([]Region, len(s.regions))
	for i, r := range s.regions {
		out[i] = r.Clone()
	}
	return out
}

// Page returns copies of the regions on one page.
func (s *Set) Page(page int) []Region {
	var out []Region
	for _, r := range s.regions {
		if r.Page == page {
			out = append(out, r.Clone())
		}
	}
	return out
}

func (s *Set) Get(id string) (Region, bool) {
	i, ok := s.index[id]
	if !ok {
		return Region{}, false
	}
	return s.regions[i].Clone(), true
}

// Equal reports whether both sets hold equal regions in the same order.
func (s *Set) Equal(o *Set) bool {
	if s.Len() != o.Len() {
		return false
	}
	for i := range s.regions {
		if !s.regions[i].Equal(o.regions[i]) {
			return false
		}
	}
	return true
}

func (s *Set) insert(at int, r Region) error {
	if r.ID == "" {
		return ErrEmptyID
	}
	if _, dup := s.index[r.ID]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateID, r.ID)
	}
	if at < 0 || at > len(s.regions) {
		at = len(s.regions)
	}
	s.regions = append(s.regions, Region{})
	copy(s.regions[at+1:], s.regions[at:])
	s.regions[at] = r.Clone()
	s.reindex(at)
	return nil
}

func (s *Set) remove(id string) (Region, int, error) {
	i, ok := s.index[id]
	if !ok {
		return Region{}, -1, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r := s.regions[i]
	s.regions = append(s.regions[:i], s.regions[i+1:]...)
	delete(s.index, id)
	s.reindex(i)
	return r, i, nil
}

func (s *Set) replace(r Region) (Region, error) {
	i, ok := s.index[r.ID]
	if !ok {
		return Region{}, fmt.Errorf("%w: %s", ErrNotFound, r.ID)
	}
	old := s.regions[i]
	s.regions[i] = r.Clone()
	return old, nil
}

func (s *Set) reindex(from int) {
	for i := from; i < len(s.regions); i++ {
		s.index[s.regions[i].ID] = i
	}
}
