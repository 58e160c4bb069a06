package region

import (
	"fmt"

	"github.com/wudi/pdfredact/geom"
)

// Mutation is a reversible change to a Set. Applying one yields the
// mutation that undoes it.
type Mutation interface {
	Label() string
	apply(s *Set) (Mutation, error)
}

// Apply runs m against s and returns its inverse. A failed mutation leaves
// s unchanged.
func Apply(s *Set, m Mutation) (Mutation, error) {
	inv, err := m.apply(s)
	if err != nil {
		return nil, err
	}
	s.rev++
	return inv, nil
}

// Add inserts a region at Index, or appends when Index is out of range.
type Add struct {
	Region Region
	Index  int
}

func (m Add) Label() string { return "add " + m.Region.ID }

func (m Add) apply(s *Set) (Mutation, error) {
	if m.Region.Geometry.Degenerate() {
		return nil, &GeometryError{RegionID: m.Region.ID, Page: m.Region.Page, Reason: "zero or negative area"}
	}
	idx := m.Index
	if idx < 0 || idx > s.Len() {
		idx = s.Len()
	}
	if err := s.insert(idx, m.Region); err != nil {
		return nil, err
	}
	return Remove{ID: m.Region.ID}, nil
}

// Remove deletes a region by id.
type Remove struct{ ID string }

func (m Remove) Label() string { return "remove " + m.ID }

func (m Remove) apply(s *Set) (Mutation, error) {
	r, i, err := s.remove(m.ID)
	if err != nil {
		return nil, err
	}
	return Add{Region: r, Index: i}, nil
}

// Move translates a region.
type Move struct {
	ID     string
	DX, DY float64
}

func (m Move) Label() string { return fmt.Sprintf("move %s", m.ID) }

func (m Move) apply(s *Set) (Mutation, error) {
	r, ok := s.Get(m.ID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, m.ID)
	}
	r.Geometry = r.Geometry.Translate(m.DX, m.DY)
	old, err := s.replace(r)
	if err != nil {
		return nil, err
	}
	return restore{region: old}, nil
}

// Resize replaces the geometry of a region.
type Resize struct {
	ID       string
	Geometry geom.Geometry
}

func (m Resize) Label() string { return "resize " + m.ID }

func (m Resize) apply(s *Set) (Mutation, error) {
	r, ok := s.Get(m.ID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, m.ID)
	}
	if m.Geometry.Degenerate() {
		return nil, &GeometryError{RegionID: m.ID, Page: r.Page, Reason: "zero or negative area"}
	}
	r.Geometry = m.Geometry.Clone()
	old, err := s.replace(r)
	if err != nil {
		return nil, err
	}
	return restore{region: old}, nil
}

// ToggleKind flips a region between Redact and Protect.
type ToggleKind struct{ ID string }

func (m ToggleKind) Label() string { return "toggle " + m.ID }

func (m ToggleKind) apply(s *Set) (Mutation, error) {
	r, ok := s.Get(m.ID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, m.ID)
	}
	if r.Kind == Redact {
		r.Kind = Protect
	} else {
		r.Kind = Redact
	}
	old, err := s.replace(r)
	if err != nil {
		return nil, err
	}
	return restore{region: old}, nil
}

// Batch applies mutations in order as one step. If one fails, the ones
// already applied are rolled back.
type Batch struct {
	Name      string
	Mutations []Mutation
}

func (m Batch) Label() string { return m.Name }

func (m Batch) apply(s *Set) (Mutation, error) {
	inverses := make([]Mutation, 0, len(m.Mutations))
	for _, sub := range m.Mutations {
		inv, err := sub.apply(s)
		if err != nil {
			for i := len(inverses) - 1; i >= 0; i-- {
				_, _ = inverses[i].apply(s)
			}
			return nil, err
		}
		inverses = append(inverses, inv)
	}
	out := Batch{Name: "undo " + m.Name, Mutations: make([]Mutation, 0, len(inverses))}
	for i := len(inverses) - 1; i >= 0; i-- {
		out.Mutations = append(out.Mutations, inverses[i])
	}
	return out, nil
}

// Clear removes every region.
type Clear struct{}

func (Clear) Label() string { return "clear" }

func (Clear) apply(s *Set) (Mutation, error) {
	removed := make([]Mutation, 0, s.Len())
	for _, r := range s.All() {
		removed = append(removed, Remove{ID: r.ID})
	}
	return Batch{Name: "clear", Mutations: removed}.apply(s)
}

// restore puts back an exact earlier copy of a region.
type restore struct{ region Region }

func (m restore) Label() string { return "restore " + m.region.ID }

func (m restore) apply(s *Set) (Mutation, error) {
	old, err := s.replace(m.region)
	if err != nil {
		return nil, err
	}
	return restore{region: old}, nil
}
