package chem

import (
	"errors"
	"fmt"
)

var ErrShapeMismatch = errors.New("chem: mismatched input lengths")

// Solution is a volume of liquid (litres) with parallel compound ID and
// molar concentration lists.
type Solution struct {
	Volume         float64
	Compounds      []string
	Concentrations []float64
}

// NewSolution validates that ids and concentrations line up.
func NewSolution(volume float64, ids []string, concentrations []float64) (*Solution, error) {
	if len(ids) != len(concentrations) {
		return nil, fmt.Errorf("%w: %d ids, %d concentrations", ErrShapeMismatch, len(ids), len(concentrations))
	}
	if volume < 0 {
		return nil, fmt.Errorf("chem: negative solution volume %g", volume)
	}
	return &Solution{
		Volume:         volume,
		Compounds:      append([]string(nil), ids...),
		Concentrations: append([]float64(nil), concentrations...),
	}, nil
}

// AddSolutions pours volumes[i] of sources[i] into s. The destination is
// treated as one more contributor holding its current volume: moles of each
// compound are summed over all contributors and divided by the combined
// volume. Each source's Volume is debited by what it gave.
func (s *Solution) AddSolutions(volumes []float64, sources []*Solution) error {
	if len(volumes) != len(sources) {
		return fmt.Errorf("%w: %d volumes, %d solutions", ErrShapeMismatch, len(volumes), len(sources))
	}
	total := s.Volume
	var order []string
	moles := make(map[string]float64)
	add := func(sol *Solution, v float64) {
		for i, id := range sol.Compounds {
			if _, ok := moles[id]; !ok {
				order = append(order, id)
			}
			moles[id] += v * sol.Concentrations[i]
		}
	}
	for i, src := range sources {
		if src == nil {
			return fmt.Errorf("chem: solution %d is nil", i)
		}
		if len(src.Compounds) != len(src.Concentrations) {
			return fmt.Errorf("%w: solution %d", ErrShapeMismatch, i)
		}
		add(src, volumes[i])
		total += volumes[i]
	}
	add(s, s.Volume)

	for i, src := range sources {
		src.Volume -= volumes[i]
	}
	s.Compounds = s.Compounds[:0]
	s.Concentrations = s.Concentrations[:0]
	for _, id := range order {
		var conc float64
		if total > 0 {
			conc = moles[id] / total
		}
		s.Compounds = append(s.Compounds, id)
		s.Concentrations = append(s.Concentrations, conc)
	}
	s.Volume = total
	return nil
}

// AddCompounds adds volumes[i] of a single-compound stock of ids[i] at
// concentrations[i]. It returns the intermediate single-compound solutions
// after they have been poured.
func (s *Solution) AddCompounds(volumes []float64, ids []string, concentrations []float64) ([]*Solution, error) {
	if len(volumes) != len(ids) || len(ids) != len(concentrations) {
		return nil, fmt.Errorf("%w: %d volumes, %d ids, %d concentrations",
			ErrShapeMismatch, len(volumes), len(ids), len(concentrations))
	}
	stocks := make([]*Solution, len(ids))
	for i := range ids {
		stocks[i] = &Solution{
			Volume:         volumes[i],
			Compounds:      []string{ids[i]},
			Concentrations: []float64{concentrations[i]},
		}
	}
	if err := s.AddSolutions(volumes, stocks); err != nil {
		return nil, err
	}
	return stocks, nil
}

// Concentration of id, or zero when absent.
func (s *Solution) Concentration(id string) float64 {
	for i, c := range s.Compounds {
		if c == id {
			return s.Concentrations[i]
		}
	}
	return 0
}

// Moles of id in the solution.
func (s *Solution) Moles(id string) float64 {
	return s.Concentration(id) * s.Volume
}

// CleanUp removes compounds whose concentration is exactly zero.
func (s *Solution) CleanUp() {
	ids := s.Compounds[:0]
	concs := s.Concentrations[:0]
	for i, c := range s.Concentrations {
		if c != 0 {
			ids = append(ids, s.Compounds[i])
			concs = append(concs, c)
		}
	}
	s.Compounds = ids
	s.Concentrations = concs
}

func (s *Solution) String() string {
	return fmt.Sprintf("Solution{Volume: %gL, Compounds: %v, Concentrations: %v}", s.Volume, s.Compounds, s.Concentrations)
}
