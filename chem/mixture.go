package chem

// Mixture is the content of one well: an aggregate volume plus compounds
// unique by ID. The aggregate may differ from the sum of compound volumes
// (solvent, dead volume); compound concentration in the well is taken
// against the aggregate.
type Mixture struct {
	Volume    float64
	compounds []Compound
}

// NewMixture returns a mixture holding copies of compounds.
func NewMixture(volume float64, compounds ...Compound) *Mixture {
	m := &Mixture{Volume: volume}
	for _, c := range compounds {
		m.mergeOne(c)
	}
	return m
}

// Len is the number of distinct compounds.
func (m *Mixture) Len() int { return len(m.compounds) }

// IsEmpty reports whether the well holds no compounds.
func (m *Mixture) IsEmpty() bool { return len(m.compounds) == 0 }

// Compounds returns a copy of the compound entries in insertion order.
func (m *Mixture) Compounds() []Compound {
	out := make([]Compound, len(m.compounds))
	copy(out, m.compounds)
	return out
}

// Compound looks up an entry by ID.
func (m *Mixture) Compound(id string) (Compound, bool) {
	if i := m.index(id); i >= 0 {
		return m.compounds[i], true
	}
	return Compound{}, false
}

// OfType returns the entries whose Type equals typ.
func (m *Mixture) OfType(typ string) []Compound {
	var out []Compound
	for _, c := range m.compounds {
		if c.Type == typ {
			out = append(out, c)
		}
	}
	return out
}

// HasType reports whether any entry has the given type.
func (m *Mixture) HasType(typ string) bool {
	for _, c := range m.compounds {
		if c.Type == typ {
			return true
		}
	}
	return false
}

// Moles of compound id held in the well; zero when absent.
func (m *Mixture) Moles(id string) float64 {
	if c, ok := m.Compound(id); ok {
		return c.Moles()
	}
	return 0
}

// MolesOfType sums moles over every entry of the given type.
func (m *Mixture) MolesOfType(typ string) float64 {
	var total float64
	for _, c := range m.compounds {
		if c.Type == typ {
			total += c.Moles()
		}
	}
	return total
}

// Concentration of id in the well (molar); zero when absent or dry.
func (m *Mixture) Concentration(id string) float64 {
	if m.Volume <= 0 {
		return 0
	}
	return m.Moles(id) / (m.Volume / NanolitresPerLitre)
}

// Merge adds incoming compounds and changes the aggregate volume by volume.
// Entries sharing an ID are summed by volume with moles conserved.
func (m *Mixture) Merge(incoming []Compound, volume float64) {
	for _, c := range incoming {
		m.mergeOne(c)
	}
	m.Volume += volume
}

func (m *Mixture) mergeOne(c Compound) {
	i := m.index(c.ID)
	if i < 0 {
		m.compounds = append(m.compounds, c)
		return
	}
	cur := &m.compounds[i]
	total := cur.Volume + c.Volume
	if total != 0 {
		cur.Concentration = (cur.Moles() + c.Moles()) * NanolitresPerLitre / total
	}
	cur.Volume = total
	if cur.Name == "" {
		cur.Name = c.Name
	}
	if cur.Type == "" {
		cur.Type = c.Type
	}
	if cur.Formula == "" {
		cur.Formula = c.Formula
	}
	if cur.Mass == 0 {
		cur.Mass = c.Mass
	}
}

// Withdraw removes volume from the well and returns the portion of each
// compound that left with it, computed from the composition before the
// withdrawal. The liquid is assumed homogeneous, so every entry shrinks by
// the same fraction.
func (m *Mixture) Withdraw(volume float64) []Compound {
	base := m.Volume
	if base <= 0 {
		for _, c := range m.compounds {
			base += c.Volume
		}
	}
	var frac float64
	if base > 0 {
		frac = volume / base
	}
	portion := make([]Compound, len(m.compounds))
	for i := range m.compounds {
		p := m.compounds[i]
		p.Volume = m.compounds[i].Volume * frac
		portion[i] = p
		m.compounds[i].Volume -= p.Volume
	}
	m.Volume -= volume
	return portion
}

// RemoveZeroVolume drops entries that no longer hold any liquid.
func (m *Mixture) RemoveZeroVolume() {
	kept := m.compounds[:0]
	for _, c := range m.compounds {
		if c.Volume > 0 {
			kept = append(kept, c)
		}
	}
	m.compounds = kept
}

// Solution returns the pure chemistry view of the well.
func (m *Mixture) Solution() *Solution {
	s := &Solution{Volume: m.Volume / NanolitresPerLitre}
	for _, c := range m.compounds {
		s.Compounds = append(s.Compounds, c.ID)
		s.Concentrations = append(s.Concentrations, m.Concentration(c.ID))
	}
	return s
}

// Clone returns a deep copy.
func (m *Mixture) Clone() *Mixture {
	return &Mixture{Volume: m.Volume, compounds: m.Compounds()}
}

func (m *Mixture) index(id string) int {
	for i, c := range m.compounds {
		if c.ID == id {
			return i
		}
	}
	return -1
}
