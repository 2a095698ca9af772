package chem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCompound(t *testing.T) {
	c, err := NewCompound(" HCl ", "hydrochloric acid", "Acid", 0.1)
	require.NoError(t, err)
	assert.Equal(t, "HCl", c.ID)
	assert.Equal(t, TypeAcid, c.Type)

	_, err = NewCompound("", "nothing", "", 1)
	assert.ErrorIs(t, err, ErrInvalidCompound)
	_, err = NewCompound("X", "", "", -1)
	assert.ErrorIs(t, err, ErrInvalidCompound)
}

func TestCompoundMoles(t *testing.T) {
	c := Compound{ID: "HCl", Concentration: 0.5, Volume: 2000}
	assert.InDelta(t, 1e-6, c.Moles(), 1e-18)
}

func TestMixtureMerge(t *testing.T) {
	m := NewMixture(100, Compound{ID: "HCl", Type: TypeAcid, Concentration: 1, Volume: 100})
	m.Merge([]Compound{
		{ID: "HCl", Name: "hydrochloric acid", Concentration: 0.5, Volume: 100},
		{ID: "NaOH", Type: TypeBase, Concentration: 1, Volume: 50},
	}, 150)

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, 250.0, m.Volume)

	hcl, ok := m.Compound("HCl")
	require.True(t, ok)
	assert.Equal(t, 200.0, hcl.Volume)
	assert.InDelta(t, 0.75, hcl.Concentration, 1e-12)
	assert.Equal(t, "hydrochloric acid", hcl.Name)
	assert.Equal(t, TypeAcid, hcl.Type)
	assert.InDelta(t, 1.5e-7, m.Moles("HCl"), 1e-18)

	assert.InDelta(t, 1.5e-7, m.MolesOfType(TypeAcid), 1e-18)
	assert.InDelta(t, 5e-8, m.MolesOfType(TypeBase), 1e-18)
	assert.True(t, m.HasType(TypeBase))
	assert.Len(t, m.OfType(TypeBase), 1)
	assert.InDelta(t, 0.6, m.Concentration("HCl"), 1e-12)
	assert.Zero(t, m.Concentration("KCl"))
}

func TestMixtureWithdraw(t *testing.T) {
	m := NewMixture(200,
		Compound{ID: "HCl", Type: TypeAcid, Concentration: 1, Volume: 100},
		Compound{ID: "H2O", Type: TypeWater, Volume: 100},
	)
	before := m.Moles("HCl")

	portion := m.Withdraw(50)
	require.Len(t, portion, 2)
	assert.Equal(t, 150.0, m.Volume)
	assert.Equal(t, 25.0, portion[0].Volume)
	assert.Equal(t, 1.0, portion[0].Concentration)
	assert.InDelta(t, before, m.Moles("HCl")+portion[0].Moles(), 1e-18)

	// Concentration in the well is unchanged by a homogeneous draw.
	assert.InDelta(t, 0.5, m.Concentration("HCl"), 1e-12)
}

func TestMixtureWithdrawAll(t *testing.T) {
	m := NewMixture(100, Compound{ID: "HCl", Concentration: 1, Volume: 100})
	m.Withdraw(100)
	assert.Zero(t, m.Volume)
	assert.Equal(t, 1, m.Len())
	m.RemoveZeroVolume()
	assert.True(t, m.IsEmpty())
}

func TestMixtureCloneAndSolution(t *testing.T) {
	m := NewMixture(1000, Compound{ID: "HCl", Concentration: 1, Volume: 500})
	c := m.Clone()
	c.Merge([]Compound{{ID: "NaOH", Concentration: 1, Volume: 10}}, 10)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 1000.0, m.Volume)

	s := m.Solution()
	assert.Equal(t, 1e-6, s.Volume)
	assert.Equal(t, []string{"HCl"}, s.Compounds)
	assert.InDelta(t, 0.5, s.Concentration("HCl"), 1e-12)
}

func TestAddSolutions(t *testing.T) {
	dst, err := NewSolution(1, []string{"NaCl"}, []float64{1})
	require.NoError(t, err)
	a, err := NewSolution(2, []string{"HCl", "NaCl"}, []float64{0.3, 0.6})
	require.NoError(t, err)
	b, err := NewSolution(1, []string{"NaOH"}, []float64{0.4})
	require.NoError(t, err)

	require.NoError(t, dst.AddSolutions([]float64{1, 1}, []*Solution{a, b}))

	assert.Equal(t, 3.0, dst.Volume)
	assert.Equal(t, 1.0, a.Volume)
	assert.Equal(t, 0.0, b.Volume)
	assert.ElementsMatch(t, []string{"HCl", "NaCl", "NaOH"}, dst.Compounds)
	assert.InDelta(t, 0.1, dst.Concentration("HCl"), 1e-12)
	assert.InDelta(t, (0.6+1)/3, dst.Concentration("NaCl"), 1e-12)
	assert.InDelta(t, 0.4/3, dst.Concentration("NaOH"), 1e-12)
	assert.InDelta(t, 0.3, dst.Moles("HCl"), 1e-12)

	err = dst.AddSolutions([]float64{1}, nil)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestAddCompounds(t *testing.T) {
	s := &Solution{Volume: 0.5}
	stocks, err := s.AddCompounds([]float64{0.25, 0.25}, []string{"HCl", "NaOH"}, []float64{1, 2})
	require.NoError(t, err)
	require.Len(t, stocks, 2)
	assert.Zero(t, stocks[0].Volume)
	assert.Equal(t, 1.0, s.Volume)
	assert.InDelta(t, 0.25, s.Concentration("HCl"), 1e-12)
	assert.InDelta(t, 0.5, s.Concentration("NaOH"), 1e-12)

	_, err = s.AddCompounds([]float64{1}, []string{"a", "b"}, []float64{1})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestSolutionCleanUp(t *testing.T) {
	s, err := NewSolution(1, []string{"a", "b", "c"}, []float64{0, 1, 0})
	require.NoError(t, err)
	s.CleanUp()
	assert.Equal(t, []string{"b"}, s.Compounds)
	assert.Equal(t, []float64{1}, s.Concentrations)

	_, err = NewSolution(1, []string{"a"}, nil)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}
