// Package chem models the chemical contents of wells: compounds, the
// per-well Mixture, and the position-independent Solution used for ideal
// mixing arithmetic.
//
// Volumes on Compound and Mixture are in nanolitres, matching the liquid
// handler. Solution volumes are in litres and concentrations are molar.
package chem

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidCompound = errors.New("chem: invalid compound")

// Common compound types used by the acid/base encoding.
const (
	TypeAcid      = "acid"
	TypeBase      = "base"
	TypeWater     = "water"
	TypeIndicator = "indicator"
)

// NanolitresPerLitre converts well volumes to Solution volumes.
const NanolitresPerLitre = 1e9

// Compound is one chemical species held in a well. Concentration is the
// molar concentration of the stock it was dispensed from and Volume is how
// much of that stock the well holds.
type Compound struct {
	ID            string  `yaml:"id" json:"id"`
	Name          string  `yaml:"name,omitempty" json:"name,omitempty"`
	Type          string  `yaml:"type,omitempty" json:"type,omitempty"`
	Formula       string  `yaml:"formula,omitempty" json:"formula,omitempty"`
	Mass          float64 `yaml:"mass,omitempty" json:"mass,omitempty"`
	Concentration float64 `yaml:"concentration" json:"concentration"`
	Volume        float64 `yaml:"volume,omitempty" json:"volume,omitempty"`
}

// NewCompound validates the required fields of a compound record.
func NewCompound(id, name, typ string, concentration float64) (Compound, error) {
	c := Compound{
		ID:            strings.TrimSpace(id),
		Name:          name,
		Type:          strings.ToLower(strings.TrimSpace(typ)),
		Concentration: concentration,
	}
	return c, c.Validate()
}

// Validate reports whether the compound can be placed in a well.
func (c Compound) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidCompound)
	}
	if c.Concentration < 0 {
		return fmt.Errorf("%w: %s has negative concentration %g", ErrInvalidCompound, c.ID, c.Concentration)
	}
	return nil
}

// Moles held in the compound's volume.
func (c Compound) Moles() float64 {
	return c.Concentration * c.Volume / NanolitresPerLitre
}

func (c Compound) String() string {
	if c.Name != "" {
		return fmt.Sprintf("%s (%s) %gM %gnL", c.Name, c.ID, c.Concentration, c.Volume)
	}
	return fmt.Sprintf("%s %gM %gnL", c.ID, c.Concentration, c.Volume)
}
