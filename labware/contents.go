package labware

import (
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"

	"chemcpu/chem"
)

// Property names a compound field that Contents can project.
type Property string

const (
	PropID            Property = "id"
	PropName          Property = "name"
	PropType          Property = "type"
	PropFormula       Property = "formula"
	PropMass          Property = "mass"
	PropConcentration Property = "concentration"
	PropVolume        Property = "volume"
	// PropWellVolume is the aggregate volume of the well holding the compound.
	PropWellVolume    Property = "well_volume"
)

// DefaultProperties mirrors the usual review columns.
var DefaultProperties = []Property{PropMass, PropName, PropID, PropType}

var knownProperties = map[Property]bool{
	PropID: true, PropName: true, PropType: true, PropFormula: true,
	PropMass: true, PropConcentration: true, PropVolume: true, PropWellVolume: true,
}

var propertyAliases = map[string]Property{
	"cid":               PropID,
	"compound_id":       PropID,
	"compound_name":     PropName,
	"compound_type":     PropType,
	"molecular_formula": PropFormula,
	"molar_mass":        PropMass,
	"molarity":          PropConcentration,
	"compound_volume":   PropVolume,
}

// ParseProperty normalises a property name to snake case, so "ID",
// "WellVolume" and "well_volume" are all accepted, and resolves aliases
// such as "cid" and "compound_type".
func ParseProperty(s string) (Property, error) {
	s = strings.TrimSpace(s)
	for _, key := range []string{strings.ToLower(s), strcase.ToSnake(s)} {
		if knownProperties[Property(key)] {
			return Property(key), nil
		}
		if p, ok := propertyAliases[key]; ok {
			return p, nil
		}
	}
	return "", fmt.Errorf("labware: unknown compound property %q", s)
}

func (p Property) value(w *Well, c chem.Compound) any {
	switch p {
	case PropWellVolume:
		return w.Volume()
	case PropID:
		return c.ID
	case PropName:
		return c.Name
	case PropType:
		return c.Type
	case PropFormula:
		return c.Formula
	case PropMass:
		return c.Mass
	case PropConcentration:
		return c.Concentration
	case PropVolume:
		return c.Volume
	}
	return nil
}

// Contents is a column-oriented projection of compound fields. Row i of
// every column describes the same compound.
type Contents struct {
	Positions   []Position
	WellVolumes []float64
	Columns     map[Property][]any
	Properties  []Property
}

// Len is the number of compound rows.
func (c *Contents) Len() int { return len(c.Positions) }

// Contents projects properties of the compounds at locations. No locations
// means every filled well. A non-empty typeFilter keeps only compounds of
// that type.
func (c *Container) Contents(locations []Position, properties []Property, typeFilter string) (*Contents, error) {
	if len(locations) == 0 {
		locations = c.ListFilledPositions()
	}
	if len(properties) == 0 {
		properties = DefaultProperties
	}
	out := &Contents{
		Columns:    make(map[Property][]any, len(properties)),
		Properties: properties,
	}
	for _, p := range properties {
		if !knownProperties[p] {
			return nil, fmt.Errorf("labware: unknown compound property %q", p)
		}
	}
	for _, loc := range locations {
		w, err := c.Well(loc)
		if err != nil {
			return nil, err
		}
		for _, cmp := range w.Mixture.Compounds() {
			if typeFilter != "" && cmp.Type != typeFilter {
				continue
			}
			out.Positions = append(out.Positions, loc)
			out.WellVolumes = append(out.WellVolumes, w.Volume())
			for _, p := range properties {
				out.Columns[p] = append(out.Columns[p], p.value(w, cmp))
			}
		}
	}
	return out, nil
}
