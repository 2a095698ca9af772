package protocol

import (
	"strconv"

	"github.com/iancoleman/strcase"
	"github.com/takuoki/gocase"

	"chemcpu/labware"
)

// WellRecord is one compound of one well, flattened for output. Wells that
// hold liquid but no compounds produce a single record with an empty
// CompoundID.
type WellRecord struct {
	Container     string  `yaml:"container" json:"container"`
	Position      string  `yaml:"position" json:"position"`
	Mixture       string  `yaml:"mixture,omitempty" json:"mixture,omitempty"`
	CompoundID    string  `yaml:"compound_id,omitempty" json:"compound_id,omitempty"`
	Name          string  `yaml:"name,omitempty" json:"name,omitempty"`
	Type          string  `yaml:"type,omitempty" json:"type,omitempty"`
	Concentration float64 `yaml:"concentration" json:"concentration"`
	Volume        float64 `yaml:"volume" json:"volume"`
	WellVolume    float64 `yaml:"well_volume" json:"well_volume"`
	Group         string  `yaml:"group,omitempty" json:"group,omitempty"`
}

// ConvertWell flattens a well. Concentration is the compound's
// concentration in the well, not in its stock.
func ConvertWell(c *labware.Container, w *labware.Well, style labware.GridStyle) []WellRecord {
	base := WellRecord{
		Container:  c.Description(),
		Position:   formatPosition(c, w.Position, style),
		WellVolume: w.Volume(),
		Group:      w.Group,
	}
	if w.Name != c.Label(w.Position) {
		base.Mixture = w.Name
	}
	compounds := w.Mixture.Compounds()
	if len(compounds) == 0 {
		if w.Volume() == 0 {
			return nil
		}
		return []WellRecord{base}
	}
	ret := make([]WellRecord, len(compounds))
	for i, cmp := range compounds {
		r := base
		r.CompoundID = cmp.ID
		r.Name = cmp.Name
		r.Type = cmp.Type
		r.Concentration = w.Mixture.Concentration(cmp.ID)
		r.Volume = cmp.Volume
		ret[i] = r
	}
	return ret
}

func formatPosition(c *labware.Container, p labware.Position, style labware.GridStyle) string {
	if style == labware.GridLetter {
		return c.Label(p)
	}
	return labware.FormatPosition(p, style)
}

// Readout flattens every non-empty well of c, row-major.
func Readout(c *labware.Container, style labware.GridStyle) []WellRecord {
	var result []WellRecord
	for w := range c.Wells() {
		result = append(result, ConvertWell(c, w, style)...)
	}
	return result
}

// ReadoutLab flattens every container of the lab in declaration order.
func ReadoutLab(l *Lab, style labware.GridStyle) []WellRecord {
	var result []WellRecord
	for _, name := range l.Order {
		result = append(result, Readout(l.Containers[name], style)...)
	}
	return result
}

var recordColumns = []string{
	"container", "position", "mixture", "compound_id", "name", "type",
	"concentration", "volume", "well_volume", "group",
}

// Headers are the Go-style column titles of a record table.
func Headers() []string {
	out := make([]string, len(recordColumns))
	for i, c := range recordColumns {
		out[i] = gocase.To(strcase.ToCamel(c))
	}
	return out
}

// Row renders a record in column order.
func (r WellRecord) Row() []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', 6, 64) }
	return []string{
		r.Container, r.Position, r.Mixture, r.CompoundID, r.Name, r.Type,
		f(r.Concentration), f(r.Volume), f(r.WellVolume), r.Group,
	}
}
