package labware

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Preset describes a commercial plate or tube. Volumes are in nL.
type Preset struct {
	Name      string
	Rows      int
	Cols      int
	VolumeMin float64
	VolumeMax float64
	// Resizable presets (tubes) accept a caller-chosen rack geometry.
	Resizable bool
}

var presets = []Preset{
	{Name: "WellPlate1536LDV", Rows: 32, Cols: 48, VolumeMin: 1000, VolumeMax: 5500},
	{Name: "WellPlate384LDV", Rows: 16, Cols: 24, VolumeMin: 2500, VolumeMax: 12000},
	{Name: "WellPlate384PP", Rows: 16, Cols: 24, VolumeMin: 15000, VolumeMax: 65000},
	{Name: "MaldiPlate1536", Rows: 32, Cols: 48, VolumeMin: 0, VolumeMax: 500},
	{Name: "MaldiPlate384", Rows: 16, Cols: 24, VolumeMin: 0, VolumeMax: 1000},
	{Name: "WellPlate384", Rows: 16, Cols: 24, VolumeMin: 10000, VolumeMax: 120000},
	{Name: "WellPlate96", Rows: 8, Cols: 12, VolumeMin: 100000, VolumeMax: 400000},
	{Name: "WellPlate24", Rows: 4, Cols: 6, VolumeMin: 450000, VolumeMax: 3400000},
	{Name: "Microtube15", Rows: 1, Cols: 1, VolumeMin: 50000, VolumeMax: 1500000, Resizable: true},
	{Name: "Microtube20", Rows: 1, Cols: 1, VolumeMin: 70000, VolumeMax: 2000000, Resizable: true},
	{Name: "Tube15", Rows: 1, Cols: 1, VolumeMin: 250000, VolumeMax: 15000000, Resizable: true},
	{Name: "Tube50", Rows: 1, Cols: 1, VolumeMin: 500000, VolumeMax: 50000000, Resizable: true},
}

// Presets returns the preset table sorted by name.
func Presets() []Preset {
	out := append([]Preset(nil), presets...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func presetKey(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, s)
}

// LookupPreset finds a preset ignoring case and separators, so
// "well_plate_384_pp" matches "WellPlate384PP".
func LookupPreset(name string) (Preset, bool) {
	key := presetKey(name)
	for _, p := range presets {
		if presetKey(p.Name) == key {
			return p, true
		}
	}
	return Preset{}, false
}

// New builds an empty container from the preset.
func (p Preset) New(description string, opts ...Option) (*Container, error) {
	return NewContainer(description, p.Rows, p.Cols, p.VolumeMin, p.VolumeMax, opts...)
}

// NewRack builds a resizable preset with a custom geometry.
func (p Preset) NewRack(description string, rows, cols int, opts ...Option) (*Container, error) {
	if !p.Resizable {
		return nil, fmt.Errorf("%w: preset %s has fixed geometry", ErrInvalidGeometry, p.Name)
	}
	return NewContainer(description, rows, cols, p.VolumeMin, p.VolumeMax, opts...)
}

// NewFromPreset looks a preset up by name and builds a container from it.
func NewFromPreset(name, description string, opts ...Option) (*Container, error) {
	p, ok := LookupPreset(name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown preset %q", ErrInvalidGeometry, name)
	}
	return p.New(description, opts...)
}
