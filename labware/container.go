// Package labware models addressable labware: plates, racks and tubes made
// of a fixed grid of capacity-limited wells.
package labware

import (
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/google/uuid"

	"chemcpu/chem"
)

var (
	ErrUnknownPosition = errors.New("labware: unknown position")
	ErrUnknownMixture  = errors.New("labware: unknown mixture")
	ErrContainerFull   = errors.New("labware: no empty positions available")
	ErrOccupied        = errors.New("labware: position already holds a mixture")
	ErrInvalidGeometry = errors.New("labware: invalid container geometry")
)

// Well is the fundamental addressable unit of a Container.
type Well struct {
	Name     string
	Position Position
	Mixture  *chem.Mixture
	// Group is the label of the last transfer group that wrote to the well.
	Group string
}

// Volume is the well's aggregate liquid volume in nL.
func (w *Well) Volume() float64 { return w.Mixture.Volume }

// Container is an aggregate of Wells: a well plate, a tube rack or a single
// tube. Volumes are in nL. Capacity bounds are fixed at construction.
type Container struct {
	id          uuid.UUID
	description string
	rows, cols  int
	volumeMin   float64
	volumeMax   float64
	increment   float64
	letters     LetterTable
	wells       []*Well
}

// Option configures a Container at construction.
type Option func(*Container)

// WithVolumeIncrement sets the transfer resolution associated with the
// container, in nL.
func WithVolumeIncrement(nl float64) Option {
	return func(c *Container) { c.increment = nl }
}

// WithLetters replaces the lettergrid table used for well names.
func WithLetters(t LetterTable) Option {
	return func(c *Container) { c.letters = t }
}

// NewContainer allocates rows x cols empty wells bounded by
// [volumeMin, volumeMax].
func NewContainer(description string, rows, cols int, volumeMin, volumeMax float64, opts ...Option) (*Container, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidGeometry, rows, cols)
	}
	if volumeMin < 0 || volumeMax <= volumeMin {
		return nil, fmt.Errorf("%w: volume bounds [%g, %g]", ErrInvalidGeometry, volumeMin, volumeMax)
	}
	c := &Container{
		id:          uuid.New(),
		description: description,
		rows:        rows,
		cols:        cols,
		volumeMin:   volumeMin,
		volumeMax:   volumeMax,
		increment:   1,
		letters:     defaultLetters,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.increment <= 0 {
		return nil, fmt.Errorf("%w: volume increment %g", ErrInvalidGeometry, c.increment)
	}
	c.wells = make([]*Well, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for col := 0; col < cols; col++ {
			p := Position{Row: r, Col: col}
			c.wells = append(c.wells, &Well{
				Name:     c.label(p),
				Position: p,
				Mixture:  chem.NewMixture(0),
			})
		}
	}
	return c, nil
}

func (c *Container) ID() uuid.UUID            { return c.id }
func (c *Container) Description() string      { return c.description }
func (c *Container) Rows() int                { return c.rows }
func (c *Container) Cols() int                { return c.cols }
func (c *Container) VolumeMin() float64       { return c.volumeMin }
func (c *Container) VolumeMax() float64       { return c.volumeMax }
func (c *Container) VolumeIncrement() float64 { return c.increment }
func (c *Container) Letters() LetterTable     { return c.letters }

// UsableVolume is the liquid a single well can hold above its dead volume.
func (c *Container) UsableVolume() float64 { return c.volumeMax - c.volumeMin }

// Label renders p with the container's letter table, falling back to the
// numeric form for rows outside the table.
func (c *Container) label(p Position) string {
	if s, err := c.letters.Encode(p); err == nil {
		return s
	}
	return p.String()
}

// Label is the lettergrid name of p.
func (c *Container) Label(p Position) string { return c.label(p) }

// Contains reports whether p addresses a well of the container.
func (c *Container) Contains(p Position) bool {
	return p.Row >= 0 && p.Row < c.rows && p.Col >= 0 && p.Col < c.cols
}

// Well returns the well at p.
func (c *Container) Well(p Position) (*Well, error) {
	if !c.Contains(p) {
		return nil, fmt.Errorf("%w: %s has no well %v", ErrUnknownPosition, c.description, p)
	}
	return c.wells[p.Row*c.cols+p.Col], nil
}

// WellByName returns the first well, in row-major order, whose mixture
// carries name.
func (c *Container) WellByName(name string) (*Well, bool) {
	for _, w := range c.wells {
		if w.Name == name {
			return w, true
		}
	}
	return nil, false
}

// Wells iterates over every well in row-major order.
func (c *Container) Wells() iter.Seq[*Well] {
	return func(yield func(*Well) bool) {
		for _, w := range c.wells {
			if !yield(w) {
				return
			}
		}
	}
}

// Volume returns the aggregate volume of the well at p.
func (c *Container) Volume(p Position) (float64, error) {
	w, err := c.Well(p)
	if err != nil {
		return 0, err
	}
	return w.Volume(), nil
}

// AddVolume changes the well's aggregate volume by delta without touching
// its compounds. Capacity bounds are not enforced here; the transfer layer
// checks them before it moves liquid.
func (c *Container) AddVolume(p Position, delta float64) error {
	w, err := c.Well(p)
	if err != nil {
		return err
	}
	w.Mixture.Volume += delta
	return nil
}

// FindEmptyLocation returns the first unoccupied well in row-major order.
func (c *Container) FindEmptyLocation() (Position, error) {
	for _, w := range c.wells {
		if !c.occupied(w) {
			return w.Position, nil
		}
	}
	return Position{}, fmt.Errorf("%w: %s", ErrContainerFull, c.description)
}

// AddCompoundsToLocation merges compounds into the well at p and changes
// its aggregate volume by volume.
func (c *Container) AddCompoundsToLocation(p Position, compounds []chem.Compound, volume float64) error {
	w, err := c.Well(p)
	if err != nil {
		return err
	}
	for _, cmp := range compounds {
		if err := cmp.Validate(); err != nil {
			return err
		}
	}
	w.Mixture.Merge(spread(compounds, volume), volume)
	return nil
}

// spread gives volumeless compounds an even share of volume.
func spread(compounds []chem.Compound, volume float64) []chem.Compound {
	out := make([]chem.Compound, len(compounds))
	copy(out, compounds)
	for _, c := range out {
		if c.Volume != 0 {
			return out
		}
	}
	for i := range out {
		out[i].Volume = volume / float64(len(out))
	}
	return out
}

// Withdraw takes volume out of the well at p and returns the compounds that
// left with it.
func (c *Container) Withdraw(p Position, volume float64) ([]chem.Compound, error) {
	w, err := c.Well(p)
	if err != nil {
		return nil, err
	}
	return w.Mixture.Withdraw(volume), nil
}

// AddNewMixture places a named mixture. With no position it goes to the
// first empty well. A volume larger than one well's usable range is split
// over as many further empty wells as needed; each well is filled to
// volumeMax (the last one to its remainder plus the dead volume) and each
// compound's share is rescaled to the well's volume. It returns the wells
// written.
func (c *Container) AddNewMixture(name string, compounds []chem.Compound, at *Position, volume float64) ([]Position, error) {
	for _, cmp := range compounds {
		if err := cmp.Validate(); err != nil {
			return nil, err
		}
	}
	usable := c.UsableVolume()
	wells := 1
	if volume > 0 {
		wells = int(volume / usable)
		if volume-float64(wells)*usable > 0 {
			wells++
		}
	}

	remaining := volume
	var written []Position
	for i := 0; i < wells; i++ {
		var p Position
		if at != nil && i == 0 {
			p = *at
		} else {
			var err error
			if p, err = c.FindEmptyLocation(); err != nil {
				return written, err
			}
		}
		w, err := c.Well(p)
		if err != nil {
			return written, err
		}
		if c.occupied(w) {
			return written, fmt.Errorf("%w: %s %s", ErrOccupied, c.description, c.label(p))
		}

		var fill float64
		if remaining > 0 {
			if remaining > usable {
				fill = c.volumeMax
				remaining -= usable
			} else {
				fill = remaining + c.volumeMin
				remaining = 0
			}
		}
		w.Name = name
		w.Mixture = chem.NewMixture(fill, scaleCompounds(compounds, fill)...)
		written = append(written, p)
	}
	return written, nil
}

// scaleCompounds rescales compound volumes so that they sum to total,
// keeping their proportions; volumeless compounds share total evenly.
func scaleCompounds(compounds []chem.Compound, total float64) []chem.Compound {
	out := make([]chem.Compound, len(compounds))
	copy(out, compounds)
	if total == 0 || len(out) == 0 {
		for i := range out {
			out[i].Volume = 0
		}
		return out
	}
	var former float64
	for _, c := range out {
		former += c.Volume
	}
	for i := range out {
		if former > 0 {
			out[i].Volume = total * out[i].Volume / former
		} else {
			out[i].Volume = total / float64(len(out))
		}
	}
	return out
}

// occupied reports whether w holds compounds or liquid, or was claimed by
// a named mixture.
func (c *Container) occupied(w *Well) bool {
	return !w.Mixture.IsEmpty() || w.Volume() > 0 || w.Name != c.label(w.Position)
}

// CountFilled is the number of wells holding compounds.
func (c *Container) CountFilled() int {
	return len(c.ListFilledPositions())
}

// ListFilledPositions returns wells holding compounds, row-major.
func (c *Container) ListFilledPositions() []Position {
	return c.positionsWhere(func(w *Well) bool { return !w.Mixture.IsEmpty() })
}

// ListEmptyPositions returns wells holding no compounds, row-major.
func (c *Container) ListEmptyPositions() []Position {
	return c.positionsWhere(func(w *Well) bool { return w.Mixture.IsEmpty() })
}

// PositionsByType returns wells holding at least one compound of typ.
func (c *Container) PositionsByType(typ string) []Position {
	return c.positionsWhere(func(w *Well) bool { return w.Mixture.HasType(typ) })
}

func (c *Container) positionsWhere(pred func(*Well) bool) []Position {
	var out []Position
	for _, w := range c.wells {
		if pred(w) {
			out = append(out, w.Position)
		}
	}
	return out
}

func (c *Container) String() string {
	return fmt.Sprintf("Container: description=%s, wells=%d, shape=(%d,%d), filled_wells=%d",
		c.description, c.rows*c.cols, c.rows, c.cols, c.CountFilled())
}

// VolumeMap renders the well volumes as a grid, one row per line.
func (c *Container) VolumeMap() string {
	var b strings.Builder
	for r := 0; r < c.rows; r++ {
		for col := 0; col < c.cols; col++ {
			w := c.wells[r*c.cols+col]
			if w.Mixture.IsEmpty() && w.Volume() == 0 {
				b.WriteString("     _____")
				continue
			}
			fmt.Fprintf(&b, "%10d", int64(w.Volume()))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
