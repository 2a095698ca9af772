// Package protocol loads lab protocols from YAML: the containers with their
// initial contents and the transfer tasks to run between them.
package protocol

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"chemcpu/chem"
	"chemcpu/labware"
	"chemcpu/transfer"
)

var (
	ErrUnknownContainer   = errors.New("protocol: unknown container")
	ErrDuplicateContainer = errors.New("protocol: duplicate container name")
)

// File is the YAML document.
type File struct {
	Description string          `yaml:"description"`
	Containers  []ContainerSpec `yaml:"containers"`
	Tasks       []TaskSpec      `yaml:"tasks"`
}

// ContainerSpec declares a container either by preset or by geometry.
type ContainerSpec struct {
	Name            string        `yaml:"name"`
	Preset          string        `yaml:"preset,omitempty"`
	Rows            int           `yaml:"rows,omitempty"`
	Cols            int           `yaml:"cols,omitempty"`
	VolumeMin       float64       `yaml:"volume_min,omitempty"`
	VolumeMax       float64       `yaml:"volume_max,omitempty"`
	VolumeIncrement float64       `yaml:"volume_increment,omitempty"`
	Contents        []ContentSpec `yaml:"contents,omitempty"`
}

// ContentSpec places a mixture. With bounds, every well in them receives
// volume; with a single position the mixture may spill into further empty
// wells; with neither it goes to the first empty well.
type ContentSpec struct {
	Name      string          `yaml:"name"`
	Position  string          `yaml:"position,omitempty"`
	Bounds    []string        `yaml:"bounds,omitempty"`
	Compounds []chem.Compound `yaml:"compounds"`
	Volume    float64         `yaml:"volume"`
}

// TaskSpec declares a transfer task. Position entries are lettergrid labels
// or ranges such as "A1:B4".
type TaskSpec struct {
	Description   string          `yaml:"description"`
	Group         string          `yaml:"group,omitempty"`
	From          string          `yaml:"from"`
	FromPositions []string        `yaml:"from_positions"`
	To            string          `yaml:"to"`
	ToPositions   []string        `yaml:"to_positions"`
	Volumes       []float64       `yaml:"volumes"`
	Delays        []time.Duration `yaml:"delays,omitempty"`
	RepeatEach    int             `yaml:"repeat_each,omitempty"`
	RepeatAll     int             `yaml:"repeat_all,omitempty"`
}

// Load decodes a protocol. Unknown keys are rejected.
func Load(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing protocol: %w", err)
	}
	return &f, nil
}

// LoadFile opens and decodes a protocol file.
func LoadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading protocol: %w", err)
	}
	defer fh.Close()
	return Load(fh)
}

// Lab is a built protocol, ready to run.
type Lab struct {
	Description string
	Containers  map[string]*labware.Container
	// Order lists container names as declared.
	Order []string
	Tasks *transfer.TaskList
}

// Container returns the named container.
func (l *Lab) Container(name string) (*labware.Container, error) {
	c, ok := l.Containers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownContainer, name)
	}
	return c, nil
}

// Build creates the containers, fills them and constructs every task.
func Build(f *File, opts ...labware.Option) (*Lab, error) {
	lab := &Lab{
		Description: f.Description,
		Containers:  make(map[string]*labware.Container, len(f.Containers)),
		Tasks:       transfer.NewTaskList(f.Description),
	}
	for _, cs := range f.Containers {
		if _, dup := lab.Containers[cs.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateContainer, cs.Name)
		}
		c, err := buildContainer(cs, opts)
		if err != nil {
			return nil, fmt.Errorf("container %q: %w", cs.Name, err)
		}
		lab.Containers[cs.Name] = c
		lab.Order = append(lab.Order, cs.Name)
	}
	for i, ts := range f.Tasks {
		t, err := lab.buildTask(ts)
		if err != nil {
			return nil, fmt.Errorf("task %d (%s): %w", i, ts.Description, err)
		}
		lab.Tasks.Add(t)
	}
	return lab, nil
}

func buildContainer(cs ContainerSpec, opts []labware.Option) (*labware.Container, error) {
	if cs.VolumeIncrement > 0 {
		opts = append(opts, labware.WithVolumeIncrement(cs.VolumeIncrement))
	}
	var (
		c   *labware.Container
		err error
	)
	if cs.Preset != "" {
		p, ok := labware.LookupPreset(cs.Preset)
		if !ok {
			return nil, fmt.Errorf("%w: unknown preset %q", labware.ErrInvalidGeometry, cs.Preset)
		}
		if p.Resizable && cs.Rows > 0 && cs.Cols > 0 {
			c, err = p.NewRack(cs.Name, cs.Rows, cs.Cols, opts...)
		} else {
			c, err = p.New(cs.Name, opts...)
		}
	} else {
		c, err = labware.NewContainer(cs.Name, cs.Rows, cs.Cols, cs.VolumeMin, cs.VolumeMax, opts...)
	}
	if err != nil {
		return nil, err
	}

	for _, content := range cs.Contents {
		if err := fill(c, content); err != nil {
			return nil, fmt.Errorf("contents %q: %w", content.Name, err)
		}
	}
	return c, nil
}

func fill(c *labware.Container, cs ContentSpec) error {
	switch {
	case len(cs.Bounds) > 0:
		ps, err := positions(c, cs.Bounds)
		if err != nil {
			return err
		}
		for _, p := range ps {
			if _, err := c.AddNewMixture(cs.Name, cs.Compounds, &p, cs.Volume); err != nil {
				return err
			}
		}
		return nil
	case cs.Position != "":
		p, err := c.Letters().Decode(cs.Position)
		if err != nil {
			return err
		}
		_, err = c.AddNewMixture(cs.Name, cs.Compounds, &p, cs.Volume)
		return err
	}
	_, err := c.AddNewMixture(cs.Name, cs.Compounds, nil, cs.Volume)
	return err
}

// positions expands labels and ranges with the container's letter table.
func positions(c *labware.Container, labels []string) ([]labware.Position, error) {
	var out []labware.Position
	for _, l := range labels {
		from, to, isRange := strings.Cut(l, ":")
		a, err := c.Letters().Decode(from)
		if err != nil {
			return nil, err
		}
		b := a
		if isRange {
			if b, err = c.Letters().Decode(to); err != nil {
				return nil, err
			}
		}
		out = append(out, labware.RectanglePositions(a, b)...)
	}
	return out, nil
}

func (l *Lab) buildTask(ts TaskSpec) (*transfer.Task, error) {
	from, err := l.Container(ts.From)
	if err != nil {
		return nil, &transfer.ConstructionError{Field: "from", Reason: err.Error()}
	}
	to, err := l.Container(ts.To)
	if err != nil {
		return nil, &transfer.ConstructionError{Field: "to", Reason: err.Error()}
	}
	fromPos, err := positions(from, ts.FromPositions)
	if err != nil {
		return nil, &transfer.ConstructionError{Field: "from_positions", Reason: err.Error()}
	}
	toPos, err := positions(to, ts.ToPositions)
	if err != nil {
		return nil, &transfer.ConstructionError{Field: "to_positions", Reason: err.Error()}
	}
	return transfer.NewTask(transfer.Spec{
		From:          from,
		FromPositions: fromPos,
		To:            to,
		ToPositions:   toPos,
		Volumes:       ts.Volumes,
		Delays:        ts.Delays,
		Group:         ts.Group,
		Description:   ts.Description,
		RepeatEach:    ts.RepeatEach,
		RepeatAll:     ts.RepeatAll,
	})
}
