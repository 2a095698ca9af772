package transfer

import (
	"fmt"

	"chemcpu/labware"
)

// RowSum pools every row of fromRect into one well of toRect: the i-th row
// of the source rectangle goes to the i-th destination position.
func RowSum(from *labware.Container, fromRect labware.Rect, to *labware.Container, toRect labware.Rect, volume float64) (*TaskList, error) {
	rows := labware.SeparateByRow(labware.RectanglePositions(fromRect.From, fromRect.To))
	dests := labware.RectanglePositions(toRect.From, toRect.To)
	if len(dests) < len(rows) {
		return nil, &ConstructionError{
			Field:  "to_positions",
			Reason: fmt.Sprintf("%d rows to sum into %d wells", len(rows), len(dests)),
		}
	}
	list := NewTaskList("row sums")
	for i, row := range rows {
		t, err := NewTask(Spec{
			From: from, FromPositions: row,
			To: to, ToPositions: []labware.Position{dests[i]},
			Volumes:     []float64{volume},
			Group:       "rowsums",
			Description: fmt.Sprintf("row sum %d", i),
		})
		if err != nil {
			return nil, err
		}
		list.Add(t)
	}
	return list, nil
}

// BlockSum pools every well of fromRect into a single destination well.
func BlockSum(from *labware.Container, fromRect labware.Rect, to *labware.Container, dest labware.Position, volume float64) (*TaskList, error) {
	t, err := NewTask(Spec{
		From: from, FromPositions: labware.RectanglePositions(fromRect.From, fromRect.To),
		To: to, ToPositions: []labware.Position{dest},
		Volumes:     []float64{volume},
		Group:       "blocksum",
		Description: "block sum",
	})
	if err != nil {
		return nil, err
	}
	return NewTaskList("block sum", t), nil
}

// SpotSpec describes spotting from a source plate onto a target plate.
type SpotSpec struct {
	From *labware.Container
	// FromRect nil means every filled well of From.
	FromRect *labware.Rect
	To       *labware.Container
	// ToRect nil means every well of To.
	ToRect *labware.Rect
	Volume float64
	// SamePositions spots each source onto the same coordinates of To.
	SamePositions bool
	RepeatEach    int
	Group         string
}

// Spot builds a single spotting task.
func Spot(s SpotSpec) (*TaskList, error) {
	if s.From == nil || s.To == nil {
		return nil, &ConstructionError{Field: "containers", Reason: "spotting needs a source and a target"}
	}
	var src []labware.Position
	if s.FromRect != nil {
		src = labware.RectanglePositions(s.FromRect.From, s.FromRect.To)
	} else {
		src = s.From.ListFilledPositions()
	}
	var dst []labware.Position
	switch {
	case s.SamePositions:
		dst = src
	case s.ToRect != nil:
		dst = labware.RectanglePositions(s.ToRect.From, s.ToRect.To)
	default:
		dst = labware.RectanglePositions(labware.Position{}, labware.Position{Row: s.To.Rows() - 1, Col: s.To.Cols() - 1})
	}
	group := s.Group
	if group == "" {
		group = "spotting"
	}
	t, err := NewTask(Spec{
		From: s.From, FromPositions: src,
		To: s.To, ToPositions: dst,
		Volumes:     []float64{s.Volume},
		Group:       group,
		Description: fmt.Sprintf("spot %s onto %s", s.From.Description(), s.To.Description()),
		RepeatEach:  s.RepeatEach,
	})
	if err != nil {
		return nil, err
	}
	return NewTaskList("spotting", t), nil
}

// DilutionSpec describes a ratio series: every sample is spread over
// len(Ratios) destination wells, each receiving TotalVolume*ratio of sample
// and the rest as solvent.
type DilutionSpec struct {
	From             *labware.Container
	FromPositions    []labware.Position
	SolventPositions []labware.Position
	To               *labware.Container
	ToRect           labware.Rect
	TotalVolume      float64
	Ratios           []float64
	Group            string
}

// Dilution builds one sample task and one solvent task per sample.
// Solvent wells are cycled over the ratios.
func Dilution(s DilutionSpec) (*TaskList, error) {
	if len(s.Ratios) == 0 {
		return nil, &ConstructionError{Field: "ratios", Reason: "no dilution ratios"}
	}
	if len(s.FromPositions) == 0 {
		return nil, &ConstructionError{Field: "from_positions", Reason: "no samples"}
	}
	if len(s.SolventPositions) == 0 {
		return nil, &ConstructionError{Field: "solvent_positions", Reason: "no solvent wells"}
	}
	for _, r := range s.Ratios {
		if r < 0 || r > 1 {
			return nil, &ConstructionError{Field: "ratios", Reason: fmt.Sprintf("ratio %g outside [0, 1]", r)}
		}
	}
	chunks := labware.SeparateByCount(labware.RectanglePositions(s.ToRect.From, s.ToRect.To), len(s.Ratios))
	if len(chunks) < len(s.FromPositions) || len(chunks[len(s.FromPositions)-1]) < len(s.Ratios) {
		return nil, &ConstructionError{
			Field:  "to_positions",
			Reason: fmt.Sprintf("%d samples need %d wells", len(s.FromPositions), len(s.FromPositions)*len(s.Ratios)),
		}
	}
	solvent := make([]labware.Position, len(s.Ratios))
	sampleVols := make([]float64, len(s.Ratios))
	solventVols := make([]float64, len(s.Ratios))
	for i, r := range s.Ratios {
		solvent[i] = s.SolventPositions[i%len(s.SolventPositions)]
		sampleVols[i] = s.TotalVolume * r
		solventVols[i] = s.TotalVolume * (1 - r)
	}
	group := s.Group
	if group == "" {
		group = "dilution"
	}

	list := NewTaskList("dilution")
	for i, p := range s.FromPositions {
		sample, err := NewTask(Spec{
			From: s.From, FromPositions: []labware.Position{p},
			To: s.To, ToPositions: chunks[i],
			Volumes:     sampleVols,
			Group:       fmt.Sprintf("%s (sample)", group),
			Description: fmt.Sprintf("dilution sample %s", s.From.Label(p)),
		})
		if err != nil {
			return nil, err
		}
		solv, err := NewTask(Spec{
			From: s.From, FromPositions: solvent,
			To: s.To, ToPositions: chunks[i],
			Volumes:     solventVols,
			Group:       fmt.Sprintf("%s (solvent)", group),
			Description: fmt.Sprintf("dilution solvent %s", s.From.Label(p)),
		})
		if err != nil {
			return nil, err
		}
		list.Add(sample, solv)
	}
	return list, nil
}
