package transfer

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"chemcpu/labware"
)

// DefaultRate is the empirical transfer rate of the dispenser in nL/s.
const DefaultRate = 660.5

// Summary describes a task list without running it.
type Summary struct {
	Description  string
	Tasks        int
	Transfers    int
	Sources      []string
	Destinations []string
	TotalVolume  decimal.Decimal
	Delay        time.Duration
	Duration     time.Duration
}

// EstimateDuration converts a volume in nL to dispensing time at rate nL/s.
func EstimateDuration(volume decimal.Decimal, rate float64) time.Duration {
	if rate <= 0 {
		rate = DefaultRate
	}
	us := volume.Div(decimal.NewFromFloat(rate)).Mul(decimal.NewFromInt(1000000)).IntPart()
	return time.Duration(us) * time.Microsecond
}

// Summarize reports counts, distinct containers, total volume and the
// estimated duration at rate nL/s (DefaultRate when rate is not positive).
// Volumes are the requested ones, before device rounding. Containers are
// told apart by ID; a description shared by two containers gets the ID
// prefix of every container after the first.
func (l *TaskList) Summarize(rate float64) Summary {
	s := Summary{Description: l.description, Tasks: len(l.tasks), TotalVolume: decimal.Zero}
	src, dst := newContainerSet(), newContainerSet()
	for _, t := range l.tasks {
		if name, ok := src.add(t.From()); ok {
			s.Sources = append(s.Sources, name)
		}
		if name, ok := dst.add(t.To()); ok {
			s.Destinations = append(s.Destinations, name)
		}
		for _, tr := range t.Expand(false) {
			s.Transfers++
			s.TotalVolume = s.TotalVolume.Add(decimal.NewFromFloat(tr.Volume))
			s.Delay += tr.Delay
		}
	}
	s.Duration = EstimateDuration(s.TotalVolume, rate) + s.Delay
	return s
}

type containerSet struct {
	ids   map[uuid.UUID]bool
	names map[string]bool
}

func newContainerSet() *containerSet {
	return &containerSet{ids: map[uuid.UUID]bool{}, names: map[string]bool{}}
}

// add records c and returns its display name, or false if c was seen.
func (cs *containerSet) add(c *labware.Container) (string, bool) {
	if cs.ids[c.ID()] {
		return "", false
	}
	cs.ids[c.ID()] = true
	name := c.Description()
	if cs.names[name] {
		name += " #" + c.ID().String()[:8]
	}
	cs.names[name] = true
	return name, true
}

func (s Summary) String() string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%s: %d tasks, %d transfers, %v nL from %v to %v, estimated %s",
		s.Description, s.Tasks, s.Transfers, s.TotalVolume.InexactFloat64(),
		s.Sources, s.Destinations, s.Duration.Round(time.Millisecond))
}
