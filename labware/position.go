package labware

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Position is a zero-indexed (row, col) well address.
type Position struct {
	Row int `yaml:"row" json:"row"`
	Col int `yaml:"col" json:"col"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

var ErrBadLabel = errors.New("labware: malformed grid label")

// LetterTable maps row indices to row labels. The default table covers 52
// rows: A..Z followed by AA..AZ.
type LetterTable []string

// DefaultLetters returns the A..Z, AA..AZ table.
func DefaultLetters() LetterTable {
	t := make(LetterTable, 0, 52)
	for c := 'A'; c <= 'Z'; c++ {
		t = append(t, string(c))
	}
	for c := 'A'; c <= 'Z'; c++ {
		t = append(t, "A"+string(c))
	}
	return t
}

// Encode returns the lettergrid label of p: (0,0) is "A1", (1,3) is "B4".
func (t LetterTable) Encode(p Position) (string, error) {
	if p.Row < 0 || p.Row >= len(t) || p.Col < 0 {
		return "", fmt.Errorf("%w: position %v has no lettergrid label", ErrUnknownPosition, p)
	}
	return t[p.Row] + strconv.Itoa(p.Col+1), nil
}

// Decode is the inverse of Encode.
func (t LetterTable) Decode(label string) (Position, error) {
	label = strings.TrimSpace(label)
	split := strings.IndexFunc(label, unicode.IsDigit)
	if split <= 0 {
		return Position{}, fmt.Errorf("%w: %q", ErrBadLabel, label)
	}
	letters, digits := label[:split], label[split:]
	col, err := strconv.Atoi(digits)
	if err != nil || col < 1 {
		return Position{}, fmt.Errorf("%w: %q", ErrBadLabel, label)
	}
	for row, l := range t {
		if l == letters {
			return Position{Row: row, Col: col - 1}, nil
		}
	}
	return Position{}, fmt.Errorf("%w: unknown row %q in %q", ErrBadLabel, letters, label)
}

var defaultLetters = DefaultLetters()

// ToLetterGrid encodes p with the default letter table.
func ToLetterGrid(p Position) (string, error) {
	return defaultLetters.Encode(p)
}

// FromLetterGrid decodes label with the default letter table.
func FromLetterGrid(label string) (Position, error) {
	return defaultLetters.Decode(label)
}

// MustLetterGrid is ToLetterGrid for positions known to be in range. It
// falls back to the numeric form rather than failing.
func MustLetterGrid(p Position) string {
	s, err := ToLetterGrid(p)
	if err != nil {
		return p.String()
	}
	return s
}

// ToMaldiGrid returns the MALDI instrument label of p. The instrument counts
// X along columns and Y along rows, so (0,0) is "X01Y01" and (1,3) is
// "X04Y02".
func ToMaldiGrid(p Position) string {
	return fmt.Sprintf("X%02dY%02d", p.Col+1, p.Row+1)
}

// FromMaldiGrid parses "XnnYmm" or "YmmXnn".
func FromMaldiGrid(label string) (Position, error) {
	label = strings.ToUpper(strings.TrimSpace(label))
	xi := strings.IndexByte(label, 'X')
	yi := strings.IndexByte(label, 'Y')
	if xi < 0 || yi < 0 {
		return Position{}, fmt.Errorf("%w: %q", ErrBadLabel, label)
	}
	var xs, ys string
	if xi < yi {
		xs, ys = label[xi+1:yi], label[yi+1:]
	} else {
		ys, xs = label[yi+1:xi], label[xi+1:]
	}
	x, errX := strconv.Atoi(xs)
	y, errY := strconv.Atoi(ys)
	if errX != nil || errY != nil || x < 1 || y < 1 {
		return Position{}, fmt.Errorf("%w: %q", ErrBadLabel, label)
	}
	return Position{Row: y - 1, Col: x - 1}, nil
}

// GridStyle selects how positions are rendered for readouts.
type GridStyle int

const (
	GridNone GridStyle = iota
	GridLetter
	GridMaldi
)

// ParseGridStyle accepts "", "none", "letter" and "maldi".
func ParseGridStyle(s string) (GridStyle, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return GridNone, nil
	case "letter":
		return GridLetter, nil
	case "maldi":
		return GridMaldi, nil
	}
	return GridNone, fmt.Errorf("labware: unknown grid style %q", s)
}

// FormatPosition renders p in the given style.
func FormatPosition(p Position, style GridStyle) string {
	switch style {
	case GridLetter:
		return MustLetterGrid(p)
	case GridMaldi:
		return ToMaldiGrid(p)
	}
	return p.String()
}

// ParsePosition parses a label in the given style. GridNone accepts either
// lettergrid labels or the "(row,col)" form produced by Position.String.
func ParsePosition(label string, style GridStyle) (Position, error) {
	switch style {
	case GridLetter:
		return FromLetterGrid(label)
	case GridMaldi:
		return FromMaldiGrid(label)
	}
	var p Position
	if _, err := fmt.Sscanf(strings.TrimSpace(label), "(%d,%d)", &p.Row, &p.Col); err == nil {
		return p, nil
	}
	return FromLetterGrid(label)
}
