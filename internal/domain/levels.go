package domain

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// LevelKind is the kind of target level.
type LevelKind int

const (
	// KindPressure targets pressure levels (Pa).
	KindPressure LevelKind = iota
	// KindHeight targets height levels (m).
	KindHeight
)

// String returns the kind name.
func (k LevelKind) String() string {
	if k == KindHeight {
		return "height"
	}
	return "pressure"
}

// ParseLevelKind parses "pressure" or "height".
func ParseLevelKind(s string) (LevelKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pressure", "":
		return KindPressure, nil
	case "height":
		return KindHeight, nil
	}
	return KindPressure, fmt.Errorf("unknown level kind %q (use pressure or height)", s)
}

// LevelScale is the transform applied to level coordinates before interpolation.
type LevelScale int

const (
	// ScaleLinear interpolates linearly in pressure.
	ScaleLinear LevelScale = iota
	// ScaleLog interpolates linearly in log-pressure.
	ScaleLog
)

// DefaultLevelsKeyword selects the built-in level list.
const DefaultLevelsKeyword = "default"

// Built-in level lists.
var (
	DefaultHeightLevels = []float64{10, 50, 100, 500, 1000, 5000, 10000, 15000, 20000, 25000, 30000}

	DefaultPressureLevels = []float64{
		100000, 92500, 85000, 70000, 60000, 50000, 40000, 30000, 25000, 20000, 15000,
		10000, 7000, 5000, 3000, 2000, 1000,
	}
)

// DefaultLevels returns a copy of the built-in list for the kind.
func DefaultLevels(kind LevelKind) []float64 {
	if kind == KindHeight {
		return slices.Clone(DefaultHeightLevels)
	}
	return slices.Clone(DefaultPressureLevels)
}

// ParseLevelArgs parses operator arguments: either the single keyword "default" or a list
// of numbers, each argument possibly holding several comma-separated values.
func ParseLevelArgs(args []string, kind LevelKind) ([]float64, error) {
	if len(args) == 1 && strings.TrimSpace(args[0]) == DefaultLevelsKeyword {
		return DefaultLevels(kind), nil
	}

	levels := make([]float64, 0, len(args))
	for _, arg := range args {
		for _, field := range strings.Split(arg, ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid level %q: %w", field, err)
			}
			levels = append(levels, v)
		}
	}
	if len(levels) == 0 {
		return nil, ErrNoLevels
	}
	return levels, nil
}

// TargetLevels is the ordered set of target levels of a run.
type TargetLevels struct {
	Kind   LevelKind
	Scale  LevelScale
	values []float64 // User-facing levels (Pa or m).
	coords []float64 // Pressures, or their logarithms.
}

// NewTargetLevels converts levels into interpolation coordinates: heights become
// pressures, and log scale takes the natural logarithm. Order and length are preserved.
func NewTargetLevels(kind LevelKind, scale LevelScale, levels []float64) (TargetLevels, error) {
	if len(levels) == 0 {
		return TargetLevels{}, ErrNoLevels
	}
	coords := make([]float64, len(levels))
	for i, v := range levels {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return TargetLevels{}, fmt.Errorf("invalid level %g", v)
		}
		p := v
		if kind == KindHeight {
			p = HeightToPressure(v)
		}
		if scale == ScaleLog {
			if p <= 0 {
				return TargetLevels{}, fmt.Errorf("level %g: log scale requires positive pressure", v)
			}
			p = math.Log(p)
		}
		coords[i] = p
	}
	return TargetLevels{
		Kind:   kind,
		Scale:  scale,
		values: slices.Clone(levels),
		coords: coords,
	}, nil
}

// Len returns the number of target levels.
func (t TargetLevels) Len() int {
	return len(t.values)
}

// Values returns the user-facing level values.
func (t TargetLevels) Values() []float64 {
	return slices.Clone(t.values)
}

// Coordinates returns the values used for indexing and interpolation.
func (t TargetLevels) Coordinates() []float64 {
	return slices.Clone(t.coords)
}

// Pressures returns the target pressures (Pa) regardless of scale.
func (t TargetLevels) Pressures() []float64 {
	out := slices.Clone(t.coords)
	if t.Scale == ScaleLog {
		for i := range out {
			out[i] = math.Exp(out[i])
		}
	}
	return out
}

// ZAxis returns the output vertical axis for the levels.
func (t TargetLevels) ZAxis() ZAxis {
	if t.Kind == KindHeight {
		return ZAxis{Type: ZAxisHeight, Name: "height", Units: "m", Levels: t.Values()}
	}
	return ZAxis{Type: ZAxisPressure, Name: "plev", Units: "Pa", Levels: t.Values()}
}
