package domain

import (
	"fmt"
	"slices"
)

// GridType identifies the horizontal representation of a grid.
type GridType int

const (
	// GridGeneric is an unspecified gridpoint representation.
	GridGeneric GridType = iota
	// GridLonLat is a regular longitude/latitude grid.
	GridLonLat
	// GridGaussian is a Gaussian grid.
	GridGaussian
	// GridUnstructured is an unstructured cell grid.
	GridUnstructured
	// GridSpectral holds spherical harmonic coefficients.
	GridSpectral
)

// String returns the grid type name.
func (t GridType) String() string {
	switch t {
	case GridLonLat:
		return "lonlat"
	case GridGaussian:
		return "gaussian"
	case GridUnstructured:
		return "unstructured"
	case GridSpectral:
		return "spectral"
	default:
		return "generic"
	}
}

// Grid describes a horizontal grid. Values are stored row-major, X varying fastest.
type Grid struct {
	ID    int
	Type  GridType
	Size  int       // Number of gridpoints.
	XName string    // E.g., "lon", "ncells".
	YName string    // E.g., "lat"; empty for 1D grids.
	X     []float64 // X coordinate values (optional).
	Y     []float64 // Y coordinate values (optional).
}

// ZAxisType identifies the kind of vertical axis.
type ZAxisType int

const (
	// ZAxisSurface is a single surface level.
	ZAxisSurface ZAxisType = iota
	// ZAxisGeneric is an axis without a physical interpretation.
	ZAxisGeneric
	// ZAxisHybrid holds hybrid sigma-pressure full levels.
	ZAxisHybrid
	// ZAxisHybridHalf holds hybrid sigma-pressure half levels.
	ZAxisHybridHalf
	// ZAxisPressure holds pressure levels in Pa.
	ZAxisPressure
	// ZAxisHeight holds height levels in m.
	ZAxisHeight
)

// IsHybrid reports whether the axis type is a hybrid sigma-pressure type.
func (t ZAxisType) IsHybrid() bool {
	return t == ZAxisHybrid || t == ZAxisHybridHalf
}

// String returns the axis type name.
func (t ZAxisType) String() string {
	switch t {
	case ZAxisSurface:
		return "surface"
	case ZAxisHybrid:
		return "hybrid"
	case ZAxisHybridHalf:
		return "hybrid_half"
	case ZAxisPressure:
		return "pressure"
	case ZAxisHeight:
		return "height"
	default:
		return "generic"
	}
}

// ZAxis describes a vertical axis.
type ZAxis struct {
	ID     int
	Type   ZAxisType
	Name   string    // E.g., "lev", "ilev", "plev".
	Units  string    // E.g., "Pa", "m", "level".
	Levels []float64 // Level values; len(Levels) is the axis size.
	VCT    []float64 // Vertical coordinate table (hybrid axes only).
	PSName string    // Surface pressure variable named by the axis formula terms, if any.
}

// Size returns the number of levels on the axis.
func (z ZAxis) Size() int {
	return len(z.Levels)
}

// TableUnset marks a variable without a parameter table number. Table 0 is a real ECHAM
// table.
const TableUnset = -1

// Variable describes one field of the dataset.
type Variable struct {
	ID       int
	Name     string
	StdName  string
	LongName string
	Units    string
	Code     int  // Numeric parameter code; <= 0 or 255 means unknown.
	Table    int  // Parameter table number; TableUnset or 255 when not set.
	Center   int  // Originating center.
	GRIB2    bool // Code is a GRIB2 parameter number and must not be used for table lookups.
	GridID   int
	ZAxisID  int
	MissVal  float64
	Constant bool // Time-invariant; present in the first timestep only.
}

// TimeAxis describes the time coordinate.
type TimeAxis struct {
	Name     string
	Units    string
	Calendar string
}

// Catalog is the metadata of a dataset: grids, vertical axes, variables and time axis.
type Catalog struct {
	Grids []Grid
	ZAxes []ZAxis
	Vars  []Variable
	Time  TimeAxis
}

// Clone returns a deep copy of the catalog.
func (c *Catalog) Clone() *Catalog {
	out := &Catalog{
		Grids: make([]Grid, len(c.Grids)),
		ZAxes: make([]ZAxis, len(c.ZAxes)),
		Vars:  slices.Clone(c.Vars),
		Time:  c.Time,
	}
	for i, g := range c.Grids {
		g.X = slices.Clone(g.X)
		g.Y = slices.Clone(g.Y)
		out.Grids[i] = g
	}
	for i, z := range c.ZAxes {
		z.Levels = slices.Clone(z.Levels)
		z.VCT = slices.Clone(z.VCT)
		out.ZAxes[i] = z
	}
	return out
}

// Grid returns the grid with the given ID.
func (c *Catalog) Grid(id int) (Grid, bool) {
	for _, g := range c.Grids {
		if g.ID == id {
			return g, true
		}
	}
	return Grid{}, false
}

// ZAxis returns the vertical axis with the given ID.
func (c *Catalog) ZAxis(id int) (ZAxis, bool) {
	for _, z := range c.ZAxes {
		if z.ID == id {
			return z, true
		}
	}
	return ZAxis{}, false
}

// Var returns the variable with the given ID.
func (c *Catalog) Var(id int) (Variable, bool) {
	for _, v := range c.Vars {
		if v.ID == id {
			return v, true
		}
	}
	return Variable{}, false
}

// VarLevels returns the number of levels of a variable.
func (c *Catalog) VarLevels(id int) int {
	v, ok := c.Var(id)
	if !ok {
		return 0
	}
	z, ok := c.ZAxis(v.ZAxisID)
	if !ok {
		return 0
	}
	return z.Size()
}

// AddZAxis appends a vertical axis and returns its new ID.
func (c *Catalog) AddZAxis(z ZAxis) int {
	next := 0
	for _, existing := range c.ZAxes {
		if existing.ID >= next {
			next = existing.ID + 1
		}
	}
	z.ID = next
	c.ZAxes = append(c.ZAxes, z)
	return next
}

// ReplaceZAxis re-points every variable defined on axis oldID to axis newID.
func (c *Catalog) ReplaceZAxis(oldID, newID int) {
	for i := range c.Vars {
		if c.Vars[i].ZAxisID == oldID {
			c.Vars[i].ZAxisID = newID
		}
	}
}

// RemoveVar drops a variable from the catalog.
func (c *Catalog) RemoveVar(id int) {
	c.Vars = slices.DeleteFunc(c.Vars, func(v Variable) bool { return v.ID == id })
}

// GridSize returns the common number of gridpoints of all variables.
// Mixed grid sizes are not supported.
func (c *Catalog) GridSize() (int, error) {
	size := -1
	for _, v := range c.Vars {
		g, ok := c.Grid(v.GridID)
		if !ok {
			return 0, fmt.Errorf("variable %s references unknown grid %d", v.Name, v.GridID)
		}
		if size == -1 {
			size = g.Size
			continue
		}
		if g.Size != size {
			return 0, fmt.Errorf("%w: variable %s has %d gridpoints, expected %d", ErrGridSizeMismatch, v.Name, g.Size, size)
		}
	}
	if size < 0 {
		return 0, nil
	}
	return size, nil
}
