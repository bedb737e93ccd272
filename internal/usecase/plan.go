package usecase

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"go.ngs.io/vertint/internal/domain"
)

// FieldMode is how a field is carried from input to output.
type FieldMode int

const (
	// PassThrough fields are written unchanged from their raw buffer.
	PassThrough FieldMode = iota
	// Interpolated fields are remapped into their own target buffer.
	Interpolated
	// Skipped fields are on a hybrid axis with an unexpected level count. They are read
	// but never written.
	Skipped
)

// String returns the mode name.
func (m FieldMode) String() string {
	switch m {
	case Interpolated:
		return "interpolated"
	case Skipped:
		return "skipped"
	default:
		return "passthrough"
	}
}

// FieldBuffer holds one variable's data for the current timestep. Buffers are allocated
// once per run and overwritten every timestep.
type FieldBuffer struct {
	Var    domain.Variable
	Role   domain.Role
	Levels int // Native level count.
	Mode   FieldMode

	// Raw holds Levels·G values; the geopotential height field has one extra surface slot.
	Raw []float64
	// Target holds N·G values in Interpolated mode, nil otherwise.
	Target []float64
	// NMiss counts missing values per native level.
	NMiss []int
	// TargetMiss counts missing values per target level.
	TargetMiss []int

	// Present is set when a record of the field was read in the current timestep.
	Present bool
	// invert remaps native level indices of the inverted hybrid axis.
	invert bool
}

// nativeLevel maps a level index read from the stream to the buffer index.
func (f *FieldBuffer) nativeLevel(level int) int {
	if f.invert {
		return f.Levels - 1 - level
	}
	return level
}

// Plan is the one-time setup of a run: coordinate, roles, buffers and output schema.
type Plan struct {
	Operator    domain.Operator
	Extrapolate bool
	Levels      domain.TargetLevels
	// Coord is nil when the input has no usable hybrid coordinate.
	Coord  *domain.VerticalCoordinate
	Roles  domain.RoleAssignment
	GridSz int
	// Output is the schema written to the destination.
	Output *domain.Catalog

	Fields []*FieldBuffer // In catalog order.

	PSVarID       int
	PSIsLog       bool
	SGeopotNeeded bool

	// Warnings lists the kinds of the setup warnings that were logged.
	Warnings []string

	byID map[int]*FieldBuffer
}

// Field returns the buffer of a variable.
func (p *Plan) Field(varID int) (*FieldBuffer, bool) {
	f, ok := p.byID[varID]
	return f, ok
}

// FullLevels returns F, or 0 without a hybrid coordinate.
func (p *Plan) FullLevels() int {
	if p.Coord == nil {
		return 0
	}
	return p.Coord.Geometry.FullLevels
}

// HalfLevels returns H, or 0 without a hybrid coordinate.
func (p *Plan) HalfLevels() int {
	if p.Coord == nil {
		return 0
	}
	return p.Coord.Geometry.HalfLevels
}

// Warning kinds.
const (
	WarnNoHybrid       = "no_hybrid"
	WarnWrongLevels    = "wrong_level_count"
	WarnGeopotZero     = "surface_geopotential_zero"
	WarnVCTEmpty       = "vct_empty"
	WarnPressureRange  = "surface_pressure_range"
	WarnGeopotRange    = "surface_geopotential_range"
	WarnGeopotUnexpect = "surface_geopotential_unexpected"
)

// warn logs a warning and remembers its kind.
func (p *Plan) warn(log logrus.FieldLogger, kind, msg string) {
	p.Warnings = append(p.Warnings, kind)
	log.Warn(msg)
}

// roleField returns the buffer playing role r.
func (p *Plan) roleField(r domain.Role) *FieldBuffer {
	id, ok := p.Roles.VarID(r)
	if !ok {
		return nil
	}
	return p.byID[id]
}

// NewPlan derives everything a run needs from the input catalog. Fatal setup conditions
// are returned as errors wrapping the domain sentinels.
//
//nolint:gocyclo // Setup mirrors the sequence of checks of the remapping.
func NewPlan(cat *domain.Catalog, op domain.Operator, levels domain.TargetLevels, extrapolate bool, log logrus.FieldLogger) (*Plan, error) {
	coord, err := domain.BuildVerticalCoordinate(cat)
	if err != nil {
		return nil, err
	}
	p := &Plan{
		Operator:    op,
		Extrapolate: extrapolate,
		Levels:      levels,
		Coord:       coord,
		Output:      cat.Clone(),
		PSVarID:     -1,
		byID:        make(map[int]*FieldBuffer, len(cat.Vars)),
	}

	if p.GridSz, err = cat.GridSize(); err != nil {
		return nil, err
	}

	var psName string
	targetAxis := -1
	if coord != nil {
		z, _ := cat.ZAxis(coord.Geometry.ZAxisID)
		psName = z.PSName
		targetAxis = coord.ReplaceHybridAxes(p.Output, levels.ZAxis())
		log.WithFields(logrus.Fields{
			"full_levels": coord.Geometry.FullLevels,
			"half_levels": coord.Geometry.HalfLevels,
			"inverted":    coord.Geometry.Inverted,
		}).Debug("Hybrid vertical coordinate")
	}
	if coord == nil || p.GridSz == 0 {
		p.warn(log, WarnNoHybrid, "No 3D variable with hybrid sigma pressure coordinate found")
	}

	if levels.Kind == domain.KindHeight {
		pressures := levels.Pressures()
		for i, h := range levels.Values() {
			log.WithFields(logrus.Fields{"level": i + 1, "height": h, "pressure": pressures[i]}).Debug("Height level")
		}
	}

	p.Roles = domain.ResolveRoles(cat, p.FullLevels())
	if p.Roles.UseTable {
		log.Debug("Using code tables")
	}

	nfull, nhalf := p.FullLevels(), p.HalfLevels()
	for _, v := range cat.Vars {
		g, _ := cat.Grid(v.GridID)
		z, _ := cat.ZAxis(v.ZAxisID)
		nlevel := z.Size()

		log.WithFields(logrus.Fields{
			"mode":   p.Roles.Scheme.String(),
			"center": v.Center,
			"table":  v.Table,
			"code":   v.Code,
			"name":   v.Name,
			"var_id": v.ID,
		}).Debug("Variable")

		if g.Type == domain.GridSpectral {
			if z.Type.IsHybrid() {
				return nil, fmt.Errorf("%w (param=%s)", domain.ErrSpectralHybridUnsupported, v.Name)
			}
			return nil, fmt.Errorf("%w (param=%s)", domain.ErrSpectralUnsupported, v.Name)
		}

		f := &FieldBuffer{
			Var:    v,
			Role:   p.Roles.RoleOf(v.ID),
			Levels: nlevel,
			Mode:   PassThrough,
		}
		rawLevels := nlevel
		if f.Role == domain.RoleGeopotentialHeight {
			rawLevels++
		}
		f.Raw = make([]float64, rawLevels*p.GridSz)
		f.NMiss = make([]int, nlevel)

		switch {
		case coord != nil && (v.ZAxisID == coord.Geometry.ZAxisID ||
			(z.Type.IsHybrid() && (nlevel == nhalf || nlevel == nfull))):
			f.Mode = Interpolated
			f.Target = make([]float64, levels.Len()*p.GridSz)
			f.TargetMiss = make([]int, levels.Len())
			f.invert = coord.Geometry.Inverted && v.ZAxisID == coord.Geometry.ZAxisID
			setVarAxis(p.Output, v.ID, targetAxis)
		case coord != nil && z.Type.IsHybrid() && nlevel > 1:
			f.Mode = Skipped
			p.Output.RemoveVar(v.ID)
			p.warn(log.WithFields(logrus.Fields{"variable": v.Name, "levels": nlevel}),
				WarnWrongLevels, "Parameter has wrong number of levels, skipped")
		}

		p.Fields = append(p.Fields, f)
		p.byID[v.ID] = f
	}

	for _, r := range []domain.Role{
		domain.RoleTemperature, domain.RoleSurfacePressure, domain.RoleLogSurfacePressure,
		domain.RoleSurfaceGeopotential, domain.RoleGeopotential, domain.RoleGeopotentialHeight,
	} {
		if f := p.roleField(r); f != nil {
			log.WithFields(logrus.Fields{"role": r.String(), "variable": f.Var.Name}).Debug("Found")
		}
	}

	if coord == nil {
		return p, nil
	}

	p.SGeopotNeeded = p.Roles.Has(domain.RoleTemperature) || p.Roles.Has(domain.RoleGeopotentialHeight)
	if p.SGeopotNeeded && !p.Roles.Has(domain.RoleSurfaceGeopotential) && extrapolate {
		if p.Roles.Has(domain.RoleGeopotential) {
			log.Infof("%s not found, using bottom layer of %s", domain.RoleSurfaceGeopotential, domain.RoleGeopotential)
		} else {
			p.warn(log, WarnGeopotZero, fmt.Sprintf("%s not found, set to zero", domain.RoleSurfaceGeopotential))
		}
	}

	if p.Roles.Has(domain.RoleGeopotentialHeight) && !p.Roles.Has(domain.RoleTemperature) {
		return nil, domain.ErrTemperatureNotFound
	}

	psID, isLog, ok := p.Roles.SurfacePressureSource(cat, psName)
	if !ok {
		return nil, domain.ErrSurfacePressureNotFound
	}
	p.PSVarID, p.PSIsLog = psID, isLog
	if ps, ok := p.byID[psID]; ok {
		if isLog {
			log.WithField("variable", ps.Var.Name).Debugf("Using LOG(%s)", domain.RoleSurfacePressure)
		} else {
			log.WithField("variable", ps.Var.Name).Debugf("Using %s", domain.RoleSurfacePressure)
		}
	}

	if coord.Empty {
		p.warn(log, WarnVCTEmpty, "VCT is empty")
	}
	return p, nil
}

// setVarAxis re-points a variable of the output catalog to axis id.
func setVarAxis(cat *domain.Catalog, varID, id int) {
	for i := range cat.Vars {
		if cat.Vars[i].ID == varID {
			cat.Vars[i].ZAxisID = id
		}
	}
}
