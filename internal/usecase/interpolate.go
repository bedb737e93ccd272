package usecase

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"go.ngs.io/vertint/internal/adapter/interp"
	"go.ngs.io/vertint/internal/domain"
)

// columnState is the per-timestep vertical context. Its storage is allocated once per run.
type columnState struct {
	col     interp.Column
	ps      []float64 // Prognostic surface pressure, G.
	sgeopot []float64 // Surface geopotential, G.
	// pmiss holds the authoritative per-target-level missing counts when not extrapolating.
	pmiss []int
}

// newColumnState allocates the column buffers of a plan with a hybrid coordinate.
func newColumnState(p *Plan) *columnState {
	ngp, nfull, nhalf := p.GridSz, p.FullLevels(), p.HalfLevels()
	nlev := p.Levels.Len()
	s := &columnState{
		col: interp.Column{
			NGP:    ngp,
			NFull:  nfull,
			Full:   make([]float64, nfull*ngp),
			Half:   make([]float64, nhalf*ngp),
			Index:  make([]int, nlev*ngp),
			Levels: p.Levels.Coordinates(),
			Log:    p.Levels.Scale == domain.ScaleLog,
		},
		ps:    make([]float64, ngp),
		pmiss: make([]int, nlev),
	}
	if p.SGeopotNeeded {
		s.sgeopot = make([]float64, ngp)
	}
	return s
}

// computeColumn fills the surface fields, the hybrid pressures and the vertical index for
// the current timestep. It returns the kinds of the range warnings it logged.
func (s *columnState) computeColumn(p *Plan, log logrus.FieldLogger) ([]string, error) {
	var warnings []string
	ngp := p.GridSz

	if p.SGeopotNeeded {
		sgeo := p.roleField(domain.RoleSurfaceGeopotential)
		geo := p.roleField(domain.RoleGeopotential)
		switch {
		case sgeo != nil:
			copy(s.sgeopot, sgeo.Raw[:ngp])
		case geo != nil:
			bottom := p.FullLevels() - 1
			copy(s.sgeopot, geo.Raw[bottom*ngp:(bottom+1)*ngp])
		}

		if p.Extrapolate && (sgeo != nil || geo != nil) && ngp > 0 {
			minval, maxval := floats.Min(s.sgeopot), floats.Max(s.sgeopot)
			entry := log.WithFields(logrus.Fields{"min": minval, "max": maxval})
			if minval < domain.MinSurfaceGeopotential || maxval > domain.MaxSurfaceGeopotential {
				entry.Warn("Surface geopotential out of range")
				warnings = append(warnings, WarnGeopotRange)
			}
			if ngp > 1 && minval >= 0 && maxval <= domain.SuspectGeopotentialMax {
				entry.Warn("Surface geopotential has an unexpected range")
				warnings = append(warnings, WarnGeopotUnexpect)
			}
		}
	}

	psField, ok := p.Field(p.PSVarID)
	if !ok {
		return warnings, domain.ErrSurfacePressureNotFound
	}
	if p.PSIsLog {
		for i := range s.ps {
			s.ps[i] = math.Exp(psField.Raw[i])
		}
	} else {
		copy(s.ps, psField.Raw[:ngp])
	}

	if ngp > 0 {
		minval, maxval := floats.Min(s.ps), floats.Max(s.ps)
		if minval < domain.MinSurfacePressure || maxval > domain.MaxSurfacePressure {
			log.WithFields(logrus.Fields{"min": minval, "max": maxval}).Warn("Surface pressure out of range")
			warnings = append(warnings, WarnPressureRange)
		}
	}

	c := &s.col
	if err := interp.Presh(c.Full, c.Half, p.Coord.Table, s.ps, c.NFull, ngp); err != nil {
		return warnings, fmt.Errorf("failed to compute hybrid pressures: %w", err)
	}
	if c.Log {
		interp.LogInPlace(s.ps)
		interp.LogInPlace(c.Half)
		interp.LogInPlace(c.Full)
	}

	interp.GenInd(c.Index, c.Levels, c.Full, ngp, c.NFull)
	if !p.Extrapolate {
		interp.GenIndMiss(c.Index, c.Levels, c.Half, ngp, p.HalfLevels(), s.pmiss)
	}
	return warnings, nil
}

// interpolateField remaps one present field in Interpolated mode.
func (s *columnState) interpolateField(p *Plan, f *FieldBuffer) error {
	nfull, nhalf := p.FullLevels(), p.HalfLevels()
	c := &s.col

	var press []float64
	switch f.Levels {
	case nfull:
		press = c.Full
	case nhalf:
		press = c.Half
	default:
		return fmt.Errorf("%w (param=%s)", domain.ErrHybridLevelMismatch, f.Var.Name)
	}

	for k := 0; k < f.Levels; k++ {
		if f.NMiss[k] > 0 {
			return fmt.Errorf("%w (param=%s level=%d)", domain.ErrMissingValues, f.Var.Name, k+1)
		}
	}

	missval := f.Var.MissVal
	switch f.Role {
	case domain.RoleTemperature:
		if f.Levels == nhalf {
			return domain.ErrHalfLevelTemperature
		}
		if c.Log && p.Extrapolate {
			return domain.ErrLogExtrapolateTemperature
		}
		c.Temperature(s.sgeopot, f.Raw, f.Target, missval, f.TargetMiss)
	case domain.RoleGeopotentialHeight:
		temp := p.roleField(domain.RoleTemperature)
		if temp == nil {
			return domain.ErrTemperatureNotFound
		}
		surface := f.Raw[f.Levels*p.GridSz : (f.Levels+1)*p.GridSz]
		for i := range surface {
			surface[i] = s.sgeopot[i] / domain.PlanetGrav
		}
		c.GeopotentialHeight(s.sgeopot, f.Raw, f.Target, temp.Raw, missval, f.TargetMiss)
	default:
		c.Linear(f.Raw, f.Target, press, f.Levels, missval, f.TargetMiss)
	}

	if !p.Extrapolate {
		s.overrideMissing(f)
	}
	return nil
}

// overrideMissing replaces the kernel's per-target-level missing counts of f with the
// counts of the vertical index.
func (s *columnState) overrideMissing(f *FieldBuffer) {
	copy(f.TargetMiss, s.pmiss)
}
