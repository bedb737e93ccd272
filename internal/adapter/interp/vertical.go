package interp

import (
	"math"

	"go.ngs.io/vertint/internal/domain"
)

// Standard atmosphere lapse rate (K/m) used below the surface.
const lapseRate = 0.0065

// Column is the per-timestep vertical context shared by the kernels.
type Column struct {
	NGP    int       // Gridpoints.
	NFull  int       // Hybrid full levels.
	Full   []float64 // Full-level pressures, NFull·NGP.
	Half   []float64 // Half-level pressures, (NFull+1)·NGP.
	Index  []int     // Vertical index from GenInd/GenIndMiss, len(Levels)·NGP.
	Levels []float64 // Target coordinates.
	Log    bool      // Pressures and levels hold natural logarithms.
}

// logRatio returns ln(a/b) for coordinates in the column's space.
func (c *Column) logRatio(a, b float64) float64 {
	if c.Log {
		return a - b
	}
	return math.Log(a / b)
}

// ratio returns a/b for coordinates in the column's space.
func (c *Column) ratio(a, b float64) float64 {
	if c.Log {
		return math.Exp(a - b)
	}
	return a / b
}

// surface returns the surface pressure coordinate of gridpoint i.
func (c *Column) surface(i int) float64 {
	return c.Half[c.NFull*c.NGP+i]
}

// lerp interpolates linearly between (x0, y0) and (x1, y1) at x.
func lerp(x, x0, x1, y0, y1 float64) float64 {
	return y0 + (x-x0)*(y1-y0)/(x1-x0)
}

// Linear interpolates a generic field with nlev source levels whose pressures are press
// (full or half levels). Targets above the top level take the top value, targets below
// the bottom level take the bottom value. nmiss receives the number of missing values
// written per target level.
func (c *Column) Linear(src, dst, press []float64, nlev int, missval float64, nmiss []int) {
	ngp := c.NGP
	for lp, pres := range c.Levels {
		nmiss[lp] = 0
		row := c.Index[lp*ngp : (lp+1)*ngp]
		out := dst[lp*ngp : (lp+1)*ngp]
		for i := 0; i < ngp; i++ {
			nl := row[i]
			if nl == MissingIndex {
				out[i] = missval
				nmiss[lp]++
				continue
			}
			lo := nl*ngp + i
			hi := lo + ngp
			switch {
			case hi >= nlev*ngp:
				out[i] = src[lo]
			case nl == 0 && (pres < press[i] || math.IsInf(press[i], -1)):
				// A 0 Pa model top becomes -Inf in log-pressure space.
				out[i] = src[i]
			default:
				out[i] = lerp(pres, press[lo], press[hi], src[lo], src[hi])
			}
		}
	}
}

// Temperature interpolates full-level temperature. Between the lowest full level and the
// surface the lowest value is kept; below the surface the temperature is extrapolated
// from the surface geopotential sgeopot using a standard lapse rate.
func (c *Column) Temperature(sgeopot, src, dst []float64, missval float64, nmiss []int) {
	ngp, nfull := c.NGP, c.NFull
	for lp, pres := range c.Levels {
		nmiss[lp] = 0
		row := c.Index[lp*ngp : (lp+1)*ngp]
		out := dst[lp*ngp : (lp+1)*ngp]
		for i := 0; i < ngp; i++ {
			nl := row[i]
			if nl == MissingIndex {
				out[i] = missval
				nmiss[lp]++
				continue
			}
			bottom := (nfull-1)*ngp + i
			switch {
			case nl >= nfull-1:
				if ps := c.surface(i); pres > ps {
					out[i] = extrapolateTemperature(c.logRatio(pres, ps), c.ratio(ps, c.Full[bottom]), sgeopot[i], src[bottom])
				} else {
					out[i] = src[bottom]
				}
			case nl == 0 && pres < c.Full[i]:
				out[i] = src[i]
			default:
				lo := nl*ngp + i
				hi := lo + ngp
				out[i] = lerp(pres, c.Full[lo], c.Full[hi], src[lo], src[hi])
			}
		}
	}
}

// GeopotentialHeight interpolates full-level geopotential height. src holds NFull+1
// levels, the last one being the surface height at the surface pressure. Below the surface
// the height is extrapolated hydrostatically using the lowest full-level temperature.
func (c *Column) GeopotentialHeight(sgeopot, src, dst, temp []float64, missval float64, nmiss []int) {
	ngp, nfull := c.NGP, c.NFull
	for lp, pres := range c.Levels {
		nmiss[lp] = 0
		row := c.Index[lp*ngp : (lp+1)*ngp]
		out := dst[lp*ngp : (lp+1)*ngp]
		for i := 0; i < ngp; i++ {
			nl := row[i]
			if nl == MissingIndex {
				out[i] = missval
				nmiss[lp]++
				continue
			}
			bottom := (nfull-1)*ngp + i
			ps := c.surface(i)
			switch {
			case pres > ps:
				out[i] = extrapolateHeight(c.logRatio(pres, ps), c.ratio(ps, c.Full[bottom]), sgeopot[i], temp[bottom])
			case nl >= nfull-1:
				if pres <= c.Full[bottom] {
					out[i] = src[bottom]
				} else {
					out[i] = lerp(pres, c.Full[bottom], ps, src[bottom], src[nfull*ngp+i])
				}
			case nl == 0 && pres < c.Full[i]:
				out[i] = src[i]
			default:
				lo := nl*ngp + i
				hi := lo + ngp
				out[i] = lerp(pres, c.Full[lo], c.Full[hi], src[lo], src[hi])
			}
		}
	}
}

// surfaceTemperatures derives the extrapolation surface temperature T* and the mean sea
// level temperature from the lowest full-level temperature, and the lapse-rate factor to
// use between them.
func surfaceTemperatures(psOverFull, geop, temp float64) (tstar, zalph float64) {
	alpha := domain.PlanetRD * lapseRate / domain.PlanetGrav
	tstar = (1 + alpha*(psOverFull-1)) * temp
	tsurf := tstar
	if tstar < 255 {
		tstar = 0.5 * (255 + tstar)
	}
	tmsl := tstar + lapseRate*geop/domain.PlanetGrav
	if tmsl > 290.5 && tstar > 290.5 {
		tstar = 0.5 * (290.5 + tsurf)
		tmsl = tstar
	}
	if tmsl > 290.5 && tstar <= 290.5 {
		tmsl = 290.5
	}

	zalph = alpha
	switch {
	case math.Abs(tmsl-tstar) < 1e-6:
		zalph = 0
	case math.Abs(geop) > 1e-4:
		zalph = domain.PlanetRD * (tmsl - tstar) / geop
	}
	return tstar, zalph
}

// extrapolateTemperature returns the temperature at a pressure below the surface;
// lnp is ln(p/ps).
func extrapolateTemperature(lnp, psOverFull, geop, temp float64) float64 {
	tstar, zalph := surfaceTemperatures(psOverFull, geop, temp)
	zalp := zalph * lnp
	return tstar * (1 + zalp + 0.5*zalp*zalp + zalp*zalp*zalp/6)
}

// extrapolateHeight returns the geopotential height (m) at a pressure below the surface;
// lnp is ln(p/ps).
func extrapolateHeight(lnp, psOverFull, geop, temp float64) float64 {
	tstar, zalph := surfaceTemperatures(psOverFull, geop, temp)
	return (geop - domain.PlanetRD*tstar*lnp*(1+0.5*lnp*zalph+lnp*lnp*zalph*zalph/6)) / domain.PlanetGrav
}
