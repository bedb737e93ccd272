package domain

import "math"

// Physical constants.
const (
	PlanetGrav = 9.80665 // Standard gravity (m/s²).
	PlanetRD   = 287.05  // Gas constant of dry air (J/kg/K).

	// Scale-height standard atmosphere used for height levels.
	ScaleHeight = 7000.0   // m.
	ScaleSLP    = 101325.0 // Pa.
)

// Plausible ranges checked once per timestep.
const (
	MinSurfacePressure     = 20000.0  // Pa.
	MaxSurfacePressure     = 120000.0 // Pa.
	MinSurfaceGeopotential = -100000.0
	MaxSurfaceGeopotential = 100000.0
	// Surface geopotential entirely within [0, 9000] looks like orography in metres.
	SuspectGeopotentialMax = 9000.0
)

// HeightToPressure converts a height (m) to pressure (Pa):
//
//	p = SLP · exp(-h / H)
func HeightToPressure(h float64) float64 {
	return ScaleSLP * math.Exp(-h/ScaleHeight)
}

// PressureToHeight is the inverse of HeightToPressure.
func PressureToHeight(p float64) float64 {
	return -ScaleHeight * math.Log(p/ScaleSLP)
}
