package domain

import "errors"

// Fatal conditions. Any of these aborts the whole run.
var (
	ErrSpectralUnsupported       = errors.New("spectral data unsupported")
	ErrSpectralHybridUnsupported = errors.New("spectral data on model level unsupported")
	ErrGridSizeMismatch          = errors.New("variables have different grid sizes")
	ErrHybridLevelCount          = errors.New("internal error, wrong number of hybrid levels")
	ErrHybridLevelMismatch       = errors.New("number of hybrid levels differ from full/half levels")
	ErrSurfacePressureNotFound   = errors.New("surface_air_pressure not found")
	ErrTemperatureNotFound       = errors.New("temperature not found, needed for vertical interpolation of geopotential height")
	ErrMissingValues             = errors.New("missing values unsupported for this operator")
	ErrHalfLevelTemperature      = errors.New("temperature on half levels unsupported")
	ErrLogExtrapolateTemperature = errors.New("log. extrapolation of temperature unsupported")
	ErrNoLevels                  = errors.New("no target levels")
	ErrUnknownOperator           = errors.New("unknown operator")
)
