package domain

import "strings"

// Role is the meteorological role a field plays in the remapping.
type Role int

const (
	// RoleNone is a passive field.
	RoleNone Role = iota
	// RoleTemperature is air temperature on full levels.
	RoleTemperature
	// RoleSurfacePressure is surface air pressure.
	RoleSurfacePressure
	// RoleLogSurfacePressure is the natural logarithm of surface air pressure.
	RoleLogSurfacePressure
	// RoleSurfaceGeopotential is the surface geopotential (orography).
	RoleSurfaceGeopotential
	// RoleGeopotential is geopotential on full levels.
	RoleGeopotential
	// RoleGeopotentialHeight is geopotential height on full levels.
	RoleGeopotentialHeight
)

var roleNames = map[Role]string{
	RoleNone:                "none",
	RoleTemperature:         "air_temperature",
	RoleSurfacePressure:     "surface_air_pressure",
	RoleLogSurfacePressure:  "log_surface_air_pressure",
	RoleSurfaceGeopotential: "surface_geopotential",
	RoleGeopotential:        "geopotential",
	RoleGeopotentialHeight:  "geopotential_height",
}

// String returns the standard name associated with the role.
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "unknown"
}

// Quantity is a meteorological quantity recognized from codes or names, before level
// gating turns it into a Role.
type Quantity int

const (
	// QuantityNone is an unrecognized quantity.
	QuantityNone Quantity = iota
	// QuantityGeopotential is geopotential (surface or volumetric).
	QuantityGeopotential
	// QuantityTemperature is air temperature.
	QuantityTemperature
	// QuantitySurfacePressure is surface air pressure.
	QuantitySurfacePressure
	// QuantityLogSurfacePressure is log surface air pressure.
	QuantityLogSurfacePressure
	// QuantityGeopotentialHeight is geopotential height.
	QuantityGeopotentialHeight
)

// Scheme is a parameter code convention.
type Scheme int

const (
	// SchemeECHAM is the ECHAM/ECMWF local table convention (tables 128 and 0).
	SchemeECHAM Scheme = iota
	// SchemeWMO is the WMO table 2 convention.
	SchemeWMO
	// SchemeHIRLAM is the HIRLAM/HARMONIE convention (tables 1 and 253).
	SchemeHIRLAM
)

// String returns the scheme name.
func (s Scheme) String() string {
	switch s {
	case SchemeWMO:
		return "WMO"
	case SchemeHIRLAM:
		return "HIRLAM"
	default:
		return "ECHAM"
	}
}

// CodeTable maps quantities to numeric parameter codes. Zero means the scheme has no
// code for the quantity.
type CodeTable struct {
	Geopotential       int
	Temperature        int
	SurfacePressure    int
	LogSurfacePressure int
	GeopotentialHeight int
}

// codeTables holds the built-in code tables per scheme.
//
// KNMI: HIRLAM 7.2 and HARMONIE 36 use table 1, HARMONIE 38 uses 253 (and 1 for surfex).
var codeTables = map[Scheme]CodeTable{
	SchemeECHAM: {
		Geopotential:       129,
		Temperature:        130,
		SurfacePressure:    134,
		LogSurfacePressure: 152,
		GeopotentialHeight: 156,
	},
	SchemeWMO: {
		Geopotential:    6,
		Temperature:     11,
		SurfacePressure: 1,
	},
	SchemeHIRLAM: {
		Geopotential:    6,
		Temperature:     11,
		SurfacePressure: 1,
	},
}

// Codes returns the code table of the scheme.
func (s Scheme) Codes() CodeTable {
	return codeTables[s]
}

// Quantity returns the quantity a code stands for under this table.
func (t CodeTable) Quantity(code int) Quantity {
	if code <= 0 {
		return QuantityNone
	}
	switch code {
	case t.Geopotential:
		return QuantityGeopotential
	case t.Temperature:
		return QuantityTemperature
	case t.SurfacePressure:
		return QuantitySurfacePressure
	case t.LogSurfacePressure:
		return QuantityLogSurfacePressure
	case t.GeopotentialHeight:
		return QuantityGeopotentialHeight
	}
	return QuantityNone
}

// Supports reports whether the table assigns a code to q.
func (t CodeTable) Supports(q Quantity) bool {
	switch q {
	case QuantityGeopotential:
		return t.Geopotential != 0
	case QuantityTemperature:
		return t.Temperature != 0
	case QuantitySurfacePressure:
		return t.SurfacePressure != 0
	case QuantityLogSurfacePressure:
		return t.LogSurfacePressure != 0
	case QuantityGeopotentialHeight:
		return t.GeopotentialHeight != 0
	}
	return false
}

// standardNames maps lower-case CF standard names to quantities.
var standardNames = map[string]Quantity{
	"surface_geopotential": QuantityGeopotential,
	"geopotential":         QuantityGeopotential,
	"geopotential_full":    QuantityGeopotential,
	"air_temperature":      QuantityTemperature,
	"surface_air_pressure": QuantitySurfacePressure,
	"geopotential_height":  QuantityGeopotentialHeight,
}

// shortNames maps the conventional short names (ECHAM and ECMWF spellings) to quantities.
var shortNames = map[string]Quantity{
	"geosp": QuantityGeopotential, "z": QuantityGeopotential,
	"st": QuantityTemperature, "t": QuantityTemperature,
	"aps": QuantitySurfacePressure, "sp": QuantitySurfacePressure,
	"lsp": QuantityLogSurfacePressure, "lnsp": QuantityLogSurfacePressure,
}

// SelectScheme chooses the code convention for a run from the table numbers seen across
// the variable list. Without informative table numbers it defaults to ECHAM.
func SelectScheme(vars []Variable) (Scheme, bool) {
	useTable := false
	for _, v := range vars {
		if v.Table > 0 && v.Table != 255 {
			useTable = true
			break
		}
	}
	if !useTable {
		return SchemeECHAM, false
	}

	has := func(tables ...int) bool {
		for _, v := range vars {
			for _, t := range tables {
				if v.Table == t {
					return true
				}
			}
		}
		return false
	}
	switch {
	case has(2):
		return SchemeWMO, true
	case has(128, 0):
		return SchemeECHAM, true
	case has(1, 253):
		return SchemeHIRLAM, true
	}
	return SchemeECHAM, true
}

// IdentifyQuantity resolves the quantity of a variable: by code under the scheme when the
// code is valid, otherwise by standard name and then by short name.
func IdentifyQuantity(v Variable, scheme Scheme) Quantity {
	table := scheme.Codes()

	code := v.Code
	if v.GRIB2 {
		code = -1
	}
	if code > 0 && code != 255 {
		return table.Quantity(code)
	}

	q, ok := standardNames[strings.ToLower(v.StdName)]
	if !ok {
		q = shortNames[strings.ToLower(v.Name)]
	}
	if !table.Supports(q) {
		return QuantityNone
	}
	return q
}

// roleFor gates a quantity by level count into a role.
func roleFor(q Quantity, nlevel, nfull int) Role {
	switch {
	case q == QuantityGeopotential && nlevel == 1:
		return RoleSurfaceGeopotential
	case q == QuantityGeopotential && nlevel == nfull:
		return RoleGeopotential
	case q == QuantityTemperature && nlevel == nfull:
		return RoleTemperature
	case q == QuantitySurfacePressure && nlevel == 1:
		return RoleSurfacePressure
	case q == QuantityLogSurfacePressure && nlevel == 1:
		return RoleLogSurfacePressure
	case q == QuantityGeopotentialHeight && nlevel == nfull:
		return RoleGeopotentialHeight
	}
	return RoleNone
}

// RoleAssignment is the immutable outcome of role resolution.
type RoleAssignment struct {
	Scheme   Scheme
	UseTable bool
	byRole   map[Role]int
	byVar    map[int]Role
}

// VarID returns the variable playing role r.
func (a RoleAssignment) VarID(r Role) (int, bool) {
	id, ok := a.byRole[r]
	return id, ok
}

// Has reports whether some variable plays role r.
func (a RoleAssignment) Has(r Role) bool {
	_, ok := a.byRole[r]
	return ok
}

// RoleOf returns the role of a variable.
func (a RoleAssignment) RoleOf(varID int) Role {
	return a.byVar[varID]
}

// ResolveRoles assigns roles to the catalog's variables. nfull is the number of hybrid
// full levels (0 when there is no hybrid coordinate). At most one variable is assigned
// per role; the first candidate wins.
func ResolveRoles(cat *Catalog, nfull int) RoleAssignment {
	scheme, useTable := SelectScheme(cat.Vars)
	a := RoleAssignment{
		Scheme:   scheme,
		UseTable: useTable,
		byRole:   make(map[Role]int),
		byVar:    make(map[int]Role),
	}
	for _, v := range cat.Vars {
		q := IdentifyQuantity(v, scheme)
		if q == QuantityNone {
			continue
		}
		role := roleFor(q, cat.VarLevels(v.ID), nfull)
		if role == RoleNone || a.Has(role) {
			continue
		}
		a.byRole[role] = v.ID
		a.byVar[v.ID] = role
	}
	return a
}

// SurfacePressureSource returns the variable providing surface pressure and whether it
// holds the logarithm of the pressure. A variable named by the hybrid axis (psName) is
// preferred, then plain surface pressure, then its log form.
func (a RoleAssignment) SurfacePressureSource(cat *Catalog, psName string) (varID int, isLog bool, ok bool) {
	if psName != "" {
		for _, v := range cat.Vars {
			if v.Name != psName || cat.VarLevels(v.ID) != 1 {
				continue
			}
			return v.ID, a.RoleOf(v.ID) == RoleLogSurfacePressure, true
		}
	}
	if id, found := a.VarID(RoleSurfacePressure); found {
		return id, false, true
	}
	if id, found := a.VarID(RoleLogSurfacePressure); found {
		return id, true, true
	}
	return 0, false, false
}
