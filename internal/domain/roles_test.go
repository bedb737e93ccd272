package domain

import "testing"

func TestSelectScheme(t *testing.T) {
	tests := []struct {
		name     string
		tables   []int
		want     Scheme
		useTable bool
	}{
		{"no tables", []int{0, 255}, SchemeECHAM, false},
		{"wmo", []int{128, 2}, SchemeWMO, true},
		{"echam", []int{128, 1}, SchemeECHAM, true},
		{"hirlam", []int{1, 253}, SchemeHIRLAM, true},
		{"hirlam with unset table", []int{1, TableUnset}, SchemeHIRLAM, true},
		{"explicit table 0", []int{1, 0}, SchemeECHAM, true},
		{"only unset tables", []int{TableUnset, TableUnset}, SchemeECHAM, false},
		{"unknown table", []int{200}, SchemeECHAM, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vars := make([]Variable, len(tt.tables))
			for i, table := range tt.tables {
				vars[i] = Variable{ID: i, Table: table}
			}
			got, useTable := SelectScheme(vars)
			if got != tt.want || useTable != tt.useTable {
				t.Errorf("Expected %v/%v, got %v/%v", tt.want, tt.useTable, got, useTable)
			}
		})
	}
}

func TestIdentifyQuantity(t *testing.T) {
	tests := []struct {
		name   string
		v      Variable
		scheme Scheme
		want   Quantity
	}{
		{"echam temperature code", Variable{Code: 130}, SchemeECHAM, QuantityTemperature},
		{"echam lnps code", Variable{Code: 152}, SchemeECHAM, QuantityLogSurfacePressure},
		{"echam gheight code", Variable{Code: 156}, SchemeECHAM, QuantityGeopotentialHeight},
		{"wmo temperature code", Variable{Code: 11}, SchemeWMO, QuantityTemperature},
		{"wmo ps code", Variable{Code: 1}, SchemeWMO, QuantitySurfacePressure},
		{"hirlam geopotential code", Variable{Code: 6}, SchemeHIRLAM, QuantityGeopotential},
		{"unknown code ignores name", Variable{Code: 999, Name: "t"}, SchemeECHAM, QuantityNone},
		{"standard name", Variable{Code: -1, StdName: "Air_Temperature"}, SchemeECHAM, QuantityTemperature},
		{"geopotential_full", Variable{StdName: "geopotential_full"}, SchemeECHAM, QuantityGeopotential},
		{"short name", Variable{Code: 255, Name: "APS"}, SchemeECHAM, QuantitySurfacePressure},
		{"ecmwf short name", Variable{Name: "lnsp"}, SchemeECHAM, QuantityLogSurfacePressure},
		{"grib2 falls back to name", Variable{Code: 0, GRIB2: true, Name: "t"}, SchemeECHAM, QuantityTemperature},
		{"grib2 code ignored", Variable{Code: 130, GRIB2: true, Name: "foo"}, SchemeECHAM, QuantityNone},
		{"wmo has no lnps", Variable{Name: "lsp"}, SchemeWMO, QuantityNone},
		{"wmo has no gheight", Variable{StdName: "geopotential_height"}, SchemeWMO, QuantityNone},
		{"passive", Variable{Name: "q"}, SchemeECHAM, QuantityNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IdentifyQuantity(tt.v, tt.scheme); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestResolveRoles(t *testing.T) {
	cat := &Catalog{
		Grids: []Grid{{ID: 0, Size: 4}},
		ZAxes: []ZAxis{
			{ID: 0, Type: ZAxisSurface, Levels: []float64{0}},
			{ID: 1, Type: ZAxisHybrid, Levels: []float64{1, 2, 3}, VCT: echamVCT},
			{ID: 2, Type: ZAxisPressure, Levels: []float64{85000, 50000}},
		},
		Vars: []Variable{
			{ID: 0, Name: "geosp", Code: 129, ZAxisID: 0},
			{ID: 1, Name: "geopot", Code: 129, ZAxisID: 1},
			{ID: 2, Name: "st", Code: 130, ZAxisID: 1},
			{ID: 3, Name: "st2", Code: 130, ZAxisID: 1},
			{ID: 4, Name: "t_plev", Code: 130, ZAxisID: 2},
			{ID: 5, Name: "lsp", Code: 152, ZAxisID: 0},
			{ID: 6, Name: "q", Code: 133, ZAxisID: 1},
		},
	}

	a := ResolveRoles(cat, 3)
	wantRoles := map[int]Role{
		0: RoleSurfaceGeopotential,
		1: RoleGeopotential,
		2: RoleTemperature,
		3: RoleNone, // First match wins.
		4: RoleNone, // Wrong level count.
		5: RoleLogSurfacePressure,
		6: RoleNone,
	}
	for id, want := range wantRoles {
		if got := a.RoleOf(id); got != want {
			t.Errorf("var %d: expected %v, got %v", id, want, got)
		}
	}
	if id, ok := a.VarID(RoleTemperature); !ok || id != 2 {
		t.Errorf("Expected temperature var 2, got %d (%v)", id, ok)
	}
	if a.Has(RoleSurfacePressure) {
		t.Error("Unexpected surface pressure role")
	}
}

func TestSurfacePressureSource(t *testing.T) {
	base := func() *Catalog {
		return &Catalog{
			ZAxes: []ZAxis{
				{ID: 0, Type: ZAxisSurface, Levels: []float64{0}},
				{ID: 1, Type: ZAxisHybrid, Levels: []float64{1, 2, 3}},
			},
			Vars: []Variable{
				{ID: 0, Name: "lsp", Code: 152, ZAxisID: 0},
				{ID: 1, Name: "aps", Code: 134, ZAxisID: 0},
				{ID: 2, Name: "psfc", ZAxisID: 0},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Catalog)
		psName  string
		wantID  int
		wantLog bool
		wantOK  bool
	}{
		{name: "plain preferred over log", wantID: 1, wantOK: true},
		{name: "axis formula terms", psName: "psfc", wantID: 2, wantOK: true},
		{name: "axis names log form", psName: "lsp", wantID: 0, wantLog: true, wantOK: true},
		{name: "log only", mutate: func(c *Catalog) { c.RemoveVar(1) }, wantID: 0, wantLog: true, wantOK: true},
		{name: "none", mutate: func(c *Catalog) { c.RemoveVar(0); c.RemoveVar(1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := base()
			if tt.mutate != nil {
				tt.mutate(cat)
			}
			a := ResolveRoles(cat, 3)
			id, isLog, ok := a.SurfacePressureSource(cat, tt.psName)
			if ok != tt.wantOK {
				t.Fatalf("Expected ok=%v, got %v", tt.wantOK, ok)
			}
			if !ok {
				return
			}
			if id != tt.wantID || isLog != tt.wantLog {
				t.Errorf("Expected var %d log=%v, got var %d log=%v", tt.wantID, tt.wantLog, id, isLog)
			}
		})
	}
}
