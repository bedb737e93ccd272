// Package cf reads and writes CF-convention netCDF datasets as record streams.
package cf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fhs/go-netcdf/netcdf"
)

// DefaultMissVal is used for variables without _FillValue or missing_value.
const DefaultMissVal = -9e33

// Attribute and standard names used by the hybrid coordinate.
const (
	hybridStdName       = "atmosphere_hybrid_sigma_pressure_coordinate"
	attrFormulaTerms    = "formula_terms"
	attrStandardName    = "standard_name"
	attrLongName        = "long_name"
	attrUnits           = "units"
	attrFillValue       = "_FillValue"
	attrMissingValue    = "missing_value"
	attrScaleFactor     = "scale_factor"
	attrAddOffset       = "add_offset"
	attrCode            = "code"
	attrTable           = "table"
	attrAxis            = "axis"
	attrPositive        = "positive"
	attrCalendar        = "calendar"
	attrBounds          = "bounds"
	attrConventions     = "Conventions"
	conventionsCF       = "CF-1.6"
	timeDimDefaultName  = "time"
	spectralDimName     = "nsp"
	spectralComplexName = "nc2"
)

// attrString reads a text attribute. Missing or non-text attributes yield "".
func attrString(v netcdf.Var, name string) string {
	a := v.Attr(name)
	n, err := a.Len()
	if err != nil || n == 0 {
		return ""
	}
	buf := make([]byte, n)
	if err := a.ReadBytes(buf); err != nil {
		return ""
	}
	return strings.TrimRight(string(buf), "\x00")
}

// attrFloat reads the first value of a numeric attribute.
func attrFloat(v netcdf.Var, name string) (float64, bool) {
	a := v.Attr(name)
	if n, err := a.Len(); err != nil || n == 0 {
		return 0, false
	}
	buf64 := make([]float64, 1)
	if err := a.ReadFloat64s(buf64); err == nil {
		return buf64[0], true
	}
	buf32 := make([]float32, 1)
	if err := a.ReadFloat32s(buf32); err == nil {
		return float64(buf32[0]), true
	}
	bufi := make([]int32, 1)
	if err := a.ReadInt32s(bufi); err == nil {
		return float64(bufi[0]), true
	}
	bufs := make([]int16, 1)
	if err := a.ReadInt16s(bufs); err == nil {
		return float64(bufs[0]), true
	}
	// Some writers store codes as text.
	if s := attrString(v, name); s != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// attrInt reads the first value of a numeric attribute as an int.
func attrInt(v netcdf.Var, name string) (int, bool) {
	f, ok := attrFloat(v, name)
	return int(f), ok
}

// getFillValue returns the _FillValue or missing_value attribute if present.
func getFillValue(v netcdf.Var) (float64, bool) {
	for _, name := range []string{attrFillValue, attrMissingValue} {
		if f, ok := attrFloat(v, name); ok {
			return f, true
		}
	}
	return 0, false
}

// writeText writes a text attribute; empty values are skipped.
func writeText(v netcdf.Var, name, value string) error {
	if value == "" {
		return nil
	}
	if err := v.Attr(name).WriteBytes([]byte(value)); err != nil {
		return fmt.Errorf("failed to write attribute %s: %w", name, err)
	}
	return nil
}

// parseFormulaTerms splits "ap: hyai b: hybi ps: aps" into a term map.
func parseFormulaTerms(s string) map[string]string {
	terms := make(map[string]string)
	fields := strings.Fields(s)
	for i := 0; i+1 < len(fields); i += 2 {
		key := strings.TrimSuffix(fields[i], ":")
		terms[key] = fields[i+1]
	}
	return terms
}

// varLen returns the total number of values of a variable.
func varLen(v netcdf.Var) (int, error) {
	n, err := v.Len()
	if err != nil {
		return 0, fmt.Errorf("failed to get variable length: %w", err)
	}
	return int(n), nil
}

// readFloat64Var reads a whole variable as float64, whatever its numeric type.
func readFloat64Var(v netcdf.Var) ([]float64, error) {
	n, err := varLen(v)
	if err != nil {
		return nil, err
	}
	data := make([]float64, n)
	if err := readSlab(v, data, nil, nil); err != nil {
		return nil, err
	}
	return data, nil
}

// readSlab reads a hyperslab into dst as float64. A nil start reads the whole variable.
func readSlab(v netcdf.Var, dst []float64, start, count []uint64) error {
	varType, err := v.Type()
	if err != nil {
		return fmt.Errorf("failed to get variable type: %w", err)
	}

	whole := start == nil
	switch varType {
	case netcdf.DOUBLE:
		if whole {
			err = v.ReadFloat64s(dst)
		} else {
			err = v.ReadFloat64Slice(dst, start, count)
		}
		if err != nil {
			return fmt.Errorf("failed to read float64 data: %w", err)
		}
	case netcdf.FLOAT:
		tmp := make([]float32, len(dst))
		if whole {
			err = v.ReadFloat32s(tmp)
		} else {
			err = v.ReadFloat32Slice(tmp, start, count)
		}
		if err != nil {
			return fmt.Errorf("failed to read float32 data: %w", err)
		}
		for i, val := range tmp {
			dst[i] = float64(val)
		}
	case netcdf.INT:
		tmp := make([]int32, len(dst))
		if whole {
			err = v.ReadInt32s(tmp)
		} else {
			err = v.ReadInt32Slice(tmp, start, count)
		}
		if err != nil {
			return fmt.Errorf("failed to read int32 data: %w", err)
		}
		for i, val := range tmp {
			dst[i] = float64(val)
		}
	case netcdf.SHORT:
		tmp := make([]int16, len(dst))
		if whole {
			err = v.ReadInt16s(tmp)
		} else {
			err = v.ReadInt16Slice(tmp, start, count)
		}
		if err != nil {
			return fmt.Errorf("failed to read int16 data: %w", err)
		}
		for i, val := range tmp {
			dst[i] = float64(val)
		}
	case netcdf.BYTE, netcdf.UBYTE, netcdf.CHAR, netcdf.USHORT, netcdf.UINT, netcdf.INT64, netcdf.UINT64, netcdf.STRING:
		return fmt.Errorf("unsupported data type: %v (expected DOUBLE, FLOAT, INT, or SHORT)", varType)
	default:
		return fmt.Errorf("unsupported data type: %v", varType)
	}
	return nil
}

// isNumeric reports whether readSlab can read the variable.
func isNumeric(v netcdf.Var) bool {
	t, err := v.Type()
	if err != nil {
		return false
	}
	switch t {
	case netcdf.DOUBLE, netcdf.FLOAT, netcdf.INT, netcdf.SHORT:
		return true
	}
	return false
}
