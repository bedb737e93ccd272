package domain

import "strconv"

// Operator is one of the model-level to pressure/height-level operators.
type Operator struct {
	Name        string
	Kind        LevelKind
	Scale       LevelScale
	Extrapolate bool // Always extrapolate ("x" variants).
	Description string
}

// Operators lists the available operators.
var Operators = []Operator{
	{Name: "ml2pl", Kind: KindPressure, Scale: ScaleLinear, Description: "pressure levels in pascal"},
	{Name: "ml2plx", Kind: KindPressure, Scale: ScaleLinear, Extrapolate: true, Description: "pressure levels in pascal"},
	{Name: "ml2hl", Kind: KindHeight, Scale: ScaleLinear, Description: "height levels in meter"},
	{Name: "ml2hlx", Kind: KindHeight, Scale: ScaleLinear, Extrapolate: true, Description: "height levels in meter"},
	{Name: "ml2pl_lp", Kind: KindPressure, Scale: ScaleLog, Description: "pressure levels in pascal"},
	{Name: "ml2plx_lp", Kind: KindPressure, Scale: ScaleLog, Extrapolate: true, Description: "pressure levels in pascal"},
	{Name: "ml2hl_lp", Kind: KindHeight, Scale: ScaleLog, Description: "height levels in meter"},
	{Name: "ml2hlx_lp", Kind: KindHeight, Scale: ScaleLog, Extrapolate: true, Description: "height levels in meter"},
}

// LookupOperator returns the operator with the given name.
func LookupOperator(name string) (Operator, bool) {
	for _, op := range Operators {
		if op.Name == name {
			return op, true
		}
	}
	return Operator{}, false
}

// ResolveExtrapolation decides whether a run extrapolates. "x" variants always do;
// the others follow the EXTRAPOLATE toggle.
func (op Operator) ResolveExtrapolation(toggle string) bool {
	if op.Extrapolate {
		return true
	}
	return ParseExtrapolateToggle(toggle)
}

// ParseExtrapolateToggle interprets the EXTRAPOLATE setting: it must start with a digit
// and its leading integer must be 1.
func ParseExtrapolateToggle(s string) bool {
	if s == "" || s[0] < '0' || s[0] > '9' {
		return false
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	return err == nil && n == 1
}
