package domain

import "testing"

func TestParseExtrapolateToggle(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"1", true},
		{"1abc", true},
		{"01", true},
		{"0", false},
		{"2", false},
		{"", false},
		{"true", false},
		{" 1", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseExtrapolateToggle(tt.in); got != tt.want {
				t.Errorf("ParseExtrapolateToggle(%q): expected %v, got %v", tt.in, tt.want, got)
			}
		})
	}
}

func TestLookupOperator(t *testing.T) {
	tests := []struct {
		name   string
		kind   LevelKind
		scale  LevelScale
		always bool
	}{
		{"ml2pl", KindPressure, ScaleLinear, false},
		{"ml2plx", KindPressure, ScaleLinear, true},
		{"ml2hl", KindHeight, ScaleLinear, false},
		{"ml2hlx", KindHeight, ScaleLinear, true},
		{"ml2pl_lp", KindPressure, ScaleLog, false},
		{"ml2plx_lp", KindPressure, ScaleLog, true},
		{"ml2hl_lp", KindHeight, ScaleLog, false},
		{"ml2hlx_lp", KindHeight, ScaleLog, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, ok := LookupOperator(tt.name)
			if !ok {
				t.Fatal("Operator not found")
			}
			if op.Kind != tt.kind || op.Scale != tt.scale || op.Extrapolate != tt.always {
				t.Errorf("Unexpected operator %+v", op)
			}
			if got := op.ResolveExtrapolation("0"); got != tt.always {
				t.Errorf("EXTRAPOLATE=0: expected %v, got %v", tt.always, got)
			}
			if !op.ResolveExtrapolation("1") {
				t.Error("EXTRAPOLATE=1 must enable extrapolation")
			}
		})
	}

	if _, ok := LookupOperator("ml2sl"); ok {
		t.Error("Unexpected operator ml2sl")
	}
}
