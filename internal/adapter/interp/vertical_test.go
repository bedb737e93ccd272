package interp

import (
	"math"
	"testing"

	"go.ngs.io/vertint/internal/domain"
)

// threeLevelTable has half levels A = {0, 10000, 20000, 0}, B = {0, 0.2, 0.5, 1}.
// With ps = 100000 Pa: half = {0, 30000, 70000, 100000}, full = {15000, 50000, 85000}.
// With ps = 80000 Pa:  half = {0, 26000, 60000, 80000},  full = {13000, 43000, 70000}.
func threeLevelTable() domain.HybridTable {
	return domain.NewHybridTable([]float64{0, 10000, 20000, 0, 0, 0.2, 0.5, 1})
}

// newColumn builds a column over two gridpoints with ps = {100000, 80000}.
func newColumn(t *testing.T, levels []float64, logScale, extrapolate bool) (*Column, []int) {
	t.Helper()
	const ngp, nfull = 2, 3
	full := make([]float64, nfull*ngp)
	half := make([]float64, (nfull+1)*ngp)
	if err := Presh(full, half, threeLevelTable(), []float64{100000, 80000}, nfull, ngp); err != nil {
		t.Fatalf("Presh failed: %v", err)
	}
	coords := append([]float64(nil), levels...)
	if logScale {
		LogInPlace(full)
		LogInPlace(half)
		LogInPlace(coords)
	}
	idx := make([]int, len(levels)*ngp)
	GenInd(idx, coords, full, ngp, nfull)
	nmiss := make([]int, len(levels))
	if !extrapolate {
		GenIndMiss(idx, coords, half, ngp, nfull+1, nmiss)
	}
	return &Column{NGP: ngp, NFull: nfull, Full: full, Half: half, Index: idx, Levels: coords, Log: logScale}, nmiss
}

func TestPresh(t *testing.T) {
	full := make([]float64, 6)
	half := make([]float64, 8)
	if err := Presh(full, half, threeLevelTable(), []float64{100000, 80000}, 3, 2); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	wantHalf := []float64{0, 0, 30000, 26000, 70000, 60000, 100000, 80000}
	wantFull := []float64{15000, 13000, 50000, 43000, 85000, 70000}
	for i := range wantHalf {
		if math.Abs(half[i]-wantHalf[i]) > 1e-9 {
			t.Errorf("half[%d]: expected %.1f, got %.1f", i, wantHalf[i], half[i])
		}
	}
	for i := range wantFull {
		if math.Abs(full[i]-wantFull[i]) > 1e-9 {
			t.Errorf("full[%d]: expected %.1f, got %.1f", i, wantFull[i], full[i])
		}
	}
}

func TestPresh_Errors(t *testing.T) {
	tests := []struct {
		name  string
		ps    []float64
		nfull int
	}{
		{"short surface pressure", []float64{100000}, 3},
		{"level count mismatch", []float64{100000, 80000}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			full := make([]float64, 16)
			half := make([]float64, 16)
			if err := Presh(full, half, threeLevelTable(), tt.ps, tt.nfull, 2); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestGenInd(t *testing.T) {
	col, _ := newColumn(t, []float64{10000, 50000, 90000}, false, true)

	want := []int{
		0, 0, // 10000 Pa is above both columns.
		0, 1, // 50000 Pa: not below full[1] at gp0, below 43000 at gp1.
		2, 2, // 90000 Pa is below the lowest full level.
	}
	for i, w := range want {
		if col.Index[i] != w {
			t.Errorf("idx[%d]: expected %d, got %d", i, w, col.Index[i])
		}
	}
}

func TestGenIndMiss(t *testing.T) {
	col, nmiss := newColumn(t, []float64{10000, 90000, 110000}, false, false)

	wantIdx := []int{0, 0, 2, MissingIndex, MissingIndex, MissingIndex}
	for i, w := range wantIdx {
		if col.Index[i] != w {
			t.Errorf("idx[%d]: expected %d, got %d", i, w, col.Index[i])
		}
	}
	wantMiss := []int{0, 1, 2}
	for lp, w := range wantMiss {
		if nmiss[lp] != w {
			t.Errorf("nmiss[%d]: expected %d, got %d", lp, w, nmiss[lp])
		}
	}
}

func TestLinear_ReproducesPressure(t *testing.T) {
	levels := []float64{10000, 30000, 60000, 85000, 95000}
	col, _ := newColumn(t, levels, false, true)

	// A field equal to the full-level pressure interpolates to the target pressure
	// inside the column and is clamped outside it.
	src := append([]float64(nil), col.Full...)
	dst := make([]float64, len(levels)*2)
	nmiss := make([]int, len(levels))
	col.Linear(src, dst, col.Full, 3, -9e33, nmiss)

	want := []float64{
		15000, 13000,
		30000, 30000,
		60000, 60000,
		85000, 70000,
		85000, 70000,
	}
	for i, w := range want {
		if math.Abs(dst[i]-w) > 1e-6 {
			t.Errorf("dst[%d]: expected %.3f, got %.3f", i, w, dst[i])
		}
	}
	for lp, n := range nmiss {
		if n != 0 {
			t.Errorf("nmiss[%d]: expected 0, got %d", lp, n)
		}
	}
}

func TestLinear_MissingIndex(t *testing.T) {
	levels := []float64{50000, 90000}
	col, authoritative := newColumn(t, levels, false, false)

	src := []float64{1, 1, 2, 2, 3, 3}
	dst := make([]float64, 4)
	nmiss := make([]int, 2)
	const missval = -999.0
	col.Linear(src, dst, col.Full, 3, missval, nmiss)

	if dst[3] != missval {
		t.Errorf("Expected missing value below gp1 surface, got %v", dst[3])
	}
	if dst[2] == missval {
		t.Error("Unexpected missing value above gp0 surface")
	}
	for lp := range nmiss {
		if nmiss[lp] != authoritative[lp] {
			t.Errorf("level %d: kernel counted %d missing, index marked %d", lp, nmiss[lp], authoritative[lp])
		}
	}
}

func TestLinear_HalfLevelField(t *testing.T) {
	levels := []float64{15000, 80000}
	col, _ := newColumn(t, levels, false, true)

	src := append([]float64(nil), col.Half...)
	dst := make([]float64, 4)
	nmiss := make([]int, 2)
	col.Linear(src, dst, col.Half, 4, -9e33, nmiss)

	want := []float64{15000, 15000, 80000, 80000}
	for i, w := range want {
		if math.Abs(dst[i]-w) > 1e-6 {
			t.Errorf("dst[%d]: expected %.3f, got %.3f", i, w, dst[i])
		}
	}
}

func TestLinear_LogScale(t *testing.T) {
	levels := []float64{20000, 40000, 60000}
	col, _ := newColumn(t, levels, true, true)

	// ln(p) is linear in log-pressure, so the result is exactly ln(target).
	src := append([]float64(nil), col.Full...)
	dst := make([]float64, 6)
	nmiss := make([]int, 3)
	col.Linear(src, dst, col.Full, 3, -9e33, nmiss)

	for lp, p := range levels {
		for i := 0; i < 2; i++ {
			got := dst[lp*2+i]
			if math.Abs(got-math.Log(p)) > 1e-9 {
				t.Errorf("level %.0f gp %d: expected %.9f, got %.9f", p, i, math.Log(p), got)
			}
		}
	}
}

func TestTemperature_Extrapolation(t *testing.T) {
	levels := []float64{50000, 92000, 105000}
	src := []float64{220, 220, 250, 250, 270, 270}
	sgeopot := []float64{1000 * domain.PlanetGrav, 0}

	for _, logScale := range []bool{false, true} {
		col, _ := newColumn(t, levels, logScale, true)
		dst := make([]float64, 6)
		nmiss := make([]int, 3)
		col.Temperature(sgeopot, src, dst, -9e33, nmiss)

		// 92000 Pa lies between the lowest full level and the surface at gp0.
		if math.Abs(dst[2]-270) > 1e-9 {
			t.Errorf("log=%v: expected bottom value 270 above surface, got %v", logScale, dst[2])
		}

		// Below the surface at gp0: T* with a 1000 m surface gives the standard lapse rate.
		alpha := domain.PlanetRD * lapseRate / domain.PlanetGrav
		tstar := (1 + alpha*(100000.0/85000.0-1)) * 270
		want := tstar * math.Pow(105000.0/100000.0, alpha)
		if math.Abs(dst[4]-want) > 1e-3 {
			t.Errorf("log=%v: gp0 extrapolation expected %.4f, got %.4f", logScale, want, dst[4])
		}

		// Sea-level surface: T* equals T_msl, the profile is isothermal below ground.
		tstar1 := (1 + alpha*(80000.0/70000.0-1)) * 270
		if math.Abs(dst[3]-tstar1) > 1e-6 || math.Abs(dst[5]-tstar1) > 1e-6 {
			t.Errorf("log=%v: gp1 expected isothermal %.4f, got %.4f and %.4f", logScale, tstar1, dst[3], dst[5])
		}
	}
}

func TestTemperature_WarmSurfaceCapped(t *testing.T) {
	// A very warm lowest level is pulled back toward 290.5 K.
	tstar, zalph := surfaceTemperatures(1.0, 0, 300)
	if want := 0.5 * (290.5 + 300); math.Abs(tstar-want) > 1e-9 {
		t.Errorf("Expected T* %.3f, got %.3f", want, tstar)
	}
	if zalph != 0 {
		t.Errorf("Expected isothermal lapse factor, got %v", zalph)
	}

	// A very cold one is raised toward 255 K.
	tstar, _ = surfaceTemperatures(1.0, 0, 235)
	if math.Abs(tstar-245) > 1e-9 {
		t.Errorf("Expected T* 245, got %.3f", tstar)
	}
}

func TestGeopotentialHeight(t *testing.T) {
	levels := []float64{50000, 92500, 105000}
	// Heights on full levels plus the surface slot (sgeopot/g).
	src := []float64{
		13000, 14000,
		5500, 4000,
		1500, 3000,
		1000, 2000,
	}
	sgeopot := []float64{1000 * domain.PlanetGrav, 2000 * domain.PlanetGrav}
	temp := []float64{220, 220, 250, 250, 270, 270}

	var linear []float64
	for _, logScale := range []bool{false, true} {
		col, _ := newColumn(t, levels, logScale, true)
		dst := make([]float64, 6)
		nmiss := make([]int, 3)
		col.GeopotentialHeight(sgeopot, src, dst, temp, -9e33, nmiss)

		if math.Abs(dst[0]-5500) > 1e-9 {
			t.Errorf("log=%v: expected 5500 at a full level, got %v", logScale, dst[0])
		}
		if !logScale {
			// Halfway between the lowest full level (85000) and the surface (100000).
			if math.Abs(dst[2]-1250) > 1e-9 {
				t.Errorf("Expected 1250 between bottom level and surface, got %v", dst[2])
			}
			linear = append([]float64(nil), dst...)
		}
		if !(dst[0] > dst[2] && dst[2] > dst[4]) {
			t.Errorf("log=%v: height must decrease with pressure at gp0, got %v", logScale, dst)
		}
		// Below ground the height drops beneath the surface.
		if dst[4] >= 1000 {
			t.Errorf("log=%v: expected height below 1000 m at 105000 Pa, got %v", logScale, dst[4])
		}
		if logScale && math.Abs(dst[4]-linear[4]) > 1e-6 {
			t.Errorf("Log and linear extrapolation differ: %v vs %v", dst[4], linear[4])
		}
	}
}

func TestExtrapolateHeight_Hypsometric(t *testing.T) {
	// With zero lapse factor the extrapolation reduces to the isothermal hypsometric law.
	lnp := math.Log(1.1)
	got := extrapolateHeight(lnp, 1.0, 0, 260)
	want := -domain.PlanetRD * 260 * lnp / domain.PlanetGrav
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Expected %.6f, got %.6f", want, got)
	}
}

func TestLinear_LogHalfLevelsZeroTop(t *testing.T) {
	// The top half level sits at 0 Pa, so its log-pressure is -Inf.
	c, nmiss := newColumn(t, []float64{20000}, true, false)
	if !math.IsInf(c.Half[0], -1) {
		t.Fatalf("Expected -Inf top half level, got %v", c.Half[0])
	}
	src := []float64{1, 1, 2, 2, 3, 3, 4, 4}
	dst := make([]float64, 2)
	got := make([]int, 1)
	c.Linear(src, dst, c.Half, 4, -9e33, got)

	if nmiss[0] != 0 || got[0] != 0 {
		t.Errorf("Expected no missing values, got %d and %d", nmiss[0], got[0])
	}
	for i, v := range dst {
		if v != 1 {
			t.Errorf("gridpoint %d: expected the top value 1, got %v", i, v)
		}
	}
}
