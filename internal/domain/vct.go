package domain

import (
	"math"
	"slices"
)

// HybridTable is a hybrid sigma-pressure vertical coordinate table: H "A" coefficients
// (Pa) followed by H "B" coefficients (sigma), H being the number of half levels.
// A HybridTable is immutable once built.
type HybridTable struct {
	vct []float64
}

// NewHybridTable copies vct into a table. It does not check or reorder the values.
func NewHybridTable(vct []float64) HybridTable {
	return HybridTable{vct: slices.Clone(vct)}
}

// Len returns the number of coefficients (2·H).
func (t HybridTable) Len() int {
	return len(t.vct)
}

// HalfLevels returns H.
func (t HybridTable) HalfLevels() int {
	return len(t.vct) / 2
}

// A returns the additive coefficient of half level k.
func (t HybridTable) A(k int) float64 {
	return t.vct[k]
}

// B returns the multiplicative coefficient of half level k.
func (t HybridTable) B(k int) float64 {
	return t.vct[t.HalfLevels()+k]
}

// Values returns a copy of the flattened A-then-B sequence.
func (t HybridTable) Values() []float64 {
	return slices.Clone(t.vct)
}

// VerticalGeometry describes the hybrid vertical geometry of a run.
type VerticalGeometry struct {
	FullLevels int  // F.
	HalfLevels int  // H = F+1.
	ZAxisID    int  // Axis the hybrid geometry was derived from.
	Inverted   bool // Table (and native level order) was upside down.
}

// VerticalCoordinate is the result of BuildVerticalCoordinate.
type VerticalCoordinate struct {
	Table    HybridTable
	Geometry VerticalGeometry
	// RawVCT is the table exactly as found in the metadata, used to match axes bit-for-bit.
	RawVCT []float64
	// Empty is set when the A or B half does not sum to a positive value.
	Empty bool
}

// IsInverted reports whether a VCT is stored upside down: its B half never increases.
func IsInverted(vct []float64) bool {
	n := len(vct)
	if n == 0 || n%2 != 0 {
		return false
	}
	i := n/2 + 1
	for ; i < n; i++ {
		if vct[i] > vct[i-1] {
			break
		}
	}
	return i == n
}

// MirrorTable reverses each half of a VCT independently.
func MirrorTable(vct []float64) []float64 {
	h := len(vct) / 2
	out := make([]float64, len(vct))
	for i := 0; i < h; i++ {
		out[h-1-i] = vct[i]
		out[2*h-1-i] = vct[h+i]
	}
	return out
}

// NormalizeTable mirrors an inverted table and returns it with the inversion flag.
func NormalizeTable(vct []float64) ([]float64, bool) {
	if IsInverted(vct) {
		return MirrorTable(vct), true
	}
	return slices.Clone(vct), false
}

// tableIsEmpty reports whether the A or the B half fails to sum to a positive value.
func tableIsEmpty(vct []float64) bool {
	h := len(vct) / 2
	var suma, sumb float64
	for i := 0; i < h; i++ {
		suma += vct[i]
		sumb += vct[i+h]
	}
	return !(suma > 0 && sumb > 0)
}

// BuildVerticalCoordinate derives the hybrid coordinate from the first hybrid axis of
// the catalog that carries a vertical coordinate table. It returns nil when the catalog
// has no usable table (none, or of odd length).
func BuildVerticalCoordinate(cat *Catalog) (*VerticalCoordinate, error) {
	for _, z := range cat.ZAxes {
		if !z.Type.IsHybrid() || len(z.VCT) == 0 {
			continue
		}
		if len(z.VCT)%2 != 0 {
			return nil, nil
		}

		h := len(z.VCT) / 2
		geom := VerticalGeometry{HalfLevels: h, FullLevels: h - 1, ZAxisID: z.ID}
		if n := z.Size(); n != geom.FullLevels && n != geom.HalfLevels {
			return nil, ErrHybridLevelCount
		}

		vct, inverted := NormalizeTable(z.VCT)
		geom.Inverted = inverted

		return &VerticalCoordinate{
			Table:    NewHybridTable(vct),
			Geometry: geom,
			RawVCT:   slices.Clone(z.VCT),
			Empty:    tableIsEmpty(vct),
		}, nil
	}
	return nil, nil
}

// NativeLevels returns the level count of the axis the geometry was derived from.
func (vc *VerticalCoordinate) NativeLevels(cat *Catalog) int {
	z, ok := cat.ZAxis(vc.Geometry.ZAxisID)
	if !ok {
		return 0
	}
	return z.Size()
}

// MatchesAxis reports whether z is a multi-level hybrid axis whose table equals the raw
// table bit-for-bit.
func (vc *VerticalCoordinate) MatchesAxis(z ZAxis) bool {
	if !z.Type.IsHybrid() || z.Size() <= 1 || len(z.VCT) != len(vc.RawVCT) {
		return false
	}
	for i, v := range z.VCT {
		if math.Float64bits(v) != math.Float64bits(vc.RawVCT[i]) {
			return false
		}
	}
	return true
}

// ReplaceHybridAxes registers target as a new axis in out and substitutes it for every
// hybrid axis matching the coordinate. It returns the new axis ID.
func (vc *VerticalCoordinate) ReplaceHybridAxes(out *Catalog, target ZAxis) int {
	matched := make([]int, 0, 2)
	for _, z := range out.ZAxes {
		if vc.MatchesAxis(z) {
			matched = append(matched, z.ID)
		}
	}
	id := out.AddZAxis(target)
	for _, old := range matched {
		out.ReplaceZAxis(old, id)
	}
	return id
}
