// Package interp provides the vertical interpolation kernels: hybrid level pressures,
// bracketing indices and the generic, temperature and geopotential height interpolators.
//
// Level-major layout is used throughout: value (k, i) of a field with ngp gridpoints is
// stored at index k*ngp + i.
package interp

import (
	"fmt"
	"math"

	"go.ngs.io/vertint/internal/domain"
)

// Presh computes the half- and full-level pressures of a hybrid column.
//
//	half[k] = A[k] + B[k]·ps     (k < nfull)
//	half[nfull] = ps
//	full[k] = (half[k] + half[k+1]) / 2
//
// full holds nfull·ngp values, half (nfull+1)·ngp.
func Presh(full, half []float64, table domain.HybridTable, ps []float64, nfull, ngp int) error {
	if len(ps) < ngp {
		return fmt.Errorf("surface pressure has %d values, expected %d", len(ps), ngp)
	}
	if table.HalfLevels() != nfull+1 {
		return fmt.Errorf("coordinate table has %d half levels, expected %d", table.HalfLevels(), nfull+1)
	}
	if len(half) < (nfull+1)*ngp || len(full) < nfull*ngp {
		return fmt.Errorf("pressure buffers too small for %d levels of %d gridpoints", nfull, ngp)
	}

	for k := 0; k < nfull; k++ {
		a, b := table.A(k), table.B(k)
		hk := half[k*ngp : (k+1)*ngp]
		for i := 0; i < ngp; i++ {
			hk[i] = a + b*ps[i]
		}
	}
	copy(half[nfull*ngp:(nfull+1)*ngp], ps[:ngp])

	for k := 0; k < nfull; k++ {
		for i := 0; i < ngp; i++ {
			full[k*ngp+i] = 0.5 * (half[k*ngp+i] + half[(k+1)*ngp+i])
		}
	}
	return nil
}

// LogInPlace replaces every value with its natural logarithm.
func LogInPlace(values []float64) {
	for i, v := range values {
		values[i] = math.Log(v)
	}
}
