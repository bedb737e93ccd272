package interp

// MissingIndex marks a target level outside the source column.
const MissingIndex = -1

// GenInd builds the vertical index. For every target level lp and gridpoint i,
// idx[lp*ngp+i] is the deepest full level whose pressure is below the target, so that
// levels idx and idx+1 bracket it. Targets above the topmost full level get 0.
func GenInd(idx []int, levels []float64, full []float64, ngp, nfull int) {
	for lp, pres := range levels {
		row := idx[lp*ngp : (lp+1)*ngp]
		for i := range row {
			row[i] = 0
		}
		for k := 0; k < nfull; k++ {
			fk := full[k*ngp : (k+1)*ngp]
			for i := 0; i < ngp; i++ {
				if pres > fk[i] {
					row[i] = k
				}
			}
		}
	}
}

// GenIndMiss marks targets outside [half[0], half[nhalf-1]] with MissingIndex and stores
// in nmiss, per target level, how many gridpoints were marked.
func GenIndMiss(idx []int, levels []float64, half []float64, ngp, nhalf int, nmiss []int) {
	top := half[:ngp]
	bottom := half[(nhalf-1)*ngp : nhalf*ngp]
	for lp, pres := range levels {
		nmiss[lp] = 0
		row := idx[lp*ngp : (lp+1)*ngp]
		for i := 0; i < ngp; i++ {
			if pres > bottom[i] || pres < top[i] {
				row[i] = MissingIndex
				nmiss[lp]++
			}
		}
	}
}
