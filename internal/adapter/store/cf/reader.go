package cf

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/fhs/go-netcdf/netcdf"
	"github.com/sirupsen/logrus"

	"go.ngs.io/vertint/internal/adapter/store"
	"go.ngs.io/vertint/internal/domain"
)

// verticalNames are dimension names treated as vertical when the coordinate variable
// carries no axis information.
var verticalNames = []string{"lev", "ilev", "mlev", "plev", "level", "height", "alt", "depth"}

// dimInfo describes one netCDF dimension and its coordinate variable, if any.
type dimInfo struct {
	name   string
	length int
	coord  *netcdf.Var
}

// varInfo maps a catalog variable to its netCDF variable.
type varInfo struct {
	v         netcdf.Var
	hasTime   bool
	hasLevel  bool
	nlev      int
	ngp       int
	rawFill   float64
	hasFill   bool
	scale     float64
	offset    float64
	horizDims int
}

type recordRef struct {
	varID, levelID int
}

// Reader is a store.Reader over a CF netCDF file.
type Reader struct {
	nc    netcdf.Dataset
	log   logrus.FieldLogger
	cat   *domain.Catalog
	vars  []varInfo
	// hasTime is false when the file has no time dimension. An empty unlimited time
	// dimension has hasTime set and ntime 0.
	hasTime bool
	ntime   int
	times   []float64

	step int
	recs []recordRef
	rec  int
}

var _ store.Reader = (*Reader)(nil)

// Open opens a netCDF file for reading and builds its catalog.
func Open(path string, log logrus.FieldLogger) (*Reader, error) {
	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file %s: %w", path, err)
	}
	r := &Reader{nc: nc, log: log, step: -1, rec: -1}
	if err := r.scan(); err != nil {
		_ = nc.Close()
		return nil, fmt.Errorf("failed to read metadata of %s: %w", path, err)
	}
	return r, nil
}

// scan builds the catalog from the file header.
//
//nolint:gocyclo // Classifying netCDF variables needs many small decisions.
func (r *Reader) scan() error {
	nvars, err := r.nc.NVars()
	if err != nil {
		return fmt.Errorf("failed to count variables: %w", err)
	}

	all := make([]netcdf.Var, 0, nvars)
	names := make(map[string]netcdf.Var, nvars)
	for i := 0; i < nvars; i++ {
		v := r.nc.VarN(i)
		name, err := v.Name()
		if err != nil {
			return fmt.Errorf("failed to get variable name: %w", err)
		}
		all = append(all, v)
		names[name] = v
	}

	// Coordinate variables and variables referenced by other variables are not data.
	auxiliary := make(map[string]bool)
	dims := make(map[string]*dimInfo)
	for _, v := range all {
		name, _ := v.Name()
		vdims, err := v.Dims()
		if err != nil {
			return fmt.Errorf("failed to get dimensions of %s: %w", name, err)
		}
		if len(vdims) == 1 {
			if dname, _ := vdims[0].Name(); dname == name {
				auxiliary[name] = true
			}
		}
		if b := attrString(v, attrBounds); b != "" {
			auxiliary[b] = true
		}
		for key, term := range parseFormulaTerms(attrString(v, attrFormulaTerms)) {
			if key != "ps" {
				auxiliary[term] = true
			}
		}
	}
	for _, aux := range []string{"hyai", "hybi", "hyam", "hybm"} {
		auxiliary[aux] = true
	}

	dimOf := func(d netcdf.Dim) (*dimInfo, error) {
		name, err := d.Name()
		if err != nil {
			return nil, fmt.Errorf("failed to get dimension name: %w", err)
		}
		if di, ok := dims[name]; ok {
			return di, nil
		}
		n, err := d.Len()
		if err != nil {
			return nil, fmt.Errorf("failed to get length of dimension %s: %w", name, err)
		}
		di := &dimInfo{name: name, length: int(n)}
		if cv, ok := names[name]; ok {
			di.coord = &cv
		}
		dims[name] = di
		return di, nil
	}

	cat := &domain.Catalog{}
	gridIDs := make(map[string]int)
	zaxisIDs := make(map[string]int)
	timeDim := ""

	for _, v := range all {
		name, _ := v.Name()
		if auxiliary[name] || !isNumeric(v) {
			continue
		}
		vdims, _ := v.Dims()

		info := varInfo{v: v, scale: 1}
		var (
			horiz []*dimInfo
			vert  *dimInfo
		)
		for _, d := range vdims {
			di, err := dimOf(d)
			if err != nil {
				return err
			}
			switch {
			case isTimeDim(di):
				if timeDim == "" {
					timeDim = di.name
				}
				info.hasTime = true
			case isVerticalDim(di) && vert == nil:
				vert = di
			default:
				horiz = append(horiz, di)
			}
		}
		if len(horiz) > 2 {
			r.log.WithField("variable", name).Debug("Skipping variable with unsupported dimensions")
			continue
		}

		gridID, err := r.addGrid(cat, gridIDs, horiz)
		if err != nil {
			return err
		}
		zaxisID, err := r.addZAxis(cat, zaxisIDs, names, vert)
		if err != nil {
			return err
		}
		grid, _ := cat.Grid(gridID)
		z, _ := cat.ZAxis(zaxisID)

		info.hasLevel = vert != nil
		info.nlev = z.Size()
		info.ngp = grid.Size
		info.horizDims = len(horiz)
		info.rawFill, info.hasFill = getFillValue(v)
		if f, ok := attrFloat(v, attrScaleFactor); ok && f != 0 {
			info.scale = f
		}
		info.offset, _ = attrFloat(v, attrAddOffset)

		missval := DefaultMissVal
		if info.hasFill {
			missval = info.rawFill
		}
		code, _ := attrInt(v, attrCode)
		table, ok := attrInt(v, attrTable)
		if !ok {
			table = domain.TableUnset
		}
		cat.Vars = append(cat.Vars, domain.Variable{
			ID:       len(cat.Vars),
			Name:     name,
			StdName:  attrString(v, attrStandardName),
			LongName: attrString(v, attrLongName),
			Units:    attrString(v, attrUnits),
			Code:     code,
			Table:    table,
			GridID:   gridID,
			ZAxisID:  zaxisID,
			MissVal:  missval,
			Constant: !info.hasTime,
		})
		r.vars = append(r.vars, info)
	}

	if timeDim != "" {
		di := dims[timeDim]
		r.hasTime = true
		r.ntime = di.length
		cat.Time = domain.TimeAxis{Name: timeDim}
		if di.coord != nil {
			cat.Time.Units = attrString(*di.coord, attrUnits)
			cat.Time.Calendar = attrString(*di.coord, attrCalendar)
		}
		if di.coord != nil && di.length > 0 {
			times, err := readFloat64Var(*di.coord)
			if err != nil {
				return fmt.Errorf("failed to read time coordinate: %w", err)
			}
			r.times = times
		}
	}
	r.cat = cat
	return nil
}

func isTimeDim(di *dimInfo) bool {
	if di.coord != nil {
		if strings.EqualFold(attrString(*di.coord, attrAxis), "T") || attrString(*di.coord, attrStandardName) == "time" {
			return true
		}
	}
	return di.name == timeDimDefaultName
}

func isVerticalDim(di *dimInfo) bool {
	if di.coord != nil {
		c := *di.coord
		if strings.EqualFold(attrString(c, attrAxis), "Z") || attrString(c, attrPositive) != "" {
			return true
		}
		switch attrString(c, attrStandardName) {
		case hybridStdName, "air_pressure", "height", "altitude", "model_level_number":
			return true
		}
	}
	return slices.Contains(verticalNames, di.name)
}

// addGrid returns the grid spanned by the horizontal dimensions, registering it on first use.
func (r *Reader) addGrid(cat *domain.Catalog, ids map[string]int, horiz []*dimInfo) (int, error) {
	key := ""
	for _, d := range horiz {
		key += d.name + ","
	}
	if id, ok := ids[key]; ok {
		return id, nil
	}

	g := domain.Grid{ID: len(cat.Grids), Type: domain.GridGeneric, Size: 1}
	for _, d := range horiz {
		g.Size *= d.length
		if d.name == spectralDimName || d.name == spectralComplexName {
			g.Type = domain.GridSpectral
		}
	}
	coords := func(d *dimInfo) ([]float64, error) {
		if d.coord == nil {
			out := make([]float64, d.length)
			for i := range out {
				out[i] = float64(i)
			}
			return out, nil
		}
		return readFloat64Var(*d.coord)
	}

	var err error
	switch len(horiz) {
	case 1:
		g.XName = horiz[0].name
		if g.X, err = coords(horiz[0]); err != nil {
			return 0, fmt.Errorf("failed to read coordinate %s: %w", g.XName, err)
		}
		if g.Type != domain.GridSpectral {
			g.Type = domain.GridUnstructured
		}
	case 2:
		g.YName, g.XName = horiz[0].name, horiz[1].name
		if g.Y, err = coords(horiz[0]); err != nil {
			return 0, fmt.Errorf("failed to read coordinate %s: %w", g.YName, err)
		}
		if g.X, err = coords(horiz[1]); err != nil {
			return 0, fmt.Errorf("failed to read coordinate %s: %w", g.XName, err)
		}
		if g.Type != domain.GridSpectral && horiz[1].coord != nil &&
			strings.HasPrefix(attrString(*horiz[1].coord, attrUnits), "degree") {
			g.Type = domain.GridLonLat
		}
	}

	cat.Grids = append(cat.Grids, g)
	ids[key] = g.ID
	return g.ID, nil
}

// addZAxis returns the vertical axis of a dimension (nil means surface), registering it on
// first use.
func (r *Reader) addZAxis(cat *domain.Catalog, ids map[string]int, names map[string]netcdf.Var, d *dimInfo) (int, error) {
	key := ""
	if d != nil {
		key = d.name
	}
	if id, ok := ids[key]; ok {
		return id, nil
	}

	z := domain.ZAxis{ID: len(cat.ZAxes), Type: domain.ZAxisSurface, Name: "surface", Levels: []float64{0}}
	if d != nil {
		z.Type = domain.ZAxisGeneric
		z.Name = d.name
		z.Levels = make([]float64, d.length)
		for i := range z.Levels {
			z.Levels[i] = float64(i + 1)
		}
		if d.coord != nil {
			c := *d.coord
			levels, err := readFloat64Var(c)
			if err != nil {
				return 0, fmt.Errorf("failed to read levels of %s: %w", d.name, err)
			}
			z.Levels = levels
			z.Units = attrString(c, attrUnits)

			switch std := attrString(c, attrStandardName); {
			case std == hybridStdName:
				vct, psName, err := readHybridTable(c, names, d.length)
				if err != nil {
					return 0, fmt.Errorf("failed to read hybrid coordinate %s: %w", d.name, err)
				}
				z.VCT, z.PSName = vct, psName
				z.Type = domain.ZAxisHybrid
				if len(vct) == 2*d.length {
					z.Type = domain.ZAxisHybridHalf
				}
			case std == "air_pressure" || z.Units == "Pa" || z.Units == "hPa":
				z.Type = domain.ZAxisPressure
			case std == "height" || std == "altitude":
				z.Type = domain.ZAxisHeight
			}
		}
	}

	cat.ZAxes = append(cat.ZAxes, z)
	ids[key] = z.ID
	return z.ID, nil
}

// readHybridTable reads the A and B interface coefficients of a hybrid axis with n levels
// and returns them as one table, with the surface pressure variable named by the formula
// terms. n+1 coefficients (full level axis) are preferred over n (half level axis); the
// formula terms are tried before the conventional hyai/hybi names.
func readHybridTable(coord netcdf.Var, names map[string]netcdf.Var, n int) ([]float64, string, error) {
	terms := parseFormulaTerms(attrString(coord, attrFormulaTerms))

	read := func(name string) ([]float64, error) {
		v, ok := names[name]
		if !ok {
			return nil, nil
		}
		return readFloat64Var(v)
	}

	type pair struct{ a, b []float64 }
	var candidates []pair
	switch {
	case terms["ap"] != "":
		a, err := read(terms["ap"])
		if err != nil {
			return nil, "", err
		}
		b, err := read(terms["b"])
		if err != nil {
			return nil, "", err
		}
		candidates = append(candidates, pair{a, b})
	case terms["a"] != "" && terms["p0"] != "":
		a, err := read(terms["a"])
		if err != nil {
			return nil, "", err
		}
		b, err := read(terms["b"])
		if err != nil {
			return nil, "", err
		}
		p0, err := read(terms["p0"])
		if err != nil {
			return nil, "", err
		}
		if len(p0) == 1 {
			for i := range a {
				a[i] *= p0[0]
			}
			candidates = append(candidates, pair{a, b})
		}
	}
	a, err := read("hyai")
	if err != nil {
		return nil, "", err
	}
	b, err := read("hybi")
	if err != nil {
		return nil, "", err
	}
	candidates = append(candidates, pair{a, b})

	for _, size := range []int{n + 1, n} {
		for _, c := range candidates {
			if len(c.a) == size && len(c.b) == size {
				return append(slices.Clone(c.a), c.b...), terms["ps"], nil
			}
		}
	}
	return nil, terms["ps"], nil
}

// Catalog implements store.Reader.
func (r *Reader) Catalog() *domain.Catalog {
	return r.cat
}

// NextTimestep implements store.Reader. Time-invariant variables are only part of the
// first time step.
func (r *Reader) NextTimestep() (store.Timestep, int, error) {
	nsteps := r.ntime
	if !r.hasTime {
		nsteps = 1
	}
	if r.step+1 >= nsteps {
		r.step = nsteps
		r.recs = nil
		return store.Timestep{Index: nsteps}, 0, nil
	}
	r.step++
	r.rec = -1
	r.recs = r.recs[:0]
	for id, info := range r.vars {
		if r.step > 0 && !info.hasTime {
			continue
		}
		for k := 0; k < info.nlev; k++ {
			r.recs = append(r.recs, recordRef{varID: id, levelID: k})
		}
	}

	ts := store.Timestep{Index: r.step, Value: float64(r.step)}
	if r.step < len(r.times) {
		ts.Value = r.times[r.step]
	}
	return ts, len(r.recs), nil
}

// InqRecord implements store.Reader.
func (r *Reader) InqRecord() (int, int, error) {
	if r.rec+1 >= len(r.recs) {
		return 0, 0, errors.New("no more records in time step")
	}
	r.rec++
	ref := r.recs[r.rec]
	return ref.varID, ref.levelID, nil
}

// ReadRecord implements store.Reader.
func (r *Reader) ReadRecord(dst []float64) (int, error) {
	if r.rec < 0 || r.rec >= len(r.recs) {
		return 0, errors.New("no current record")
	}
	ref := r.recs[r.rec]
	info := r.vars[ref.varID]
	if len(dst) < info.ngp {
		return 0, fmt.Errorf("buffer holds %d values, record has %d", len(dst), info.ngp)
	}

	start := make([]uint64, 0, 4)
	count := make([]uint64, 0, 4)
	if info.hasTime {
		start = append(start, uint64(r.step))
		count = append(count, 1)
	}
	if info.hasLevel {
		start = append(start, uint64(ref.levelID))
		count = append(count, 1)
	}
	grid, _ := r.cat.Grid(r.cat.Vars[ref.varID].GridID)
	switch info.horizDims {
	case 1:
		start = append(start, 0)
		count = append(count, uint64(grid.Size))
	case 2:
		start = append(start, 0, 0)
		count = append(count, uint64(len(grid.Y)), uint64(len(grid.X)))
	}

	out := dst[:info.ngp]
	if len(start) == 0 {
		if err := readSlab(info.v, out, nil, nil); err != nil {
			return 0, err
		}
	} else if err := readSlab(info.v, out, start, count); err != nil {
		return 0, fmt.Errorf("failed to read %s level %d: %w", r.cat.Vars[ref.varID].Name, ref.levelID, err)
	}

	missval := r.cat.Vars[ref.varID].MissVal
	nmiss := 0
	for i, val := range out {
		if (info.hasFill && val == info.rawFill) || math.IsNaN(val) {
			out[i] = missval
			nmiss++
			continue
		}
		out[i] = val*info.scale + info.offset
	}
	return nmiss, nil
}

// Close implements store.Reader.
func (r *Reader) Close() error {
	return r.nc.Close()
}
