package cf

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/vertint/internal/adapter/store"
	"go.ngs.io/vertint/internal/domain"
)

// tmpSuffix marks a file that is still being written.
const tmpSuffix = ".tmp"

// Writer is a store.Writer producing a CF netCDF file. Records are written as they arrive
// into a temporary file next to path, which is renamed to path on Close.
type Writer struct {
	path  string
	cat   *domain.Catalog
	ds    *netcdf.Dataset
	time  *netcdf.Var // Time coordinate; nil when no variable varies in time.
	vars  map[int]outVar
	steps int
	done  bool
}

// outVar is a data variable defined in the file header.
type outVar struct {
	v     domain.Variable
	nv    netcdf.Var
	ngp   int
	nlev  int
	time  bool
	level bool
	grid  []uint64 // Lengths of the horizontal dimensions.
}

var _ store.Writer = (*Writer)(nil)

// Create returns a writer for path. Nothing is written until DefineCatalog, and path
// itself only appears on Close.
func Create(path string) *Writer {
	return &Writer{path: path}
}

func (w *Writer) tmpPath() string { return w.path + tmpSuffix }

// DefineCatalog implements store.Writer. It creates the temporary file and writes the
// header and the coordinates.
func (w *Writer) DefineCatalog(cat *domain.Catalog) error {
	if w.done {
		return errors.New("writer is closed")
	}
	if w.cat != nil {
		return errors.New("catalog already defined")
	}
	if _, err := cat.GridSize(); err != nil {
		return err
	}
	w.cat = cat.Clone()

	ds, err := netcdf.CreateFile(w.tmpPath(), netcdf.CLOBBER|netcdf.NETCDF4)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	w.ds = &ds
	if err := w.defineHeader(); err != nil {
		_ = w.Abort()
		return err
	}
	return nil
}

// DefineTimestep implements store.Writer. Writing the time value extends the unlimited
// time dimension.
func (w *Writer) DefineTimestep(ts store.Timestep) error {
	if w.done {
		return errors.New("writer is closed")
	}
	if w.cat == nil {
		return errors.New("catalog not defined")
	}
	if w.time != nil {
		if err := w.time.WriteFloat64At([]uint64{uint64(w.steps)}, ts.Value); err != nil {
			return fmt.Errorf("failed to write time step %d: %w", w.steps, err)
		}
	}
	w.steps++
	return nil
}

// WriteRecord implements store.Writer.
func (w *Writer) WriteRecord(varID, levelID int, data []float64, _ int) error {
	if w.done {
		return errors.New("writer is closed")
	}
	if w.steps == 0 {
		return errors.New("no time step defined")
	}
	ov, ok := w.vars[varID]
	if !ok {
		return fmt.Errorf("unknown variable %d", varID)
	}
	if levelID < 0 || levelID >= ov.nlev {
		return fmt.Errorf("variable %s: level %d out of range [0, %d)", ov.v.Name, levelID, ov.nlev)
	}
	if len(data) < ov.ngp {
		return fmt.Errorf("variable %s: record has %d values, expected %d", ov.v.Name, len(data), ov.ngp)
	}

	var start, count []uint64
	if ov.time {
		start, count = append(start, uint64(w.steps-1)), append(count, 1)
	}
	if ov.level {
		start, count = append(start, uint64(levelID)), append(count, 1)
	}
	for _, n := range ov.grid {
		start, count = append(start, 0), append(count, n)
	}

	var err error
	if len(start) == 0 {
		err = ov.nv.WriteFloat64At(nil, data[0])
	} else {
		err = ov.nv.WriteFloat64Slice(data[:ov.ngp], start, count)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s level %d: %w", ov.v.Name, levelID, err)
	}
	return nil
}

// Close implements store.Writer. It completes the file and moves it to its final path.
func (w *Writer) Close() error {
	if w.done {
		return nil
	}
	w.done = true
	if w.ds == nil {
		return errors.New("catalog not defined")
	}
	err := w.ds.Close()
	w.ds = nil
	if err != nil {
		_ = os.Remove(w.tmpPath())
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(w.tmpPath(), w.path); err != nil {
		_ = os.Remove(w.tmpPath())
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}

// Abort discards the temporary file. It does nothing after Close.
func (w *Writer) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	if w.ds == nil {
		return nil
	}
	_ = w.ds.Close()
	w.ds = nil
	return os.Remove(w.tmpPath())
}

// defineHeader defines dimensions and variables and writes the coordinate values.
//
//nolint:gocyclo // Defining a netCDF header needs many steps.
func (w *Writer) defineHeader() error {
	ds := *w.ds
	h := &header{ds: ds, dims: make(map[string]netcdf.Dim), lens: make(map[string]int)}
	if err := h.globalAttrs(); err != nil {
		return err
	}

	// Time, unlimited.
	var timeDim *netcdf.Dim
	if slices.ContainsFunc(w.cat.Vars, func(v domain.Variable) bool { return !v.Constant }) {
		name := w.cat.Time.Name
		if name == "" {
			name = timeDimDefaultName
		}
		d, err := h.dim(name, 0)
		if err != nil {
			return err
		}
		timeDim = &d
		timeVar, err := h.coordVar(name, d)
		if err != nil {
			return err
		}
		for _, a := range [][2]string{{attrStandardName, "time"}, {attrUnits, w.cat.Time.Units}, {attrCalendar, w.cat.Time.Calendar}, {attrAxis, "T"}} {
			if err := writeText(timeVar, a[0], a[1]); err != nil {
				return err
			}
		}
		w.time = &timeVar
	}

	// Horizontal grids.
	gridDims := make(map[int][]netcdf.Dim)
	var pending []pendingWrite
	for _, g := range w.cat.Grids {
		dims, writes, err := h.grid(g)
		if err != nil {
			return err
		}
		gridDims[g.ID] = dims
		pending = append(pending, writes...)
	}

	// Vertical axes.
	zDims := make(map[int]*netcdf.Dim)
	for _, z := range w.cat.ZAxes {
		if z.Type == domain.ZAxisSurface && z.Size() == 1 {
			continue
		}
		d, writes, err := h.zaxis(z)
		if err != nil {
			return err
		}
		zDims[z.ID] = &d
		pending = append(pending, writes...)
	}

	// Data variables.
	w.vars = make(map[int]outVar, len(w.cat.Vars))
	for _, v := range w.cat.Vars {
		grid, _ := w.cat.Grid(v.GridID)
		ov := outVar{v: v, ngp: grid.Size, nlev: w.cat.VarLevels(v.ID), time: timeDim != nil && !v.Constant}

		var dims []netcdf.Dim
		if ov.time {
			dims = append(dims, *timeDim)
		}
		if d, ok := zDims[v.ZAxisID]; ok {
			dims = append(dims, *d)
			ov.level = true
		}
		for _, d := range gridDims[v.GridID] {
			n, err := d.Len()
			if err != nil {
				return fmt.Errorf("failed to get dimension length: %w", err)
			}
			ov.grid = append(ov.grid, n)
		}
		dims = append(dims, gridDims[v.GridID]...)

		nv, err := ds.AddVar(v.Name, netcdf.DOUBLE, dims)
		if err != nil {
			return fmt.Errorf("failed to add variable %s: %w", v.Name, err)
		}
		if err := writeVarAttrs(nv, v); err != nil {
			return fmt.Errorf("variable %s: %w", v.Name, err)
		}
		ov.nv = nv
		w.vars[v.ID] = ov
	}

	if err := ds.EndDef(); err != nil {
		return fmt.Errorf("failed to end define mode: %w", err)
	}

	for _, p := range pending {
		if len(p.data) == 0 {
			continue
		}
		if err := p.v.WriteFloat64s(p.data); err != nil {
			return fmt.Errorf("failed to write %s: %w", p.name, err)
		}
	}
	return nil
}

// pendingWrite is coordinate data written after the header is complete.
type pendingWrite struct {
	name string
	v    netcdf.Var
	data []float64
}

// header tracks dimensions while a file header is defined.
type header struct {
	ds   netcdf.Dataset
	dims map[string]netcdf.Dim
	lens map[string]int
}

func (h *header) globalAttrs() error {
	if err := h.ds.Attr(attrConventions).WriteBytes([]byte(conventionsCF)); err != nil {
		return fmt.Errorf("failed to write global attributes: %w", err)
	}
	return nil
}

// dim returns a dimension named name with length n. A different length under an existing
// name gets a numbered name.
func (h *header) dim(name string, n int) (netcdf.Dim, error) {
	candidate := name
	for i := 2; ; i++ {
		d, ok := h.dims[candidate]
		if !ok {
			break
		}
		if h.lens[candidate] == n {
			return d, nil
		}
		candidate = fmt.Sprintf("%s_%d", name, i)
	}
	d, err := h.ds.AddDim(candidate, uint64(n))
	if err != nil {
		return netcdf.Dim{}, fmt.Errorf("failed to add dimension %s: %w", candidate, err)
	}
	h.dims[candidate] = d
	h.lens[candidate] = n
	return d, nil
}

// coordVar adds the coordinate variable of d unless it already exists.
func (h *header) coordVar(name string, d netcdf.Dim) (netcdf.Var, error) {
	dname, err := d.Name()
	if err != nil {
		return netcdf.Var{}, fmt.Errorf("failed to get dimension name: %w", err)
	}
	if v, err := h.ds.Var(dname); err == nil {
		return v, nil
	}
	v, err := h.ds.AddVar(dname, netcdf.DOUBLE, []netcdf.Dim{d})
	if err != nil {
		return netcdf.Var{}, fmt.Errorf("failed to add coordinate %s: %w", name, err)
	}
	return v, nil
}

// grid defines the horizontal dimensions and coordinates of g.
func (h *header) grid(g domain.Grid) ([]netcdf.Dim, []pendingWrite, error) {
	switch {
	case g.YName != "":
		ny, nx := len(g.Y), len(g.X)
		if nx*ny != g.Size {
			return nil, nil, fmt.Errorf("grid %d: %d×%d coordinates do not match size %d", g.ID, ny, nx, g.Size)
		}
		yd, err := h.dim(g.YName, ny)
		if err != nil {
			return nil, nil, err
		}
		xd, err := h.dim(g.XName, nx)
		if err != nil {
			return nil, nil, err
		}
		yv, err := h.coordVar(g.YName, yd)
		if err != nil {
			return nil, nil, err
		}
		xv, err := h.coordVar(g.XName, xd)
		if err != nil {
			return nil, nil, err
		}
		if g.Type == domain.GridLonLat {
			if err := writeText(yv, attrUnits, "degrees_north"); err != nil {
				return nil, nil, err
			}
			if err := writeText(xv, attrUnits, "degrees_east"); err != nil {
				return nil, nil, err
			}
		}
		return []netcdf.Dim{yd, xd}, []pendingWrite{{g.YName, yv, g.Y}, {g.XName, xv, g.X}}, nil
	case g.XName != "":
		xd, err := h.dim(g.XName, g.Size)
		if err != nil {
			return nil, nil, err
		}
		if len(g.X) != g.Size {
			return []netcdf.Dim{xd}, nil, nil
		}
		xv, err := h.coordVar(g.XName, xd)
		if err != nil {
			return nil, nil, err
		}
		return []netcdf.Dim{xd}, []pendingWrite{{g.XName, xv, g.X}}, nil
	case g.Size > 1:
		xd, err := h.dim(fmt.Sprintf("ncells_%d", g.ID), g.Size)
		if err != nil {
			return nil, nil, err
		}
		return []netcdf.Dim{xd}, nil, nil
	}
	return nil, nil, nil
}

// zaxis defines the dimension, coordinate and, for hybrid axes, the coefficient
// variables of z.
func (h *header) zaxis(z domain.ZAxis) (netcdf.Dim, []pendingWrite, error) {
	name := z.Name
	if name == "" {
		name = "lev"
	}
	d, err := h.dim(name, z.Size())
	if err != nil {
		return netcdf.Dim{}, nil, err
	}
	dname, _ := d.Name()
	v, err := h.coordVar(dname, d)
	if err != nil {
		return netcdf.Dim{}, nil, err
	}
	writes := []pendingWrite{{dname, v, z.Levels}}

	std, positive := "", ""
	switch z.Type {
	case domain.ZAxisPressure:
		std, positive = "air_pressure", "down"
	case domain.ZAxisHeight:
		std, positive = "height", "up"
	case domain.ZAxisHybrid, domain.ZAxisHybridHalf:
		std, positive = hybridStdName, "down"
	}
	for _, a := range [][2]string{{attrStandardName, std}, {attrUnits, z.Units}, {attrPositive, positive}, {attrAxis, "Z"}} {
		if err := writeText(v, a[0], a[1]); err != nil {
			return netcdf.Dim{}, nil, err
		}
	}

	if z.Type.IsHybrid() && len(z.VCT) > 0 && len(z.VCT)%2 == 0 {
		nh := len(z.VCT) / 2
		hd, err := h.dim(dname+"_nhyi", nh)
		if err != nil {
			return netcdf.Dim{}, nil, err
		}
		ap, err := h.ds.AddVar(dname+"_hyai", netcdf.DOUBLE, []netcdf.Dim{hd})
		if err != nil {
			return netcdf.Dim{}, nil, fmt.Errorf("failed to add hybrid A coefficients: %w", err)
		}
		b, err := h.ds.AddVar(dname+"_hybi", netcdf.DOUBLE, []netcdf.Dim{hd})
		if err != nil {
			return netcdf.Dim{}, nil, fmt.Errorf("failed to add hybrid B coefficients: %w", err)
		}
		if err := writeText(ap, attrUnits, "Pa"); err != nil {
			return netcdf.Dim{}, nil, err
		}
		if err := writeText(b, attrUnits, "1"); err != nil {
			return netcdf.Dim{}, nil, err
		}
		terms := fmt.Sprintf("ap: %s_hyai b: %s_hybi", dname, dname)
		if z.PSName != "" {
			terms += " ps: " + z.PSName
		}
		if err := writeText(v, attrFormulaTerms, terms); err != nil {
			return netcdf.Dim{}, nil, err
		}
		writes = append(writes,
			pendingWrite{dname + "_hyai", ap, z.VCT[:nh]},
			pendingWrite{dname + "_hybi", b, z.VCT[nh:]},
		)
	}
	return d, writes, nil
}

// writeVarAttrs writes the descriptive attributes of a data variable.
func writeVarAttrs(nv netcdf.Var, v domain.Variable) error {
	for _, a := range [][2]string{{attrStandardName, v.StdName}, {attrLongName, v.LongName}, {attrUnits, v.Units}} {
		if err := writeText(nv, a[0], a[1]); err != nil {
			return err
		}
	}
	if err := nv.Attr(attrFillValue).WriteFloat64s([]float64{v.MissVal}); err != nil {
		return fmt.Errorf("failed to write %s: %w", attrFillValue, err)
	}
	if v.Code > 0 && !v.GRIB2 {
		if err := nv.Attr(attrCode).WriteInt32s([]int32{int32(v.Code)}); err != nil {
			return fmt.Errorf("failed to write %s: %w", attrCode, err)
		}
	}
	if v.Table > 0 {
		if err := nv.Attr(attrTable).WriteInt32s([]int32{int32(v.Table)}); err != nil {
			return fmt.Errorf("failed to write %s: %w", attrTable, err)
		}
	}
	return nil
}
