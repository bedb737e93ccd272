// Command hybrid-generator writes a synthetic dataset on hybrid sigma-pressure levels for
// smoke tests of vertint.
package main

import (
	"fmt"
	"math"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"go.ngs.io/vertint/internal/adapter/interp"
	"go.ngs.io/vertint/internal/adapter/store"
	"go.ngs.io/vertint/internal/adapter/store/cf"
	"go.ngs.io/vertint/internal/domain"
)

const (
	refPressure  = 100000.0 // Pa.
	lapseRate    = 0.0065   // K/m.
	tropopauseT  = 216.65   // K.
	tracerTop    = 1e-6     // kg/kg.
	tracerBottom = 1.5e-2   // kg/kg.
)

// Settings holds the generator options.
type Settings struct {
	Out       string
	Levels    int
	NLat      int
	NLon      int
	Timesteps int
}

func main() {
	var s Settings
	pflag.StringVar(&s.Out, "out", "./data/hybrid.nc", "Output NetCDF file")
	pflag.IntVar(&s.Levels, "levels", 19, "Number of full model levels")
	pflag.IntVar(&s.NLat, "nlat", 32, "Number of latitudes")
	pflag.IntVar(&s.NLon, "nlon", 64, "Number of longitudes")
	pflag.IntVar(&s.Timesteps, "timesteps", 2, "Number of time steps")
	pflag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := generate(s, log); err != nil {
		log.WithError(err).Fatal("Failed to generate dataset")
	}
}

// HybridTable returns an ECHAM-like table for nlev full levels: pure pressure at the top,
// terrain following at the bottom.
func HybridTable(nlev int) []float64 {
	vct := make([]float64, 2*(nlev+1))
	for k := 0; k <= nlev; k++ {
		eta := float64(k) / float64(nlev)
		b := eta * eta
		vct[k] = refPressure * (eta - b)
		vct[nlev+1+k] = b
	}
	return vct
}

// Catalog describes the generated dataset.
func Catalog(s Settings) *domain.Catalog {
	lat := make([]float64, s.NLat)
	for j := range lat {
		lat[j] = -90 + (float64(j)+0.5)*180/float64(s.NLat)
	}
	lon := make([]float64, s.NLon)
	for i := range lon {
		lon[i] = float64(i) * 360 / float64(s.NLon)
	}
	levels := make([]float64, s.Levels)
	for k := range levels {
		levels[k] = float64(k + 1)
	}

	return &domain.Catalog{
		Grids: []domain.Grid{{
			ID: 0, Type: domain.GridLonLat, Size: s.NLat * s.NLon,
			XName: "lon", YName: "lat", X: lon, Y: lat,
		}},
		ZAxes: []domain.ZAxis{
			{ID: 0, Type: domain.ZAxisSurface, Name: "surface", Levels: []float64{0}},
			{ID: 1, Type: domain.ZAxisHybrid, Name: "lev", Levels: levels, VCT: HybridTable(s.Levels), PSName: "aps"},
		},
		Vars: []domain.Variable{
			{ID: 0, Name: "geosp", Code: 129, Table: 128, LongName: "surface geopotential (orography)", Units: "m^2/s^2", GridID: 0, ZAxisID: 0, MissVal: cf.DefaultMissVal, Constant: true},
			{ID: 1, Name: "aps", Code: 134, Table: 128, StdName: "surface_air_pressure", Units: "Pa", GridID: 0, ZAxisID: 0, MissVal: cf.DefaultMissVal},
			{ID: 2, Name: "st", Code: 130, Table: 128, StdName: "air_temperature", Units: "K", GridID: 0, ZAxisID: 1, MissVal: cf.DefaultMissVal},
			{ID: 3, Name: "gh", Code: 156, Table: 128, StdName: "geopotential_height", Units: "m", GridID: 0, ZAxisID: 1, MissVal: cf.DefaultMissVal},
			{ID: 4, Name: "q", Code: 133, Table: 128, StdName: "specific_humidity", Units: "kg/kg", GridID: 0, ZAxisID: 1, MissVal: cf.DefaultMissVal},
		},
		Time: domain.TimeAxis{Name: "time", Units: "hours since 2000-01-01 00:00:00", Calendar: "standard"},
	}
}

// Fields holds one time step of generated data, level-major.
type Fields struct {
	Geosp, PS, Temp, Height, Tracer []float64
}

// Generate computes the fields of time step ts.
func Generate(cat *domain.Catalog, ts int) (Fields, error) {
	grid, z := cat.Grids[0], cat.ZAxes[1]
	ngp, nlev := grid.Size, z.Size()
	nlon := len(grid.X)

	f := Fields{
		Geosp:  make([]float64, ngp),
		PS:     make([]float64, ngp),
		Temp:   make([]float64, nlev*ngp),
		Height: make([]float64, nlev*ngp),
		Tracer: make([]float64, nlev*ngp),
	}
	tsurf := make([]float64, ngp)
	for i := 0; i < ngp; i++ {
		lat, lon := grid.Y[i/nlon], grid.X[i%nlon]
		phi, lambda := lat*math.Pi/180, lon*math.Pi/180

		// A smooth ridge of up to 3 km, with surface pressure following the orography.
		orog := math.Max(0, 3000*math.Sin(2*lambda)*math.Cos(phi))
		f.Geosp[i] = orog * domain.PlanetGrav
		f.PS[i] = 101325*math.Exp(-orog/domain.ScaleHeight) + 500*math.Sin(lambda+float64(ts)*math.Pi/4)
		tsurf[i] = 300 - 40*math.Sin(phi)*math.Sin(phi) - lapseRate*orog
	}

	full := make([]float64, nlev*ngp)
	half := make([]float64, (nlev+1)*ngp)
	if err := interp.Presh(full, half, domain.NewHybridTable(z.VCT), f.PS, nlev, ngp); err != nil {
		return Fields{}, fmt.Errorf("failed to compute model level pressures: %w", err)
	}

	alpha := domain.PlanetRD * lapseRate / domain.PlanetGrav
	for k := 0; k < nlev; k++ {
		for i := 0; i < ngp; i++ {
			idx := k*ngp + i
			ratio := full[idx] / f.PS[i]
			t := tsurf[i] * math.Pow(ratio, alpha)
			f.Temp[idx] = math.Max(t, tropopauseT)
			f.Height[idx] = f.Geosp[i]/domain.PlanetGrav + tsurf[i]/lapseRate*(1-math.Pow(ratio, alpha))
			f.Tracer[idx] = tracerTop + (tracerBottom-tracerTop)*ratio*ratio
		}
	}
	return f, nil
}

func generate(s Settings, log logrus.FieldLogger) error {
	if s.Levels < 2 || s.NLat < 1 || s.NLon < 1 || s.Timesteps < 1 {
		return fmt.Errorf("invalid settings %+v", s)
	}
	cat := Catalog(s)

	w := cf.Create(s.Out)
	defer func() { _ = w.Abort() }()
	if err := w.DefineCatalog(cat); err != nil {
		return err
	}
	ngp := cat.Grids[0].Size
	for ts := 0; ts < s.Timesteps; ts++ {
		f, err := Generate(cat, ts)
		if err != nil {
			return err
		}
		if err := w.DefineTimestep(store.Timestep{Index: ts, Value: 6 * float64(ts)}); err != nil {
			return err
		}
		if ts == 0 {
			if err := w.WriteRecord(0, 0, f.Geosp, 0); err != nil {
				return err
			}
		}
		if err := w.WriteRecord(1, 0, f.PS, 0); err != nil {
			return err
		}
		for varID, data := range map[int][]float64{2: f.Temp, 3: f.Height, 4: f.Tracer} {
			for k := 0; k < s.Levels; k++ {
				if err := w.WriteRecord(varID, k, data[k*ngp:(k+1)*ngp], 0); err != nil {
					return err
				}
			}
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	if info, err := os.Stat(s.Out); err == nil {
		log.WithFields(logrus.Fields{
			"path":      s.Out,
			"levels":    s.Levels,
			"grid":      fmt.Sprintf("%d×%d", s.NLat, s.NLon),
			"timesteps": s.Timesteps,
			"bytes":     info.Size(),
		}).Info("Dataset written")
	}
	return nil
}
