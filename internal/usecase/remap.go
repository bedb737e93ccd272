// Package usecase runs the model-level to pressure/height-level remapping.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"go.ngs.io/vertint/internal/adapter/store"
	"go.ngs.io/vertint/internal/domain"
	"go.ngs.io/vertint/internal/metrics"
)

// RemapRequest encapsulates one remapping run.
type RemapRequest struct {
	// Operator name, e.g. "ml2pl" or "ml2hlx_lp".
	Operator string

	// Level arguments: the keyword "default" or numbers, possibly comma separated.
	Levels []string

	// Values are literal target levels, used instead of Levels when set.
	Values []float64

	// Extrapolate is the EXTRAPOLATE toggle; ignored by the "x" operators.
	Extrapolate string
}

// RemapResult summarizes a finished run.
type RemapResult struct {
	Operator     string    `json:"operator"`
	Extrapolate  bool      `json:"extrapolate"`
	Levels       []float64 `json:"levels"`
	Pressures    []float64 `json:"pressures"`
	Timesteps    int       `json:"timesteps"`
	RecordsRead  int       `json:"records_read"`
	RecordsOut   int       `json:"records_written"`
	Interpolated []string  `json:"interpolated"`
	Skipped      []string  `json:"skipped,omitempty"`
	Warnings     int       `json:"warnings"`
	DurationMS   int64     `json:"duration_ms"`
}

// Validate checks the operator and parses the levels.
func (r *RemapRequest) Validate() (domain.Operator, domain.TargetLevels, error) {
	op, ok := domain.LookupOperator(r.Operator)
	if !ok {
		return domain.Operator{}, domain.TargetLevels{}, fmt.Errorf("%w: %q", domain.ErrUnknownOperator, r.Operator)
	}
	values := r.Values
	if len(values) == 0 {
		if len(r.Levels) == 0 {
			return op, domain.TargetLevels{}, fmt.Errorf("%w: use %q or a list of levels", domain.ErrNoLevels, domain.DefaultLevelsKeyword)
		}
		var err error
		if values, err = domain.ParseLevelArgs(r.Levels, op.Kind); err != nil {
			return op, domain.TargetLevels{}, err
		}
	}
	levels, err := domain.NewTargetLevels(op.Kind, op.Scale, values)
	if err != nil {
		return op, domain.TargetLevels{}, err
	}
	return op, levels, nil
}

// RemapUseCase orchestrates remapping runs.
type RemapUseCase struct {
	log     logrus.FieldLogger
	metrics *metrics.Collector
}

// NewRemapUseCase creates a new remap use case. metrics may be nil.
func NewRemapUseCase(log logrus.FieldLogger, m *metrics.Collector) *RemapUseCase {
	return &RemapUseCase{log: log, metrics: m}
}

// Execute remaps every timestep of src into dst. It neither opens nor closes the streams.
// Any error aborts the run; records already handed to dst are not retracted.
func (uc *RemapUseCase) Execute(ctx context.Context, req RemapRequest, src store.Reader, dst store.Writer) (*RemapResult, error) {
	start := time.Now()

	op, levels, err := req.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	result, err := uc.run(ctx, op, levels, op.ResolveExtrapolation(req.Extrapolate), src, dst)
	status := metrics.StatusOK
	if err != nil {
		status = metrics.StatusFailed
	}
	uc.metrics.RecordRun(op.Name, status, time.Since(start))
	if err != nil {
		return nil, err
	}
	result.DurationMS = time.Since(start).Milliseconds()
	return result, nil
}

func (uc *RemapUseCase) run(ctx context.Context, op domain.Operator, levels domain.TargetLevels, extrapolate bool, src store.Reader, dst store.Writer) (*RemapResult, error) {
	log := uc.log.WithFields(logrus.Fields{"operator": op.Name, "extrapolate": extrapolate})

	plan, err := NewPlan(src.Catalog(), op, levels, extrapolate, log)
	if err != nil {
		return nil, err
	}
	for _, kind := range plan.Warnings {
		uc.metrics.RecordWarning(kind)
	}

	result := &RemapResult{
		Operator:    op.Name,
		Extrapolate: extrapolate,
		Levels:      levels.Values(),
		Pressures:   levels.Pressures(),
		Warnings:    len(plan.Warnings),
	}
	for _, f := range plan.Fields {
		switch f.Mode {
		case Interpolated:
			result.Interpolated = append(result.Interpolated, f.Var.Name)
		case Skipped:
			result.Skipped = append(result.Skipped, f.Var.Name)
		}
	}

	if err := dst.DefineCatalog(plan.Output); err != nil {
		return nil, fmt.Errorf("failed to define output: %w", err)
	}

	var column *columnState
	if plan.Coord != nil {
		column = newColumnState(plan)
	}

	for tsID := 0; ; tsID++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("remap cancelled at timestep %d: %w", tsID+1, err)
		}

		ts, nrecs, err := src.NextTimestep()
		if err != nil {
			return nil, fmt.Errorf("failed to read timestep %d: %w", tsID+1, err)
		}
		if nrecs == 0 {
			break
		}
		stepLog := log.WithField("timestep", tsID+1)

		if err := readRecords(plan, src, nrecs); err != nil {
			return nil, fmt.Errorf("timestep %d: %w", tsID+1, err)
		}

		if column != nil {
			warnings, err := column.computeColumn(plan, stepLog)
			if err != nil {
				return nil, fmt.Errorf("timestep %d: %w", tsID+1, err)
			}
			for _, kind := range warnings {
				uc.metrics.RecordWarning(kind)
			}
			result.Warnings += len(warnings)

			for _, f := range plan.Fields {
				if !f.Present || f.Mode != Interpolated {
					continue
				}
				if err := column.interpolateField(plan, f); err != nil {
					return nil, fmt.Errorf("timestep %d: %w", tsID+1, err)
				}
				uc.metrics.RecordInterpolation(f.Role.String())
			}
		}

		written, err := writeRecords(plan, dst, ts)
		if err != nil {
			return nil, fmt.Errorf("timestep %d: %w", tsID+1, err)
		}

		uc.metrics.RecordTimestep()
		uc.metrics.RecordRecords(nrecs, written)
		result.Timesteps++
		result.RecordsRead += nrecs
		result.RecordsOut += written
		stepLog.WithFields(logrus.Fields{"read": nrecs, "written": written}).Debug("Timestep done")
	}

	log.WithFields(logrus.Fields{
		"timesteps": result.Timesteps,
		"records":   result.RecordsOut,
	}).Info("Remap finished")
	return result, nil
}

// readRecords reads the records of the current timestep into the field buffers.
func readRecords(p *Plan, src store.Reader, nrecs int) error {
	for _, f := range p.Fields {
		f.Present = false
	}

	for rec := 0; rec < nrecs; rec++ {
		varID, levelID, err := src.InqRecord()
		if err != nil {
			return fmt.Errorf("failed to inquire record %d: %w", rec+1, err)
		}
		f, ok := p.Field(varID)
		if !ok {
			return fmt.Errorf("record %d references unknown variable %d", rec+1, varID)
		}
		if levelID < 0 || levelID >= f.Levels {
			return fmt.Errorf("variable %s: level %d out of range [0, %d)", f.Var.Name, levelID, f.Levels)
		}
		level := f.nativeLevel(levelID)

		nmiss, err := src.ReadRecord(f.Raw[level*p.GridSz : (level+1)*p.GridSz])
		if err != nil {
			return fmt.Errorf("failed to read %s level %d: %w", f.Var.Name, levelID, err)
		}
		f.NMiss[level] = nmiss
		f.Present = true
	}
	return nil
}

// writeRecords writes every present, non-skipped field and returns the record count.
func writeRecords(p *Plan, dst store.Writer, ts store.Timestep) (int, error) {
	if err := dst.DefineTimestep(ts); err != nil {
		return 0, fmt.Errorf("failed to define timestep: %w", err)
	}

	ngp := p.GridSz
	written := 0
	for _, f := range p.Fields {
		if !f.Present || f.Mode == Skipped {
			continue
		}
		data, nmiss, nlevel := f.Raw, f.NMiss, f.Levels
		if f.Mode == Interpolated {
			data, nmiss, nlevel = f.Target, f.TargetMiss, p.Levels.Len()
		}
		for level := 0; level < nlevel; level++ {
			if err := dst.WriteRecord(f.Var.ID, level, data[level*ngp:(level+1)*ngp], nmiss[level]); err != nil {
				return written, fmt.Errorf("failed to write %s level %d: %w", f.Var.Name, level, err)
			}
			written++
		}
	}
	return written, nil
}

// IsFatal reports whether err is one of the fatal remapping conditions, as opposed to an
// I/O or request error.
func IsFatal(err error) bool {
	for _, target := range []error{
		domain.ErrSpectralUnsupported,
		domain.ErrSpectralHybridUnsupported,
		domain.ErrGridSizeMismatch,
		domain.ErrHybridLevelCount,
		domain.ErrHybridLevelMismatch,
		domain.ErrSurfacePressureNotFound,
		domain.ErrTemperatureNotFound,
		domain.ErrMissingValues,
		domain.ErrHalfLevelTemperature,
		domain.ErrLogExtrapolateTemperature,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
