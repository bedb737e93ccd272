// Package memory provides in-memory dataset streams, used by tests and by callers that
// already hold their fields in memory.
package memory

import (
	"errors"
	"fmt"
	"slices"

	"go.ngs.io/vertint/internal/adapter/store"
	"go.ngs.io/vertint/internal/domain"
)

// ErrClosed is returned by operations on a closed stream.
var ErrClosed = errors.New("stream is closed")

// Record is one level of one variable.
type Record struct {
	VarID   int
	LevelID int
	Data    []float64
	NMiss   int
}

// Step is one time step and its records in stream order.
type Step struct {
	Time    store.Timestep
	Records []Record
}

// Dataset is an in-memory store.Reader.
type Dataset struct {
	cat    *domain.Catalog
	steps  []Step
	step   int // Index of the current step, -1 before the first NextTimestep.
	rec    int // Index of the current record, -1 before the first InqRecord.
	closed bool
}

// NewDataset creates a reader over the given steps.
func NewDataset(cat *domain.Catalog, steps ...Step) *Dataset {
	return &Dataset{cat: cat, steps: steps, step: -1, rec: -1}
}

// Catalog implements store.Reader.
func (d *Dataset) Catalog() *domain.Catalog {
	return d.cat
}

// NextTimestep implements store.Reader.
func (d *Dataset) NextTimestep() (store.Timestep, int, error) {
	if d.closed {
		return store.Timestep{}, 0, ErrClosed
	}
	if d.step+1 >= len(d.steps) {
		d.step = len(d.steps)
		return store.Timestep{Index: len(d.steps)}, 0, nil
	}
	d.step++
	d.rec = -1
	s := d.steps[d.step]
	return s.Time, len(s.Records), nil
}

// InqRecord implements store.Reader.
func (d *Dataset) InqRecord() (int, int, error) {
	if d.closed {
		return 0, 0, ErrClosed
	}
	if d.step < 0 || d.step >= len(d.steps) {
		return 0, 0, errors.New("no current time step")
	}
	recs := d.steps[d.step].Records
	if d.rec+1 >= len(recs) {
		return 0, 0, fmt.Errorf("time step %d has only %d records", d.step, len(recs))
	}
	d.rec++
	return recs[d.rec].VarID, recs[d.rec].LevelID, nil
}

// ReadRecord implements store.Reader. Missing values are counted against the variable's
// missing value unless the record carries its own count.
func (d *Dataset) ReadRecord(dst []float64) (int, error) {
	if d.closed {
		return 0, ErrClosed
	}
	if d.step < 0 || d.step >= len(d.steps) || d.rec < 0 {
		return 0, errors.New("no current record")
	}
	r := d.steps[d.step].Records[d.rec]
	if len(dst) < len(r.Data) {
		return 0, fmt.Errorf("buffer holds %d values, record has %d", len(dst), len(r.Data))
	}
	copy(dst, r.Data)
	if r.NMiss > 0 {
		return r.NMiss, nil
	}
	v, ok := d.cat.Var(r.VarID)
	if !ok {
		return 0, fmt.Errorf("record references unknown variable %d", r.VarID)
	}
	return store.CountMissing(r.Data, v.MissVal), nil
}

// Close implements store.Reader.
func (d *Dataset) Close() error {
	d.closed = true
	return nil
}

// Sink is an in-memory store.Writer that keeps everything written to it.
type Sink struct {
	Catalog *domain.Catalog
	Steps   []Step
	Closed  bool
}

// NewSink creates an empty sink.
func NewSink() *Sink {
	return &Sink{}
}

// DefineCatalog implements store.Writer.
func (s *Sink) DefineCatalog(cat *domain.Catalog) error {
	if s.Catalog != nil {
		return errors.New("catalog already defined")
	}
	s.Catalog = cat.Clone()
	return nil
}

// DefineTimestep implements store.Writer.
func (s *Sink) DefineTimestep(ts store.Timestep) error {
	if s.Catalog == nil {
		return errors.New("catalog not defined")
	}
	s.Steps = append(s.Steps, Step{Time: ts})
	return nil
}

// WriteRecord implements store.Writer.
func (s *Sink) WriteRecord(varID, levelID int, data []float64, nmiss int) error {
	if s.Closed {
		return ErrClosed
	}
	if len(s.Steps) == 0 {
		return errors.New("no time step defined")
	}
	last := &s.Steps[len(s.Steps)-1]
	last.Records = append(last.Records, Record{VarID: varID, LevelID: levelID, Data: slices.Clone(data), NMiss: nmiss})
	return nil
}

// Close implements store.Writer.
func (s *Sink) Close() error {
	s.Closed = true
	return nil
}

// Records returns the records of step t written for varID, ordered by level.
func (s *Sink) Records(t, varID int) []Record {
	if t < 0 || t >= len(s.Steps) {
		return nil
	}
	var out []Record
	for _, r := range s.Steps[t].Records {
		if r.VarID == varID {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b Record) int { return a.LevelID - b.LevelID })
	return out
}
