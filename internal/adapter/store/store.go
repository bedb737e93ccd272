package store

import "go.ngs.io/vertint/internal/domain"

// Timestep identifies one time step of a dataset.
type Timestep struct {
	Index int
	Value float64 // In units of the catalog time axis.
}

// Reader is a record-oriented dataset stream. Records are 2D horizontal slices of one
// level of one variable, stored X fastest.
type Reader interface {
	// Catalog returns the dataset metadata.
	Catalog() *domain.Catalog

	// NextTimestep advances to the next time step and returns the number of records it
	// holds. A count of 0 marks the end of the stream.
	NextTimestep() (Timestep, int, error)

	// InqRecord advances to the next record of the current time step.
	InqRecord() (varID, levelID int, err error)

	// ReadRecord reads the current record into dst and returns its number of missing values.
	ReadRecord(dst []float64) (nmiss int, err error)

	Close() error
}

// Writer is the output counterpart of Reader.
type Writer interface {
	// DefineCatalog sets the output metadata. It must be called once, before any time step.
	DefineCatalog(cat *domain.Catalog) error

	// DefineTimestep starts a new output time step.
	DefineTimestep(ts Timestep) error

	// WriteRecord writes one level of one variable for the current time step.
	WriteRecord(varID, levelID int, data []float64, nmiss int) error

	Close() error
}

// CountMissing returns how many values equal missval.
func CountMissing(values []float64, missval float64) int {
	n := 0
	for _, v := range values {
		if v == missval {
			n++
		}
	}
	return n
}
