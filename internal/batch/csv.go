package batch

import (
	"encoding/csv"
	"os"
	"strconv"

	apperrors "github.com/agbru/canonsim/internal/errors"
)

// CSVHeader is the first row of every sweep file.
var CSVHeader = []string{"N", "total_energy", "mean_energy", "std_energy", "beta", "alpha"}

// notAvailable fills fit columns when the fit is undefined.
const notAvailable = "NA"

// CSVSink writes one row per trial. The file is truncated when the sweep
// begins.
type CSVSink struct {
	Path string

	f *os.File
	w *csv.Writer
}

// NewCSVSink returns a sink writing to path.
func NewCSVSink(path string) *CSVSink { return &CSVSink{Path: path} }

// Begin creates the file and writes CSVHeader.
func (s *CSVSink) Begin(Run) error {
	f, err := os.Create(s.Path)
	if err != nil {
		return apperrors.WrapError(err, "creating %s", s.Path)
	}
	s.f = f
	s.w = csv.NewWriter(f)
	return s.w.Write(CSVHeader)
}

// Write appends one row. Undefined fit columns hold NA.
func (s *CSVSink) Write(rec Record) error {
	if err := s.w.Write(csvRow(rec)); err != nil {
		return err
	}
	// Flush per row so an interrupted sweep keeps its completed trials.
	s.w.Flush()
	return s.w.Error()
}

// Close flushes and closes the file. It is a no-op before Begin.
func (s *CSVSink) Close() error {
	if s.f == nil {
		return nil
	}
	s.w.Flush()
	werr := s.w.Error()
	cerr := s.f.Close()
	s.f = nil
	if werr != nil {
		return werr
	}
	return cerr
}

func csvRow(rec Record) []string {
	beta, alpha := notAvailable, notAvailable
	if rec.FitOK {
		beta = formatFloat(rec.Fit.Beta())
		alpha = formatFloat(rec.Fit.Alpha())
	}
	return []string{
		strconv.Itoa(rec.Particles),
		strconv.Itoa(rec.TotalEnergy),
		formatFloat(rec.Fit.MeanEnergy),
		formatFloat(rec.Fit.StdEnergy),
		beta,
		alpha,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
