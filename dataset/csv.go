package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/ensego/pkg/errors"
)

// csvOptions collects the knobs for CSV parsing.
type csvOptions struct {
	labelColumn int    // index of the label column, -1 means last
	labelName   string // label column selected by header name, overrides index
	noHeader    bool
	comma       rune
}

// CSVOption is a functional option for LoadCSV and ReadCSV.
type CSVOption func(*csvOptions)

// WithLabelColumn selects the label column by index. The default is the last
// column.
func WithLabelColumn(col int) CSVOption {
	return func(o *csvOptions) {
		o.labelColumn = col
	}
}

// WithLabelName selects the label column by header name. Requires a header row.
func WithLabelName(name string) CSVOption {
	return func(o *csvOptions) {
		o.labelName = name
	}
}

// WithNoHeader treats the first row as data instead of column names.
func WithNoHeader() CSVOption {
	return func(o *csvOptions) {
		o.noHeader = true
	}
}

// WithComma sets the field delimiter. The default is ','.
func WithComma(r rune) CSVOption {
	return func(o *csvOptions) {
		o.comma = r
	}
}

// LoadCSV reads a flat tabular file into a Dataset. Every non-label column
// must parse as a float64; the label column must be integer-valued. A
// malformed row aborts the load with a DataError carrying the line number.
func LoadCSV(path string, opts ...CSVOption) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewDataError("LoadCSV", path, 0, err)
	}
	defer file.Close()
	return ReadCSV(file, path, opts...)
}

// ReadCSV reads CSV data from r. The source string is used in error messages.
func ReadCSV(r io.Reader, source string, opts ...CSVOption) (*Dataset, error) {
	o := &csvOptions{labelColumn: -1, comma: ','}
	for _, opt := range opts {
		opt(o)
	}

	reader := csv.NewReader(r)
	reader.Comma = o.comma
	reader.TrimLeadingSpace = true

	var header []string
	line := 0
	if !o.noHeader {
		record, err := reader.Read()
		if err == io.EOF {
			return nil, errors.NewDataError("ReadCSV", source, 0, errors.ErrEmptyData)
		}
		if err != nil {
			return nil, errors.NewDataError("ReadCSV", source, 1, err)
		}
		header = record
		line = 1
	}

	labelIdx := o.labelColumn
	if o.labelName != "" {
		if o.noHeader {
			return nil, errors.NewValidationError("labelName", "requires a header row", o.labelName)
		}
		labelIdx = -1
		for i, name := range header {
			if name == o.labelName {
				labelIdx = i
				break
			}
		}
		if labelIdx < 0 {
			return nil, errors.NewValidationError("labelName", "column not found in header", o.labelName)
		}
	}

	var features []float64
	var labels []float64
	nFeatures := -1
	nRows := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			// csv.Reader reports ragged rows here; terminate per the
			// fail-fast contract.
			return nil, errors.NewDataError("ReadCSV", source, line, err)
		}

		li := labelIdx
		if li < 0 {
			li = len(record) - 1
		}
		if li >= len(record) {
			return nil, errors.NewDataError("ReadCSV", source, line,
				errors.Newf("label column %d out of range for row with %d fields", li, len(record)))
		}

		if nFeatures < 0 {
			nFeatures = len(record) - 1
			if nFeatures == 0 {
				return nil, errors.NewDataError("ReadCSV", source, line,
					errors.New("rows must contain at least one feature and a label"))
			}
		}

		for i, field := range record {
			if i == li {
				label, err := strconv.ParseFloat(field, 64)
				if err != nil {
					return nil, errors.NewDataError("ReadCSV", source, line,
						errors.Newf("invalid label %q: %v", field, err))
				}
				if label != float64(int(label)) {
					return nil, errors.NewDataError("ReadCSV", source, line,
						errors.Newf("label %q is not integer-valued", field))
				}
				labels = append(labels, label)
				continue
			}
			value, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.NewDataError("ReadCSV", source, line,
					errors.Newf("invalid value %q in column %d: %v", field, i, err))
			}
			features = append(features, value)
		}
		nRows++
	}

	if nRows == 0 {
		return nil, errors.NewDataError("ReadCSV", source, 0, errors.ErrEmptyData)
	}

	var names []string
	if header != nil {
		li := labelIdx
		if li < 0 {
			li = len(header) - 1
		}
		for i, name := range header {
			if i != li {
				names = append(names, name)
			}
		}
	}

	return &Dataset{
		X:            mat.NewDense(nRows, nFeatures, features),
		Y:            mat.NewDense(nRows, 1, labels),
		FeatureNames: names,
	}, nil
}

// WriteCSV writes a Dataset in the format LoadCSV reads, label column last.
func WriteCSV(d *Dataset, path string) error {
	if err := d.Validate(); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.NewDataError("WriteCSV", path, 0, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	n, nFeatures := d.X.Dims()

	record := make([]string, nFeatures+1)
	if len(d.FeatureNames) == nFeatures {
		copy(record, d.FeatureNames)
		record[nFeatures] = "label"
		if err := w.Write(record); err != nil {
			return errors.NewDataError("WriteCSV", path, 0, err)
		}
	}

	for i := 0; i < n; i++ {
		for j := 0; j < nFeatures; j++ {
			record[j] = strconv.FormatFloat(d.X.At(i, j), 'g', -1, 64)
		}
		record[nFeatures] = strconv.Itoa(int(d.Y.At(i, 0)))
		if err := w.Write(record); err != nil {
			return errors.NewDataError("WriteCSV", path, i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.NewDataError("WriteCSV", path, 0, err)
	}
	return nil
}
