package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	// ErrEmptyFile is returned when the input has no header row.
	ErrEmptyFile = errors.New("no columns to parse from file")
	// ErrRaggedRow is returned when a row has more fields than the header.
	ErrRaggedRow = errors.New("too many fields")
)

// Options controls CSV ingestion.
type Options struct {
	// Delimiter for CSV. If 0, ',' is used (or '\t' for .tsv names).
	Delimiter rune
	// DecimalSeparator and ThousandsSeparator apply to numeric inference.
	// 0 means '.' decimal and no thousands grouping.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// MaxRows limits rows ingested; 0 means unlimited.
	MaxRows int
}

// DefaultOptions returns the ingestion defaults.
func DefaultOptions() Options {
	return Options{Delimiter: ','}
}

// missingMarkers are the cell texts read as missing values.
var missingMarkers = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "-NaN": {}, "-nan": {},
	"null": {}, "NULL": {}, "None": {}, "#N/A": {}, "<NA>": {},
}

func isMissing(s string) bool {
	_, ok := missingMarkers[strings.TrimSpace(s)]
	return ok
}

// ReadCSVFile opens path and reads it with ReadCSV, naming the dataset after
// the file's base name.
func ReadCSVFile(path string, opt Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	if opt.Delimiter == 0 {
		opt.Delimiter = sniffDelimiter(path)
	}
	return ReadCSV(f, filepath.Base(path), opt)
}

// ReadCSV parses delimited text with a header row into a Dataset.
func ReadCSV(r io.Reader, name string, opt Options) (*Dataset, error) {
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(name)
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = delim

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	ncol := len(header)
	var rows [][]string
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		if len(rec) > ncol {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d has %d fields, expected %d", ErrRaggedRow, line, len(rec), ncol)
		}
		if opt.MaxRows > 0 && len(rows) >= opt.MaxRows {
			break
		}
		rows = append(rows, rec)
	}
	return New(name, header, rows, opt)
}

func sniffDelimiter(name string) rune {
	if strings.HasSuffix(strings.ToLower(name), ".tsv") {
		return '\t'
	}
	return ','
}

// inferKind marks a column numeric when it has at least one value and every
// non-missing cell parses as a number.
func inferKind(c *Column, opt Options) {
	c.Kind = KindCategorical
	vals := make([]float64, len(c.Cells))
	seen := 0
	for i, s := range c.Cells {
		if c.Missing[i] {
			vals[i] = math.NaN()
			continue
		}
		x, ok := parseNumber(s, opt)
		if !ok {
			return
		}
		vals[i] = x
		seen++
	}
	if seen == 0 {
		return
	}
	c.Kind = KindNumeric
	c.Values = vals
}

func parseNumber(s string, opt Options) (float64, bool) {
	raw := strings.TrimSpace(s)
	if opt.ThousandsSeparator != 0 && opt.ThousandsSeparator != opt.DecimalSeparator {
		raw = strings.ReplaceAll(raw, string(opt.ThousandsSeparator), "")
	}
	if opt.DecimalSeparator != 0 && opt.DecimalSeparator != '.' {
		if strings.Contains(raw, ".") {
			return 0, false
		}
		raw = strings.ReplaceAll(raw, string(opt.DecimalSeparator), ".")
	}
	// strconv accepts hex floats and "inf"; a CSV cell like "0x1p3" is text.
	if strings.ContainsAny(raw, "xX_") {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// WriteCSV serializes the dataset as comma-separated text with a header.
// Missing cells are written empty, so re-reading yields the same table.
func (d *Dataset) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(d.Names()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < d.Rows; i++ {
		if err := cw.Write(d.Row(i)); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
