package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/insightigraph/internal/dataset"
	"github.com/KaramelBytes/insightigraph/internal/parser"
	"github.com/spf13/cobra"
)

// inputFlags are the ingestion flags shared by every command that reads a file.
type inputFlags struct {
	delimiter  string
	decimal    string
	thousands  string
	maxRows    int
	sheetName  string
	sheetIndex int
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | '|'")
	cmd.Flags().StringVar(&f.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma'")
	cmd.Flags().StringVar(&f.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space'")
	cmd.Flags().IntVar(&f.maxRows, "max-rows", 0, "maximum rows to load (0 = config max_rows)")
	cmd.Flags().StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to load")
	cmd.Flags().IntVar(&f.sheetIndex, "sheet-index", 0, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}

// options resolves the flags into parser options.
func (f *inputFlags) options() (parser.Options, error) {
	opt := parser.DefaultOptions()
	d, err := parseDelimiter(f.delimiter)
	if err != nil {
		return opt, err
	}
	if d != 0 {
		opt.CSV.Delimiter = d
	}
	if opt.CSV.DecimalSeparator, err = parseDecimal(f.decimal); err != nil {
		return opt, err
	}
	if opt.CSV.ThousandsSeparator, err = parseThousands(f.thousands); err != nil {
		return opt, err
	}
	opt.CSV.MaxRows = f.maxRows
	if opt.CSV.MaxRows <= 0 {
		opt.CSV.MaxRows = currentConfig().MaxRows
	}
	opt.SheetName = f.sheetName
	opt.SheetIndex = f.sheetIndex
	return opt, nil
}

// load reads path with the resolved options.
func (f *inputFlags) load(path string) (*dataset.Dataset, error) {
	opt, err := f.options()
	if err != nil {
		return nil, err
	}
	return parser.ParseFile(path, opt)
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	}
	return 0, fmt.Errorf("unsupported --delimiter: %s", s)
}

func parseDecimal(s string) (rune, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ",", "comma":
		return ',', nil
	case ".", "dot":
		return '.', nil
	case "":
		return 0, nil
	}
	return 0, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", s)
}

func parseThousands(s string) (rune, error) {
	switch strings.ToLower(s) {
	case ",":
		return ',', nil
	case ".":
		return '.', nil
	case "space", " ":
		return ' ', nil
	case "":
		return 0, nil
	}
	return 0, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", s)
}
