package parser

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/insightigraph/internal/dataset"
)

// xlsxLoader reads one worksheet; the first row is the header and cells are
// taken as their displayed text.
type xlsxLoader struct{}

func (xlsxLoader) CanLoad(filename string) bool {
	return hasExt(filename, ".xlsx")
}

func (xlsxLoader) Load(r io.Reader, name string, opt Options) (*dataset.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet, err := pickSheet(f, opt)
	if err != nil {
		return nil, err
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, dataset.ErrEmptyFile
	}
	header, body := rows[0], rows[1:]
	if opt.CSV.MaxRows > 0 && len(body) > opt.CSV.MaxRows {
		body = body[:opt.CSV.MaxRows]
	}
	// GetRows trims trailing empty cells, so data may reach past the header.
	width := len(header)
	for _, row := range body {
		width = max(width, len(row))
	}
	for len(header) < width {
		header = append(header, "")
	}
	return dataset.New(name, header, body, opt.CSV)
}

func pickSheet(f *excelize.File, opt Options) (string, error) {
	if opt.SheetName != "" {
		if idx, err := f.GetSheetIndex(opt.SheetName); err != nil || idx < 0 {
			return "", fmt.Errorf("sheet %q not found", opt.SheetName)
		}
		return opt.SheetName, nil
	}
	list := f.GetSheetList()
	if len(list) == 0 {
		return "", dataset.ErrEmptyFile
	}
	idx := opt.SheetIndex
	if idx <= 0 {
		idx = 1
	}
	if idx > len(list) {
		return "", fmt.Errorf("sheet index %d out of range (workbook has %d sheets)", idx, len(list))
	}
	return list[idx-1], nil
}
