package parser

import (
	"bytes"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/insightigraph/internal/dataset"
)

func workbook(t *testing.T, sheets map[string][][]any, order []string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, name := range order {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf
}

func TestParseXLSXSheetSelection(t *testing.T) {
	sheets := map[string][][]any{
		"Notes": {{"ignore me"}},
		"Data":  {{"city", "temp"}, {"Oslo", 3.5}, {"Rome", 18}},
	}
	order := []string{"Notes", "Data"}

	byName, err := Parse("weather.xlsx", workbook(t, sheets, order), Options{SheetName: "Data"})
	if err != nil {
		t.Fatalf("Parse by name: %v", err)
	}
	byIndex, err := Parse("weather.xlsx", workbook(t, sheets, order), Options{SheetIndex: 2})
	if err != nil {
		t.Fatalf("Parse by index: %v", err)
	}
	for _, ds := range []*dataset.Dataset{byName, byIndex} {
		if ds.Rows != 2 {
			t.Fatalf("rows = %d, want 2", ds.Rows)
		}
		temp, ok := ds.Column("temp")
		if !ok || !temp.IsNumeric() || temp.Values[0] != 3.5 || temp.Values[1] != 18 {
			t.Fatalf("temp = %#v", temp)
		}
	}

	first, err := Parse("weather.xlsx", workbook(t, sheets, order), Options{})
	if err != nil {
		t.Fatalf("Parse default sheet: %v", err)
	}
	if got := first.Names(); len(got) != 1 || got[0] != "ignore me" || first.Rows != 0 {
		t.Fatalf("default sheet names=%v rows=%d", got, first.Rows)
	}
}

func TestParseXLSXErrors(t *testing.T) {
	sheets := map[string][][]any{"Data": {{"a"}, {1}}}
	if _, err := Parse("x.xlsx", workbook(t, sheets, []string{"Data"}), Options{SheetName: "Missing"}); err == nil {
		t.Fatalf("expected error for unknown sheet")
	}
	if _, err := Parse("x.xlsx", workbook(t, sheets, []string{"Data"}), Options{SheetIndex: 5}); err == nil {
		t.Fatalf("expected error for out-of-range index")
	}
	empty := map[string][][]any{"Data": nil}
	if _, err := Parse("x.xlsx", workbook(t, empty, []string{"Data"}), Options{}); !errors.Is(err, dataset.ErrEmptyFile) {
		t.Fatalf("err = %v, want ErrEmptyFile", err)
	}
}

func TestParseXLSXWidensHeaderAndCapsRows(t *testing.T) {
	sheets := map[string][][]any{"S": {{"a"}, {1, "extra"}, {2}, {3}}}
	opt := Options{CSV: dataset.Options{MaxRows: 2}}
	ds, err := Parse("wide.xlsx", workbook(t, sheets, []string{"S"}), opt)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := ds.Names(); len(got) != 2 || got[1] != "Unnamed: 1" {
		t.Fatalf("names = %v", got)
	}
	if ds.Rows != 2 {
		t.Fatalf("rows = %d, want 2", ds.Rows)
	}
}
