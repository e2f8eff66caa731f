package parser

import (
	"io"

	"github.com/KaramelBytes/insightigraph/internal/dataset"
)

// csvLoader handles delimited text. A .tsv name switches the default
// delimiter to tab.
type csvLoader struct{}

func (csvLoader) CanLoad(filename string) bool {
	return hasExt(filename, ".csv", ".tsv", ".txt")
}

func (csvLoader) Load(r io.Reader, name string, opt Options) (*dataset.Dataset, error) {
	csvOpt := opt.CSV
	if hasExt(name, ".tsv") && (csvOpt.Delimiter == 0 || csvOpt.Delimiter == ',') {
		csvOpt.Delimiter = '\t'
	}
	return dataset.ReadCSV(r, name, csvOpt)
}
