package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/insightigraph/internal/dataset"
)

// Options controls profiling behavior.
type Options struct {
	// MaxRows limits rows profiled; 0 means unlimited.
	MaxRows int
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// GroupBy computes per-group summaries for the given column names.
	GroupBy []string
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// CorrPerGroup computes correlations per group key.
	CorrPerGroup bool
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune // optional; if 0, auto-detect common separators (',' '.' space)
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
	// Unit normalization: convert values to target units using simple mappings.
	UnitNormalize bool
	UnitTargets   map[string]string // map[fromUnit]toUnit, e.g., {"g/L":"mg/L", "ug/L":"mg/L", "°F":"°C"}
}

// DefaultOptions returns reasonable defaults for dataset profiling.
func DefaultOptions() Options {
	return Options{
		MaxRows:          100000,
		SampleRows:       5,
		Correlations:     true,
		Outliers:         true,
		OutlierThreshold: 3.5,
		UnitNormalize:    true,
		UnitTargets: map[string]string{
			"g/L":  "mg/L",
			"ug/L": "mg/L",
			"°F":   "°C",
		},
	}
}

// Column kinds reported by the profiler.
const (
	KindNumeric     = "numeric"
	KindDatetime    = "datetime"
	KindCategorical = "categorical"
	KindText        = "text"
	KindUnknown     = "unknown"
)

// Report is the profiling result for one dataset.
type Report struct {
	Name      string
	Rows      int
	Processed int
	Cols      []ColumnSummary
	Samples   [][]string
	Warnings  []string
	Groups    []GroupResult
	Corr      *CorrMatrix
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    string // numeric|datetime|categorical|text|unknown
	Unit    string
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Categorical top values
	TopValues    []CategoryCount
	ExampleTexts []string
}

// DisplayName is the column name with its unit in brackets, if any.
func (c ColumnSummary) DisplayName() string {
	name := safeName(c.Name)
	if c.Unit != "" {
		return fmt.Sprintf("%s [%s]", name, c.Unit)
	}
	return name
}

// MissingPercent is the share of profiled rows with no value.
func (c ColumnSummary) MissingPercent() float64 {
	total := c.NonNull + c.Missing
	if total == 0 {
		return 0
	}
	return float64(c.Missing) * 100.0 / float64(total)
}

type CategoryCount struct {
	Value string
	Count int
}

// GroupResult captures aggregated metrics per group key.
type GroupResult struct {
	Key       string
	Size      int
	Metrics   map[string]NumSummary // by column name
	CorrPairs []PairCorr            // top correlation pairs (by |r|)
}

// MetricNames returns the metric column names in sorted order.
func (g GroupResult) MetricNames() []string {
	keys := make([]string, 0, len(g.Metrics))
	for k := range g.Metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type NumSummary struct {
	Count          int
	Min, Max, Mean float64
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A, B string
	R    float64
}

// colAcc accumulates one column across rows.
type colAcc struct {
	name     string
	unit     string
	origUnit string
	nonNil   int
	miss     int

	// numeric stats via Welford
	n      int
	mean   float64
	m2     float64
	min    float64
	max    float64
	numCnt int
	dtCnt  int
	txtCnt int
	cats   map[string]int
	exText []string
	nums   []float64
}

func newColAcc(header string) *colAcc {
	clean, unit := splitUnits(header)
	return &colAcc{name: clean, unit: unit, origUnit: unit, min: math.Inf(1), max: math.Inf(-1), cats: make(map[string]int)}
}

// observe classifies one non-missing cell and reports its numeric value.
func (c *colAcc) observe(v string, opt Options) (float64, bool) {
	c.nonNil++
	if strings.Contains(v, "%") && c.unit == "" {
		c.unit = "%"
		if c.origUnit == "" {
			c.origUnit = "%"
		}
	}
	if x, ok := parseNumeric(v, opt); ok {
		if opt.UnitNormalize && c.origUnit != "" {
			if nx, nu, okc := normalizeUnit(x, c.origUnit, opt); okc {
				x = nx
				c.unit = nu
			}
		}
		c.numCnt++
		c.n++
		c.min = math.Min(c.min, x)
		c.max = math.Max(c.max, x)
		delta := x - c.mean
		c.mean += delta / float64(c.n)
		c.m2 += delta * (x - c.mean)
		c.nums = append(c.nums, x)
		return x, true
	}
	if _, ok := parseTimeMaybe(v); ok {
		c.dtCnt++
		return 0, false
	}
	c.txtCnt++
	if len(c.cats) <= 10000 && len(v) <= 64 { // guard memory; short tokens are categories
		c.cats[v]++
	}
	if len(c.exText) < 3 {
		c.exText = append(c.exText, v)
	}
	return 0, false
}

func (c *colAcc) summarize(opt Options) ColumnSummary {
	s := ColumnSummary{Name: c.name, Unit: c.unit, NonNull: c.nonNil, Missing: c.miss, Kind: KindUnknown}
	switch {
	case c.numCnt >= c.dtCnt && c.numCnt >= c.txtCnt && c.numCnt > 0:
		s.Kind = KindNumeric
		s.Min, s.Max, s.Mean = c.min, c.max, c.mean
		if c.n > 1 {
			s.Std = math.Sqrt(c.m2 / float64(c.n-1))
		}
		if opt.Outliers && len(c.nums) >= 8 {
			s.OutliersCount, s.OutliersMaxAbsZ, s.OutlierThreshold = robustOutliers(c.nums, opt.OutlierThreshold)
		}
	case c.dtCnt >= c.txtCnt && c.dtCnt > 0:
		s.Kind = KindDatetime
	case len(c.cats) > 0:
		s.Kind = KindCategorical
		s.TopValues = topValues(c.cats, 8)
		s.Unique = len(c.cats)
	case c.txtCnt > 0:
		s.Kind = KindText
		s.ExampleTexts = c.exText
	}
	return s
}

func topValues(cats map[string]int, n int) []CategoryCount {
	tops := make([]CategoryCount, 0, len(cats))
	for k, v := range cats {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > n {
		tops = tops[:n]
	}
	return tops
}

// robustOutliers counts values whose robust Z-score (0.6745·(x−median)/MAD)
// exceeds thr in absolute value.
func robustOutliers(vals []float64, thr float64) (count int, maxAbsZ, threshold float64) {
	if thr <= 0 {
		thr = 3.5
	}
	median, mad := medianMAD(vals)
	if mad > 0 {
		for _, v := range vals {
			az := math.Abs(0.6745 * (v - median) / mad)
			if az > thr {
				count++
			}
			maxAbsZ = math.Max(maxAbsZ, az)
		}
	}
	return count, maxAbsZ, thr
}

// pairAcc accumulates the sums for one exact pairwise-complete Pearson r.
type pairAcc struct {
	n     float64
	sumX  float64
	sumY  float64
	sumXX float64
	sumYY float64
	sumXY float64
}

func (pa *pairAcc) add(x, y float64) {
	pa.n++
	pa.sumX += x
	pa.sumY += y
	pa.sumXX += x * x
	pa.sumYY += y * y
	pa.sumXY += x * y
}

// r returns the clamped coefficient, or false when it is undefined.
func (pa *pairAcc) r() (float64, bool) {
	if pa == nil || pa.n < 2 {
		return 0, false
	}
	denom := math.Sqrt((pa.n*pa.sumXX - pa.sumX*pa.sumX) * (pa.n*pa.sumYY - pa.sumY*pa.sumY))
	if denom == 0 {
		return 0, false
	}
	r := (pa.n*pa.sumXY - pa.sumX*pa.sumY) / denom
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	return math.Max(-1, math.Min(1, r)), true
}

// pairKey orders a column pair so (i, j) and (j, i) share accumulators.
type pairKey struct{ hi, lo int }

func keyOf(a, b int) pairKey {
	if a < b {
		a, b = b, a
	}
	return pairKey{a, b}
}

type pairSet map[pairKey]*pairAcc

// addRow feeds every pair of numeric values present in one row.
func (ps pairSet) addRow(rowNums map[int]float64) {
	if len(rowNums) < 2 {
		return
	}
	idxs := make([]int, 0, len(rowNums))
	for j := range rowNums {
		idxs = append(idxs, j)
	}
	sort.Ints(idxs)
	for a := 1; a < len(idxs); a++ {
		for b := 0; b < a; b++ {
			k := keyOf(idxs[a], idxs[b])
			pa := ps[k]
			if pa == nil {
				pa = &pairAcc{}
				ps[k] = pa
			}
			pa.add(rowNums[idxs[a]], rowNums[idxs[b]])
		}
	}
}

// groupAcc aggregates numeric columns for one group key.
type groupAcc struct {
	size  int
	sum   map[int]float64
	cnt   map[int]int
	min   map[int]float64
	max   map[int]float64
	pairs pairSet
}

func newGroupAcc() *groupAcc {
	return &groupAcc{sum: map[int]float64{}, cnt: map[int]int{}, min: map[int]float64{}, max: map[int]float64{}, pairs: pairSet{}}
}

func (g *groupAcc) add(j int, x float64) {
	g.sum[j] += x
	g.cnt[j]++
	if m, ok := g.min[j]; !ok || x < m {
		g.min[j] = x
	}
	if m, ok := g.max[j]; !ok || x > m {
		g.max[j] = x
	}
}

// Profile computes the column-by-column report for ds from its raw cells.
func Profile(ds *dataset.Dataset, opt Options) *Report {
	if ds == nil {
		return &Report{}
	}
	rep := &Report{Name: ds.Name, Rows: ds.Rows}
	ncol := len(ds.Columns)
	if ncol == 0 {
		return rep
	}
	cols := make([]*colAcc, ncol)
	gbIndex := map[string]int{}
	for i, c := range ds.Columns {
		cols[i] = newColAcc(c.Name)
		gbIndex[strings.ToLower(cols[i].name)] = i
		gbIndex[strings.ToLower(strings.TrimSpace(c.Name))] = i
	}

	limit := ds.Rows
	if opt.MaxRows > 0 && opt.MaxRows < limit {
		limit = opt.MaxRows
	}
	sampleRows := opt.SampleRows
	if sampleRows <= 0 {
		sampleRows = 5
	}
	trackPairs := opt.Correlations || opt.CorrPerGroup
	global := pairSet{}
	groups := map[string]*groupAcc{}

	for row := 0; row < limit; row++ {
		rep.Processed++
		rec := ds.Row(row)
		if len(rep.Samples) < sampleRows {
			rep.Samples = append(rep.Samples, rec)
		}
		var ga *groupAcc
		if gkey := groupKey(opt.GroupBy, gbIndex, cols, rec); gkey != "" {
			ga = groups[gkey]
			if ga == nil {
				ga = newGroupAcc()
				groups[gkey] = ga
			}
			ga.size++
		}
		rowNums := make(map[int]float64)
		for j, c := range cols {
			if ds.Columns[j].Missing[row] {
				c.miss++
				continue
			}
			x, ok := c.observe(strings.TrimSpace(rec[j]), opt)
			if !ok {
				continue
			}
			if trackPairs {
				rowNums[j] = x
			}
			if ga != nil {
				ga.add(j, x)
			}
		}
		if opt.Correlations {
			global.addRow(rowNums)
		}
		if opt.CorrPerGroup && ga != nil {
			ga.pairs.addRow(rowNums)
		}
	}

	rep.Cols = make([]ColumnSummary, 0, ncol)
	var numCols []int
	for idx, c := range cols {
		s := c.summarize(opt)
		if s.Kind == KindNumeric {
			numCols = append(numCols, idx)
		}
		rep.Cols = append(rep.Cols, s)
	}

	if rep.Processed < rep.Rows {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("processed only %d/%d rows due to MaxRows", rep.Processed, rep.Rows))
	}
	rep.Groups = buildGroups(groups, cols, numCols, opt.CorrPerGroup)
	if opt.Correlations && len(numCols) >= 2 {
		rep.Corr = buildCorr(global, cols, numCols)
	}
	return rep
}

func groupKey(by []string, index map[string]int, cols []*colAcc, rec []string) string {
	var parts []string
	for _, name := range by {
		idx, ok := index[strings.ToLower(strings.TrimSpace(name))]
		if !ok || idx >= len(rec) {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%s", cols[idx].name, safeVal(strings.TrimSpace(rec[idx]))))
	}
	return strings.Join(parts, " | ")
}

func buildGroups(groups map[string]*groupAcc, cols []*colAcc, numCols []int, withCorr bool) []GroupResult {
	if len(groups) == 0 {
		return nil
	}
	out := make([]GroupResult, 0, len(groups))
	for k, ga := range groups {
		gr := GroupResult{Key: k, Size: ga.size, Metrics: map[string]NumSummary{}}
		for _, idx := range numCols {
			if ga.cnt[idx] == 0 {
				continue
			}
			gr.Metrics[cols[idx].name] = NumSummary{Count: ga.cnt[idx], Min: ga.min[idx], Max: ga.max[idx], Mean: ga.sum[idx] / float64(ga.cnt[idx])}
		}
		if withCorr {
			var pairs []PairCorr
			for key, pa := range ga.pairs {
				if r, ok := pa.r(); ok {
					pairs = append(pairs, PairCorr{A: cols[key.lo].name, B: cols[key.hi].name, R: r})
				}
			}
			sortPairs(pairs)
			if len(pairs) > 10 {
				pairs = pairs[:10]
			}
			gr.CorrPairs = pairs
		}
		out = append(out, gr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size == out[j].Size {
			return out[i].Key < out[j].Key
		}
		return out[i].Size > out[j].Size
	})
	if len(out) > 20 {
		out = out[:20]
	}
	return out
}

func buildCorr(ps pairSet, cols []*colAcc, numCols []int) *CorrMatrix {
	n := len(numCols)
	names := make([]string, n)
	mat := make([][]float64, n)
	for a, ia := range numCols {
		names[a] = cols[ia].name
		mat[a] = make([]float64, n)
		for b, ib := range numCols {
			if a == b {
				mat[a][b] = 1
				continue
			}
			r, _ := ps[keyOf(ia, ib)].r()
			mat[a][b] = r
		}
	}
	return &CorrMatrix{Columns: names, Values: mat}
}

func sortPairs(pairs []PairCorr) {
	sort.Slice(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
}

// TopPairs lists up to n off-diagonal correlation pairs by descending |r|.
func (r *Report) TopPairs(n int) []PairCorr {
	if r.Corr == nil {
		return nil
	}
	var pairs []PairCorr
	m := len(r.Corr.Columns)
	for i := 0; i < m; i++ {
		for j := i + 1; j < m; j++ {
			pairs = append(pairs, PairCorr{A: r.Corr.Columns[i], B: r.Corr.Columns[j], R: r.Corr.Values[i][j]})
		}
	}
	sortPairs(pairs)
	if len(pairs) > n {
		pairs = pairs[:n]
	}
	return pairs
}

// KindCounts tallies columns per inferred kind.
func (r *Report) KindCounts() map[string]int {
	out := map[string]int{}
	for _, c := range r.Cols {
		out[c.Kind]++
	}
	return out
}
