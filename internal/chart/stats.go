package chart

import (
	"math"
	"slices"
	"sort"
)

// quantile interpolates linearly between closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

func boxSummary(label string, vals []float64) BoxStats {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	b := BoxStats{Label: label, N: len(sorted), Values: vals}
	if len(sorted) == 0 {
		return b
	}
	b.Min = sorted[0]
	b.Max = sorted[len(sorted)-1]
	b.Q1 = quantile(sorted, 0.25)
	b.Median = quantile(sorted, 0.5)
	b.Q3 = quantile(sorted, 0.75)
	iqr := b.Q3 - b.Q1
	lowFence, highFence := b.Q1-1.5*iqr, b.Q3+1.5*iqr
	b.LowerWhisker, b.UpperWhisker = b.Max, b.Min
	for _, v := range sorted {
		if v < lowFence || v > highFence {
			b.Outliers = append(b.Outliers, v)
			continue
		}
		b.LowerWhisker = math.Min(b.LowerWhisker, v)
		b.UpperWhisker = math.Max(b.UpperWhisker, v)
	}
	return b
}

// histogram buckets vals into n equal-width bins over [min, max]. The last
// bin is closed on the right. A constant input spans [v-0.5, v+0.5].
func histogram(vals []float64, n int) []Bin {
	vals = slices.DeleteFunc(slices.Clone(vals), func(v float64) bool {
		return math.IsNaN(v) || math.IsInf(v, 0)
	})
	if len(vals) == 0 || n <= 0 {
		return nil
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}
	width := (hi - lo) / float64(n)
	bins := make([]Bin, n)
	for i := range bins {
		bins[i].Lo = lo + float64(i)*width
		bins[i].Hi = lo + float64(i+1)*width
	}
	bins[n-1].Hi = hi
	for _, v := range vals {
		i := int((v - lo) / width)
		if i >= n {
			i = n - 1
		}
		if i < 0 {
			i = 0
		}
		bins[i].Count++
	}
	return bins
}

const kdePoints = 64

// kde estimates a Gaussian kernel density with Silverman's bandwidth,
// sampled on kdePoints positions spanning two bandwidths past the data.
func kde(vals []float64) []DensityPoint {
	n := len(vals)
	if n == 0 {
		return nil
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	var mean float64
	for _, v := range sorted {
		mean += v
	}
	mean /= float64(n)
	var ss float64
	for _, v := range sorted {
		ss += (v - mean) * (v - mean)
	}
	std := 0.0
	if n > 1 {
		std = math.Sqrt(ss / float64(n-1))
	}
	spread := std
	if iqr := (quantile(sorted, 0.75) - quantile(sorted, 0.25)) / 1.34; iqr > 0 && iqr < spread {
		spread = iqr
	}
	h := 0.9 * spread * math.Pow(float64(n), -0.2)
	if h <= 0 {
		h = math.Max(math.Abs(mean)*0.01, 1e-3)
	}
	lo, hi := sorted[0]-2*h, sorted[n-1]+2*h
	step := (hi - lo) / float64(kdePoints-1)
	norm := 1 / (float64(n) * h * math.Sqrt(2*math.Pi))
	out := make([]DensityPoint, kdePoints)
	for i := range out {
		y := lo + float64(i)*step
		var sum float64
		for _, v := range sorted {
			z := (y - v) / h
			sum += math.Exp(-0.5 * z * z)
		}
		out[i] = DensityPoint{Y: y, Density: sum * norm}
	}
	return out
}
