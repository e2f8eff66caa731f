package analysis

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// timeLayouts are tried in order when deciding whether a cell is a datetime.
var timeLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
}

func parseTimeMaybe(s string) (time.Time, bool) {
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// separators resolves the decimal and thousands separators for raw. When
// the options leave the decimal separator unset, the rightmost of ',' and
// '.' is taken as decimal.
func separators(raw string, opt Options) (dec, thou rune) {
	dec, thou = opt.DecimalSeparator, opt.ThousandsSeparator
	if dec != 0 {
		return dec, thou
	}
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	switch {
	case cpos >= 0 && dpos >= 0 && cpos > dpos:
		return ',', '.'
	case cpos >= 0 && dpos >= 0:
		return '.', ','
	case cpos >= 0:
		return ',', 0
	}
	return '.', 0
}

// parseNumeric reads locale-formatted numbers such as "1.000,5", "12 %" or
// "3e-4". Percent signs and non-breaking spaces are dropped.
func parseNumeric(s string, opt Options) (float64, bool) {
	raw := strings.ReplaceAll(strings.TrimSpace(s), "%", "")
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "\u00A0", " "))
	dec, thou := separators(raw, opt)
	switch {
	case thou == 0:
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	case thou != dec:
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func normalizeUnit(x float64, unit string, opt Options) (float64, string, bool) {
	if opt.UnitTargets == nil {
		return x, unit, false
	}
	target, ok := opt.UnitTargets[unit]
	if !ok {
		return x, unit, false
	}
	switch unit + ">" + target {
	case "g/L>mg/L":
		return x * 1000, target, true
	case "ug/L>mg/L":
		return x / 1000, target, true
	case "°F>°C":
		return (x - 32) * 5.0 / 9.0, target, true
	default:
		return x, unit, false
	}
}

// safeName substitutes a placeholder for blank column names.
func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

// safeVal flattens s onto one line and keeps it from breaking table cells.
func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

var unitPatterns = []struct {
	re   *regexp.Regexp
	pick int
}{
	{regexp.MustCompile(`^(.*)\s*\(([^)]+)\)\s*$`), 2},  // e.g., Alpha (%)
	{regexp.MustCompile(`^(.*)\s*\[([^\]]+)\]\s*$`), 2}, // e.g., Mass [mg/L]
	{regexp.MustCompile(`^(.*?)[_\s-]+(mg/L|g/L|ug/L|°[CF]|Brix|%|ppm|ppb)$`), 2},
}

func splitUnits(name string) (clean string, unit string) {
	s := strings.TrimSpace(name)
	for _, p := range unitPatterns {
		if m := p.re.FindStringSubmatch(s); len(m) >= 3 {
			base := strings.TrimSpace(m[1])
			u := strings.TrimSpace(m[p.pick])
			if base != "" && u != "" {
				return base, u
			}
		}
	}
	return s, ""
}

// medianMAD returns the median of vals and the median absolute deviation
// from it.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := append([]float64(nil), vals...)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	return median, quantile(dev, 0.5)
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return 0
	case q <= 0:
		return sorted[0]
	case q >= 1:
		return sorted[n-1]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	w := pos - float64(lo)
	if w == 0 {
		return sorted[lo]
	}
	return sorted[lo]*(1-w) + sorted[lo+1]*w
}
