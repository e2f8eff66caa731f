// Package chart maps a chart selection onto a dataset and produces a
// renderer-neutral figure or a warning explaining why it cannot.
package chart

import (
	"fmt"
	"strings"
)

// Type identifies one of the supported chart kinds.
type Type string

const (
	Scatter   Type = "scatter"
	Line      Type = "line"
	Bar       Type = "bar"
	Histogram Type = "histogram"
	Box       Type = "box"
	Pie       Type = "pie"
	Heatmap   Type = "heatmap"
	Pair      Type = "pair"
	Area      Type = "area"
	Violin    Type = "violin"
	Strip     Type = "strip"
)

// Types lists every chart type in selector order.
var Types = []Type{Scatter, Line, Bar, Histogram, Box, Pie, Heatmap, Pair, Area, Violin, Strip}

var labels = map[Type]string{
	Scatter:   "Scatter Plot",
	Line:      "Line Plot",
	Bar:       "Bar Chart",
	Histogram: "Histogram",
	Box:       "Box Plot",
	Pie:       "Pie Chart",
	Heatmap:   "Heatmap",
	Pair:      "Pair Plot",
	Area:      "Area Chart",
	Violin:    "Violin Plot",
	Strip:     "Strip Plot",
}

// Label returns the human-facing name, e.g. "Scatter Plot".
func (t Type) Label() string {
	if l, ok := labels[t]; ok {
		return l
	}
	return string(t)
}

// ParseType accepts either the slug ("pie") or the label ("Pie Chart"),
// ignoring case and surrounding space.
func ParseType(s string) (Type, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, t := range Types {
		if key == string(t) || key == strings.ToLower(t.Label()) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownChartType, s)
}

// Role names a slot in a chart request.
type Role string

const (
	RoleX     Role = "x"
	RoleY     Role = "y"
	RoleColor Role = "color"
	RoleBins  Role = "bins"
)

// Constraint restricts which columns may fill a role.
type Constraint int

const (
	AnyColumn Constraint = iota
	NumericColumn
	CategoricalColumn
	// NotAColumn marks parameter roles such as bins.
	NotAColumn
)

// RoleSpec describes one role of a chart type.
type RoleSpec struct {
	Role     Role
	Label    string
	Required bool
	Column   Constraint
}

type typeSpec struct {
	roles      []RoleSpec
	minNumeric int
}

const (
	DefaultBins = 20
	MinBins     = 5
	MaxBins     = 100
)

var specs = map[Type]typeSpec{
	Scatter: {roles: []RoleSpec{
		{RoleX, "X-Axis", true, AnyColumn},
		{RoleY, "Y-Axis", true, AnyColumn},
		{RoleColor, "Color By (Optional)", false, AnyColumn},
	}},
	Line: {roles: []RoleSpec{
		{RoleX, "X-Axis", true, AnyColumn},
		{RoleY, "Y-Axis", true, NumericColumn},
	}},
	Bar: {roles: []RoleSpec{
		{RoleX, "X-Axis", true, AnyColumn},
		{RoleY, "Y-Axis", true, NumericColumn},
	}},
	Histogram: {roles: []RoleSpec{
		{RoleX, "Select Column", true, NumericColumn},
		{RoleBins, "Number of Bins", false, NotAColumn},
	}},
	Box: {roles: []RoleSpec{
		{RoleY, "Y-Axis", true, NumericColumn},
		{RoleX, "X-Axis (Optional)", false, CategoricalColumn},
	}},
	Pie: {roles: []RoleSpec{
		{RoleX, "Select Column", true, CategoricalColumn},
	}},
	Heatmap: {minNumeric: 2},
	Pair:    {minNumeric: 2},
	Area: {roles: []RoleSpec{
		{RoleX, "X-Axis", true, AnyColumn},
		{RoleY, "Y-Axis", true, AnyColumn},
	}},
	Violin: {roles: []RoleSpec{
		{RoleX, "X-Axis", true, AnyColumn},
		{RoleY, "Y-Axis", true, AnyColumn},
	}},
	Strip: {roles: []RoleSpec{
		{RoleX, "X-Axis", true, AnyColumn},
		{RoleY, "Y-Axis", true, AnyColumn},
	}},
}

// Roles returns the role specs of t in selector order.
func Roles(t Type) []RoleSpec {
	return specs[t].roles
}

func roleSpec(t Type, r Role) (RoleSpec, bool) {
	for _, rs := range specs[t].roles {
		if rs.Role == r {
			return rs, true
		}
	}
	return RoleSpec{}, false
}
