package chart

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/insightigraph/internal/dataset"
)

var (
	ErrUnknownChartType = errors.New("unknown chart type")
	ErrMissingRole      = errors.New("missing required selection")
	ErrUnexpectedRole   = errors.New("selection not used by chart type")
	ErrBins             = errors.New("bins must be an integer between 5 and 100")
	ErrUnknownColumn    = errors.New("column not found")
	ErrColumnKind       = errors.New("column has the wrong type")
)

// Unbound is the selector value meaning "no column". It is empty so that
// any header, including "None", stays selectable.
const Unbound = ""

// Request is one resolved chart selection. Column roles hold names and are
// empty when unbound.
type Request struct {
	Type  Type
	X     string
	Y     string
	Color string
	Bins  int
}

// Binding returns the column bound to role r, or "".
func (r Request) Binding(role Role) string {
	switch role {
	case RoleX:
		return r.X
	case RoleY:
		return r.Y
	case RoleColor:
		return r.Color
	}
	return ""
}

func (r *Request) bind(role Role, v string) {
	switch role {
	case RoleX:
		r.X = v
	case RoleY:
		r.Y = v
	case RoleColor:
		r.Color = v
	}
}

// BuildRequest resolves a chart label and role selections into a Request.
// Empty selection values leave the role unbound.
func BuildRequest(chartType string, selections map[string]string) (Request, error) {
	t, err := ParseType(chartType)
	if err != nil {
		return Request{}, err
	}
	req := Request{Type: t}
	keys := make([]string, 0, len(selections))
	for k := range selections {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := strings.TrimSpace(selections[k])
		if v == Unbound {
			continue
		}
		role := Role(strings.ToLower(strings.TrimSpace(k)))
		rs, ok := roleSpec(t, role)
		if !ok {
			return Request{}, fmt.Errorf("%w: %s does not take %q", ErrUnexpectedRole, t.Label(), k)
		}
		if rs.Column == NotAColumn {
			n, err := strconv.Atoi(v)
			if err != nil || n < MinBins || n > MaxBins {
				return Request{}, fmt.Errorf("%w (got %q)", ErrBins, v)
			}
			req.Bins = n
			continue
		}
		req.bind(role, v)
	}
	if t == Histogram && req.Bins == 0 {
		req.Bins = DefaultBins
	}
	if err := checkRequired(req); err != nil {
		return Request{}, err
	}
	return req, nil
}

func checkRequired(req Request) error {
	for _, rs := range specs[req.Type].roles {
		if rs.Required && rs.Column != NotAColumn && req.Binding(rs.Role) == "" {
			return fmt.Errorf("%w: %s needs %s", ErrMissingRole, req.Type.Label(), rs.Label)
		}
	}
	return nil
}

// DefaultSelections returns the initial selector values for t: the first
// eligible column for each required role (the second for y when there is
// one), Unbound for optional columns and the default bin count.
func DefaultSelections(t Type, cl dataset.Classification) map[string]string {
	out := map[string]string{}
	for _, rs := range specs[t].roles {
		if rs.Column == NotAColumn {
			out[string(rs.Role)] = strconv.Itoa(DefaultBins)
			continue
		}
		if !rs.Required {
			out[string(rs.Role)] = Unbound
			continue
		}
		pool := eligible(rs.Column, cl)
		switch {
		case len(pool) == 0:
		case rs.Role == RoleY && rs.Column == AnyColumn && len(pool) > 1:
			out[string(rs.Role)] = pool[1]
		default:
			out[string(rs.Role)] = pool[0]
		}
	}
	return out
}

// Options lists the column names a selector for rs may offer. Optional roles
// start with Unbound.
func Options(rs RoleSpec, cl dataset.Classification) []string {
	pool := eligible(rs.Column, cl)
	if rs.Required {
		return pool
	}
	return append([]string{Unbound}, pool...)
}

func eligible(c Constraint, cl dataset.Classification) []string {
	switch c {
	case NumericColumn:
		return cl.Numeric
	case CategoricalColumn:
		return cl.Categorical
	case AnyColumn:
		return cl.All
	}
	return nil
}

// Values encodes the request as URL query values.
func (r Request) Values() url.Values {
	v := url.Values{}
	v.Set("type", string(r.Type))
	for _, role := range []Role{RoleX, RoleY, RoleColor} {
		if b := r.Binding(role); b != "" {
			v.Set(string(role), b)
		}
	}
	if r.Bins > 0 {
		v.Set(string(RoleBins), strconv.Itoa(r.Bins))
	}
	return v
}

// RequestFromValues is the inverse of Values. Keys other than the role names
// are ignored.
func RequestFromValues(v url.Values) (Request, error) {
	sel := map[string]string{}
	for _, role := range []Role{RoleX, RoleY, RoleColor, RoleBins} {
		if s := v.Get(string(role)); s != "" {
			sel[string(role)] = s
		}
	}
	return BuildRequest(v.Get("type"), sel)
}

// ClassifyColumns partitions ds's columns into numeric and categorical.
func ClassifyColumns(ds *dataset.Dataset) dataset.Classification {
	return ds.Classify()
}
