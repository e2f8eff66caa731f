package chart

import (
	"fmt"

	"github.com/KaramelBytes/insightigraph/internal/dataset"
)

// Validate checks that every bound column exists in ds and satisfies the
// role's type constraint.
func Validate(ds *dataset.Dataset, req Request) error {
	if _, ok := specs[req.Type]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownChartType, req.Type)
	}
	if err := checkRequired(req); err != nil {
		return err
	}
	for _, rs := range specs[req.Type].roles {
		name := req.Binding(rs.Role)
		if rs.Column == NotAColumn || name == "" {
			continue
		}
		col, ok := ds.Column(name)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownColumn, name)
		}
		switch {
		case rs.Column == NumericColumn && !col.IsNumeric():
			return fmt.Errorf("%w: %s of a %s must be numeric, %q is not", ErrColumnKind, rs.Label, req.Type.Label(), name)
		case rs.Column == CategoricalColumn && col.IsNumeric():
			return fmt.Errorf("%w: %s of a %s must be categorical, %q is numeric", ErrColumnKind, rs.Label, req.Type.Label(), name)
		}
	}
	if req.Type == Histogram && (req.Bins < MinBins || req.Bins > MaxBins) {
		return fmt.Errorf("%w (got %d)", ErrBins, req.Bins)
	}
	return nil
}
