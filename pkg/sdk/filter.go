package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-bexpr"
	"github.com/mitchellh/pointerstructure"
)

// FilterRows keeps the rows matching a bexpr expression. Selectors use the
// JSON field names, e.g. `company == "Acme" and broker_id == 3`. An empty
// expression returns rows unchanged. A row without the selected field, or
// with a null there, does not match; any other evaluation error is returned.
func FilterRows[T any](rows []T, expr string) ([]T, error) {
	if strings.TrimSpace(expr) == "" {
		return rows, nil
	}
	evaluator, err := bexpr.CreateEvaluator(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", expr, err)
	}

	kept := make([]T, 0, len(rows))
	for _, row := range rows {
		fields, err := rowFields(row)
		if err != nil {
			return nil, err
		}
		match, err := evaluator.Evaluate(fields)
		if errors.Is(err, pointerstructure.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", expr, err)
		}
		if match {
			kept = append(kept, row)
		}
	}
	return kept, nil
}

func rowFields(row any) (map[string]any, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("encode row for filtering: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("row is not an object: %w", err)
	}
	for key, value := range fields {
		if value == nil {
			delete(fields, key)
		}
	}
	return fields, nil
}
