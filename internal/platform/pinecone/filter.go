package pinecone

import (
	"fmt"
	"strings"
)

var fieldOperators = map[string]bool{
	"$eq": true, "$ne": true,
	"$gt": true, "$gte": true, "$lt": true, "$lte": true,
	"$in": true, "$nin": true, "$exists": true,
}

// ValidateFilter checks a Pinecone-style metadata filter, for example
// {"course_id": {"$eq": "c1"}}. Unknown operators wrap ErrUnsupportedFilter.
func ValidateFilter(filter map[string]any) error {
	for key, value := range filter {
		k := strings.TrimSpace(key)
		if k == "" {
			return fmt.Errorf("%w: empty field name", ErrUnsupportedFilter)
		}
		if strings.HasPrefix(k, "$") {
			if k != "$and" && k != "$or" {
				return fmt.Errorf("%w: top-level operator %q", ErrUnsupportedFilter, k)
			}
			items, ok := value.([]any)
			if !ok {
				return fmt.Errorf("%w: %s expects an array of objects", ErrUnsupportedFilter, k)
			}
			for _, item := range items {
				sub, ok := item.(map[string]any)
				if !ok {
					return fmt.Errorf("%w: %s expects an array of objects", ErrUnsupportedFilter, k)
				}
				if err := ValidateFilter(sub); err != nil {
					return err
				}
			}
			continue
		}
		ops, ok := value.(map[string]any)
		if !ok {
			// bare value is shorthand for $eq
			continue
		}
		if len(ops) == 0 {
			return fmt.Errorf("%w: field %q has empty operator map", ErrUnsupportedFilter, k)
		}
		for op := range ops {
			if !fieldOperators[op] {
				return fmt.Errorf("%w: operator %q on field %q", ErrUnsupportedFilter, op, k)
			}
		}
	}
	return nil
}
