package qdrant

import (
	"fmt"

	"github.com/yungbote/edugenius-backend/internal/platform/pinecone"
)

// condition is one Qdrant filter clause. A nested filter is itself a valid
// clause, which is how $and/$or compose.
type condition = map[string]any

type clauses struct {
	must, should, mustNot []condition
}

func (c clauses) filter() map[string]any {
	out := map[string]any{}
	if len(c.must) > 0 {
		out["must"] = c.must
	}
	if len(c.should) > 0 {
		out["should"] = c.should
	}
	if len(c.mustNot) > 0 {
		out["must_not"] = c.mustNot
	}
	return out
}

// translateFilter converts a Pinecone-style metadata filter into a Qdrant
// filter scoped to namespace. Filters the shared grammar rejects wrap
// pinecone.ErrUnsupportedFilter.
func translateFilter(namespace string, filter map[string]any) (map[string]any, error) {
	if err := pinecone.ValidateFilter(filter); err != nil {
		return nil, err
	}
	c, err := translate(filter)
	if err != nil {
		return nil, err
	}
	c.must = append([]condition{match(payloadNamespaceKey, namespace)}, c.must...)
	return c.filter(), nil
}

func translate(filter map[string]any) (clauses, error) {
	var c clauses
	for _, key := range sortedKeys(filter) {
		value := filter[key]
		switch key {
		case "$and", "$or":
			var subs []condition
			for _, item := range value.([]any) {
				sub, err := translate(item.(map[string]any))
				if err != nil {
					return clauses{}, err
				}
				subs = append(subs, sub.filter())
			}
			if key == "$and" {
				c.must = append(c.must, subs...)
			} else {
				c.must = append(c.must, condition{"should": subs})
			}
		default:
			ops, ok := value.(map[string]any)
			if !ok {
				ops = map[string]any{"$eq": value}
			}
			for _, op := range sortedKeys(ops) {
				if err := c.addFieldOp(key, op, ops[op]); err != nil {
					return clauses{}, err
				}
			}
		}
	}
	return c, nil
}

var rangeOps = map[string]string{"$gt": "gt", "$gte": "gte", "$lt": "lt", "$lte": "lte"}

func (c *clauses) addFieldOp(field, op string, arg any) error {
	switch op {
	case "$eq":
		c.must = append(c.must, match(field, arg))
	case "$ne":
		c.mustNot = append(c.mustNot, match(field, arg))
	case "$in", "$nin":
		values, ok := arg.([]any)
		if !ok {
			if strs, isStrs := arg.([]string); isStrs {
				for _, s := range strs {
					values = append(values, s)
				}
				ok = true
			}
		}
		if !ok || len(values) == 0 {
			return fmt.Errorf("%w: %s on %q needs a non-empty array", pinecone.ErrUnsupportedFilter, op, field)
		}
		cond := condition{"key": field, "match": map[string]any{"any": values}}
		if op == "$in" {
			c.must = append(c.must, cond)
		} else {
			c.mustNot = append(c.mustNot, cond)
		}
	case "$exists":
		want, _ := arg.(bool)
		empty := condition{"is_empty": map[string]any{"key": field}}
		if want {
			c.mustNot = append(c.mustNot, empty)
		} else {
			c.must = append(c.must, empty)
		}
	default:
		bound, ok := rangeOps[op]
		if !ok {
			return fmt.Errorf("%w: operator %q on field %q", pinecone.ErrUnsupportedFilter, op, field)
		}
		c.must = append(c.must, condition{"key": field, "range": map[string]any{bound: arg}})
	}
	return nil
}

func match(field string, value any) condition {
	return condition{"key": field, "match": map[string]any{"value": value}}
}
