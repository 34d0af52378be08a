package memvec

import (
	"fmt"
)

// matches evaluates an already validated Pinecone-style filter against metadata.
func matches(meta map[string]any, filter map[string]any) bool {
	for key, cond := range filter {
		switch key {
		case "$and":
			for _, sub := range subFilters(cond) {
				if !matches(meta, sub) {
					return false
				}
			}
		case "$or":
			subs := subFilters(cond)
			ok := len(subs) == 0
			for _, sub := range subs {
				if matches(meta, sub) {
					ok = true
					break
				}
			}
			if !ok {
				return false
			}
		default:
			value, present := meta[key]
			ops, isOps := cond.(map[string]any)
			if !isOps {
				if !present || !equal(value, cond) {
					return false
				}
				continue
			}
			for op, arg := range ops {
				if !evalOp(op, value, present, arg) {
					return false
				}
			}
		}
	}
	return true
}

func subFilters(v any) []map[string]any {
	items, _ := v.([]any)
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func evalOp(op string, value any, present bool, arg any) bool {
	switch op {
	case "$exists":
		want, _ := arg.(bool)
		return present == want
	case "$eq":
		return present && equal(value, arg)
	case "$ne":
		return !present || !equal(value, arg)
	case "$in":
		return present && contains(arg, value)
	case "$nin":
		return !present || !contains(arg, value)
	case "$gt", "$gte", "$lt", "$lte":
		a, okA := number(value)
		b, okB := number(arg)
		if !present || !okA || !okB {
			return false
		}
		switch op {
		case "$gt":
			return a > b
		case "$gte":
			return a >= b
		case "$lt":
			return a < b
		default:
			return a <= b
		}
	}
	return false
}

func contains(list any, value any) bool {
	switch items := list.(type) {
	case []any:
		for _, item := range items {
			if equal(item, value) {
				return true
			}
		}
	case []string:
		for _, item := range items {
			if equal(item, value) {
				return true
			}
		}
	}
	return false
}

func equal(a, b any) bool {
	if x, ok := number(a); ok {
		if y, ok := number(b); ok {
			return x == y
		}
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
