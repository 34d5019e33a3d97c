package graph

import (
	"math"
	"sort"
)

// PredicateKind tags which test a Predicate applies.
type PredicateKind int

const (
	PredExact PredicateKind = iota
	PredExists
	PredOneOf
	PredLt
	PredLe
	PredGt
	PredGe
	PredInRange
	PredHasPrefix
	PredHasSuffix
)

// Predicate is a single constraint on one Properties key. Construct with the
// New* helpers below; negate any of them with Not.
type Predicate struct {
	kind     PredicateKind
	negated  bool
	value    Value
	values   []Value
	lo, hi   Value
	str      string
}

// Exact matches a value equal to v (see Value.Equal for numeric coercion).
func Exact(v Value) Predicate { return Predicate{kind: PredExact, value: v} }

// Exists matches any key present in the bag with a non-Null value. A key
// holding an explicit Null is treated as absent for matching purposes — this
// resolves the spec's open question on Exists+Null: callers that need to
// distinguish "absent" from "present and null" use Exact(Null) instead.
func Exists() Predicate { return Predicate{kind: PredExists} }

// OneOf matches when the bag's value equals any of vs.
func OneOf(vs ...Value) Predicate { return Predicate{kind: PredOneOf, values: vs} }

// Lt matches numeric values strictly less than v.
func Lt(v Value) Predicate { return Predicate{kind: PredLt, value: v} }

// Le matches numeric values less than or equal to v.
func Le(v Value) Predicate { return Predicate{kind: PredLe, value: v} }

// Gt matches numeric values strictly greater than v.
func Gt(v Value) Predicate { return Predicate{kind: PredGt, value: v} }

// Ge matches numeric values greater than or equal to v.
func Ge(v Value) Predicate { return Predicate{kind: PredGe, value: v} }

// InRange matches numeric values in [lo, hi].
func InRange(lo, hi Value) Predicate { return Predicate{kind: PredInRange, lo: lo, hi: hi} }

// HasPrefix matches string values with the given prefix.
func HasPrefix(prefix string) Predicate { return Predicate{kind: PredHasPrefix, str: prefix} }

// HasSuffix matches string values with the given suffix.
func HasSuffix(suffix string) Predicate { return Predicate{kind: PredHasSuffix, str: suffix} }

// Not returns the negation of p.
func Not(p Predicate) Predicate {
	p.negated = !p.negated
	return p
}

// Match evaluates the predicate against the value at key in bag. Absence of
// the key is handled per predicate: Exists(negated) and a negated predicate
// whose positive form would require presence both treat absence as a match;
// any other predicate treats absence as a mismatch.
func (pr Predicate) Match(bag Properties, key string) bool {
	v, present := bag.Get(key)
	if present && v.IsNull() && pr.kind == PredExists {
		present = false // Null counts as absent for Exists-style matching.
	}

	var result bool
	switch pr.kind {
	case PredExists:
		result = present
	case PredExact:
		result = present && v.Equal(pr.value)
	case PredOneOf:
		result = present && matchAny(v, pr.values)
	case PredLt, PredLe, PredGt, PredGe, PredInRange:
		result = present && matchNumeric(pr, v)
	case PredHasPrefix:
		s, ok := v.AsString()
		result = present && ok && hasPrefix(s, pr.str)
	case PredHasSuffix:
		s, ok := v.AsString()
		result = present && ok && hasSuffix(s, pr.str)
	}

	if pr.negated {
		// A negated predicate over an absent key is satisfied — "must not be
		// X" is vacuously true when there is nothing to be X.
		if !present {
			return true
		}
		return !result
	}
	return result
}

func matchAny(v Value, vs []Value) bool {
	for _, candidate := range vs {
		if v.Equal(candidate) {
			return true
		}
	}
	return false
}

func matchNumeric(pr Predicate, v Value) bool {
	n, ok := v.Numeric()
	if !ok {
		return false
	}
	switch pr.kind {
	case PredLt:
		bound, ok := pr.value.Numeric()
		return ok && n < bound
	case PredLe:
		bound, ok := pr.value.Numeric()
		return ok && n <= bound
	case PredGt:
		bound, ok := pr.value.Numeric()
		return ok && n > bound
	case PredGe:
		bound, ok := pr.value.Numeric()
		return ok && n >= bound
	case PredInRange:
		lo, okLo := pr.lo.Numeric()
		hi, okHi := pr.hi.Numeric()
		return okLo && okHi && n >= lo && n <= hi
	}
	return false
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

// Witness returns a concrete Value that satisfies pr, for predicate shapes
// that admit one directly: Exact's value, OneOf's first alternative, the
// bound of Le/Ge, the nearest value inside the bound of Lt/Gt (one integer
// step, or the adjacent float), or InRange's upper bound. Existence,
// prefix/suffix, and negated predicates have no single witness value and
// report ok=false.
func (pr Predicate) Witness() (Value, bool) {
	if pr.negated {
		return Value{}, false
	}
	switch pr.kind {
	case PredExact:
		return pr.value, true
	case PredOneOf:
		if len(pr.values) > 0 {
			return pr.values[0], true
		}
	case PredLe, PredGe:
		return pr.value, true
	case PredLt, PredGt:
		dir := int64(-1)
		if pr.kind == PredGt {
			dir = 1
		}
		if i, ok := pr.value.AsInt(); ok {
			return Int(i + dir), true
		}
		if f, ok := pr.value.AsFloat(); ok {
			return Float(math.Nextafter(f, math.Inf(int(dir)))), true
		}
	case PredInRange:
		return pr.hi, true
	}
	return Value{}, false
}

// PropertyPattern is a conjunction of Predicates over named keys. It matches
// a Properties bag when every constrained key satisfies its predicate; keys
// not mentioned in the pattern are unconstrained.
type PropertyPattern map[string]Predicate

// Match reports whether bag satisfies every predicate in pt.
func (pt PropertyPattern) Match(bag Properties) bool {
	for key, pred := range pt {
		if !pred.Match(bag, key) {
			return false
		}
	}
	return true
}

// Unsatisfied returns the subset of pt's keys whose predicate does not
// currently hold against bag — used directly as the planner's heuristic.
func (pt PropertyPattern) Unsatisfied(bag Properties) []string {
	var missing []string
	for key, pred := range pt {
		if !pred.Match(bag, key) {
			missing = append(missing, key)
		}
	}
	return missing
}

// Keys returns the pattern's constrained keys, sorted.
func (pt PropertyPattern) Keys() []string {
	keys := make([]string, 0, len(pt))
	for k := range pt {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
