package graph

import "sort"

// Properties is an open, unordered mapping from string keys to Values. No
// key is privileged; `format` is a property like any other.
type Properties map[string]Value

// Clone returns a shallow copy safe for independent mutation of the map
// itself (Values are already copy-by-value).
func (p Properties) Clone() Properties {
	cp := make(Properties, len(p))
	for k, v := range p {
		cp[k] = v
	}
	return cp
}

// Get returns the value at key and whether it was present.
func (p Properties) Get(key string) (Value, bool) {
	v, ok := p[key]
	return v, ok
}

// Keys returns the sorted key list, used for canonical signatures.
func (p Properties) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports whether p and other hold the same keys and structurally
// equal values.
func (p Properties) Equal(other Properties) bool {
	if len(p) != len(other) {
		return false
	}
	for k, v := range p {
		ov, ok := other[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Apply computes the successor state's Properties as
// preserve(source) ∪ override(produces) \ removes, per spec §4.3. preserve
// lists keys carried through from source unchanged; produces overrides or
// introduces keys; removes deletes keys entirely (used by converters that
// explicitly drop metadata no longer meaningful after conversion, e.g. an
// image resize dropping a stale checksum).
func (p Properties) Apply(preserve []string, produces Properties, removes []string) Properties {
	out := make(Properties, len(p)+len(produces))
	for _, key := range preserve {
		if v, ok := p[key]; ok {
			out[key] = v
		}
	}
	for k, v := range produces {
		out[k] = v
	}
	for _, key := range removes {
		delete(out, key)
	}
	return out
}

// Signature returns a canonical string encoding of p restricted to keys,
// suitable for use in a closed-set or cache key. Keys outside the relevant
// set are ignored so unrelated metadata does not fragment the search space.
func (p Properties) Signature(relevant []string) string {
	sort.Strings(relevant)
	out := make([]byte, 0, 64)
	for i, k := range relevant {
		if i > 0 {
			out = append(out, '|')
		}
		v, ok := p[k]
		if !ok {
			out = append(out, k...)
			out = append(out, "=<absent>"...)
			continue
		}
		out = append(out, k...)
		out = append(out, '=')
		out = append(out, v.String()...)
	}
	return string(out)
}
