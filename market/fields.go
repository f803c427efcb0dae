package market

import (
	"sort"
	"strconv"
	"strings"
)

// Fields maps extra column names to float64 or string values.
type Fields map[string]any

// Float returns the named value when it is numeric.
func (f Fields) Float(name string) (float64, bool) {
	v, ok := f[name]
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}

// Text returns the named value when it is a string.
func (f Fields) Text(name string) (string, bool) {
	v, ok := f[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Set stores raw as a float64 when it parses as a number, otherwise as
// trimmed text.
func (f Fields) Set(name, raw string) {
	raw = strings.TrimSpace(raw)
	if x, err := strconv.ParseFloat(raw, 64); err == nil {
		f[name] = x
		return
	}
	f[name] = raw
}

// Names returns the field names in sorted order.
func (f Fields) Names() []string {
	names := make([]string, 0, len(f))
	for k := range f {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Clone returns a shallow copy; nil stays nil.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
