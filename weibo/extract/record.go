package extract

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Record is a parsed JSON object. Accessors never fail: a missing, null or
// ill-typed field yields the supplied default.
type Record struct {
	raw    string
	fields map[string]gjson.Result
}

func newRecord(root gjson.Result) Record {
	return Record{raw: root.Raw, fields: root.Map()}
}

// Raw returns the JSON text of the object.
func (r Record) Raw() string {
	return r.raw
}

// Len returns the number of top level keys.
func (r Record) Len() int {
	return len(r.fields)
}

func (r Record) get(key string) (gjson.Result, bool) {
	v, ok := r.fields[key]
	if !ok || v.Type == gjson.Null {
		return gjson.Result{}, false
	}
	return v, true
}

// Has reports whether key is present and not null.
func (r Record) Has(key string) bool {
	_, ok := r.get(key)
	return ok
}

// String returns key as text. Numbers and booleans use their JSON text.
func (r Record) String(key, def string) string {
	v, ok := r.get(key)
	if !ok || v.IsObject() || v.IsArray() {
		return def
	}
	return v.String()
}

// Float returns key as a number. Strings are parsed, accepting the 万 and
// 亿 multipliers used in engagement counts.
func (r Record) Float(key string, def float64) float64 {
	v, ok := r.get(key)
	if !ok {
		return def
	}
	switch v.Type {
	case gjson.Number:
		return v.Float()
	case gjson.String:
		if f, ok := parseNumber(v.Str); ok {
			return f
		}
	case gjson.True:
		return 1
	case gjson.False:
		return 0
	}
	return def
}

// Int returns key as an integer, truncating fractions.
func (r Record) Int(key string, def int) int {
	f := r.Float(key, math.NaN())
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return int(f)
}

// NonNegativeInt returns Int clamped at zero.
func (r Record) NonNegativeInt(key string, def int) int {
	n := r.Int(key, def)
	if n < 0 {
		return 0
	}
	return n
}

// ClampFloat returns Float limited to [lo, hi].
func (r Record) ClampFloat(key string, lo, hi, def float64) float64 {
	f := r.Float(key, def)
	if math.IsNaN(f) {
		return def
	}
	return math.Max(lo, math.Min(hi, f))
}

// Bool returns key as a boolean. Strings such as "true", "yes" and "1" and
// non-zero numbers count as true.
func (r Record) Bool(key string, def bool) bool {
	v, ok := r.get(key)
	if !ok {
		return def
	}
	switch v.Type {
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Number:
		return v.Float() != 0
	case gjson.String:
		switch strings.ToLower(strings.TrimSpace(v.Str)) {
		case "true", "yes", "y", "1", "success", "ok":
			return true
		case "false", "no", "n", "0", "failed", "fail":
			return false
		}
	}
	return def
}

// Strings returns key as a list of strings. A scalar becomes a one element
// list; nested objects are skipped.
func (r Record) Strings(key string) []string {
	v, ok := r.get(key)
	if !ok {
		return nil
	}
	if !v.IsArray() {
		if v.IsObject() {
			return nil
		}
		return []string{v.String()}
	}
	var out []string
	for _, item := range v.Array() {
		if item.Type == gjson.Null || item.IsObject() || item.IsArray() {
			continue
		}
		out = append(out, item.String())
	}
	return out
}

// StringMap returns an object field as flat string values.
func (r Record) StringMap(key string) map[string]string {
	v, ok := r.get(key)
	if !ok || !v.IsObject() {
		return nil
	}
	out := make(map[string]string)
	v.ForEach(func(k, val gjson.Result) bool {
		if val.Type != gjson.Null {
			out[k.String()] = val.String()
		}
		return true
	})
	return out
}

// Records returns the objects of an array field; other elements are dropped.
func (r Record) Records(key string) []Record {
	v, ok := r.get(key)
	if !ok || !v.IsArray() {
		return nil
	}
	var out []Record
	for _, item := range v.Array() {
		if item.IsObject() {
			out = append(out, newRecord(item))
		}
	}
	return out
}

// Record returns a nested object field.
func (r Record) Record(key string) (Record, bool) {
	v, ok := r.get(key)
	if !ok || !v.IsObject() {
		return Record{}, false
	}
	return newRecord(v), true
}

var multipliers = []struct {
	suffix string
	factor float64
}{
	{"亿", 1e8},
	{"万", 1e4},
	{"w", 1e4},
	{"k", 1e3},
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	s = strings.TrimSuffix(s, "+")
	if s == "" {
		return 0, false
	}
	factor := 1.0
	lower := strings.ToLower(s)
	for _, m := range multipliers {
		if strings.HasSuffix(lower, m.suffix) {
			factor = m.factor
			s = strings.TrimSpace(s[:len(s)-len(m.suffix)])
			break
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if factor != 1 {
		return math.Round(f * factor), true
	}
	return f, true
}
