package aggregator

import (
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// document turns a source payload into a gjson result. Raw JSON is parsed
// in place; decoded values (maps, slices, tagged structs) are re-encoded.
func document(payload any) gjson.Result {
	switch p := payload.(type) {
	case nil:
		return gjson.Result{}
	case gjson.Result:
		return p
	case []byte:
		return gjson.ParseBytes(p)
	case json.RawMessage:
		return gjson.ParseBytes(p)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return gjson.Result{}
	}
	return gjson.ParseBytes(raw)
}

// get walks a dotted path. Plain segments use gjson's own path syntax; a
// negative numeric segment counts back from the end of an array, which
// gjson has no syntax for.
func get(doc gjson.Result, path string) (gjson.Result, bool) {
	if !doc.Exists() {
		return doc, false
	}
	if path == "" {
		return doc, doc.Type != gjson.Null
	}

	current := doc
	for _, segment := range strings.Split(path, ".") {
		if idx, err := strconv.Atoi(segment); err == nil && idx < 0 {
			if !current.IsArray() {
				return gjson.Result{}, false
			}
			items := current.Array()
			idx += len(items)
			if idx < 0 {
				return gjson.Result{}, false
			}
			current = items[idx]
			continue
		}
		if !current.IsObject() && !current.IsArray() {
			return gjson.Result{}, false
		}
		current = current.Get(segment)
		if !current.Exists() {
			return gjson.Result{}, false
		}
	}

	return current, current.Type != gjson.Null
}

// Lookup resolves a dotted path in a payload. Numeric segments index into
// arrays and a "-1" segment selects the last element, so
// "observations.-1.value" reads the newest observation.
func Lookup(payload any, path string) (any, bool) {
	v, ok := get(document(payload), path)
	if !ok {
		return nil, false
	}
	return v.Value(), true
}

// Number tries each path in order for a native number, then tries them again
// allowing numeric strings. Returns nil when nothing usable is found.
func Number(payload any, paths ...string) *float64 {
	doc := document(payload)
	for _, p := range paths {
		if v, ok := get(doc, p); ok && v.Type == gjson.Number {
			if f := v.Float(); !math.IsNaN(f) && !math.IsInf(f, 0) {
				return &f
			}
		}
	}
	for _, p := range paths {
		if v, ok := get(doc, p); ok && v.Type == gjson.String {
			if f, ok := Coerce(v.Str); ok {
				return &f
			}
		}
	}
	return nil
}

// String returns the first non-empty string (or number rendered as text) found at paths
func String(payload any, paths ...string) string {
	doc := document(payload)
	for _, p := range paths {
		v, ok := get(doc, p)
		if !ok {
			continue
		}
		switch v.Type {
		case gjson.String:
			if strings.TrimSpace(v.Str) != "" {
				return v.Str
			}
		case gjson.Number:
			return strconv.FormatFloat(v.Num, 'f', -1, 64)
		}
	}
	return ""
}

// Coerce converts a loosely typed value to a finite float. Provider
// placeholders such as "NA", "N/A", "." and "-" are treated as missing.
func Coerce(v any) (float64, bool) {
	if f, ok := nativeFloat(v); ok {
		return f, true
	}

	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	s = strings.TrimSpace(s)
	switch strings.ToUpper(s) {
	case "", "NA", "N/A", ".", "-", "NULL", "NONE":
		return 0, false
	}
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func nativeFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
