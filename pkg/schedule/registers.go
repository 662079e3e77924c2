package schedule

import (
	"sort"
	"strconv"
)

// Registers is the flat field bag produced by the vendor's holding-register
// reads. The vendor is loose with value types (numbers, numeric strings,
// booleans), so lookups coerce and default to zero when a field is missing
// or not coercible, recording those names for later inspection. Not safe
// for concurrent use.
type Registers struct {
	fields  map[string]interface{}
	missing map[string]struct{}
}

// Merge combines batch reads into one bag. Later batches win on key
// collisions, matching the order the register ranges are fetched in.
func Merge(batches ...map[string]interface{}) *Registers {
	fields := make(map[string]interface{})
	for _, b := range batches {
		for k, v := range b {
			fields[k] = v
		}
	}
	return &Registers{
		fields:  fields,
		missing: make(map[string]struct{}),
	}
}

// Int returns the named field as an int, defaulting to 0.
func (r *Registers) Int(name string) int {
	switch v := r.fields[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	r.missing[name] = struct{}{}
	return 0
}

// Float returns the named field as a float64, defaulting to 0.
func (r *Registers) Float(name string) float64 {
	switch v := r.fields[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	r.missing[name] = struct{}{}
	return 0
}

// Bool returns true only when the field is the boolean true or the string
// "true". The vendor encodes enabled function bits exactly this way, so
// any other value (including "1" or 1) reads as off.
func (r *Registers) Bool(name string) bool {
	v, ok := r.fields[name]
	if !ok {
		r.missing[name] = struct{}{}
		return false
	}
	switch tv := v.(type) {
	case bool:
		return tv
	case string:
		return tv == "true"
	}
	return false
}

// String returns the named field as a string, defaulting to "".
func (r *Registers) String(name string) string {
	v, ok := r.fields[name]
	if !ok {
		r.missing[name] = struct{}{}
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	r.missing[name] = struct{}{}
	return ""
}

// Missing returns the sorted names of fields that defaulted because they
// were absent from the read or not coercible. Useful for spotting vendor
// schema drift.
func (r *Registers) Missing() []string {
	if len(r.missing) == 0 {
		return nil
	}
	out := make([]string, 0, len(r.missing))
	for name := range r.missing {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Raw exposes the merged bag for pass-through responses.
func (r *Registers) Raw() map[string]interface{} {
	return r.fields
}
