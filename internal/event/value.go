package event

import (
	"encoding/json"
	"reflect"
)

// NewChange returns a field Change whose value has the shape it will have
// after an export and import.
func NewChange(element, name string, value any) Change {
	return Change{Element: element, Name: name, NewValue: NormalizeValue(value)}
}

// NormalizeValue maps v to what encoding/json decodes it back to: every
// numeric kind becomes float64, composites become maps and slices of any.
// Values that cannot be encoded are returned unchanged.
func NormalizeValue(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}
