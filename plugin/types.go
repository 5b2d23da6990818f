package plugin

import (
	"fmt"
	"reflect"
	"strings"
)

// Kind is a shape a contributed value may take.
type Kind string

// Kind constants define the shapes accepted by hooks and options.
const (
	KindFunction Kind = "Function"
	KindArray    Kind = "Array"
	KindObject   Kind = "Object"
	KindString   Kind = "String"
)

// CheckResult is the outcome of validating a contributed value.
type CheckResult struct {
	Valid   bool
	Message string
}

// Check reports whether value matches at least one of kinds. An absent value
// (nil, or a nil func, map or slice) is always valid.
func Check(value any, kinds ...Kind) CheckResult {
	if isAbsent(value) {
		return CheckResult{Valid: true}
	}
	observed := rawKind(value)
	for _, k := range kinds {
		if string(k) == observed {
			return CheckResult{Valid: true}
		}
	}
	return CheckResult{
		Message: fmt.Sprintf("expected %s, but got %s.", joinKinds(kinds), observed),
	}
}

// checkElements validates every element of a sequence value against kinds.
// Non-sequence values pass untouched.
func checkElements(value any, kinds ...Kind) CheckResult {
	if isAbsent(value) || rawKind(value) != string(KindArray) {
		return CheckResult{Valid: true}
	}
	rv := reflect.ValueOf(value)
	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i).Interface()
		observed := "Undefined"
		if !isAbsent(elem) {
			if Check(elem, kinds...).Valid {
				continue
			}
			observed = rawKind(elem)
		}
		return CheckResult{
			Message: fmt.Sprintf("expected element %d to be %s, but got %s.", i, joinKinds(kinds), observed),
		}
	}
	return CheckResult{Valid: true}
}

func isAbsent(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Func, reflect.Map, reflect.Slice, reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// rawKind names the observed shape of a non-absent value.
func rawKind(value any) string {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Invalid:
		return "Undefined"
	case reflect.Func:
		return string(KindFunction)
	case reflect.Slice, reflect.Array:
		return string(KindArray)
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			return string(KindObject)
		}
		return "Map"
	case reflect.String:
		return string(KindString)
	case reflect.Bool:
		return "Boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "Number"
	}
	return rv.Type().String()
}

func joinKinds(kinds []Kind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, " or ")
}
