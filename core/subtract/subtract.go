// Package subtract computes counter increments between two snapshots of a counters struct.
package subtract

import (
	"reflect"

	"github.com/zyedidia/generic"
	"golang.org/x/exp/constraints"
)

// Counter returns the increment of a monotonic counter from prev to curr.
// A counter below its previous value has been reset, so that its increment is its current value.
func Counter[N constraints.Unsigned](curr, prev N) N {
	if curr < prev {
		return curr
	}
	return curr - prev
}

// Sub returns the increment from prev to curr, as a new instance of T.
//
// If T has `func (T) Sub(T) T` method, it is called. Otherwise, fields are processed as follows:
// unsigned integers are monotonic counters (see Counter);
// signed integers are plain differences;
// structs and arrays recurse;
// slices recurse and are truncated to the shorter one;
// pointers recurse when neither is nil.
// Other fields, and fields tagged `subtract:"-"`, are left zero.
func Sub[T any](curr, prev T) T {
	var diff T
	sub(reflect.ValueOf(curr), reflect.ValueOf(prev), reflect.ValueOf(&diff).Elem())
	return diff
}

func hasSubMethod(typ reflect.Type) (reflect.Method, bool) {
	m, ok := typ.MethodByName("Sub")
	if !ok {
		return m, false
	}
	ft := m.Type
	return m, ft.NumIn() == 2 && ft.NumOut() == 1 && ft.In(1) == typ && ft.Out(0) == typ
}

func sub(curr, prev, diff reflect.Value) {
	if m, ok := hasSubMethod(curr.Type()); ok {
		diff.Set(m.Func.Call([]reflect.Value{curr, prev})[0])
		return
	}

	switch curr.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		diff.SetUint(Counter(curr.Uint(), prev.Uint()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		diff.SetInt(curr.Int() - prev.Int())
	case reflect.Struct:
		for _, field := range reflect.VisibleFields(curr.Type()) {
			if field.IsExported() && !field.Anonymous && field.Tag.Get("subtract") != "-" {
				sub(curr.FieldByIndex(field.Index), prev.FieldByIndex(field.Index), diff.FieldByIndex(field.Index))
			}
		}
	case reflect.Array:
		for i := 0; i < curr.Len(); i++ {
			sub(curr.Index(i), prev.Index(i), diff.Index(i))
		}
	case reflect.Slice:
		n := generic.Min(curr.Len(), prev.Len())
		diff.Set(reflect.MakeSlice(curr.Type(), n, n))
		for i := 0; i < n; i++ {
			sub(curr.Index(i), prev.Index(i), diff.Index(i))
		}
	case reflect.Pointer:
		if curr.IsNil() || prev.IsNil() {
			return
		}
		diff.Set(reflect.New(curr.Type().Elem()))
		sub(curr.Elem(), prev.Elem(), diff.Elem())
	}
}
