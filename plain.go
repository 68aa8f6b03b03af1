package lum

import (
	"reflect"
	"sync"

	"github.com/pkg/errors"
)

var plainTypes sync.Map // reflect.Type -> bool

// mustBePlain fails unless T can live in memory the garbage collector does
// not scan.
func mustBePlain[T any]() {
	t := reflect.TypeOf((*T)(nil)).Elem()
	ok, seen := plainTypes.Load(t)
	if !seen {
		ok, _ = plainTypes.LoadOrStore(t, isPlain(t))
	}
	if !ok.(bool) {
		fail(errors.Wrapf(ErrNotPlain, "%v", t))
	}
}

func isPlain(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Array:
		return t.Len() == 0 || isPlain(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !isPlain(t.Field(i).Type) {
				return false
			}
		}
		return true
	case reflect.Pointer, reflect.UnsafePointer, reflect.Map, reflect.Chan,
		reflect.Func, reflect.Interface, reflect.Slice, reflect.String:
		return false
	default:
		return true
	}
}
