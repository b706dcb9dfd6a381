package trampoline

import "reflect"

// codeOf returns the entry address of a top level function.
func codeOf(f any) uintptr {
	return reflect.ValueOf(f).Pointer()
}
