package trampoline

import (
	"fmt"
	"reflect"
	"unsafe"
)

// bind converts a resolved Symbol into a callable F according to its ABI.
func bind[F any](sym Symbol) (f F, err error) {
	switch sym.ABI {
	case ABIValue:
		if v, ok := sym.Value.(F); ok {
			return v, nil
		}
		// named func types with the same signature convert
		want := reflect.TypeFor[F]()
		if rv := reflect.ValueOf(sym.Value); rv.Kind() == reflect.Func && rv.Type().ConvertibleTo(want) {
			return rv.Convert(want).Interface().(F), nil
		}
		err = fmt.Errorf("%w: %s is %T, declared %s", ErrSignatureMismatch, sym.Name, sym.Value, want)
		return
	case ABIGo:
		if sym.Addr == 0 {
			err = ErrSymbolNotFound
			return
		}
		f, _ = fromCode[F](sym.Addr)
		return
	case ABINative:
		if sym.Addr == 0 {
			err = ErrSymbolNotFound
			return
		}
		return bindNative[F](sym)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedABI, sym.ABI)
		return
	}
}

// As convert the entry address of a Go function into the contract type F.
//
// F must be the exact signature the code was compiled with.
func As[F any](code uintptr) F {
	f, _ := fromCode[F](code)
	return f
}

// fromCode builds a func value around code: a func value points to a word holding the entry address.
func fromCode[F any](code uintptr) (f F, word *uintptr) {
	word = new(uintptr)
	*word = code
	*(*unsafe.Pointer)(unsafe.Pointer(&f)) = unsafe.Pointer(word)
	return
}

func isFunc[F any]() bool {
	return reflect.TypeFor[F]().Kind() == reflect.Func
}
