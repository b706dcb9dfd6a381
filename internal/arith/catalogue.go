// Package arith binds libarith, a small native arithmetic library, through trampolines.
//
// The package builds without the library. Open binds the trampolines to whatever libarith is found,
// UseFallback binds them to the pure Go implementations instead.
package arith

//go:generate go run github.com/ZenLiuCN/trampoline/cmd/trampgen generate catalogue.go

type catalogue struct {
	Add func(a, b int32) int32 `symbol:"add"`
	Mul func(a, b int32) int32 `symbol:"mul"`
	Div func(a, b int32) int32 `symbol:"div"`
}
