package mxnet

//go:generate go run github.com/ZenLiuCN/trampoline/cmd/trampgen generate catalogue.go

// catalogue is the part of the MXNet C API this package binds. Every entry returns 0 on success,
// otherwise MXGetLastError describes the failure.
type catalogue struct {
	MXGetVersion        func(out *int32) int32
	MXGetLastError      func() string
	MXGetGPUCount       func(out *int32) int32
	MXNotifyShutdown    func() int32
	MXRandomSeed        func(seed int32) int32
	MXRandomSeedContext func(seed, devType, devID int32) int32
	MXNDArrayFree       func(handle uintptr) int32
	MXSymbolFree        func(handle uintptr) int32
	MXExecutorFree      func(handle uintptr) int32
}
