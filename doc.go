/*
Package trampoline is a deferred foreign-symbol call layer.

A program declares the functions of an optional dependency as trampolines, builds and ships without
that dependency, and binds every trampoline to a real address at start up or on first use.
When the library or one of its symbols is missing, calls fail with [ErrUnresolvedCall] instead of
refusing to link or jumping to a null address.

# License

Source codes are under Apache License Version 2.0.

# Underwater

 1. A [Table] holds one [Trampoline] per symbol name. Each trampoline owns a slot: an atomic pointer
    to an immutable binding, nil while unresolved.
 2. [Table.ResolveAll] looks up every name in a [Library] and stores the bindings, [Table.Reload]
    does the same against a new library while no [Trampoline.Invoke] is in flight.
 3. Libraries answer a [Symbol] tagged with its [ABI]: native C functions from a [SharedLibrary]
    are bound with purego, Go code addressed by [Symbols] is bound as a func value,
    and [Funcs] stand in with plain Go functions. Go object files are linked by the object
    subpackage, the only part of the module needing a prepared toolchain (see trampgen prepare).

# Notes

 1. Resolution never fails on a missing symbol, read the [Report] to decide whether to go on.
 2. Declared types must match the real signatures, only Go func values are checked.
 3. A callback from native code into a trampoline of the same table may deadlock against a pending Reload.

# Code generation

Typed wrappers for a catalogue of entry points are generated by:

	go install github.com/ZenLiuCN/trampoline/cmd/trampgen@latest

For more details see the cli help:

	trampgen -h
*/
package trampoline
