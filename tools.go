package trampoline

import (
	"debug/elf"
	"fmt"
	"slices"

	"github.com/ZenLiuCN/fn"
)

// Inspect lists the function symbols an ELF shared object exports without loading it.
//
// Go object files and archives are inspected by the object package.
func Inspect(file string) (v []string, err error) {
	f, err := elf.Open(file)
	if err != nil {
		return
	}
	defer fn.IgnoreClose(f)()
	syms, err := f.DynamicSymbols()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	for _, s := range syms {
		if elf.ST_TYPE(s.Info) != elf.STT_FUNC || s.Section == elf.SHN_UNDEF {
			continue
		}
		if b := elf.ST_BIND(s.Info); b != elf.STB_GLOBAL && b != elf.STB_WEAK {
			continue
		}
		v = append(v, s.Name)
	}
	slices.Sort(v)
	return slices.Compact(v), nil
}

// Missing returns the names absent from exported, exported must be sorted.
func Missing(names, exported []string) (v []string) {
	for _, name := range names {
		if _, ok := slices.BinarySearch(exported, name); !ok {
			v = append(v, name)
		}
	}
	return
}
