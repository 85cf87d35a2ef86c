// Command elfcheck validates a built kernel ELF image against the two
// fixed tables the rest of the core assumes are correct at boot: the
// nine-entry syscall handler table (kernel/syscall) and the vDSO's
// call-stub layout (kernel/vdso). Grounded on gopher-os's
// tools/redirects, which performed the same kind of symbol-table
// cross-check (there, for go:redirect-from asm redirects) by parsing
// the kernel image with debug/elf rather than trusting the linker
// blindly.
package main

import (
	"debug/elf"
	"errors"
	"flag"
	"fmt"
	"os"
)

// syscallHandlers lists the Go symbol every entry in kernel/syscall's
// handler table must resolve to, in function-number order (Exit=1 ..
// FutexWake=9). Kept in lockstep with kernel/syscall/syscall.go's
// init(); a renamed handler with nothing updated here is exactly the
// kind of silent drift this tool exists to catch.
var syscallHandlers = []string{
	"github.com/rainkernel/rainkernel/kernel/syscall.sysExit",
	"github.com/rainkernel/rainkernel/kernel/syscall.sysMmap",
	"github.com/rainkernel/rainkernel/kernel/syscall.sysMunmap",
	"github.com/rainkernel/rainkernel/kernel/syscall.sysThread",
	"github.com/rainkernel/rainkernel/kernel/syscall.sysIpc",
	"github.com/rainkernel/rainkernel/kernel/syscall.sysLog",
	"github.com/rainkernel/rainkernel/kernel/syscall.sysYield",
	"github.com/rainkernel/rainkernel/kernel/syscall.sysFutexWait",
	"github.com/rainkernel/rainkernel/kernel/syscall.sysFutexWake",
}

// vdsoSymbols lists the symbols the vDSO page is built from; their
// presence in the image is what guarantees the page init() actually
// ran rather than being linked out as dead code.
var vdsoSymbols = []string{
	"github.com/rainkernel/rainkernel/kernel/vdso.page",
	"github.com/rainkernel/rainkernel/kernel/vdso.emitStubs",
}

func exit(err error) {
	fmt.Fprintf(os.Stderr, "[elfcheck] error: %s\n", err.Error())
	os.Exit(1)
}

func symbolSet(f *elf.File) (map[string]elf.Symbol, error) {
	syms, err := f.Symbols()
	if err != nil {
		return nil, err
	}
	set := make(map[string]elf.Symbol, len(syms))
	for _, s := range syms {
		set[s.Name] = s
	}
	return set, nil
}

func checkNamesPresent(set map[string]elf.Symbol, names []string) []string {
	var missing []string
	for _, name := range names {
		if _, ok := set[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func checkImage(path string) (int, error) {
	f, err := elf.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	set, err := symbolSet(f)
	if err != nil {
		return 0, err
	}

	var missing []string
	missing = append(missing, checkNamesPresent(set, syscallHandlers)...)
	missing = append(missing, checkNamesPresent(set, vdsoSymbols)...)

	if len(missing) > 0 {
		return 0, fmt.Errorf("%s: missing expected symbols: %v", path, missing)
	}

	return len(syscallHandlers) + len(vdsoSymbols), nil
}

func main() {
	flag.Parse()

	if len(flag.Args()) != 2 {
		exit(errors.New("usage: elfcheck <count|check> <path-to-kernel-elf>"))
	}

	cmd, imgFile := flag.Arg(0), flag.Arg(1)

	n, err := checkImage(imgFile)
	if err != nil {
		exit(err)
	}

	switch cmd {
	case "count":
		fmt.Printf("%d\n", n)
	case "check":
		fmt.Printf("%s: ok, %d symbols resolved\n", imgFile, n)
	default:
		exit(fmt.Errorf("unknown command %q", cmd))
	}
}
