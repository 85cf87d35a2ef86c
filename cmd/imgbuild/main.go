// Command imgbuild builds a handoff-compatible test image from a
// declarative YAML recipe: the memory map, the go/logger boot modules
// and the optional framebuffer the bootloader would otherwise have to
// be cajoled into producing under QEMU. Grounded on tinyrange-cc's
// bundle.Metadata (a YAML-described boot recipe baked into a runnable
// image directory), generalized from an OCI bundle to this core's own
// BootInfo handoff contract.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

func exit(err error) {
	fmt.Fprintf(os.Stderr, "[imgbuild] error: %s\n", err.Error())
	os.Exit(1)
}

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		exit(errors.New("usage: imgbuild <build|mkpipe> ..."))
	}

	switch args[0] {
	case "build":
		cmdBuild(args[1:])
	case "mkpipe":
		cmdMkpipe(args[1:])
	default:
		exit(fmt.Errorf("unknown command %q", args[0]))
	}
}

// cmdBuild reads a recipe and writes the resulting handoff image:
// imgbuild build <recipe.yaml> <out-image>
func cmdBuild(args []string) {
	if len(args) != 2 {
		exit(errors.New("usage: imgbuild build <recipe.yaml> <out-image>"))
	}

	recipe, err := LoadRecipe(args[0])
	if err != nil {
		exit(err)
	}

	img, err := Build(recipe)
	if err != nil {
		exit(err)
	}

	if err := os.WriteFile(args[1], img, 0o644); err != nil {
		exit(err)
	}
}

// cmdMkpipe creates the named pipe a QEMU -serial backend writes the
// kernel's log stream to, so serialmon can attach to it without racing
// QEMU's own creation of the node:
// imgbuild mkpipe <path>
func cmdMkpipe(args []string) {
	if len(args) != 1 {
		exit(errors.New("usage: imgbuild mkpipe <path>"))
	}

	if err := unix.Mkfifo(args[0], 0o600); err != nil && !errors.Is(err, os.ErrExist) {
		exit(err)
	}
}
