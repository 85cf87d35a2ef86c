// Command serialmon bridges a local terminal to the kernel's serial
// log stream when the kernel is run under QEMU with `-serial
// unix:path` or `-serial pipe:path`: it puts the local terminal into
// raw mode, copies bytes from the serial connection to stdout, and
// forwards keystrokes back (so a logger module or bootstrap task
// listening on the other end can be driven interactively). Grounded on
// smoynes-elsie's internal/tty.Console, generalized from driving an
// in-process emulated machine to bridging an external QEMU process's
// serial backend.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"golang.org/x/term"
)

func exit(err error) {
	fmt.Fprintf(os.Stderr, "[serialmon] error: %s\n", err.Error())
	os.Exit(1)
}

// dial opens the serial backend named by addr: a `unix:` prefix dials
// a Unix domain socket (QEMU's `-serial unix:path,server=off`), a
// bare path is treated as a named pipe/character device opened
// directly (QEMU's `-serial pipe:path` or a real tty).
func dial(addr string) (io.ReadWriteCloser, error) {
	if path, ok := strings.CutPrefix(addr, "unix:"); ok {
		return net.Dial("unix", path)
	}
	return os.OpenFile(addr, os.O_RDWR, 0)
}

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) != 1 {
		exit(errors.New("usage: serialmon <unix:path|path>"))
	}

	conn, err := dial(args[0])
	if err != nil {
		exit(err)
	}
	defer conn.Close()

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		exit(errors.New("stdin is not a terminal"))
	}

	prev, err := term.MakeRaw(fd)
	if err != nil {
		exit(err)
	}
	defer term.Restore(fd, prev)

	done := make(chan error, 2)
	go func() {
		_, err := io.Copy(os.Stdout, conn)
		done <- err
	}()
	go func() {
		_, err := io.Copy(conn, os.Stdin)
		done <- err
	}()

	<-done
}
