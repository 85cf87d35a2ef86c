//go:build amd64

package elf

func init() {
	hostMachine = emX8664
}

const emX8664 = 62
