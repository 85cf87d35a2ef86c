//go:build arm64

package elf

func init() {
	hostMachine = emAArch64
}

const emAArch64 = 183
