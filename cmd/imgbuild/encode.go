package main

import (
	"os"
	"unsafe"

	"github.com/rainkernel/rainkernel/kernel/hal"
)

// pageSize mirrors kernel/mem.PageSize. It is redeclared here rather
// than imported, since this encoder is deliberately boot-side: per the
// "bootloader and kernel share a contract, not code" split, it depends
// on kernel/hal's wire types but never reaches into the kernel tree
// itself.
const pageSize = 4096

// image is the flat byte buffer imgbuild assembles: a BootInfo header,
// then its memory descriptor array, then each module's raw bytes, each
// of these starting on its own page boundary. The whole buffer
// stands in for "physical memory starting at address 0" for a test
// harness: every physical address the encoded BootInfo carries is
// simply this buffer's byte offset.
type image struct {
	buf []byte
}

func (img *image) place(data []byte) uint64 {
	for len(img.buf)%pageSize != 0 {
		img.buf = append(img.buf, 0)
	}
	base := uint64(len(img.buf))
	img.buf = append(img.buf, data...)
	return base
}

// Build assembles r into a single bit-exact handoff image, per §6's
// BootInfo layout.
func Build(r *Recipe) ([]byte, error) {
	goBytes, err := os.ReadFile(r.Go.Path)
	if err != nil {
		return nil, err
	}
	var loggerBytes []byte
	if r.Logger.Path != "" {
		loggerBytes, err = os.ReadFile(r.Logger.Path)
		if err != nil {
			return nil, err
		}
	}

	descs := make([]hal.MemoryDescriptor, len(r.Memory))
	for i, m := range r.Memory {
		typ, err := regionTypeOrdinal(m.Type)
		if err != nil {
			return nil, err
		}
		descs[i] = hal.MemoryDescriptor{
			Type:      typ,
			Flags:     m.Flags,
			Address:   m.Start,
			SizeBytes: m.Size,
		}
	}

	var info hal.BootInfo
	info.Version = hal.CurrentVersion
	info.DescriptorCount = uint32(len(descs))
	info.AcpiRSDP = r.AcpiRSDP

	if r.Framebuffer != nil {
		format, err := pixelFormatOrdinal(r.Framebuffer.PixelFormat)
		if err != nil {
			return nil, err
		}
		info.FramebufferCount = 1
		info.Framebuffers[0] = hal.Framebuffer{
			Width:       r.Framebuffer.Width,
			Height:      r.Framebuffer.Height,
			PitchBytes:  r.Framebuffer.PitchBytes,
			PixelFormat: hal.PixelFormat(format),
		}
	}

	img := &image{buf: make([]byte, unsafe.Sizeof(info))}

	descBytes := make([]byte, int(unsafe.Sizeof(hal.MemoryDescriptor{}))*len(descs))
	for i, d := range descs {
		*(*hal.MemoryDescriptor)(unsafe.Pointer(&descBytes[i*int(unsafe.Sizeof(d))])) = d
	}
	info.DescriptorsAddr = img.place(descBytes)

	info.Go = hal.Module{PhysicalBase: img.place(goBytes), SizeBytes: uint64(len(goBytes))}
	if loggerBytes != nil {
		info.Logger = hal.Module{PhysicalBase: img.place(loggerBytes), SizeBytes: uint64(len(loggerBytes))}
	}

	if r.Framebuffer != nil {
		fbBytes := make([]byte, uint64(r.Framebuffer.Width)*uint64(r.Framebuffer.Height)*4)
		info.Framebuffers[0].PixelBufferPhysical = img.place(fbBytes)
	}

	*(*hal.BootInfo)(unsafe.Pointer(&img.buf[0])) = info
	return img.buf, nil
}
