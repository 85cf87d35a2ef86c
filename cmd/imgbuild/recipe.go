package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Recipe describes a synthetic handoff image to build: the memory map
// a test wants the bootloader to have reported, the two boot modules,
// and the optional framebuffer/ACPI fields. Grounded on tinyrange-cc's
// YAML-driven bundle metadata (internal/bundle.Metadata), generalized
// from an OCI-bundle boot recipe to a BootInfo handoff recipe.
type Recipe struct {
	Version int        `yaml:"version"`
	CmdLine string     `yaml:"cmdLine,omitempty"`
	Memory  []Region   `yaml:"memory"`
	Go      ModulePath `yaml:"go"`
	Logger  ModulePath `yaml:"logger,omitempty"`

	Framebuffer *FramebufferSpec `yaml:"framebuffer,omitempty"`
	AcpiRSDP    uint64           `yaml:"acpiRsdp,omitempty"`
}

// Region is one memory-map entry, expressed by name rather than the
// wire ordinal so a recipe stays readable.
type Region struct {
	Type  string `yaml:"type"`
	Start uint64 `yaml:"start"`
	Size  uint64 `yaml:"size"`
	Flags uint32 `yaml:"flags,omitempty"`
}

// ModulePath names a file on the host whose bytes become one boot
// module's contents; imgbuild places it in the synthetic physical
// layout and records its resulting (base, size) in the encoded image.
type ModulePath struct {
	Path string `yaml:"path"`
}

// FramebufferSpec mirrors hal.Framebuffer, minus the physical buffer
// address, which imgbuild assigns when laying the image out.
type FramebufferSpec struct {
	Width       int32  `yaml:"width"`
	Height      int32  `yaml:"height"`
	PitchBytes  int32  `yaml:"pitchBytes"`
	PixelFormat string `yaml:"pixelFormat"`
}

func (r *Recipe) normalize() {
	if r.Version == 0 {
		r.Version = 1
	}
}

// LoadRecipe reads and parses a recipe file.
func LoadRecipe(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var r Recipe
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.normalize()

	if len(r.Memory) == 0 {
		return nil, fmt.Errorf("%s: recipe declares no memory regions", path)
	}
	if r.Go.Path == "" {
		return nil, fmt.Errorf("%s: recipe declares no go module", path)
	}

	return &r, nil
}

var regionTypeByName = map[string]uint32{
	"available":        0,
	"persistent":       1,
	"unusable":         2,
	"bootloader":       3,
	"kernel":           4,
	"acpi-reclaimable": 5,
	"acpi-nvs":         6,
	"firmware":         7,
	"reserved":         8,
}

func regionTypeOrdinal(name string) (uint32, error) {
	ord, ok := regionTypeByName[name]
	if !ok {
		return 0, fmt.Errorf("unknown memory region type %q", name)
	}
	return ord, nil
}

var pixelFormatByName = map[string]int32{
	"":         0,
	"unknown":  0,
	"x8r8g8b8": 1,
	"x8b8g8r8": 2,
	"r8g8b8":   3,
}

func pixelFormatOrdinal(name string) (int32, error) {
	ord, ok := pixelFormatByName[name]
	if !ok {
		return 0, fmt.Errorf("unknown pixel format %q", name)
	}
	return ord, nil
}
