//go:build tools

// This file pins the module's dev-tool dependencies so `go mod tidy`
// doesn't drop them: golint lints the tree and stringer is available
// to regenerate String() methods for the small uint8/uint32 enums
// (RegionType, PageTableEntryFlag, State and friends) should one grow
// past the point a hand-written switch is worth maintaining. Neither
// tool is imported by any real package.
package tools

import (
	_ "golang.org/x/lint/golint"
	_ "golang.org/x/tools/cmd/stringer"
)
