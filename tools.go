//go:build tools

package tools

// Tool dependencies pinned in go.mod.
// Run: go generate ./... (stringer) and mockery (mocks).
import (
	_ "github.com/vektra/mockery/v2"
	_ "golang.org/x/tools/cmd/stringer"
)
