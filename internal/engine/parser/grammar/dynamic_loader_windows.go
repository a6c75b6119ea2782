//go:build windows

package grammar

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// LoadDynamic is unavailable on Windows; the built-in parser is used instead.
func LoadDynamic(path, langName string) (*sitter.Language, error) {
	return nil, fmt.Errorf("dynamic grammar loading is not supported on Windows")
}
