package unprotect

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Validate checks that input names an existing file with the .xlsx extension.
// It has no side effects.
func Validate(input string) error {
	info, err := os.Stat(input)
	if err != nil || info.IsDir() {
		return fmt.Errorf("%w: '%s'", ErrInputNotFound, input)
	}

	if !strings.EqualFold(filepath.Ext(input), Extension) {
		return ErrInvalidExtension
	}

	return nil
}
