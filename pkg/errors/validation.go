package errors

import (
	"strings"
	"unicode"
)

// maxPathLength bounds dotted paths accepted from deltas and snapshots.
const maxPathLength = 1024

// ValidatePath validates a dotted graph path such as "dualvco_1.vco_1".
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 1024 characters
//   - No null bytes or control characters
//   - No empty segments (leading, trailing or doubled dots)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	if len(path) > maxPathLength {
		return AtPath(ErrCodeInvalidPath, path, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return AtPath(ErrCodeInvalidPath, path, "path contains invalid characters")
		}
	}

	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			return AtPath(ErrCodeInvalidPath, path, "path %q has an empty segment", path)
		}
	}

	return nil
}

// ValidateName validates a single path segment (a child key).
func ValidateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPath, "name cannot be empty")
	}
	if strings.Contains(name, ".") {
		return New(ErrCodeInvalidPath, "name %q cannot contain '.'", name)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "name contains invalid characters")
		}
	}
	return nil
}
