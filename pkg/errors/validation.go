package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxIDLength bounds entity ids; longer ids are almost certainly payload bugs.
const MaxIDLength = 256

// ValidateEntityID validates an entity id used as a reconciliation key.
//
// Ids are opaque, so '/' and ':' are allowed. The rules:
//   - No empty ids
//   - No control characters or null bytes
//   - Maximum length of [MaxIDLength] bytes
func ValidateEntityID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidTree, "entity id cannot be empty")
	}

	if len(id) > MaxIDLength {
		return New(ErrCodeInvalidTree, "entity id too long (max %d characters)", MaxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidTree, "entity id %q contains control characters", id)
		}
	}

	return nil
}

// selectorRegex matches the simple host selectors the chart accepts:
// "#id", ".class" or a bare element name.
var selectorRegex = regexp.MustCompile(`^[#.]?[A-Za-z][A-Za-z0-9_-]*$`)

// ValidateSelector validates a host container selector.
func ValidateSelector(sel string) error {
	if sel == "" {
		return New(ErrCodeInvalidInput, "host selector cannot be empty")
	}
	if !selectorRegex.MatchString(sel) {
		return New(ErrCodeInvalidInput, "invalid host selector: %q", sel)
	}
	return nil
}

// ValidateFormat checks an output format against the supported set.
func ValidateFormat(format string, valid map[string]bool) error {
	if !valid[format] {
		return New(ErrCodeInvalidFormat, "unsupported format: %q", format)
	}
	return nil
}

// ValidatePath validates a relative output path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}
