package errors

import (
	"os"
	"strings"
	"unicode"
)

// ValidateDirectory checks that path names an existing directory.
//
// Validation rules:
//   - Path cannot be empty
//   - No null bytes or control characters
//   - Path must exist and be a directory
func ValidateDirectory(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "directory cannot be empty")
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return Wrap(ErrCodeInvalidPath, err, "stat %s", path)
	}
	if !info.IsDir() {
		return New(ErrCodeInvalidPath, "%s is not a directory", path)
	}
	return nil
}

// ValidateScopeEntry validates an include or ignore scope entry.
// Entries are relative patterns and must not escape the reference directory.
func ValidateScopeEntry(entry string) error {
	if strings.TrimSpace(entry) == "" {
		return New(ErrCodeInvalidInput, "scope entry cannot be empty")
	}
	if strings.ContainsRune(entry, '\x00') {
		return New(ErrCodeInvalidInput, "scope entry contains a null byte")
	}
	for _, part := range strings.Split(strings.ReplaceAll(entry, "\\", "/"), "/") {
		if part == ".." {
			return New(ErrCodeInvalidInput, "scope entry %q escapes the reference directory", entry)
		}
	}
	return nil
}

// ValidateOneOf returns an error with the given code unless value is one of allowed.
// Comparison is case-sensitive.
func ValidateOneOf(code Code, field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return New(code, "invalid %s %q (must be one of: %s)", field, value, strings.Join(allowed, ", "))
}

// ValidatePositive returns an INVALID_INPUT error unless n > 0.
func ValidatePositive(field string, n int) error {
	if n <= 0 {
		return New(ErrCodeInvalidInput, "%s must be positive, got %d", field, n)
	}
	return nil
}
