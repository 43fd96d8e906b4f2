package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateImageRef validates the reference of an image directive.
// A reference is either an http(s) URL or a local path; both are rejected
// when they contain control characters or exceed 2048 bytes.
func ValidateImageRef(ref string) error {
	if ref == "" {
		return New(ErrCodeInvalidImage, "image reference cannot be empty")
	}

	const maxRefLength = 2048
	if len(ref) > maxRefLength {
		return New(ErrCodeInvalidImage, "image reference too long (max %d characters)", maxRefLength)
	}

	for _, r := range ref {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidImage, "image reference contains invalid control characters")
		}
	}

	return nil
}

// IsURL reports whether ref names a remote image.
func IsURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !IsURL(rawURL) {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// ValidatePath validates a local image path relative to a base directory.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..) unless allowParent is set
func ValidatePath(path string, allowParent bool) error {
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

	if !allowParent && strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	return nil
}

// ValidatePrefix validates a style prefix from a config file.
// Prefixes are matched against trimmed lines, so they cannot be empty or
// start with whitespace.
func ValidatePrefix(prefix string) error {
	if prefix == "" {
		return New(ErrCodeInvalidStyle, "style prefix cannot be empty")
	}
	if len(prefix) > 32 {
		return New(ErrCodeInvalidStyle, "style prefix too long (max 32 characters): %q", prefix)
	}
	r := []rune(prefix)[0]
	if unicode.IsSpace(r) {
		return New(ErrCodeInvalidStyle, "style prefix cannot start with whitespace: %q", prefix)
	}
	return nil
}

// outputNameRegex matches safe base names for persisted images.
var outputNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateOutputName validates the base name used when persisting a render.
// It must be a plain file name without separators.
func ValidateOutputName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "output name cannot be empty")
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "output name too long (max 128 characters)")
	}
	if !outputNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid output name: %q", name)
	}
	return nil
}
