// Package validate checks upload candidates before they are accepted.
package validate

import (
	"strings"

	"github.com/Angad-2002/Darwix-AI/internal/domain"
)

// MaxFileSizeBytes is the largest accepted upload (10 MiB).
const MaxFileSizeBytes int64 = 10 * 1024 * 1024

// AllowedExtensions lists accepted audio extensions without the dot.
var AllowedExtensions = []string{"mp3", "wav", "m4a", "ogg"}

// Validate applies size then format rules; the first failure wins.
func Validate(candidate domain.UploadCandidate) (domain.UploadCandidate, error) {
	if candidate.SizeBytes > MaxFileSizeBytes {
		return domain.UploadCandidate{}, domain.ErrFileTooLarge
	}
	if !IsAllowedExtension(ExtensionOf(candidate.Name)) {
		return domain.UploadCandidate{}, domain.ErrUnsupportedFormat
	}
	return candidate, nil
}

// ExtensionOf returns the lower-cased text after the last dot, or "".
func ExtensionOf(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 || idx == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}

// IsAllowedExtension reports whether ext (no dot, any case) is accepted.
func IsAllowedExtension(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// DialogPattern builds a file-dialog filter pattern like "*.mp3;*.wav".
func DialogPattern() string {
	patterns := make([]string, 0, len(AllowedExtensions))
	for _, ext := range AllowedExtensions {
		patterns = append(patterns, "*."+ext)
	}
	return strings.Join(patterns, ";")
}
