package util

import (
	"errors"
	"strings"
	"unicode"
)

const maxFileNameLen = 200

var errInvalidFileName = errors.New("invalid file name")

// SanitizeFileName makes an uploaded file name safe to use as a storage key
// segment. Traversal patterns are rejected; separators and control characters
// become underscores. Long names keep their extension.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errInvalidFileName
	}
	s := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsControl(r):
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	s = strings.Trim(s, "_ ")
	if s == "" {
		return "", errInvalidFileName
	}
	if len(s) > maxFileNameLen {
		ext := ""
		if i := strings.LastIndex(s, "."); i > 0 && len(s)-i <= 10 {
			ext = s[i:]
		}
		s = strings.ToValidUTF8(s[:maxFileNameLen-len(ext)], "") + ext
	}
	return s, nil
}
