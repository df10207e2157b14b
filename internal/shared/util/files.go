// Package util holds helpers shared by the object stores.
package util

import (
	"encoding/hex"
	"errors"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/zeebo/xxh3"
)

const maxFileNameLen = 180

var errInvalidFileName = errors.New("invalid file name")

// OwnerDir maps an owner ID (user IDs may contain ':' or '@') to a fixed
// width directory name.
func OwnerDir(ownerID string) string {
	sum := xxh3.HashString128(ownerID).Bytes()
	return hex.EncodeToString(sum[:])
}

// SanitizeFileName flattens path separators, drops control characters and
// caps the length while keeping the extension. Traversal patterns are
// rejected outright.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errInvalidFileName
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	if s == "" || s == "." {
		return "", errInvalidFileName
	}
	if utf8.RuneCountInString(s) > maxFileNameLen {
		ext := path.Ext(s)
		if utf8.RuneCountInString(ext) > 16 {
			ext = ""
		}
		runes := []rune(strings.TrimSuffix(s, ext))
		s = string(runes[:maxFileNameLen-utf8.RuneCountInString(ext)]) + ext
	}
	return s, nil
}
