package engine

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	DefaultName   = "Gast"
	MaxNameLength = 24
)

// ValidateName trims and truncates raw. An empty result is ErrInvalidName.
func ValidateName(raw string) (string, error) {
	name := strings.Join(strings.Fields(raw), " ")
	if name == "" {
		return "", ErrInvalidName
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		name = strings.TrimSpace(string([]rune(name)[:MaxNameLength]))
	}
	return name, nil
}

// NormalizeName is ValidateName with the default name substituted on failure.
func NormalizeName(raw string) string {
	name, err := ValidateName(raw)
	if err != nil {
		return DefaultName
	}
	return name
}

// UniqueName returns name, or the first free "name (n)" for n >= 2.
func UniqueName(name string, taken func(string) bool) string {
	if !taken(name) {
		return name
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s (%d)", name, i)
		if !taken(candidate) {
			return candidate
		}
	}
}
