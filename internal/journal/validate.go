package journal

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxTextLength is the maximum number of Unicode scalar values in a memory.
const MaxTextLength = 100

// ValidateText checks that text is a single short line.
func ValidateText(text string) error {
	if text == "" {
		return fmt.Errorf("text is empty: %w", ErrValidation)
	}
	if n := utf8.RuneCountInString(text); n > MaxTextLength {
		return fmt.Errorf("too long (%d > %d); split into multiple crumbs: %w", n, MaxTextLength, ErrValidation)
	}
	if strings.ContainsAny(text, "\r\n") {
		return fmt.Errorf("newlines are not allowed: %w", ErrValidation)
	}
	return nil
}

// ValidateWindow checks a handoff window or display limit.
func ValidateWindow(name string, n int) error {
	if n < 1 {
		return fmt.Errorf("%s must be >= 1: %w", name, ErrValidation)
	}
	return nil
}
