package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidNumber is returned when a count cannot be normalized to an integer.
var ErrInvalidNumber = errors.New("invalid number")

// ErrInvalidDate is returned when a datetime attribute cannot be parsed.
var ErrInvalidDate = errors.New("invalid date")

// NormalizeNumber trims surrounding whitespace and removes thousands
// separators. The result is guaranteed to be a valid integer literal.
func NormalizeNumber(text string) (string, error) {
	s := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if _, err := strconv.ParseInt(s, 10, 64); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidNumber, text)
	}
	return s, nil
}

// ParseCount normalizes text and parses it as a non-negative count.
func ParseCount(text string) (int64, error) {
	s, err := NormalizeNumber(text)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, text)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: negative count %q", ErrInvalidNumber, text)
	}
	return n, nil
}

// LeadingToken returns the first whitespace-delimited token of text, e.g.
// "7,000" from "7,000 users starred this repository".
func LeadingToken(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// TrailingToken returns the last whitespace-delimited token of text.
func TrailingToken(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

var gitDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
}

// ParseGitDate parses the machine-readable datetime the host renders on
// <relative-time> elements into an exact instant.
func ParseGitDate(text string) (time.Time, error) {
	s := strings.TrimSpace(text)
	for _, layout := range gitDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, text)
}
